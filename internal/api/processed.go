package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/stravahook/internal/auth"
	"example.com/stravahook/internal/domain"
	"example.com/stravahook/internal/persistence"
)

// ProcessedActivityView describes one dedup row.
type ProcessedActivityView struct {
	ActivityID  int64     `json:"activity_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

// ListProcessedResponse packages list results.
type ListProcessedResponse struct {
	Items      []ProcessedActivityView `json:"items"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

func (h *Handler) processedActivities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !authorizeRead(w, r) {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	rows, next, err := h.ledger.List(r.Context(), cursor, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list processed activities", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "unable to list processed activities")
		return
	}

	items := make([]ProcessedActivityView, 0, len(rows))
	for _, row := range rows {
		items = append(items, toProcessedView(row))
	}
	writeJSON(w, http.StatusOK, ListProcessedResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) processedActivityByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !authorizeRead(w, r) {
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/v1/processed-activities/")
	activityID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || activityID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "activity id must be a positive integer")
		return
	}

	row, err := h.ledger.Get(r.Context(), activityID)
	if err != nil {
		if errors.Is(err, domain.ErrProcessedNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "activity not processed")
			return
		}
		h.logger.ErrorContext(r.Context(), "get processed activity", "activity_id", activityID, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "unable to load processed activity")
		return
	}
	writeJSON(w, http.StatusOK, toProcessedView(*row))
}

func authorizeRead(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	if !claims.HasScope(auth.ScopeActivitiesRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope activities:read required")
		return false
	}
	return true
}

func toProcessedView(row domain.ProcessedActivity) ProcessedActivityView {
	return ProcessedActivityView{
		ActivityID:  row.ActivityID,
		ProcessedAt: row.ProcessedAt.UTC(),
	}
}
