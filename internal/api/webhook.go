package api

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"example.com/stravahook/internal/domain"
	"example.com/stravahook/internal/observability"
)

// maxEventBytes caps the webhook body; real events are a few hundred bytes.
const maxEventBytes = 1 << 20

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.verifySubscription(w, r)
	case http.MethodPost:
		h.receiveEvent(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// verifySubscription echoes hub.challenge verbatim, whatever else the query carries.
func (h *Handler) verifySubscription(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	challenge := query.Get("hub.challenge")
	if challenge == "" {
		writeText(w, http.StatusOK, "OK")
		return
	}

	if h.verifyToken != "" {
		given := query.Get("hub.verify_token")
		if subtle.ConstantTimeCompare([]byte(given), []byte(h.verifyToken)) != 1 {
			h.logger.WarnContext(r.Context(), "subscription handshake carried an unexpected verify token",
				"mode", query.Get("hub.mode"),
			)
		}
	}
	writeText(w, http.StatusOK, challenge)
}

// receiveEvent always acknowledges with 200 so the sender never retries;
// processing happens after the response.
func (h *Handler) receiveEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.Event
	err := json.NewDecoder(io.LimitReader(r.Body, maxEventBytes)).Decode(&event)
	if err == nil {
		err = event.Validate()
	}
	if err != nil {
		observability.RecordWebhookDecodeError()
		h.logger.WarnContext(r.Context(), "undecodable webhook body", "err", err)
		writeText(w, http.StatusOK, "OK")
		return
	}

	dispatched := false
	if event.ObjectType == domain.ObjectTypeActivity {
		jobID := h.submitter.Submit(event.ObjectID)
		dispatched = true
		h.logger.InfoContext(r.Context(), "activity event dispatched",
			"job_id", jobID,
			"activity_id", event.ObjectID,
			"aspect_type", event.AspectType,
			"owner_id", event.OwnerID,
		)
	} else {
		h.logger.DebugContext(r.Context(), "webhook event ignored",
			"object_type", event.ObjectType,
			"aspect_type", event.AspectType,
			"object_id", event.ObjectID,
		)
	}
	observability.RecordWebhookEvent(event.ObjectType, dispatched)
	writeText(w, http.StatusOK, "OK")
}
