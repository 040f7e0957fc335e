package domain

import (
	"fmt"
	"strings"
	"time"
)

// RejectReason names the filter that turned an activity away.
type RejectReason string

const (
	RejectNotTargetType   RejectReason = "not_target_type"
	RejectWeekend         RejectReason = "weekend"
	RejectNoLocation      RejectReason = "no_location"
	RejectOutsideGeofence RejectReason = "outside_geofence"
)

// Geofence is a closed latitude/longitude box.
type Geofence struct {
	LatMin, LatMax float64
	LngMin, LngMax float64
}

// Contains reports whether the point lies inside the box, edges included.
func (g Geofence) Contains(lat, lng float64) bool {
	return lat >= g.LatMin && lat <= g.LatMax && lng >= g.LngMin && lng <= g.LngMax
}

// Rules is the fixed matching rule set and the update applied on a match.
type Rules struct {
	TargetType string
	Fence      Geofence
	Update     ActivityUpdate
}

// DefaultRules matches weekday walks on the recurring route and hides them.
var DefaultRules = Rules{
	TargetType: "walk",
	Fence: Geofence{
		LatMin: 40.0, LatMax: 41.0,
		LngMin: -74.0, LngMax: -73.0,
	},
	Update: ActivityUpdate{Name: "Rusty", Private: true},
}

// Decision is the outcome of the filter chain.
type Decision struct {
	Accept bool
	Reason RejectReason
}

func reject(reason RejectReason) Decision {
	return Decision{Reason: reason}
}

// Evaluate runs the type, calendar and geofence filters in order.
// An unparseable start timestamp is returned as ErrMalformedActivity rather than a rejection.
func Evaluate(activity Activity, rules Rules) (Decision, error) {
	if !strings.EqualFold(activity.Type, rules.TargetType) {
		return reject(RejectNotTargetType), nil
	}

	started, err := time.Parse(time.RFC3339, activity.StartDateLocal)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: start_date_local %q: %v", ErrMalformedActivity, activity.StartDateLocal, err)
	}
	switch started.Weekday() {
	case time.Saturday, time.Sunday:
		return reject(RejectWeekend), nil
	}

	lat, lng, ok := activity.Coordinates()
	if !ok {
		return reject(RejectNoLocation), nil
	}
	if !rules.Fence.Contains(lat, lng) {
		return reject(RejectOutsideGeofence), nil
	}

	return Decision{Accept: true}, nil
}
