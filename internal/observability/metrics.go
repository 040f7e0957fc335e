package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	webhookEventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stravahook",
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "Webhook events acknowledged, labeled by object type and whether processing was dispatched.",
	}, []string{"object_type", "dispatched"})

	webhookDecodeErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stravahook",
		Subsystem: "webhook",
		Name:      "decode_errors_total",
		Help:      "Webhook bodies that could not be decoded as an event.",
	})

	processingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stravahook",
		Subsystem: "processor",
		Name:      "duration_seconds",
		Help:      "Time spent processing one activity, labeled by outcome.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"outcome"})

	inFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "stravahook",
		Subsystem: "processor",
		Name:      "jobs_in_flight",
		Help:      "Activity processing jobs currently running.",
	})

	lastProcessedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "stravahook",
		Subsystem: "processor",
		Name:      "last_activity_processed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity recorded in the dedup store.",
	})

	upstreamResponseCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stravahook",
		Subsystem: "upstream",
		Name:      "responses_total",
		Help:      "Responses from the activity API, labeled by method and status code.",
	}, []string{"method", "code"})

	publishErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stravahook",
		Subsystem: "publisher",
		Name:      "errors_total",
		Help:      "Notifications that failed to publish, labeled by topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(
		webhookEventsCounter,
		webhookDecodeErrorCounter,
		processingDuration,
		inFlightGauge,
		lastProcessedGauge,
		upstreamResponseCounter,
		publishErrorCounter,
	)
}

// RecordWebhookEvent counts an acknowledged webhook event.
func RecordWebhookEvent(objectType string, dispatched bool) {
	if objectType == "" {
		objectType = "unknown"
	}
	webhookEventsCounter.WithLabelValues(objectType, strconv.FormatBool(dispatched)).Inc()
}

// RecordWebhookDecodeError counts an undecodable webhook body.
func RecordWebhookDecodeError() {
	webhookDecodeErrorCounter.Inc()
}

// ObserveProcessing records the duration of one processing attempt.
func ObserveProcessing(outcome string, d time.Duration) {
	processingDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// IncInFlight marks a processing job as started.
func IncInFlight() { inFlightGauge.Inc() }

// DecInFlight marks a processing job as finished.
func DecInFlight() { inFlightGauge.Dec() }

// RecordActivityProcessed updates the processed watermark gauge.
func RecordActivityProcessed(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastProcessedGauge.Set(float64(ts.Unix()))
}

// RecordUpstreamResponse counts a response from the activity API.
func RecordUpstreamResponse(method string, status int) {
	upstreamResponseCounter.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// RecordPublishError counts a failed notification.
func RecordPublishError(topic string) {
	publishErrorCounter.WithLabelValues(topic).Inc()
}
