package main

import "errors"

// KnownMetrics is the set of metric names exported by effluent-watch plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"ew_http_request_duration_seconds_bucket": true,
	"ew_http_requests_total":                  true,

	// Health metrics.
	"ew_healthz_up": true,
	"ew_readyz_up":  true,

	// Monitor cycle metrics.
	"ew_cycle_duration_seconds_bucket":        true,
	"ew_cycles_total":                         true,
	"ew_fetch_errors_total":                   true,
	"ew_malformed_readings_total":             true,
	"ew_last_cycle_timestamp":                 true,
	"ew_scheduler_next_poll_timestamp":        true,
	"ew_abnormal":                             true,
	"ew_alerts_raised_total":                  true,
	"ew_alert_feed_length":                    true,
	"ew_alert_history_failures_total":         true,
	"ew_notification_failures_total":          true,
	"ew_notification_duration_seconds_bucket": true,

	// Threshold metrics.
	"ew_threshold_updates_total":          true,
	"ew_threshold_persist_failures_total": true,

	// Live stream metrics.
	"ew_stream_clients":       true,
	"ew_stream_dropped_total": true,

	// Plant API metrics.
	"ew_upstream_requests_total":                  true,
	"ew_upstream_request_duration_seconds_bucket": true,

	// Recording rules.
	"ew:http_requests:rate5m":     true,
	"ew:http_errors:rate5m":       true,
	"ew:cycles:rate5m":            true,
	"ew:fetch_errors:rate5m":      true,
	"ew:alerts_raised:rate5m":     true,
	"ew:upstream_errors:rate5m":   true,
	"ew:upstream_requests:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
