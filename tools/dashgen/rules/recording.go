package rules

// recordingInterval matches the default poll interval so every cycle lands in
// at least one evaluation.
const recordingInterval = "30s"

// RecordingRules returns the pre-computed rates used by the dashboard and
// the alert rules.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("ew-recording-rules",
		RuleGroup{
			Name:     "ew-recording-http",
			Interval: recordingInterval,
			Rules: []Rule{
				record("ew:http_requests:rate5m", `sum(rate(ew_http_requests_total[5m]))`),
				record("ew:http_errors:rate5m", `sum(rate(ew_http_requests_total{status=~"5.."}[5m]))`),
			},
		},
		RuleGroup{
			Name:     "ew-recording-monitor",
			Interval: recordingInterval,
			Rules: []Rule{
				record("ew:cycles:rate5m", `sum by (trigger) (rate(ew_cycles_total[5m]))`),
				record("ew:fetch_errors:rate5m", `rate(ew_fetch_errors_total[5m])`),
				record("ew:alerts_raised:rate5m", `sum by (category) (rate(ew_alerts_raised_total[5m]))`),
			},
		},
		RuleGroup{
			Name:     "ew-recording-upstream",
			Interval: recordingInterval,
			Rules: []Rule{
				record("ew:upstream_requests:rate5m", `sum(rate(ew_upstream_requests_total[5m]))`),
				record("ew:upstream_errors:rate5m", `sum(rate(ew_upstream_requests_total{outcome="error"}[5m]))`),
			},
		},
	)
}
