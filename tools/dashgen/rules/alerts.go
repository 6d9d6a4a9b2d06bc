package rules

// AlertRules returns the operational alerts for effluent-watch. Service
// health alerts and plant alerts live in separate groups so they can be
// routed independently.
func AlertRules() PrometheusRule {
	return newPrometheusRule("ew-alerts",
		RuleGroup{
			Name: "ew-service",
			Rules: []Rule{
				alert("EwDown", `absent(up{job="effluent-watch"})`, "2m", SeverityCritical,
					"Effluent Watch is down",
					"The effluent-watch job has been absent for more than 2 minutes."),
				alert("EwReadinessDown", `ew_readyz_up == 0`, "2m", SeverityCritical,
					"Effluent Watch readiness check is failing",
					"No status report has been evaluated or the threshold store is unreachable."),
				alert("EwHighErrorRate", `ew:http_errors:rate5m / ew:http_requests:rate5m > 0.05`, "5m", SeverityWarning,
					"High HTTP error rate on Effluent Watch",
					"More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes."),
				alert("EwNotificationFailures", `increase(ew_notification_failures_total[5m]) > 0`, "1m", SeverityWarning,
					"Notification delivery failures detected",
					"One or more alert notifications (Discord webhook or Kafka) have failed to send."),
				alert("EwThresholdPersistFailures", `increase(ew_threshold_persist_failures_total[15m]) > 0`, "0m", SeverityWarning,
					"Threshold change was applied but not saved",
					"A threshold update could not be persisted and will be lost on restart."),
			},
		},
		RuleGroup{
			Name: "ew-plant",
			Rules: []Rule{
				alert("EwStaleStatus", `time() - ew_last_cycle_timestamp > 120`, "2m", SeverityCritical,
					"Plant status is stale",
					"No evaluation cycle has completed in the last 2 minutes; operators are looking at old readings."),
				alert("EwFetchErrors", `ew:fetch_errors:rate5m > 0`, "5m", SeverityWarning,
					"Plant snapshot fetches are failing",
					"Snapshot fetches from the plant data API have been failing for more than 5 minutes."),
				alert("EwUpstreamErrorRate", `ew:upstream_errors:rate5m / ew:upstream_requests:rate5m > 0.2`, "5m", SeverityWarning,
					"Plant API error rate is elevated",
					"More than 20% of plant API requests failed over the last 5 minutes."),
				alert("EwEffluentAbnormal", `ew_abnormal{category="effluent"} > 0`, "10m", SeverityCritical,
					"Effluent parameter above its limit",
					"At least one effluent parameter has been above its upper bound for 10 minutes."),
			},
		},
	)
}
