package store

// SQL query constants organized by entity.
// All SQL lives here; PostgresStore methods reference these constants.

// Threshold queries.
const (
	querySelectThresholds = `
		SELECT category, scope, name, upper_bound, lower_bound, updated_at, updated_by
		FROM thresholds
		ORDER BY category, scope, name`

	queryDeleteThresholds = `DELETE FROM thresholds`

	queryInsertThreshold = `
		INSERT INTO thresholds (
			category, scope, name, upper_bound, lower_bound, updated_at, updated_by
		) VALUES (
			@category, @scope, @name, @upper_bound, @lower_bound, @updated_at, @updated_by
		)`
)

// Alert history queries.
const (
	queryInsertAlert = `
		INSERT INTO alert_history (
			id, raised_at, severity, category, alert_key,
			zone, stage, sensor, parameter, message
		) VALUES (
			@id, @raised_at, @severity, @category, @alert_key,
			NULLIF(@zone, ''), NULLIF(@stage, ''), NULLIF(@sensor, ''), NULLIF(@parameter, ''),
			@message
		)
		ON CONFLICT (id) DO NOTHING`
)
