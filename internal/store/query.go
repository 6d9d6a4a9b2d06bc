package store

import (
	"fmt"
	"strings"
	"time"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

const baseAlertsSelect = `SELECT id, raised_at, severity, category,
	COALESCE(zone, ''), COALESCE(stage, ''), COALESCE(sensor, ''), COALESCE(parameter, ''),
	message
FROM alert_history`

// AlertQuery defines optional filters for alert history queries. Results are
// always newest first.
type AlertQuery struct {
	Category *domain.Category
	Since    *time.Time
	Limit    int // default 50
}

// EffectiveLimit returns the clamped row limit.
func (q *AlertQuery) EffectiveLimit() int {
	if q == nil || q.Limit <= 0 {
		return defaultLimit
	}
	return min(q.Limit, maxLimit)
}

// Match reports whether a record passes the query's filters.
func (q *AlertQuery) Match(a *domain.AlertRecord) bool {
	if q == nil {
		return true
	}
	if q.Category != nil && a.Category != *q.Category {
		return false
	}
	if q.Since != nil && a.Timestamp.Before(*q.Since) {
		return false
	}
	return true
}

// ToSQL builds the data query and its positional parameters.
func (q *AlertQuery) ToSQL() (string, []any) {
	var (
		conditions []string
		args       []any
	)
	paramIdx := 1

	if q != nil && q.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", paramIdx))
		args = append(args, string(*q.Category))
		paramIdx++
	}

	if q != nil && q.Since != nil {
		conditions = append(conditions, fmt.Sprintf("raised_at >= $%d", paramIdx))
		args = append(args, *q.Since)
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Alerts from one cycle share raised_at and keep their insertion order.
	return fmt.Sprintf(
		"%s%s ORDER BY raised_at DESC, seq ASC LIMIT %d",
		baseAlertsSelect, whereClause, q.EffectiveLimit(),
	), args
}
