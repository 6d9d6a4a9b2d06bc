package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements ThresholdRepository and AlertLog using pgxpool.
// Its methods need a live Postgres and are covered by the integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if !strings.Contains(connString, "pool_max_conns") {
		cfg.MaxConns = defaultPoolSize
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations and returns the versions it
// applied.
func (s *PostgresStore) Migrate(ctx context.Context) ([]string, error) {
	return RunMigrations(ctx, s.pool)
}

// LoadThresholds reads every threshold row. It returns ErrNotFound when the
// table is empty.
func (s *PostgresStore) LoadThresholds(ctx context.Context) (*domain.Thresholds, error) {
	rows, err := s.pool.Query(ctx, querySelectThresholds)
	if err != nil {
		return nil, fmt.Errorf("querying thresholds: %w", err)
	}
	defer rows.Close()

	th := &domain.Thresholds{
		Process:  domain.ProcessThresholds{},
		Effluent: domain.EffluentThresholds{},
	}

	var n int
	for rows.Next() {
		var (
			category, scope, name, updatedBy string
			upper, lower                     *float64
			updatedAt                        time.Time
		)
		if err := rows.Scan(&category, &scope, &name, &upper, &lower, &updatedAt, &updatedBy); err != nil {
			return nil, fmt.Errorf("scanning threshold: %w", err)
		}
		n++

		t := domain.Threshold{Upper: upper, Lower: lower}
		switch domain.Category(category) {
		case domain.CategoryProcess:
			stage := domain.Stage(scope)
			if th.Process[stage] == nil {
				th.Process[stage] = map[domain.Sensor]domain.Threshold{}
			}
			th.Process[stage][domain.Sensor(name)] = t
		case domain.CategoryEffluent:
			th.Effluent[domain.Parameter(name)] = t
		}

		if updatedAt.After(th.UpdatedAt) {
			th.UpdatedAt = updatedAt
			th.UpdatedBy = updatedBy
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating thresholds: %w", err)
	}

	if n == 0 {
		return nil, ErrNotFound
	}
	return th, nil
}

// SaveThresholds replaces the stored configuration in one transaction.
func (s *PostgresStore) SaveThresholds(ctx context.Context, th *domain.Thresholds) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, queryDeleteThresholds); err != nil {
		return fmt.Errorf("clearing thresholds: %w", err)
	}

	updatedAt := th.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	batch := &pgx.Batch{}
	queue := func(category domain.Category, scope, name string, t domain.Threshold) {
		batch.Queue(queryInsertThreshold, pgx.NamedArgs{
			"category":    string(category),
			"scope":       scope,
			"name":        name,
			"upper_bound": t.Upper,
			"lower_bound": t.Lower,
			"updated_at":  updatedAt,
			"updated_by":  th.UpdatedBy,
		})
	}

	for stage, sensors := range th.Process {
		for sensor, t := range sensors {
			queue(domain.CategoryProcess, string(stage), string(sensor), t)
		}
	}
	for param, t := range th.Effluent {
		queue(domain.CategoryEffluent, "", string(param), t)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting thresholds: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing thresholds: %w", err)
	}
	return nil
}

// AppendAlerts inserts alerts into alert_history. Re-inserting an existing ID
// is a no-op.
func (s *PostgresStore) AppendAlerts(ctx context.Context, alerts []domain.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range alerts {
		a := &alerts[i]
		batch.Queue(queryInsertAlert, pgx.NamedArgs{
			"id":        a.ID,
			"raised_at": a.Timestamp,
			"severity":  a.Severity,
			"category":  string(a.Category),
			"alert_key": a.Key.String(),
			"zone":      a.Key.Zone,
			"stage":     string(a.Key.Stage),
			"sensor":    string(a.Key.Sensor),
			"parameter": string(a.Key.Parameter),
			"message":   a.Message,
		})
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting %d alerts: %w", len(alerts), err)
	}
	return nil
}

// ListAlerts returns alert history matching q, newest first.
func (s *PostgresStore) ListAlerts(ctx context.Context, q *AlertQuery) ([]domain.AlertRecord, error) {
	sql, args := q.ToSQL()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying alert history: %w", err)
	}
	defer rows.Close()

	var out []domain.AlertRecord
	for rows.Next() {
		var (
			a                              domain.AlertRecord
			category                       string
			zone, stage, sensor, parameter string
		)
		if err := rows.Scan(
			&a.ID, &a.Timestamp, &a.Severity, &category,
			&zone, &stage, &sensor, &parameter,
			&a.Message,
		); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		a.Category = domain.Category(category)
		a.Key = domain.AlertKey{
			Kind:      a.Category,
			Zone:      zone,
			Stage:     domain.Stage(stage),
			Sensor:    domain.Sensor(sensor),
			Parameter: domain.Parameter(parameter),
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alert history: %w", err)
	}
	return out, nil
}
