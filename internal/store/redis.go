package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

const (
	defaultRedisPrefix     = "ew"
	defaultRedisHistoryMax = 1000
)

// RedisStore keeps thresholds as one JSON document and alert history as a
// capped list, newest at the head.
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	historyMax int64
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithHistoryMax caps the number of alerts retained.
func WithHistoryMax(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.historyMax = int64(n)
		}
	}
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(
	ctx context.Context,
	addr, password string,
	db int,
	opts ...RedisOption,
) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         db,
		MaxRetries: 3,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewRedisStoreFromClient(client, opts...), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:     client,
		prefix:     defaultRedisPrefix,
		historyMax: defaultRedisHistoryMax,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) thresholdsKey() string { return s.prefix + ":thresholds" }
func (s *RedisStore) historyKey() string    { return s.prefix + ":alerts" }

// LoadThresholds reads the threshold document. A missing key is ErrNotFound.
func (s *RedisStore) LoadThresholds(ctx context.Context) (*domain.Thresholds, error) {
	data, err := s.client.Get(ctx, s.thresholdsKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading thresholds from redis: %w", err)
	}

	var th domain.Thresholds
	if err := json.Unmarshal(data, &th); err != nil {
		return nil, fmt.Errorf("decoding thresholds: %w", err)
	}
	return &th, nil
}

// SaveThresholds overwrites the threshold document.
func (s *RedisStore) SaveThresholds(ctx context.Context, th *domain.Thresholds) error {
	data, err := json.Marshal(th)
	if err != nil {
		return fmt.Errorf("encoding thresholds: %w", err)
	}
	if err := s.client.Set(ctx, s.thresholdsKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("writing thresholds to redis: %w", err)
	}
	return nil
}

// AppendAlerts pushes alerts to the head of the history list and trims it.
// alerts is in newest-first order, so it is pushed in reverse.
func (s *RedisStore) AppendAlerts(ctx context.Context, alerts []domain.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}

	values := make([]any, 0, len(alerts))
	for i := len(alerts) - 1; i >= 0; i-- {
		data, err := json.Marshal(&alerts[i])
		if err != nil {
			return fmt.Errorf("encoding alert %s: %w", alerts[i].ID, err)
		}
		values = append(values, data)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.historyKey(), values...)
	pipe.LTrim(ctx, s.historyKey(), 0, s.historyMax-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending alert history: %w", err)
	}
	return nil
}

// ListAlerts scans the retained history, newest first, applying q.
func (s *RedisStore) ListAlerts(ctx context.Context, q *AlertQuery) ([]domain.AlertRecord, error) {
	raw, err := s.client.LRange(ctx, s.historyKey(), 0, s.historyMax-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading alert history: %w", err)
	}

	limit := q.EffectiveLimit()
	out := make([]domain.AlertRecord, 0, min(limit, len(raw)))
	for _, item := range raw {
		var a domain.AlertRecord
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("decoding alert: %w", err)
		}
		if !q.Match(&a) {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Ping verifies the redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
