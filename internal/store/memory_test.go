package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

func TestMemoryAlertLog(t *testing.T) {
	t.Parallel()

	log := NewMemoryAlertLog(3)
	ctx := context.Background()

	require.NoError(t, log.AppendAlerts(ctx, nil))
	require.NoError(t, log.AppendAlerts(ctx, []domain.AlertRecord{
		testRecord(2, domain.CategoryEffluent),
		testRecord(1, domain.CategoryProcess),
	}))
	require.NoError(t, log.AppendAlerts(ctx, []domain.AlertRecord{
		testRecord(4, domain.CategoryPrediction),
		testRecord(3, domain.CategoryEffluent),
	}))

	all, err := log.ListAlerts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alert-04", all[0].ID)
	assert.Equal(t, "alert-02", all[2].ID)

	effluent, err := log.ListAlerts(ctx, &AlertQuery{Category: ptr(domain.CategoryEffluent)})
	require.NoError(t, err)
	require.Len(t, effluent, 2)
	assert.Equal(t, "alert-03", effluent[0].ID)

	limited, err := log.ListAlerts(ctx, &AlertQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMigrationFiles(t *testing.T) {
	t.Parallel()

	files, err := MigrationFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_thresholds.sql", "002_alert_history.sql"}, files)
}

// compile-time interface checks.
var (
	_ ThresholdRepository = (*FileStore)(nil)
	_ ThresholdRepository = (*RedisStore)(nil)
	_ ThresholdRepository = (*PostgresStore)(nil)
	_ AlertLog            = (*RedisStore)(nil)
	_ AlertLog            = (*PostgresStore)(nil)
	_ AlertLog            = (*MemoryAlertLog)(nil)
	_ Pinger              = (*FileStore)(nil)
	_ Pinger              = (*RedisStore)(nil)
	_ Pinger              = (*PostgresStore)(nil)
)
