package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/effluent-watch/internal/api/handlers"
	"github.com/donaldgifford/effluent-watch/internal/engine"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

func TestGetStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		report     *domain.StatusReport
		ok         bool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "returns latest report",
			report:     &domain.StatusReport{EvaluatedAt: testNow, Zones: []domain.ZoneStatus{{Zone: "1지"}}},
			ok:         true,
			wantStatus: http.StatusOK,
			wantBody:   `"zone":"1지"`,
		},
		{
			name:       "404 before first cycle",
			wantStatus: http.StatusNotFound,
			wantBody:   "no snapshot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &mockMonitor{}
			m.On("Latest").Return(tt.report, tt.ok).Once()

			_, api := humatest.New(t)
			handlers.RegisterStatusRoutes(api, handlers.NewStatusHandler(m))

			resp := api.Get("/api/v1/status")
			require.Equal(t, tt.wantStatus, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.wantBody)
			m.AssertExpectations(t)
		})
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	t.Run("runs a manual cycle", func(t *testing.T) {
		t.Parallel()

		m := &mockMonitor{}
		m.On("RunNow", mock.Anything).Return(&engine.CycleResult{
			Trigger: engine.TriggerManual,
			Report:  &domain.StatusReport{EvaluatedAt: testNow},
			Raised:  sampleAlerts()[:1],
			Trimmed: 2,
		}, nil).Once()

		_, api := humatest.New(t)
		handlers.RegisterStatusRoutes(api, handlers.NewStatusHandler(m))

		resp := api.Post("/api/v1/evaluate")
		require.Equal(t, http.StatusOK, resp.Code)
		body := resp.Body.String()
		assert.Contains(t, body, `"trigger":"manual"`)
		assert.Contains(t, body, `"trimmed":2`)
		assert.Contains(t, body, `"id":"a-2"`)
		m.AssertExpectations(t)
	})

	t.Run("nothing raised renders an empty list", func(t *testing.T) {
		t.Parallel()

		m := &mockMonitor{}
		m.On("RunNow", mock.Anything).Return(&engine.CycleResult{
			Trigger: engine.TriggerManual,
			Report:  &domain.StatusReport{EvaluatedAt: testNow},
		}, nil).Once()

		_, api := humatest.New(t)
		handlers.RegisterStatusRoutes(api, handlers.NewStatusHandler(m))

		resp := api.Post("/api/v1/evaluate")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"raised":[]`)
	})

	t.Run("fetch failure is a bad gateway", func(t *testing.T) {
		t.Parallel()

		m := &mockMonitor{}
		m.On("RunNow", mock.Anything).Return(nil, errors.New("plant API error (status 500)")).Once()

		_, api := humatest.New(t)
		handlers.RegisterStatusRoutes(api, handlers.NewStatusHandler(m))

		resp := api.Post("/api/v1/evaluate")
		require.Equal(t, http.StatusBadGateway, resp.Code)
		assert.Contains(t, resp.Body.String(), "evaluation failed")
	})
}
