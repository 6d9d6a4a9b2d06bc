package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

func ptr(v float64) *float64 { return &v }

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{
			name:       "problem detail",
			status:     http.StatusNotFound,
			body:       `{"title":"Not Found","status":404,"detail":"no status report yet"}`,
			wantDetail: "no status report yet",
		},
		{
			name:       "title only",
			status:     http.StatusBadGateway,
			body:       `{"title":"Bad Gateway","status":502}`,
			wantDetail: "Bad Gateway",
		},
		{
			name:       "plain text",
			status:     http.StatusInternalServerError,
			body:       "boom\n",
			wantDetail: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Status(context.Background())
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Contains(t, err.Error(), "API error (HTTP")
		})
	}
}

func TestClient_Status(t *testing.T) {
	t.Parallel()

	report := domain.StatusReport{
		EvaluatedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		Horizon:     domain.DefaultHorizon,
		Effluent: []domain.ParameterStatus{
			{Parameter: domain.ParameterTOC, Value: domain.Value(31), Status: domain.StatusAbnormal},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}))
	defer srv.Close()

	got, err := New(srv.URL + "/").Status(context.Background())
	require.NoError(t, err)
	assert.True(t, report.EvaluatedAt.Equal(got.EvaluatedAt))
	require.Len(t, got.Effluent, 1)
	assert.Equal(t, domain.StatusAbnormal, got.Effluent[0].Status)
	v, ok := got.Effluent[0].Value.Float()
	require.True(t, ok)
	assert.InDelta(t, 31.0, v, 1e-9)
}

func TestClient_Evaluate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/evaluate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"trigger":"manual","raised":[{"id":"a-1","category":"effluent"}],"trimmed":0,"report":{"zones":[]}}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "manual", res.Trigger)
	require.Len(t, res.Raised, 1)
	assert.Equal(t, domain.CategoryEffluent, res.Raised[0].Category)
	assert.NotNil(t, res.Report)
}

func TestClient_Alerts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/alerts":
			_, _ = w.Write([]byte(`{"alerts":[{"id":"a-2"},{"id":"a-1"}],"count":2}`))
		case "/api/v1/alerts/trim":
			assert.Equal(t, http.MethodPost, r.Method)
			var body map[string]int
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 1, body["available_slots"])
			_, _ = w.Write([]byte(`{"alerts":[{"id":"a-2"}],"count":1}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)

	alerts, err := c.Alerts(context.Background())
	require.NoError(t, err)
	assert.Len(t, alerts, 2)

	trimmed, err := c.TrimAlerts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, trimmed, 1)
	assert.Equal(t, "a-2", trimmed[0].ID)
}

func TestClient_AlertHistory(t *testing.T) {
	t.Parallel()

	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    HistoryFilter
		wantQuery string
	}{
		{name: "no filter", wantQuery: ""},
		{
			name:      "all fields",
			filter:    HistoryFilter{Category: domain.CategoryProcess, Since: since, Limit: 20},
			wantQuery: "category=process&limit=20&since=2024-05-01T00%3A00%3A00Z",
		},
		{
			name:      "limit only",
			filter:    HistoryFilter{Limit: 5},
			wantQuery: "limit=5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/alerts/history", r.URL.Path)
				assert.Equal(t, tt.wantQuery, r.URL.RawQuery)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"alerts":[],"count":0}`))
			}))
			defer srv.Close()

			alerts, err := New(srv.URL).AlertHistory(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Empty(t, alerts)
		})
	}
}

func TestClient_SetBounds(t *testing.T) {
	t.Parallel()

	var gotPaths []string
	var gotBodies []string
	var gotOperators []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		body, _ := io.ReadAll(r.Body)
		gotPaths = append(gotPaths, r.URL.Path)
		gotBodies = append(gotBodies, string(body))
		gotOperators = append(gotOperators, r.Header.Get("X-Operator"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"process":{},"effluent":{"toc":{"upper":28,"lower":null}},"updated_by":"kim"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithOperator("kim"))

	th, err := c.SetEffluentBound(context.Background(), domain.ParameterTOC, domain.BoundUpper, ptr(28))
	require.NoError(t, err)
	assert.Equal(t, "kim", th.UpdatedBy)
	require.NotNil(t, th.Effluent[domain.ParameterTOC].Upper)
	assert.InDelta(t, 28.0, *th.Effluent[domain.ParameterTOC].Upper, 1e-9)

	_, err = c.SetProcessBound(context.Background(), domain.StageAerobic, domain.SensorDO, domain.BoundLower, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/v1/thresholds/effluent/toc/upper",
		"/api/v1/thresholds/process/aerobic/do/lower",
	}, gotPaths)
	assert.JSONEq(t, `{"value":28}`, gotBodies[0])
	assert.JSONEq(t, `{"value":null}`, gotBodies[1])
	assert.Equal(t, []string{"kim", "kim"}, gotOperators)
}

func TestClient_ReplaceThresholds(t *testing.T) {
	t.Parallel()

	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/thresholds", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"process":{},"effluent":{}}`))
	}))
	defer srv.Close()

	th := domain.DefaultThresholds()
	_, err := New(srv.URL).ReplaceThresholds(context.Background(), domain.CategoryEffluent, &th)
	require.NoError(t, err)

	assert.JSONEq(t, `"effluent"`, string(got["category"]))
	assert.Contains(t, got, "effluent")
	assert.NotContains(t, got, "process")
}
