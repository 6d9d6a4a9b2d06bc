package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/effluent-watch/internal/metrics"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

func testAlert(category domain.Category) domain.AlertRecord {
	var key domain.AlertKey
	msg := "[비정상] 방류 TOC 30.0 mg/L (상한 25.0 초과)"
	switch category {
	case domain.CategoryProcess:
		key = domain.ProcessKey("1지", domain.StageAerobic, domain.SensorMLSS)
		msg = "[비정상] 1지 호기조 MLSS 6687.30 (범위: 3,000~6,000)"
	case domain.CategoryPrediction:
		key = domain.PredictionKey(domain.ParameterTN)
		msg = "[비정상] T-N 예측값 24.1 mg/L (상한 20.0 초과 예상, 3시간 후)"
	default:
		key = domain.EffluentKey(domain.ParameterTOC)
	}
	return domain.AlertRecord{
		ID:        "a-1",
		Timestamp: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		Severity:  domain.SeverityAbnormal,
		Category:  category,
		Key:       key,
		Message:   msg,
	}
}

func TestDiscordNotifier_SendAlert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		alert      domain.AlertRecord
		statusCode int
		wantErr    bool
		errMsg     string
		wantColor  int
	}{
		{
			name:       "effluent alert uses red",
			alert:      testAlert(domain.CategoryEffluent),
			statusCode: http.StatusNoContent,
			wantColor:  colorRed,
		},
		{
			name:       "process alert uses orange",
			alert:      testAlert(domain.CategoryProcess),
			statusCode: http.StatusNoContent,
			wantColor:  colorOrange,
		},
		{
			name:       "prediction alert uses yellow",
			alert:      testAlert(domain.CategoryPrediction),
			statusCode: http.StatusNoContent,
			wantColor:  colorYellow,
		},
		{
			name:       "discord returns 429 rate limited",
			alert:      testAlert(domain.CategoryEffluent),
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "discord returns 400 error",
			alert:      testAlert(domain.CategoryEffluent),
			statusCode: http.StatusBadRequest,
			wantErr:    true,
			errMsg:     "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload

			srv := httptest.NewServer(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
					assert.Equal(t, http.MethodPost, r.Method)

					err := json.NewDecoder(r.Body).Decode(&received)
					assert.NoError(t, err)

					w.WriteHeader(tt.statusCode)
				}),
			)
			defer srv.Close()

			d := NewDiscordNotifier(srv.URL)
			err := d.SendAlert(context.Background(), &tt.alert)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.Len(t, received.Embeds, 1)

			embed := received.Embeds[0]
			assert.Equal(t, tt.wantColor, embed.Color)
			assert.Equal(t, tt.alert.Message, embed.Title)
			assert.Equal(t, "2024-05-01 09:30:00", embed.Description)

			fieldMap := make(map[string]string)
			for _, f := range embed.Fields {
				fieldMap[f.Name] = f.Value
			}
			assert.Equal(t, string(tt.alert.Category), fieldMap["Category"])
			assert.Equal(t, tt.alert.Key.String(), fieldMap["Key"])
		})
	}
}

func TestDiscordNotifier_SendBatchAlert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		count      int
		wantEmbeds int
	}{
		{name: "under the embed limit", count: 3, wantEmbeds: 3},
		{name: "over the embed limit adds a summary", count: 13, wantEmbeds: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err := json.NewDecoder(r.Body).Decode(&received)
				assert.NoError(t, err)
				w.WriteHeader(http.StatusNoContent)
			}))
			defer srv.Close()

			alerts := make([]domain.AlertRecord, tt.count)
			for i := range alerts {
				alerts[i] = testAlert(domain.CategoryProcess)
			}

			d := NewDiscordNotifier(srv.URL)
			require.NoError(t, d.SendBatchAlert(context.Background(), alerts))

			require.Len(t, received.Embeds, tt.wantEmbeds)
			if tt.count > maxEmbeds {
				assert.Contains(t, received.Embeds[maxEmbeds].Title, "3 more alerts")
			}
		})
	}
}

func TestDiscordNotifier_NetworkError(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("http://127.0.0.1:1") // nothing listening
	alert := testAlert(domain.CategoryEffluent)
	err := d.SendAlert(context.Background(), &alert)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending discord webhook")
}

func TestDiscordNotifier_InvalidWebhookURL(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("://not-a-valid-url")
	alert := testAlert(domain.CategoryEffluent)
	err := d.SendAlert(context.Background(), &alert)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating discord request")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	d := NewDiscordNotifier("https://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, d.client)
}

func getNotificationHistogramSampleCount() uint64 {
	ch := make(chan prometheus.Metric, 1)
	metrics.NotificationDuration.Collect(ch)
	m := <-ch
	pb := &dto.Metric{}
	_ = m.Write(pb)
	return pb.GetHistogram().GetSampleCount()
}

func TestSendAlert_ObservesNotificationDuration(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	before := getNotificationHistogramSampleCount()

	d := NewDiscordNotifier(srv.URL)
	alert := testAlert(domain.CategoryPrediction)
	require.NoError(t, d.SendAlert(context.Background(), &alert))

	after := getNotificationHistogramSampleCount()
	assert.Greater(t, after, before)
}
