package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		handler    echo.HandlerFunc
		wantStatus int
		wantLogged []string
		wantBody   bool
	}{
		{
			name:   "no panic passes through",
			method: http.MethodGet,
			handler: func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "string panic",
			method: http.MethodPut,
			handler: func(_ echo.Context) error {
				panic("threshold map is nil")
			},
			wantStatus: http.StatusInternalServerError,
			wantLogged: []string{"panic recovered", "threshold map is nil", "method=PUT", "request_id=req-7"},
			wantBody:   true,
		},
		{
			name:   "non-string panic",
			method: http.MethodPost,
			handler: func(_ echo.Context) error {
				panic(42)
			},
			wantStatus: http.StatusInternalServerError,
			wantLogged: []string{"panic recovered", "error=42", "method=POST"},
			wantBody:   true,
		},
		{
			name:   "panic after response committed",
			method: http.MethodGet,
			handler: func(c echo.Context) error {
				if err := c.String(http.StatusOK, "partial"); err != nil {
					return err
				}
				panic("late")
			},
			wantStatus: http.StatusOK,
			wantLogged: []string{"panic recovered", "late"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			e := echo.New()
			req := httptest.NewRequest(tt.method, "/api/v1/thresholds", http.NoBody)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Response().Header().Set(requestIDHeader, "req-7")

			require.NoError(t, Recovery(logger)(tt.handler)(c))
			assert.Equal(t, tt.wantStatus, rec.Code)

			if len(tt.wantLogged) == 0 {
				assert.Empty(t, buf.String())
			}
			for _, want := range tt.wantLogged {
				assert.Contains(t, buf.String(), want)
			}

			if tt.wantBody {
				assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))
				var problem huma.ErrorModel
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
				assert.Equal(t, http.StatusInternalServerError, problem.Status)
				assert.Equal(t, "internal server error", problem.Detail)
			}
		})
	}
}
