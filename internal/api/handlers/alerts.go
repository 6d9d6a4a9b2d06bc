package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/effluent-watch/internal/store"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// AlertsHandler serves the live alert feed and the alert history.
type AlertsHandler struct {
	monitor Monitor
	history store.AlertLog
}

// NewAlertsHandler creates an AlertsHandler. history may be nil.
func NewAlertsHandler(m Monitor, history store.AlertLog) *AlertsHandler {
	return &AlertsHandler{monitor: m, history: history}
}

// AlertsOutput is the response for the feed endpoints.
type AlertsOutput struct {
	Body struct {
		Alerts []domain.AlertRecord `json:"alerts" doc:"Alert feed, newest first"`
		Count  int                  `json:"count" example:"3"`
	}
}

// TrimAlertsInput is the request for POST /api/v1/alerts/trim.
type TrimAlertsInput struct {
	Body struct {
		AvailableSlots int `json:"available_slots" minimum:"0" example:"10" doc:"How many alerts the consumer can display"`
	}
}

// AlertHistoryInput is the request for GET /api/v1/alerts/history.
type AlertHistoryInput struct {
	Category string `query:"category" enum:"process,effluent,prediction" doc:"Only alerts of this category"`
	Since    string `query:"since" doc:"Only alerts raised at or after this RFC 3339 time"`
	Limit    int    `query:"limit" minimum:"0" maximum:"500" doc:"Maximum records (default 50)"`
}

func newAlertsOutput(alerts []domain.AlertRecord) *AlertsOutput {
	if alerts == nil {
		alerts = []domain.AlertRecord{}
	}
	resp := &AlertsOutput{}
	resp.Body.Alerts = alerts
	resp.Body.Count = len(alerts)
	return resp
}

// ListAlerts returns the current feed.
func (h *AlertsHandler) ListAlerts(_ context.Context, _ *struct{}) (*AlertsOutput, error) {
	return newAlertsOutput(h.monitor.Alerts()), nil
}

// TrimAlerts drops the oldest alerts beyond the consumer's capacity.
func (h *AlertsHandler) TrimAlerts(_ context.Context, input *TrimAlertsInput) (*AlertsOutput, error) {
	return newAlertsOutput(h.monitor.TrimAlerts(input.Body.AvailableSlots)), nil
}

// History returns persisted alerts, newest first.
func (h *AlertsHandler) History(ctx context.Context, input *AlertHistoryInput) (*AlertsOutput, error) {
	q := &store.AlertQuery{Limit: input.Limit}
	if input.Category != "" {
		c := domain.Category(input.Category)
		q.Category = &c
	}
	if input.Since != "" {
		since, err := time.Parse(time.RFC3339, input.Since)
		if err != nil {
			return nil, huma.Error400BadRequest("since must be an RFC 3339 time", err)
		}
		q.Since = &since
	}

	if h.history == nil {
		return newAlertsOutput(nil), nil
	}

	alerts, err := h.history.ListAlerts(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing alert history failed: " + err.Error())
	}
	return newAlertsOutput(alerts), nil
}

// RegisterAlertRoutes registers alert feed and history endpoints.
func RegisterAlertRoutes(api huma.API, h *AlertsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-alerts",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts",
		Summary:     "List alert feed",
		Description: "Returns the in-memory alert feed, newest first.",
		Tags:        []string{"alerts"},
	}, h.ListAlerts)

	huma.Register(api, huma.Operation{
		OperationID: "trim-alerts",
		Method:      http.MethodPost,
		Path:        "/api/v1/alerts/trim",
		Summary:     "Trim alert feed",
		Description: "Keeps only as many of the newest alerts as the consumer has room for.",
		Tags:        []string{"alerts"},
	}, h.TrimAlerts)

	huma.Register(api, huma.Operation{
		OperationID: "alert-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts/history",
		Summary:     "List alert history",
		Description: "Returns persisted alerts, optionally filtered by category and start time.",
		Tags:        []string{"alerts"},
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, h.History)
}
