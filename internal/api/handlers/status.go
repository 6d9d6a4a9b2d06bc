package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/effluent-watch/internal/engine"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// Monitor is the part of engine.Monitor the API reads and drives.
type Monitor interface {
	Latest() (*domain.StatusReport, bool)
	Alerts() []domain.AlertRecord
	TrimAlerts(slots int) []domain.AlertRecord
	RunNow(ctx context.Context) (*engine.CycleResult, error)
}

// StatusHandler serves the latest status report and manual evaluation.
type StatusHandler struct {
	monitor Monitor
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(m Monitor) *StatusHandler {
	return &StatusHandler{monitor: m}
}

// StatusOutput is the response for GET /api/v1/status.
type StatusOutput struct {
	Body *domain.StatusReport
}

// EvaluateOutput is the response for POST /api/v1/evaluate.
type EvaluateOutput struct {
	Body struct {
		Trigger string               `json:"trigger" example:"manual" doc:"What started the cycle"`
		Raised  []domain.AlertRecord `json:"raised" doc:"Alerts raised by this cycle"`
		Trimmed int                  `json:"trimmed" doc:"Feed entries dropped to fit capacity"`
		Report  *domain.StatusReport `json:"report"`
	}
}

// GetStatus returns the most recent status report.
func (h *StatusHandler) GetStatus(_ context.Context, _ *struct{}) (*StatusOutput, error) {
	report, ok := h.monitor.Latest()
	if !ok {
		return nil, huma.Error404NotFound("no snapshot has been evaluated yet")
	}
	return &StatusOutput{Body: report}, nil
}

// Evaluate fetches a fresh snapshot and runs one cycle now.
func (h *StatusHandler) Evaluate(ctx context.Context, _ *struct{}) (*EvaluateOutput, error) {
	res, err := h.monitor.RunNow(ctx)
	if err != nil {
		return nil, huma.Error502BadGateway("evaluation failed: " + err.Error())
	}

	resp := &EvaluateOutput{}
	resp.Body.Trigger = string(res.Trigger)
	resp.Body.Raised = res.Raised
	if resp.Body.Raised == nil {
		resp.Body.Raised = []domain.AlertRecord{}
	}
	resp.Body.Trimmed = res.Trimmed
	resp.Body.Report = res.Report
	return resp, nil
}

// RegisterStatusRoutes registers status and evaluation endpoints.
func RegisterStatusRoutes(api huma.API, h *StatusHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Get latest status report",
		Description: "Returns the status of every zone sensor, effluent parameter and prediction from the last cycle.",
		Tags:        []string{"status"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetStatus)

	huma.Register(api, huma.Operation{
		OperationID: "evaluate-now",
		Method:      http.MethodPost,
		Path:        "/api/v1/evaluate",
		Summary:     "Run an evaluation cycle",
		Description: "Fetches a fresh snapshot from the plant and evaluates it immediately.",
		Tags:        []string{"status"},
		Errors:      []int{http.StatusBadGateway},
	}, h.Evaluate)
}
