package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/effluent-watch/internal/thresholds"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// ThresholdService reads and changes the live threshold configuration.
type ThresholdService interface {
	Get(ctx context.Context) domain.Thresholds
	UpdateProcess(ctx context.Context, stage domain.Stage, sensor domain.Sensor, bound domain.Bound, value *float64) error
	UpdateEffluent(ctx context.Context, param domain.Parameter, bound domain.Bound, value *float64) error
	Replace(ctx context.Context, category domain.Category, th domain.Thresholds) error
}

// ThresholdsHandler serves threshold reads and edits.
type ThresholdsHandler struct {
	svc ThresholdService
}

// NewThresholdsHandler creates a ThresholdsHandler.
func NewThresholdsHandler(svc ThresholdService) *ThresholdsHandler {
	return &ThresholdsHandler{svc: svc}
}

// ThresholdsOutput is the full configuration after a read or change.
type ThresholdsOutput struct {
	Body domain.Thresholds
}

// BoundValue is the body of a single-bound update. A null or missing value
// clears the bound.
type BoundValue struct {
	Value *float64 `json:"value,omitempty" nullable:"true" example:"25" doc:"New bound; null clears it"`
}

// UpdateProcessInput targets one bound of a process sensor.
type UpdateProcessInput struct {
	Operator string `header:"X-Operator" doc:"Who is making the change"`
	Stage    string `path:"stage" example:"aerobic" doc:"anaerobic, anoxic or aerobic"`
	Sensor   string `path:"sensor" example:"mlss" doc:"orp, ph, do or mlss"`
	Bound    string `path:"bound" example:"upper" doc:"upper or lower"`
	Body     BoundValue
}

// UpdateEffluentInput targets one bound of an effluent parameter.
type UpdateEffluentInput struct {
	Operator  string `header:"X-Operator" doc:"Who is making the change"`
	Parameter string `path:"parameter" example:"toc" doc:"toc, ss, tn or tp (T-N and T-P accepted)"`
	Bound     string `path:"bound" example:"upper" doc:"upper or lower"`
	Body      BoundValue
}

// ThresholdBody is one threshold on the wire.
type ThresholdBody struct {
	Upper *float64 `json:"upper,omitempty" nullable:"true"`
	Lower *float64 `json:"lower,omitempty" nullable:"true"`
}

// ReplaceThresholdsInput carries a category of thresholds to merge in.
type ReplaceThresholdsInput struct {
	Operator string `header:"X-Operator" doc:"Who is making the change"`
	Body     struct {
		Category string                              `json:"category" enum:"process,effluent" doc:"Category to update"`
		Process  map[string]map[string]ThresholdBody `json:"process,omitempty" doc:"stage -> sensor -> threshold"`
		Effluent map[string]ThresholdBody            `json:"effluent,omitempty" doc:"parameter -> threshold"`
	}
}

// GetThresholds returns the current configuration.
func (h *ThresholdsHandler) GetThresholds(ctx context.Context, _ *struct{}) (*ThresholdsOutput, error) {
	return &ThresholdsOutput{Body: h.svc.Get(ctx)}, nil
}

// UpdateProcess changes one process bound.
func (h *ThresholdsHandler) UpdateProcess(ctx context.Context, input *UpdateProcessInput) (*ThresholdsOutput, error) {
	ctx = withOperator(ctx, input.Operator)
	err := h.svc.UpdateProcess(ctx,
		domain.Stage(input.Stage),
		domain.Sensor(input.Sensor),
		domain.Bound(input.Bound),
		input.Body.Value,
	)
	if err != nil {
		return nil, thresholdError(err)
	}
	return &ThresholdsOutput{Body: h.svc.Get(ctx)}, nil
}

// UpdateEffluent changes one effluent bound.
func (h *ThresholdsHandler) UpdateEffluent(ctx context.Context, input *UpdateEffluentInput) (*ThresholdsOutput, error) {
	ctx = withOperator(ctx, input.Operator)
	param, ok := domain.ParseParameter(input.Parameter)
	if !ok {
		param = domain.Parameter(input.Parameter)
	}
	if err := h.svc.UpdateEffluent(ctx, param, domain.Bound(input.Bound), input.Body.Value); err != nil {
		return nil, thresholdError(err)
	}
	return &ThresholdsOutput{Body: h.svc.Get(ctx)}, nil
}

// ReplaceThresholds merges the stages or parameters in the body into one
// category.
func (h *ThresholdsHandler) ReplaceThresholds(ctx context.Context, input *ReplaceThresholdsInput) (*ThresholdsOutput, error) {
	ctx = withOperator(ctx, input.Operator)

	var th domain.Thresholds
	category := domain.Category(input.Body.Category)
	switch category {
	case domain.CategoryProcess:
		th.Process = make(domain.ProcessThresholds, len(input.Body.Process))
		for stage, sensors := range input.Body.Process {
			m := make(map[domain.Sensor]domain.Threshold, len(sensors))
			for sensor, t := range sensors {
				m[domain.Sensor(sensor)] = domain.Threshold{Upper: t.Upper, Lower: t.Lower}
			}
			th.Process[domain.Stage(stage)] = m
		}
	case domain.CategoryEffluent:
		th.Effluent = make(domain.EffluentThresholds, len(input.Body.Effluent))
		for key, t := range input.Body.Effluent {
			param, ok := domain.ParseParameter(key)
			if !ok {
				param = domain.Parameter(key)
			}
			th.Effluent[param] = domain.Threshold{Upper: t.Upper, Lower: t.Lower}
		}
	}

	if err := h.svc.Replace(ctx, category, th); err != nil {
		return nil, thresholdError(err)
	}
	return &ThresholdsOutput{Body: h.svc.Get(ctx)}, nil
}

func withOperator(ctx context.Context, operator string) context.Context {
	if operator == "" {
		return ctx
	}
	return thresholds.WithActor(ctx, operator)
}

// thresholdError maps store errors to HTTP errors. A persistence failure
// means the change is live but will not survive a restart.
func thresholdError(err error) error {
	switch {
	case errors.Is(err, thresholds.ErrInvalidKey):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, thresholds.ErrPersistence):
		return huma.Error503ServiceUnavailable("threshold change applied but not saved: " + err.Error())
	default:
		return huma.Error500InternalServerError("updating thresholds failed: " + err.Error())
	}
}

// RegisterThresholdRoutes registers threshold endpoints.
func RegisterThresholdRoutes(api huma.API, h *ThresholdsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-thresholds",
		Method:      http.MethodGet,
		Path:        "/api/v1/thresholds",
		Summary:     "Get thresholds",
		Description: "Returns every process and effluent threshold.",
		Tags:        []string{"thresholds"},
	}, h.GetThresholds)

	huma.Register(api, huma.Operation{
		OperationID: "update-process-threshold",
		Method:      http.MethodPut,
		Path:        "/api/v1/thresholds/process/{stage}/{sensor}/{bound}",
		Summary:     "Update a process threshold bound",
		Description: "Sets or clears one bound of a zone sensor threshold and re-evaluates the last snapshot.",
		Tags:        []string{"thresholds"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusServiceUnavailable},
	}, h.UpdateProcess)

	huma.Register(api, huma.Operation{
		OperationID: "update-effluent-threshold",
		Method:      http.MethodPut,
		Path:        "/api/v1/thresholds/effluent/{parameter}/{bound}",
		Summary:     "Update an effluent threshold bound",
		Description: "Sets or clears one bound of an effluent parameter threshold and re-evaluates the last snapshot.",
		Tags:        []string{"thresholds"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusServiceUnavailable},
	}, h.UpdateEffluent)

	huma.Register(api, huma.Operation{
		OperationID: "replace-thresholds",
		Method:      http.MethodPut,
		Path:        "/api/v1/thresholds",
		Summary:     "Update a threshold category",
		Description: "Replaces the process stages or effluent parameters named in the body; others keep their values.",
		Tags:        []string{"thresholds"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusServiceUnavailable},
	}, h.ReplaceThresholds)
}
