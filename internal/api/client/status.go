package client

import (
	"context"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// EvaluateResult is the outcome of a manual evaluation.
type EvaluateResult struct {
	Trigger string               `json:"trigger"`
	Raised  []domain.AlertRecord `json:"raised"`
	Trimmed int                  `json:"trimmed"`
	Report  *domain.StatusReport `json:"report"`
}

// Status returns the latest status report.
func (c *Client) Status(ctx context.Context) (*domain.StatusReport, error) {
	var report domain.StatusReport
	if err := c.get(ctx, "/api/v1/status", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Evaluate runs one cycle on the server now.
func (c *Client) Evaluate(ctx context.Context) (*EvaluateResult, error) {
	var res EvaluateResult
	if err := c.post(ctx, "/api/v1/evaluate", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
