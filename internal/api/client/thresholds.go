package client

import (
	"context"
	"fmt"
	"net/url"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

type boundRequest struct {
	Value *float64 `json:"value"`
}

type replaceRequest struct {
	Category domain.Category           `json:"category"`
	Process  domain.ProcessThresholds  `json:"process,omitempty"`
	Effluent domain.EffluentThresholds `json:"effluent,omitempty"`
}

// Thresholds returns the current threshold configuration.
func (c *Client) Thresholds(ctx context.Context) (*domain.Thresholds, error) {
	var th domain.Thresholds
	if err := c.get(ctx, "/api/v1/thresholds", &th); err != nil {
		return nil, err
	}
	return &th, nil
}

// SetProcessBound sets one bound of a zone sensor threshold. A nil value
// clears it.
func (c *Client) SetProcessBound(
	ctx context.Context,
	stage domain.Stage,
	sensor domain.Sensor,
	bound domain.Bound,
	value *float64,
) (*domain.Thresholds, error) {
	path := fmt.Sprintf("/api/v1/thresholds/process/%s/%s/%s",
		url.PathEscape(string(stage)), url.PathEscape(string(sensor)), url.PathEscape(string(bound)))
	var th domain.Thresholds
	if err := c.put(ctx, path, boundRequest{Value: value}, &th); err != nil {
		return nil, err
	}
	return &th, nil
}

// SetEffluentBound sets one bound of an effluent parameter threshold. A nil
// value clears it.
func (c *Client) SetEffluentBound(
	ctx context.Context,
	param domain.Parameter,
	bound domain.Bound,
	value *float64,
) (*domain.Thresholds, error) {
	path := fmt.Sprintf("/api/v1/thresholds/effluent/%s/%s",
		url.PathEscape(string(param)), url.PathEscape(string(bound)))
	var th domain.Thresholds
	if err := c.put(ctx, path, boundRequest{Value: value}, &th); err != nil {
		return nil, err
	}
	return &th, nil
}

// ReplaceThresholds merges the matching half of th into one category.
func (c *Client) ReplaceThresholds(
	ctx context.Context,
	category domain.Category,
	th *domain.Thresholds,
) (*domain.Thresholds, error) {
	req := replaceRequest{Category: category}
	switch category {
	case domain.CategoryProcess:
		req.Process = th.Process
	case domain.CategoryEffluent:
		req.Effluent = th.Effluent
	}
	var out domain.Thresholds
	if err := c.put(ctx, "/api/v1/thresholds", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
