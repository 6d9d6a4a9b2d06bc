package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

type alertsResponse struct {
	Alerts []domain.AlertRecord `json:"alerts"`
	Count  int                  `json:"count"`
}

// HistoryFilter narrows an alert history request. Zero fields are omitted.
type HistoryFilter struct {
	Category domain.Category
	Since    time.Time
	Limit    int
}

func (f HistoryFilter) query() string {
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", string(f.Category))
	}
	if !f.Since.IsZero() {
		v.Set("since", f.Since.UTC().Format(time.RFC3339))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Alerts returns the live alert feed, newest first.
func (c *Client) Alerts(ctx context.Context) ([]domain.AlertRecord, error) {
	var resp alertsResponse
	if err := c.get(ctx, "/api/v1/alerts", &resp); err != nil {
		return nil, err
	}
	return resp.Alerts, nil
}

// TrimAlerts keeps at most slots alerts in the feed and returns what is left.
func (c *Client) TrimAlerts(ctx context.Context, slots int) ([]domain.AlertRecord, error) {
	body := map[string]int{"available_slots": slots}
	var resp alertsResponse
	if err := c.post(ctx, "/api/v1/alerts/trim", body, &resp); err != nil {
		return nil, err
	}
	return resp.Alerts, nil
}

// AlertHistory returns persisted alerts matching f.
func (c *Client) AlertHistory(ctx context.Context, f HistoryFilter) ([]domain.AlertRecord, error) {
	var resp alertsResponse
	if err := c.get(ctx, "/api/v1/alerts/history"+f.query(), &resp); err != nil {
		return nil, err
	}
	return resp.Alerts, nil
}
