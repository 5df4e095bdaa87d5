package api

import (
	"context"
	"net/http"
)

func (c *Client) ClusterHealthSummary(ctx context.Context) (HealthSummary, error) {
	var summary HealthSummary
	err := c.doJSON(ctx, http.MethodGet, "/cluster/health/summary", nil, &summary)
	return summary, err
}

func (c *Client) NodeHealth(ctx context.Context) ([]NodeHealth, error) {
	var nodeHealth []NodeHealth
	err := c.doJSON(ctx, http.MethodGet, "/cluster/health/node", nil, &nodeHealth)
	return nodeHealth, err
}
