package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) GetPiholeNodes(ctx context.Context) ([]PiholeNode, error) {
	var nodes []PiholeNode
	err := c.doJSON(ctx, http.MethodGet, "/piholes", nil, &nodes)
	return nodes, err
}

func (c *Client) AddPiholeNode(ctx context.Context, params AddPiholeParams) (PiholeNode, error) {
	var node PiholeNode
	err := c.doJSON(ctx, http.MethodPost, "/piholes", params, &node)
	return node, err
}

func (c *Client) UpdatePiholeNode(ctx context.Context, id int64, params PatchPiholeParams) (PiholeNode, error) {
	var node PiholeNode
	err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/piholes/%d", id), params, &node)
	return node, err
}

func (c *Client) RemovePiholeNode(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/piholes/%d", id), nil, nil)
}

// TestPiholeConnection checks reachability and credentials of a node that has
// not been added yet.
func (c *Client) TestPiholeConnection(ctx context.Context, params TestConnectionParams) error {
	return c.doJSON(ctx, http.MethodPost, "/piholes/test", params, nil)
}

// TestExistingPiholeConnection re-tests a stored node, optionally overriding
// individual connection fields.
func (c *Client) TestExistingPiholeConnection(ctx context.Context, id int64, overrides PatchPiholeParams) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/piholes/%d/test", id), overrides, nil)
}
