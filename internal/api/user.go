package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) UpdateUser(ctx context.Context, id int64, params PatchUserParams) (User, error) {
	var user User
	err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/user/%d", id), params, &user)
	return user, err
}

func (c *Client) UpdatePassword(ctx context.Context, id int64, params UpdatePasswordParams) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/user/%d/password", id), params, nil)
}
