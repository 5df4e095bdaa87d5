package api

import (
	"context"
	"net/http"
)

type createUserParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUser creates the first admin user during guided setup. The server
// responds with a session cookie, so a successful call leaves the client
// logged in as that user.
func (c *Client) CreateUser(ctx context.Context, username, password string) (User, error) {
	var user User
	err := c.doJSON(ctx, http.MethodPost, "/setup/user", createUserParams{Username: username, Password: password}, &user)
	return user, err
}

// PublicInitStatus fetches the coarse "has any admin user been created" flag.
// Available without authentication.
func (c *Client) PublicInitStatus(ctx context.Context) (bool, error) {
	var payload struct {
		Initialized bool `json:"initialized"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/setup/initialized", nil, &payload); err != nil {
		return false, err
	}
	return payload.Initialized, nil
}

// FullInitStatus fetches detailed setup progress. Requires authentication.
func (c *Client) FullInitStatus(ctx context.Context) (FullInitStatus, error) {
	var status FullInitStatus
	err := c.doJSON(ctx, http.MethodGet, "/setup/status", nil, &status)
	return status, err
}

type updatePiholeInitStatusParams struct {
	Status PiholeInitStatus `json:"status"`
}

// UpdatePiholeInitStatus patches the pihole step of guided setup.
func (c *Client) UpdatePiholeInitStatus(ctx context.Context, status PiholeInitStatus) error {
	return c.doJSON(ctx, http.MethodPatch, "/setup/status/pihole", updatePiholeInitStatusParams{Status: status}, nil)
}
