package api

import (
	"context"
	"net/http"
)

type loginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session. The session cookie is captured
// from the response and replayed on subsequent requests.
func (c *Client) Login(ctx context.Context, username, password string) (User, error) {
	var user User
	err := c.doJSON(ctx, http.MethodPost, "/login", loginParams{Username: username, Password: password}, &user)
	return user, err
}

// Logout invalidates the server-side session. The local token is cleared
// unconditionally, even when the server call fails, so the caller can always
// leave locally.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/logout", nil, nil)
	c.ClearSession()
	return err
}

// SessionUser probes for an existing session. A 401 means no session, which is
// a normal outcome for the caller to interpret, not a transport failure.
func (c *Client) SessionUser(ctx context.Context) (User, error) {
	var user User
	err := c.doJSON(ctx, http.MethodGet, "/session/user", nil, &user)
	return user, err
}
