package session

import (
	"context"
	"sync"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/rs/zerolog"
)

type authAPI interface {
	Login(ctx context.Context, username, password string) (api.User, error)
	Logout(ctx context.Context) error
	SessionUser(ctx context.Context) (api.User, error)
}

// Auth tracks whether a session is authenticated. The identity is absent
// until a successful probe or login and cleared on logout. Two distinct busy
// flags are exposed: probing (startup session check) and authenticating (an
// explicit login in flight).
type Auth struct {
	api    authAPI
	logger zerolog.Logger

	mu             sync.RWMutex
	user           *api.User
	probed         bool
	authenticating bool
	watchers       []func(user *api.User)
}

func NewAuth(apiClient authAPI, logger zerolog.Logger) *Auth {
	return &Auth{api: apiClient, logger: logger}
}

// OnUserChange registers a callback invoked whenever the authenticated
// identity changes: probe resolution, login, and logout included. Callbacks
// run synchronously after the state change.
func (a *Auth) OnUserChange(fn func(user *api.User)) {
	a.mu.Lock()
	a.watchers = append(a.watchers, fn)
	a.mu.Unlock()
}

// Probe checks for an existing session. Absence of a session is a normal
// outcome, not an error; transport failures also resolve to "unauthenticated"
// so startup never blocks on a failure banner.
func (a *Auth) Probe(ctx context.Context) {
	user, err := a.api.SessionUser(ctx)

	a.mu.Lock()
	a.probed = true
	if err != nil {
		if !api.IsUnauthorized(err) {
			a.logger.Debug().Err(err).Msg("session probe failed")
		}
		a.user = nil
	} else {
		a.user = &user
	}
	a.mu.Unlock()

	a.notify()
}

// Login exchanges credentials for a session. On failure the error propagates
// to the caller and the identity stays absent.
func (a *Auth) Login(ctx context.Context, username, password string) error {
	a.mu.Lock()
	a.authenticating = true
	a.mu.Unlock()

	user, err := a.api.Login(ctx, username, password)

	a.mu.Lock()
	a.authenticating = false
	if err == nil {
		a.user = &user
		a.probed = true
	}
	a.mu.Unlock()

	if err != nil {
		return err
	}
	a.notify()
	return nil
}

// Logout invalidates the server-side session and clears the local identity
// unconditionally, even when the server call fails.
func (a *Auth) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("server-side logout failed, clearing local session anyway")
	}

	a.mu.Lock()
	a.user = nil
	a.mu.Unlock()

	a.notify()
	return err
}

// SetUser installs an identity obtained out of band (first-run user creation
// responds with a session).
func (a *Auth) SetUser(user *api.User) {
	a.mu.Lock()
	a.user = user
	a.probed = true
	a.mu.Unlock()
	a.notify()
}

// User returns the current identity, or nil when unauthenticated.
func (a *Auth) User() *api.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

func (a *Auth) Authenticated() bool {
	return a.User() != nil
}

// Probed reports whether the startup session probe has resolved.
func (a *Auth) Probed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.probed
}

// Authenticating reports whether an explicit login is in flight.
func (a *Auth) Authenticating() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authenticating
}

func (a *Auth) notify() {
	a.mu.RLock()
	user := a.user
	watchers := make([]func(*api.User), len(a.watchers))
	copy(watchers, a.watchers)
	a.mu.RUnlock()

	for _, fn := range watchers {
		fn(user)
	}
}
