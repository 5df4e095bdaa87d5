package session

import (
	"context"
	"sync"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/rs/zerolog"
)

type setupAPI interface {
	PublicInitStatus(ctx context.Context) (bool, error)
	FullInitStatus(ctx context.Context) (api.FullInitStatus, error)
	UpdatePiholeInitStatus(ctx context.Context, status api.PiholeInitStatus) error
}

// InitState tracks how far guided setup has progressed. The public flag is
// available to unauthenticated callers; the full status requires a session
// and is force-cleared whenever the identity becomes absent, so a logged-out
// viewer never sees stale detail.
type InitState struct {
	api    setupAPI
	logger zerolog.Logger

	mu             sync.RWMutex
	publicStatus   bool
	publicResolved bool
	fullStatus     *api.FullInitStatus
}

func NewInitState(apiClient setupAPI, logger zerolog.Logger) *InitState {
	return &InitState{api: apiClient, logger: logger}
}

// Bind re-evaluates the full status whenever the authenticated identity
// changes on the given Auth.
func (s *InitState) Bind(auth *Auth) {
	auth.OnUserChange(func(user *api.User) {
		if user == nil {
			s.clearFull()
			return
		}
		if err := s.RefreshFull(context.Background()); err != nil {
			s.logger.Debug().Err(err).Msg("refreshing full init status after identity change")
		}
	})
}

// RefreshPublic fetches the coarse "has setup happened at all" flag.
func (s *InitState) RefreshPublic(ctx context.Context) error {
	initialized, err := s.api.PublicInitStatus(ctx)

	s.mu.Lock()
	s.publicResolved = true
	if err == nil {
		s.publicStatus = initialized
	}
	s.mu.Unlock()

	return err
}

// RefreshFull fetches detailed setup progress. Only meaningful when
// authenticated.
func (s *InitState) RefreshFull(ctx context.Context) error {
	status, err := s.api.FullInitStatus(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.fullStatus = &status
	s.mu.Unlock()
	return nil
}

// UpdatePiholeInitStatus patches the pihole setup step server-side and
// optionally re-fetches the full status.
func (s *InitState) UpdatePiholeInitStatus(ctx context.Context, status api.PiholeInitStatus, triggerRefresh bool) error {
	if err := s.api.UpdatePiholeInitStatus(ctx, status); err != nil {
		return err
	}
	if triggerRefresh {
		return s.RefreshFull(ctx)
	}
	return nil
}

func (s *InitState) clearFull() {
	s.mu.Lock()
	s.fullStatus = nil
	s.mu.Unlock()
}

// PublicStatus returns the coarse init flag and whether it has resolved yet.
func (s *InitState) PublicStatus() (initialized, resolved bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publicStatus, s.publicResolved
}

// FullStatus returns the detailed setup progress, or nil when unauthenticated
// or not yet fetched.
func (s *InitState) FullStatus() *api.FullInitStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fullStatus
}
