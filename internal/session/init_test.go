package session

import (
	"context"
	"errors"
	"testing"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSetupAPI struct {
	public    bool
	publicErr error
	full      api.FullInitStatus
	fullErr   error
	fullCalls int
	updated   []api.PiholeInitStatus
	updateErr error
}

func (f *fakeSetupAPI) PublicInitStatus(context.Context) (bool, error) {
	return f.public, f.publicErr
}

func (f *fakeSetupAPI) FullInitStatus(context.Context) (api.FullInitStatus, error) {
	f.fullCalls++
	return f.full, f.fullErr
}

func (f *fakeSetupAPI) UpdatePiholeInitStatus(_ context.Context, status api.PiholeInitStatus) error {
	f.updated = append(f.updated, status)
	return f.updateErr
}

func TestRefreshPublicResolvesFlag(t *testing.T) {
	fake := &fakeSetupAPI{public: true}
	state := NewInitState(fake, zerolog.Nop())

	_, resolved := state.PublicStatus()
	assert.False(t, resolved)

	require.NoError(t, state.RefreshPublic(context.Background()))
	initialized, resolved := state.PublicStatus()
	assert.True(t, initialized)
	assert.True(t, resolved)
}

func TestRefreshPublicFailureKeepsLastValue(t *testing.T) {
	fake := &fakeSetupAPI{public: true}
	state := NewInitState(fake, zerolog.Nop())
	require.NoError(t, state.RefreshPublic(context.Background()))

	fake.publicErr = errors.New("connection refused")
	require.Error(t, state.RefreshPublic(context.Background()))

	initialized, resolved := state.PublicStatus()
	assert.True(t, initialized, "a failed refresh must not zero the flag")
	assert.True(t, resolved)
}

func TestRefreshFull(t *testing.T) {
	fake := &fakeSetupAPI{full: api.FullInitStatus{UserCreated: true, PiholeStatus: api.PiholeAdded}}
	state := NewInitState(fake, zerolog.Nop())

	assert.Nil(t, state.FullStatus())
	require.NoError(t, state.RefreshFull(context.Background()))

	status := state.FullStatus()
	require.NotNil(t, status)
	assert.True(t, status.UserCreated)
	assert.Equal(t, api.PiholeAdded, status.PiholeStatus)
}

func TestBindClearsFullStatusOnLogout(t *testing.T) {
	setupFake := &fakeSetupAPI{full: api.FullInitStatus{UserCreated: true, PiholeStatus: api.PiholeAdded}}
	authFake := &fakeAuthAPI{sessionUser: api.User{Id: 1, Username: "admin"}}

	auth := NewAuth(authFake, zerolog.Nop())
	state := NewInitState(setupFake, zerolog.Nop())
	state.Bind(auth)

	auth.Probe(context.Background())
	require.NotNil(t, state.FullStatus(), "identity resolution triggers a full refresh")

	require.NoError(t, auth.Logout(context.Background()))
	assert.Nil(t, state.FullStatus(), "no stale setup detail after the identity goes away")
}

func TestBindRefreshFailureLeavesStatusAbsent(t *testing.T) {
	setupFake := &fakeSetupAPI{fullErr: errors.New("boom")}
	authFake := &fakeAuthAPI{sessionUser: api.User{Id: 1, Username: "admin"}}

	auth := NewAuth(authFake, zerolog.Nop())
	state := NewInitState(setupFake, zerolog.Nop())
	state.Bind(auth)

	auth.Probe(context.Background())
	assert.Nil(t, state.FullStatus())
}

func TestUpdatePiholeInitStatusRefreshControl(t *testing.T) {
	fake := &fakeSetupAPI{full: api.FullInitStatus{UserCreated: true, PiholeStatus: api.PiholeSkipped}}
	state := NewInitState(fake, zerolog.Nop())

	require.NoError(t, state.UpdatePiholeInitStatus(context.Background(), api.PiholeSkipped, false))
	assert.Equal(t, []api.PiholeInitStatus{api.PiholeSkipped}, fake.updated)
	assert.Zero(t, fake.fullCalls)
	assert.Nil(t, state.FullStatus())

	require.NoError(t, state.UpdatePiholeInitStatus(context.Background(), api.PiholeSkipped, true))
	assert.Equal(t, 1, fake.fullCalls)
	require.NotNil(t, state.FullStatus())
}

func TestUpdatePiholeInitStatusPropagatesError(t *testing.T) {
	fake := &fakeSetupAPI{updateErr: errors.New("bad status")}
	state := NewInitState(fake, zerolog.Nop())

	err := state.UpdatePiholeInitStatus(context.Background(), api.PiholeAdded, true)
	require.Error(t, err)
	assert.Zero(t, fake.fullCalls, "no refresh after a failed update")
}
