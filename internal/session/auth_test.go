package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthAPI struct {
	sessionUser    api.User
	sessionUserErr error
	loginUser      api.User
	loginErr       error
	logoutErr      error
	logoutCalls    int
}

func (f *fakeAuthAPI) Login(_ context.Context, username, password string) (api.User, error) {
	return f.loginUser, f.loginErr
}

func (f *fakeAuthAPI) Logout(context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAuthAPI) SessionUser(context.Context) (api.User, error) {
	return f.sessionUser, f.sessionUserErr
}

func unauthorized() error {
	return &api.Error{StatusCode: http.StatusUnauthorized, Message: "no session"}
}

func TestProbeResolvesIdentity(t *testing.T) {
	fake := &fakeAuthAPI{sessionUser: api.User{Id: 1, Username: "admin"}}
	auth := NewAuth(fake, zerolog.Nop())

	assert.False(t, auth.Probed())
	auth.Probe(context.Background())

	assert.True(t, auth.Probed())
	require.NotNil(t, auth.User())
	assert.Equal(t, "admin", auth.User().Username)
	assert.True(t, auth.Authenticated())
}

func TestProbeWithoutSessionResolvesUnauthenticated(t *testing.T) {
	fake := &fakeAuthAPI{sessionUserErr: unauthorized()}
	auth := NewAuth(fake, zerolog.Nop())

	auth.Probe(context.Background())

	assert.True(t, auth.Probed(), "a 401 still resolves the probe")
	assert.Nil(t, auth.User())
}

func TestProbeTransportFailureResolvesUnauthenticated(t *testing.T) {
	fake := &fakeAuthAPI{sessionUserErr: errors.New("connection refused")}
	auth := NewAuth(fake, zerolog.Nop())

	auth.Probe(context.Background())

	assert.True(t, auth.Probed())
	assert.Nil(t, auth.User())
}

func TestLoginSuccessSetsIdentity(t *testing.T) {
	fake := &fakeAuthAPI{loginUser: api.User{Id: 2, Username: "operator"}}
	auth := NewAuth(fake, zerolog.Nop())

	require.NoError(t, auth.Login(context.Background(), "operator", "pw"))
	require.NotNil(t, auth.User())
	assert.Equal(t, "operator", auth.User().Username)
	assert.True(t, auth.Probed(), "a successful login makes a probe redundant")
	assert.False(t, auth.Authenticating())
}

func TestLoginFailureKeepsIdentityAbsent(t *testing.T) {
	fake := &fakeAuthAPI{loginErr: unauthorized()}
	auth := NewAuth(fake, zerolog.Nop())

	var notified int
	auth.OnUserChange(func(*api.User) { notified++ })

	err := auth.Login(context.Background(), "operator", "wrong")
	assert.True(t, api.IsUnauthorized(err))
	assert.Nil(t, auth.User())
	assert.Zero(t, notified, "a failed login is not an identity change")
	assert.False(t, auth.Authenticating())
}

func TestLogoutClearsIdentityEvenOnServerFailure(t *testing.T) {
	fake := &fakeAuthAPI{
		sessionUser: api.User{Id: 1, Username: "admin"},
		logoutErr:   errors.New("session store down"),
	}
	auth := NewAuth(fake, zerolog.Nop())
	auth.Probe(context.Background())
	require.NotNil(t, auth.User())

	err := auth.Logout(context.Background())
	assert.Error(t, err, "the server failure still surfaces to the caller")
	assert.Nil(t, auth.User(), "the local identity is dropped regardless")
	assert.Equal(t, 1, fake.logoutCalls)
}

func TestWatchersObserveEveryIdentityChange(t *testing.T) {
	fake := &fakeAuthAPI{
		sessionUserErr: unauthorized(),
		loginUser:      api.User{Id: 1, Username: "admin"},
	}
	auth := NewAuth(fake, zerolog.Nop())

	var seen []*api.User
	auth.OnUserChange(func(user *api.User) { seen = append(seen, user) })

	auth.Probe(context.Background())
	require.NoError(t, auth.Login(context.Background(), "admin", "pw"))
	require.NoError(t, auth.Logout(context.Background()))

	require.Len(t, seen, 3)
	assert.Nil(t, seen[0])
	require.NotNil(t, seen[1])
	assert.Equal(t, "admin", seen[1].Username)
	assert.Nil(t, seen[2])
}

func TestSetUserInstallsIdentity(t *testing.T) {
	auth := NewAuth(&fakeAuthAPI{}, zerolog.Nop())

	var seen []*api.User
	auth.OnUserChange(func(user *api.User) { seen = append(seen, user) })

	auth.SetUser(&api.User{Id: 3, Username: "firstrun"})

	assert.True(t, auth.Probed())
	require.NotNil(t, auth.User())
	assert.Equal(t, "firstrun", auth.User().Username)
	require.Len(t, seen, 1)
}
