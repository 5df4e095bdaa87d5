// Package guard holds the pure navigation decision logic: given the current
// auth and initialization state plus what a route demands, decide whether to
// render it or where to send the user instead. No state is kept between
// evaluations; the decision is fully recomputed from its inputs each time.
package guard

import "github.com/auto-dns/pihole-cluster-admin/internal/api"

type Route string

const (
	RouteHome         Route = "/"
	RouteLogin        Route = "/login"
	RouteSetupUser    Route = "/setup/user"
	RouteSetupPiholes Route = "/setup/piholes"
)

// Requirement is a route's declared access rule. Protected routes require a
// session and may additionally require completed setup; unprotected routes may
// restrict themselves to the not-yet-initialized first run.
type Requirement struct {
	Protected             bool
	RequireFullInit       bool
	OnlyWhenUninitialized bool
}

// State is the input snapshot a decision is computed from. Resolved must be
// true once both the auth probe and the public init probe have completed;
// until then every decision is pending.
type State struct {
	Resolved      bool
	Authenticated bool
	PublicStatus  bool
	FullStatus    *api.FullInitStatus
}

type Decision struct {
	Pending  bool
	Allow    bool
	Redirect Route
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirect(target Route) Decision {
	return Decision{Redirect: target}
}

// IsFullyInitialized reports whether an admin user exists and the pihole
// setup step has been completed or explicitly skipped.
func IsFullyInitialized(status *api.FullInitStatus) bool {
	if status == nil {
		return false
	}
	return status.UserCreated && status.PiholeStatus != api.PiholeUninitialized
}

// Decide maps (auth state x initialization state x route requirement) to an
// outcome. First matching rule wins.
func Decide(state State, req Requirement) Decision {
	if !state.Resolved {
		return Decision{Pending: true}
	}
	if req.Protected {
		return decideProtected(state, req)
	}
	return decideUnprotected(state, req)
}

func decideProtected(state State, req Requirement) Decision {
	if !state.Authenticated {
		if !state.PublicStatus {
			return redirect(RouteSetupUser)
		}
		return redirect(RouteLogin)
	}

	fullyInitialized := IsFullyInitialized(state.FullStatus)
	if req.RequireFullInit && !fullyInitialized {
		return redirect(RouteSetupPiholes)
	}
	if req.OnlyWhenUninitialized && fullyInitialized {
		return redirect(RouteHome)
	}
	return allow()
}

// decideUnprotected inverts the unauthenticated rows: an authenticated
// visitor is sent onward to setup or home, and a first-run-only page is shown
// only while no admin user exists.
func decideUnprotected(state State, req Requirement) Decision {
	if state.Authenticated {
		if !IsFullyInitialized(state.FullStatus) {
			return redirect(RouteSetupPiholes)
		}
		return redirect(RouteHome)
	}

	if req.OnlyWhenUninitialized {
		if state.PublicStatus {
			return redirect(RouteLogin)
		}
		return allow()
	}
	if !state.PublicStatus {
		return redirect(RouteSetupUser)
	}
	return allow()
}
