// Package guard gates pages on the acting user's resolved role.
package guard

import (
	"context"

	"github.com/bizos/bizos/internal/rbac"
)

// State is the explicit outcome of a guard evaluation.
type State int

const (
	// Loading means the role lookup has not settled; render nothing
	// protected and do not redirect.
	Loading State = iota
	Allowed
	Denied
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Deny reasons.
const (
	ReasonUnresolved = "unresolved"
	ReasonRole       = "role"
)

// Decision is the result of evaluating a resolution against a route.
type Decision struct {
	State  State
	Role   rbac.Role
	Reason string
}

// Evaluate decides whether res may enter a route open to allowed. Holders of
// the wildcard are always admitted; an empty allowed list admits nobody else.
func Evaluate(res rbac.Resolution, allowed []rbac.Role, matrix *rbac.Matrix) Decision {
	if res.Loading {
		return Decision{State: Loading}
	}
	if !res.Known() {
		return Decision{State: Denied, Reason: ReasonUnresolved}
	}
	if matrix.HoldsWildcard(res.Role) || rbac.ContainsRole(allowed, res.Role) {
		return Decision{State: Allowed, Role: res.Role}
	}
	return Decision{State: Denied, Role: res.Role, Reason: ReasonRole}
}

type decisionContextKey struct{}

// ContextWithDecision stores d in ctx.
func ContextWithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey{}, d)
}

// DecisionFromContext returns the decision recorded by the guard that
// admitted the request.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}
