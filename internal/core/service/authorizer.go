package service

import "github.com/99minutos/multirole-auth/internal/core/domain"

// Authorizer is the flat-role decision engine: a resource is reachable only by
// principals that hold its required role. No role implies another.
type Authorizer struct{}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// Decide returns DecisionUnauthenticated for a nil principal, DecisionAllow when
// the principal holds required, and DecisionDeny otherwise.
func (Authorizer) Decide(principal *domain.Principal, required domain.RoleName) domain.Decision {
	if principal == nil {
		return domain.DecisionUnauthenticated
	}
	if principal.Holds(required) {
		return domain.DecisionAllow
	}
	return domain.DecisionDeny
}
