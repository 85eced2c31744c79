package middleware

import (
	"context"

	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guardCommands(a.Authorize)
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guardQueries(a.Authorize)
}

// OwnerScoped is implemented by messages that carry the caller's owner scope.
type OwnerScoped interface {
	OwnerScope() scope.Owner
}

// OwnerScopeAuthorizer rejects scoped messages whose owner id cannot identify a real owner.
// Owner id 0 is reserved for shared profiles and is never a valid caller.
type OwnerScopeAuthorizer struct{}

func (OwnerScopeAuthorizer) Authorize(_ context.Context, message any) error {
	scoped, ok := message.(OwnerScoped)
	if !ok {
		return nil
	}
	sc := scoped.OwnerScope()
	if sc.Scoped() && sc.ID() <= 0 {
		return errs.ErrForbidden
	}
	return nil
}
