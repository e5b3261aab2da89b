package auth

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

var (
	ErrUnauthenticated = goerr.New("unauthenticated")
	ErrUnauthorized    = goerr.New("unauthorized")
)

// Principal is the acting user of a request, resolved from its profile
type Principal struct {
	ID       types.UserID `json:"id"`
	Email    string       `json:"email" masq:"secret"`
	Role     types.Role   `json:"role"`
	Approved bool         `json:"approved"`
}

// IsAdmin reports whether the principal holds the admin role
func (p *Principal) IsAdmin() bool {
	return p.Role == types.RoleAdmin
}

type ctxPrincipalKey struct{}

// ContextWithPrincipal stores the acting principal in the context
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey{}, p)
}

// PrincipalFromContext returns the acting principal or ErrUnauthenticated
func PrincipalFromContext(ctx context.Context) (*Principal, error) {
	p, ok := ctx.Value(ctxPrincipalKey{}).(*Principal)
	if !ok || p == nil {
		return nil, goerr.Wrap(ErrUnauthenticated, "no principal in context")
	}
	return p, nil
}
