// Package gate is the role gate: every mutating workflow operation calls
// Authorize with the literal role it requires before touching any record.
package gate

import (
	"context"
	"slices"
	"strings"

	"sankalp/internal/identity/models"
	dErrors "sankalp/pkg/domain-errors"
)

// Authorize allows the call only when actor holds role. A denial carries
// CodeForbidden and the caller must not mutate anything.
func Authorize(actor *models.Actor, role models.Role) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role != role {
		return dErrors.Newf(dErrors.CodeForbidden, "only %s actors may perform this action", role)
	}
	return nil
}

// AuthorizeAny allows the call when actor holds any of roles.
func AuthorizeAny(actor *models.Actor, roles ...models.Role) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if slices.Contains(roles, actor.Role) {
		return nil
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return dErrors.Newf(dErrors.CodeForbidden, "only %s actors may perform this action", strings.Join(names, ", "))
}

type actorKey struct{}

// WithActor stores the resolved actor for the rest of the request.
func WithActor(ctx context.Context, actor *models.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor resolved by the auth chain, if any.
func ActorFrom(ctx context.Context) (*models.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(*models.Actor)
	return a, ok && a != nil
}
