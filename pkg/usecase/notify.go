package usecase

import (
	"context"

	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
)

// notifications sends events to the optional notifier in the background so a
// slow or failing notifier never fails the operation that raised the event
type notifications struct {
	notifier interfaces.Notifier
	dispatch func(ctx context.Context, handler func(ctx context.Context) error)
}

func (n *notifications) schemaPublished(ctx context.Context, schema *model.FormSchema, actor *auth.Principal) {
	if n == nil || n.notifier == nil {
		return
	}
	schema = schema.Clone()
	n.dispatch(ctx, func(ctx context.Context) error {
		return n.notifier.SchemaPublished(ctx, schema, actor)
	})
}

func (n *notifications) propertySubmitted(ctx context.Context, property *model.Property, actor *auth.Principal, created bool) {
	if n == nil || n.notifier == nil {
		return
	}
	property = property.Clone()
	n.dispatch(ctx, func(ctx context.Context) error {
		return n.notifier.PropertySubmitted(ctx, property, actor, created)
	})
}

func (n *notifications) profilePending(ctx context.Context, profile *model.Profile) {
	if n == nil || n.notifier == nil {
		return
	}
	copied := *profile
	n.dispatch(ctx, func(ctx context.Context) error {
		return n.notifier.ProfilePending(ctx, &copied)
	})
}
