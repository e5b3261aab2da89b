package interfaces

import (
	"context"

	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
)

// Notifier announces domain events to humans. Implementations must be safe
// for concurrent use; callers dispatch notifications asynchronously.
type Notifier interface {
	SchemaPublished(ctx context.Context, schema *model.FormSchema, actor *auth.Principal) error
	PropertySubmitted(ctx context.Context, property *model.Property, actor *auth.Principal, created bool) error
	ProfilePending(ctx context.Context, profile *model.Profile) error
}
