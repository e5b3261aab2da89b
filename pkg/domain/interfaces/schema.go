package interfaces

import (
	"context"

	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

// SchemaRepository stores immutable form schema versions
type SchemaRepository interface {
	// Get retrieves one exact version
	Get(ctx context.Context, formKey types.FormKey, version string) (*model.FormSchema, error)

	// GetActive retrieves the ACTIVE version with the highest version number
	GetActive(ctx context.Context, formKey types.FormKey) (*model.FormSchema, error)

	// GetLatest retrieves the most recently created version regardless of status
	GetLatest(ctx context.Context, formKey types.FormKey) (*model.FormSchema, error)

	// List retrieves all versions of a form key, newest first
	List(ctx context.Context, formKey types.FormKey) ([]*model.FormSchema, error)

	// ListFormKeys retrieves every form key that has at least one version
	ListFormKeys(ctx context.Context) ([]types.FormKey, error)

	// Publish stores schema as the next version of its form key in one atomic
	// step: the version is allocated from the latest row, the new row is ACTIVE
	// and every other ACTIVE row of the key becomes DEPRECATED. The version
	// and timestamps of the argument are ignored and assigned by the store.
	Publish(ctx context.Context, schema *model.FormSchema) (*model.FormSchema, error)
}
