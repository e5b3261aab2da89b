package interfaces

import (
	"context"

	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

// ProfileRepository stores user profiles
type ProfileRepository interface {
	Get(ctx context.Context, id types.UserID) (*model.Profile, error)
	Put(ctx context.Context, p *model.Profile) error

	// List returns profiles ordered by creation time, only unapproved ones when pendingOnly is set
	List(ctx context.Context, pendingOnly bool) ([]*model.Profile, error)
}
