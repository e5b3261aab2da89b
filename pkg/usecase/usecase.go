package usecase

import (
	"context"

	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/utils/async"
)

type UseCases struct {
	repo     interfaces.Repository
	notifier interfaces.Notifier
	idGen    model.IDGenerator
	dispatch func(ctx context.Context, handler func(ctx context.Context) error)

	Schema   *SchemaUseCase
	Property *PropertyUseCase
	User     *UserUseCase
}

type Option func(*UseCases)

// WithNotifier enables notifications of published schemas, submitted
// properties and pending users
func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

// WithIDGenerator sets the generator of step IDs and field keys used by schema builders
func WithIDGenerator(gen model.IDGenerator) Option {
	return func(uc *UseCases) {
		uc.idGen = gen
	}
}

// WithDispatcher replaces how notifications are run in the background
func WithDispatcher(dispatch func(ctx context.Context, handler func(ctx context.Context) error)) Option {
	return func(uc *UseCases) {
		uc.dispatch = dispatch
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:     repo,
		idGen:    model.DefaultIDGenerator(),
		dispatch: async.Dispatch,
	}

	for _, opt := range opts {
		opt(uc)
	}

	n := &notifications{notifier: uc.notifier, dispatch: uc.dispatch}
	uc.Schema = NewSchemaUseCase(repo, n, uc.idGen)
	uc.Property = NewPropertyUseCase(repo, uc.Schema, n)
	uc.User = NewUserUseCase(repo, n)

	return uc
}
