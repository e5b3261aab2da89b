package usecase

import (
	"context"
	"sync"

	"github.com/plotline-dev/plotline/pkg/domain/model"
)

// SchemaBuilder holds a draft schema between builder operations. The draft is
// never stored; Commit publishes it as a new version.
type SchemaBuilder struct {
	schemas *SchemaUseCase
	builder *model.Builder

	mu    sync.Mutex
	draft *model.FormSchema
}

func newSchemaBuilder(schemas *SchemaUseCase, base *model.FormSchema, builder *model.Builder) *SchemaBuilder {
	draft := base.Clone()
	draft.ID = ""
	return &SchemaBuilder{
		schemas: schemas,
		builder: builder,
		draft:   draft,
	}
}

// Draft returns a copy of the schema being edited
func (b *SchemaBuilder) Draft() *model.FormSchema {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draft.Clone()
}

func (b *SchemaBuilder) apply(op func(*model.FormSchema) (*model.FormSchema, error)) (*model.FormSchema, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := op(b.draft)
	if err != nil {
		return nil, err
	}
	b.draft = next
	return next.Clone(), nil
}

func (b *SchemaBuilder) AddStep() *model.FormSchema {
	next, _ := b.apply(func(s *model.FormSchema) (*model.FormSchema, error) {
		return b.builder.AddStep(s), nil
	})
	return next
}

func (b *SchemaBuilder) UpdateStep(stepIndex int, patch model.StepPatch) (*model.FormSchema, error) {
	return b.apply(func(s *model.FormSchema) (*model.FormSchema, error) {
		return b.builder.UpdateStep(s, stepIndex, patch)
	})
}

func (b *SchemaBuilder) DeleteStep(stepIndex int) (*model.FormSchema, error) {
	return b.apply(func(s *model.FormSchema) (*model.FormSchema, error) {
		return b.builder.DeleteStep(s, stepIndex)
	})
}

func (b *SchemaBuilder) AddField(stepIndex int) (*model.FormSchema, error) {
	return b.apply(func(s *model.FormSchema) (*model.FormSchema, error) {
		return b.builder.AddField(s, stepIndex)
	})
}

func (b *SchemaBuilder) UpdateField(stepIndex, fieldIndex int, field model.FormField) (*model.FormSchema, error) {
	return b.apply(func(s *model.FormSchema) (*model.FormSchema, error) {
		return b.builder.UpdateField(s, stepIndex, fieldIndex, field)
	})
}

func (b *SchemaBuilder) DeleteField(stepIndex, fieldIndex int) (*model.FormSchema, error) {
	return b.apply(func(s *model.FormSchema) (*model.FormSchema, error) {
		return b.builder.DeleteField(s, stepIndex, fieldIndex)
	})
}

func (b *SchemaBuilder) MoveField(stepIndex, from, to int) (*model.FormSchema, error) {
	return b.apply(func(s *model.FormSchema) (*model.FormSchema, error) {
		return b.builder.MoveField(s, stepIndex, from, to)
	})
}

// Commit publishes the draft. On success the draft adopts the stored version
// and status so that further edits and commits build on it.
func (b *SchemaBuilder) Commit(ctx context.Context) (*model.FormSchema, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	saved, err := b.schemas.SaveSchema(ctx, b.draft)
	if err != nil {
		return nil, err
	}

	b.draft = saved.Clone()
	b.draft.ID = ""
	return saved, nil
}
