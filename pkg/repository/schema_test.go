package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

func newSchema(formKey types.FormKey, title string) *model.FormSchema {
	return &model.FormSchema{
		FormKey: formKey,
		Steps: []model.FormStep{
			{
				StepID: "basic",
				Title:  title,
				Fields: []model.FormField{
					{
						Key:        "title",
						Type:       types.FieldTypeText,
						Label:      "Title",
						Validation: &model.FieldValidation{Required: true},
					},
					{
						Key:   "kind",
						Type:  types.FieldTypeSelect,
						Label: "Kind",
						Options: []model.FieldOption{
							{Label: "Villa", Value: "villa"},
							{Label: "Plot", Value: "plot"},
						},
						Visibility: &model.FieldVisibility{Roles: []types.Role{types.RoleAdmin}},
					},
				},
			},
		},
	}
}

func runSchemaRepositoryTest(t *testing.T, newRepo repoFactory) {
	t.Helper()

	t.Run("Publish allocates v1, v2, v3", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for i, want := range []string{"v1", "v2", "v3"} {
			published, err := repo.Schema().Publish(ctx, newSchema("PROPERTY_BROKER", want))
			gt.NoError(t, err).Required()
			gt.Value(t, published.Version).Equal(want)
			gt.Value(t, published.Status).Equal(types.SchemaStatusActive)
			gt.Value(t, published.ID).NotEqual("")
			gt.Bool(t, published.CreatedAt.IsZero()).False()

			versions, err := repo.Schema().List(ctx, "PROPERTY_BROKER")
			gt.NoError(t, err).Required()
			gt.A(t, versions).Length(i + 1)
		}
	})

	t.Run("Publish keeps exactly one ACTIVE version", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for range 3 {
			_, err := repo.Schema().Publish(ctx, newSchema("PROPERTY_BROKER", "t"))
			gt.NoError(t, err).Required()
		}

		versions, err := repo.Schema().List(ctx, "PROPERTY_BROKER")
		gt.NoError(t, err).Required()
		gt.A(t, versions).Length(3)
		gt.Value(t, versions[0].Version).Equal("v3")

		active := 0
		for _, v := range versions {
			if v.Status == types.SchemaStatusActive {
				active++
				gt.Value(t, v.Version).Equal("v3")
			} else {
				gt.Value(t, v.Status).Equal(types.SchemaStatusDeprecated)
			}
		}
		gt.Value(t, active).Equal(1)
	})

	t.Run("Get returns stored content of old versions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Schema().Publish(ctx, newSchema("PROPERTY_BROKER", "first"))
		gt.NoError(t, err).Required()
		before, err := repo.Schema().Get(ctx, "PROPERTY_BROKER", "v1")
		gt.NoError(t, err).Required()

		_, err = repo.Schema().Publish(ctx, newSchema("PROPERTY_BROKER", "second"))
		gt.NoError(t, err).Required()

		after, err := repo.Schema().Get(ctx, "PROPERTY_BROKER", "v1")
		gt.NoError(t, err).Required()
		gt.Value(t, after.Steps).Equal(before.Steps)
		gt.Value(t, after.Steps[0].Title).Equal("first")
		gt.Value(t, after.Steps[0].Fields[1].Visibility.Roles).Equal([]types.Role{types.RoleAdmin})
		gt.Value(t, after.Version).Equal("v1")
	})

	t.Run("GetActive returns highest active version", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Schema().GetActive(ctx, "PROPERTY_BROKER")
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		_, err = repo.Schema().Publish(ctx, newSchema("PROPERTY_BROKER", "first"))
		gt.NoError(t, err).Required()
		_, err = repo.Schema().Publish(ctx, newSchema("PROPERTY_BROKER", "second"))
		gt.NoError(t, err).Required()

		active, err := repo.Schema().GetActive(ctx, "PROPERTY_BROKER")
		gt.NoError(t, err).Required()
		gt.Value(t, active.Version).Equal("v2")
		gt.Value(t, active.Steps[0].Title).Equal("second")

		latest, err := repo.Schema().GetLatest(ctx, "PROPERTY_BROKER")
		gt.NoError(t, err).Required()
		gt.Value(t, latest.Version).Equal("v2")
	})

	t.Run("Get returns ErrNotFound for unknown version", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Schema().Publish(ctx, newSchema("PROPERTY_BROKER", "first"))
		gt.NoError(t, err).Required()

		_, err = repo.Schema().Get(ctx, "PROPERTY_BROKER", "v9")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
		_, err = repo.Schema().GetLatest(ctx, "OTHER_FORM")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("form keys are independent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Schema().Publish(ctx, newSchema("PROPERTY_BROKER", "a"))
		gt.NoError(t, err).Required()
		other, err := repo.Schema().Publish(ctx, newSchema("PROPERTY_INTERNAL", "b"))
		gt.NoError(t, err).Required()
		gt.Value(t, other.Version).Equal("v1")

		keys, err := repo.Schema().ListFormKeys(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, keys).Equal([]types.FormKey{"PROPERTY_BROKER", "PROPERTY_INTERNAL"})
	})

	t.Run("concurrent Publish never duplicates a version", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const writers = 5
		var wg sync.WaitGroup
		versions := make(chan string, writers)
		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, err := repo.Schema().Publish(ctx, newSchema("PROPERTY_BROKER", "c"))
				if err != nil {
					gt.Error(t, err).Is(interfaces.ErrVersionConflict)
					return
				}
				versions <- s.Version
			}()
		}
		wg.Wait()
		close(versions)

		seen := map[string]bool{}
		for v := range versions {
			gt.Bool(t, seen[v]).False()
			seen[v] = true
		}

		all, err := repo.Schema().List(ctx, "PROPERTY_BROKER")
		gt.NoError(t, err).Required()
		gt.A(t, all).Length(len(seen))
	})
}

func TestSchemaRepository(t *testing.T) {
	runAll(t, runSchemaRepositoryTest)
}
