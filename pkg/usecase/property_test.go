package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"github.com/plotline-dev/plotline/pkg/repository/memory"
	"github.com/plotline-dev/plotline/pkg/usecase"
)

func TestPropertyUseCase_EndToEnd(t *testing.T) {
	repo := memory.New()
	uc, n := newTestUseCases(repo)

	v1, err := uc.Schema.SaveSchema(adminCtx(), titleSchema("PROPERTY_BROKER"))
	gt.NoError(t, err).Required()
	gt.Value(t, v1.Version).Equal("v1")

	rendered, err := uc.Schema.GetSchema(brokerCtx(), "PROPERTY_BROKER", "")
	gt.NoError(t, err).Required()
	gt.Value(t, rendered.Version).Equal("v1")

	session := model.NewFormSession(rendered, types.RoleBroker, nil)
	session.Set(model.LegacyKeyTitle, "Plot A")
	gt.NoError(t, session.Submit(brokerCtx(), uc.Property.Submitter(""))).Required()
	gt.Bool(t, session.Done()).True()

	gt.A(t, n.properties).Length(1)
	stored := n.properties[0].property
	gt.Bool(t, n.properties[0].created).True()
	gt.Value(t, stored.Data).Equal(map[string]any{model.LegacyKeyTitle: "Plot A"})
	gt.Value(t, stored.Legacy.Title).Equal("Plot A")
	gt.Value(t, stored.FormVersion).Equal("v1")
	gt.Value(t, stored.CreatedBy).Equal(brokerID)

	edited := titleSchema("PROPERTY_BROKER")
	edited.Steps[0].Fields = append(edited.Steps[0].Fields, model.FormField{
		Key:   model.LegacyKeyCity,
		Type:  types.FieldTypeText,
		Label: "City",
	})
	v2, err := uc.Schema.SaveSchema(adminCtx(), edited)
	gt.NoError(t, err).Required()
	gt.Value(t, v2.Version).Equal("v2")

	reloaded, err := uc.Schema.GetSchema(brokerCtx(), "PROPERTY_BROKER", "")
	gt.NoError(t, err).Required()
	gt.Value(t, reloaded.Version).Equal("v2")
	gt.Value(t, reloaded.Status).Equal(types.SchemaStatusActive)

	got, err := uc.Property.Get(brokerCtx(), stored.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.FormVersion).Equal("v1")
}

func TestPropertyUseCase_Submit(t *testing.T) {
	t.Run("unpublished key accepts v1 rendered from the default schema", func(t *testing.T) {
		uc, _ := newTestUseCases(memory.New())

		def, err := uc.Schema.GetSchema(brokerCtx(), "PROPERTY", "")
		gt.NoError(t, err).Required()

		created, err := uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
			FormKey: "PROPERTY",
			Version: def.Version,
			Values: map[string]any{
				model.LegacyKeyTitle:        "Sea View Villa",
				model.LegacyKeyAskingPrice:  "7500000",
				model.LegacyKeyPropertyType: "villa",
				model.LegacyKeyCity:         "Goa",
			},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.FormVersion).Equal("v1")
		gt.Value(t, created.Legacy.AskingPrice).Equal(7500000.0)
		gt.Value(t, created.Legacy.PropertyType).Equal("villa")
		gt.Value(t, created.Legacy.ListingType).Equal(model.DefaultListingType)
		gt.Value(t, created.Data[model.LegacyKeyAskingPrice]).Equal(7500000.0)
	})

	t.Run("missing version of a published key is not found", func(t *testing.T) {
		uc, _ := newTestUseCases(memory.New())
		_, err := uc.Schema.SaveSchema(adminCtx(), titleSchema("PROPERTY"))
		gt.NoError(t, err).Required()

		_, err = uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
			FormKey: "PROPERTY",
			Version: "v9",
			Values:  map[string]any{model.LegacyKeyTitle: "x"},
		})
		gt.Error(t, err).Is(usecase.ErrSchemaNotFound)
	})

	t.Run("validation covers every step and reports all fields", func(t *testing.T) {
		uc, n := newTestUseCases(memory.New())
		_, err := uc.Schema.SaveSchema(adminCtx(), listingSchema("PROPERTY"))
		gt.NoError(t, err).Required()

		_, err = uc.Property.Submit(adminCtx(), usecase.SubmissionRequest{
			FormKey: "PROPERTY",
			Version: "v1",
			Values:  map[string]any{model.LegacyKeyAskingPrice: -5},
		})
		gt.Error(t, err).Is(model.ErrValidation)

		var verr *model.ValidationError
		gt.Bool(t, errors.As(err, &verr)).True()
		gt.Map(t, verr.Fields).HasKey(model.LegacyKeyAskingPrice)
		gt.Map(t, verr.Fields).HasKey("internal_note")
		gt.A(t, n.properties).Length(0)
	})

	t.Run("fields hidden from the role are not required", func(t *testing.T) {
		uc, _ := newTestUseCases(memory.New())
		_, err := uc.Schema.SaveSchema(adminCtx(), listingSchema("PROPERTY"))
		gt.NoError(t, err).Required()

		created, err := uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
			FormKey: "PROPERTY",
			Version: "v1",
			Values: map[string]any{
				model.LegacyKeyTitle: "Flat",
				"internal_note":      "sneaky",
			},
		})
		gt.NoError(t, err).Required()
		_, ok := created.Data["internal_note"]
		gt.Bool(t, ok).False()
	})

	t.Run("keys unknown to the schema are kept", func(t *testing.T) {
		uc, _ := newTestUseCases(memory.New())
		_, err := uc.Schema.SaveSchema(adminCtx(), titleSchema("PROPERTY"))
		gt.NoError(t, err).Required()

		created, err := uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
			FormKey: "PROPERTY",
			Version: "v1",
			Values: map[string]any{
				model.LegacyKeyTitle: "Flat",
				"photo_count":        3,
			},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.Data["photo_count"]).Equal(3)
	})

	t.Run("sparse update keeps legacy columns that were not submitted", func(t *testing.T) {
		uc, n := newTestUseCases(memory.New())
		_, err := uc.Schema.SaveSchema(adminCtx(), listingSchema("PROPERTY"))
		gt.NoError(t, err).Required()

		created, err := uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
			FormKey: "PROPERTY",
			Version: "v1",
			Values: map[string]any{
				model.LegacyKeyTitle:       "Flat",
				model.LegacyKeyCity:        "Pune",
				model.LegacyKeyAskingPrice: 100,
			},
		})
		gt.NoError(t, err).Required()

		updated, err := uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
			FormKey:    "PROPERTY",
			Version:    "v1",
			PropertyID: created.ID,
			Values:     map[string]any{model.LegacyKeyAskingPrice: "500000"},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.ID).Equal(created.ID)
		gt.Value(t, updated.Legacy.City).Equal("Pune")
		gt.Value(t, updated.Legacy.Title).Equal("Flat")
		gt.Value(t, updated.Legacy.AskingPrice).Equal(500000.0)
		gt.Value(t, updated.CreatedBy).Equal(brokerID)

		gt.A(t, n.properties).Length(2)
		gt.Bool(t, n.properties[1].created).False()
	})

	t.Run("update moves the record to the submitted version", func(t *testing.T) {
		uc, _ := newTestUseCases(memory.New())
		_, err := uc.Schema.SaveSchema(adminCtx(), titleSchema("PROPERTY"))
		gt.NoError(t, err).Required()
		created, err := uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
			FormKey: "PROPERTY",
			Version: "v1",
			Values:  map[string]any{model.LegacyKeyTitle: "Flat"},
		})
		gt.NoError(t, err).Required()

		_, err = uc.Schema.SaveSchema(adminCtx(), listingSchema("PROPERTY"))
		gt.NoError(t, err).Required()
		updated, err := uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
			FormKey:    "PROPERTY",
			Version:    "v2",
			PropertyID: created.ID,
			Values:     map[string]any{model.LegacyKeyCity: "Delhi"},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.FormVersion).Equal("v2")
		gt.Value(t, updated.Legacy.City).Equal("Delhi")
		gt.Value(t, updated.Legacy.Title).Equal("Flat")
	})

	t.Run("broker edit keeps values of fields hidden from brokers", func(t *testing.T) {
		repo := memory.New()
		uc, _ := newTestUseCases(repo)
		_, err := uc.Schema.SaveSchema(adminCtx(), listingSchema("PROPERTY"))
		gt.NoError(t, err).Required()

		stored, err := repo.Property().Create(context.Background(), &model.Property{
			ID:          types.NewPropertyID(),
			CreatedBy:   brokerID,
			FormKey:     "PROPERTY",
			FormVersion: "v1",
			Data: map[string]any{
				model.LegacyKeyTitle: "Flat",
				"internal_note":      "owner is motivated",
			},
			Legacy: model.ProjectLegacy(map[string]any{model.LegacyKeyTitle: "Flat"}),
		})
		gt.NoError(t, err).Required()

		updated, err := uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
			FormKey:    "PROPERTY",
			Version:    "v1",
			PropertyID: stored.ID,
			Values:     map[string]any{model.LegacyKeyTitle: "Flat 2"},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Data["internal_note"]).Equal("owner is motivated")
		gt.Value(t, updated.Data[model.LegacyKeyTitle]).Equal("Flat 2")
	})

	t.Run("non-owner cannot update", func(t *testing.T) {
		uc, _ := newTestUseCases(memory.New())
		_, err := uc.Schema.SaveSchema(adminCtx(), titleSchema("PROPERTY"))
		gt.NoError(t, err).Required()
		created, err := uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
			FormKey: "PROPERTY",
			Version: "v1",
			Values:  map[string]any{model.LegacyKeyTitle: "Flat"},
		})
		gt.NoError(t, err).Required()

		for _, ctx := range []context.Context{otherCtx(), internalCtx()} {
			_, err = uc.Property.Submit(ctx, usecase.SubmissionRequest{
				FormKey:    "PROPERTY",
				Version:    "v1",
				PropertyID: created.ID,
				Values:     map[string]any{model.LegacyKeyTitle: "Stolen"},
			})
			gt.Error(t, err).Is(auth.ErrUnauthorized)
		}

		got, err := uc.Property.Get(brokerCtx(), created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Legacy.Title).Equal("Flat")

		// admin may edit anyone's property
		_, err = uc.Property.Submit(adminCtx(), usecase.SubmissionRequest{
			FormKey:    "PROPERTY",
			Version:    "v1",
			PropertyID: created.ID,
			Values:     map[string]any{model.LegacyKeyTitle: "Fixed"},
		})
		gt.NoError(t, err).Required()
	})

	t.Run("unknown property ID is not found", func(t *testing.T) {
		uc, _ := newTestUseCases(memory.New())

		_, err := uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
			FormKey:    "PROPERTY",
			Version:    "v1",
			PropertyID: types.NewPropertyID(),
			Values:     map[string]any{model.LegacyKeyTitle: "Flat"},
		})
		gt.Error(t, err).Is(usecase.ErrPropertyNotFound)
	})

	t.Run("pending and banned users cannot submit", func(t *testing.T) {
		uc, _ := newTestUseCases(memory.New())

		for _, ctx := range []context.Context{
			asPrincipal("u-pending", types.RoleBroker, false),
			asPrincipal("u-banned", types.RoleBanned, true),
		} {
			_, err := uc.Property.Submit(ctx, usecase.SubmissionRequest{
				FormKey: "PROPERTY",
				Values:  map[string]any{model.LegacyKeyTitle: "Flat"},
			})
			gt.Error(t, err).Is(auth.ErrUnauthorized)
		}
	})
}

func TestPropertyUseCase_List(t *testing.T) {
	uc, _ := newTestUseCases(memory.New())
	_, err := uc.Schema.SaveSchema(adminCtx(), listingSchema("PROPERTY"))
	gt.NoError(t, err).Required()

	submit := func(ctx context.Context, title string, price int) {
		_, err := uc.Property.Submit(ctx, usecase.SubmissionRequest{
			FormKey: "PROPERTY",
			Version: "v1",
			Values: map[string]any{
				model.LegacyKeyTitle:       title,
				model.LegacyKeyAskingPrice: price,
			},
		})
		gt.NoError(t, err).Required()
	}
	for i := range 15 {
		submit(brokerCtx(), fmt.Sprintf("Broker Flat %d", i), 1000*(i+1))
	}
	submit(otherCtx(), "Other Villa", 1)

	t.Run("broker sees own properties in pages of 12", func(t *testing.T) {
		page, err := uc.Property.List(brokerCtx(), usecase.ListPropertiesRequest{})
		gt.NoError(t, err).Required()
		gt.Value(t, page.Total).Equal(15)
		gt.Value(t, page.Limit).Equal(usecase.DefaultPageLimit)
		gt.A(t, page.Properties).Length(12)
		for _, p := range page.Properties {
			gt.Value(t, p.CreatedBy).Equal(brokerID)
		}

		second, err := uc.Property.List(brokerCtx(), usecase.ListPropertiesRequest{Page: 2})
		gt.NoError(t, err).Required()
		gt.A(t, second.Properties).Length(3)
	})

	t.Run("internal staff see everything", func(t *testing.T) {
		page, err := uc.Property.List(internalCtx(), usecase.ListPropertiesRequest{Limit: 100})
		gt.NoError(t, err).Required()
		gt.Value(t, page.Total).Equal(16)
	})

	t.Run("search and sort", func(t *testing.T) {
		page, err := uc.Property.List(adminCtx(), usecase.ListPropertiesRequest{
			Query: "villa",
			Sort:  interfaces.PropertySortPriceDesc,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, page.Total).Equal(1)
		gt.Value(t, page.Properties[0].Legacy.Title).Equal("Other Villa")

		page, err = uc.Property.List(brokerCtx(), usecase.ListPropertiesRequest{
			Sort:  interfaces.PropertySortPriceDesc,
			Limit: 1,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, page.Properties[0].Legacy.AskingPrice).Equal(15000.0)
	})

	t.Run("limit is capped", func(t *testing.T) {
		page, err := uc.Property.List(adminCtx(), usecase.ListPropertiesRequest{Limit: 5000})
		gt.NoError(t, err).Required()
		gt.Value(t, page.Limit).Equal(usecase.MaxPageLimit)
	})

	t.Run("broker cannot read another broker's property", func(t *testing.T) {
		page, err := uc.Property.List(otherCtx(), usecase.ListPropertiesRequest{})
		gt.NoError(t, err).Required()
		gt.A(t, page.Properties).Length(1)

		_, err = uc.Property.Get(brokerCtx(), page.Properties[0].ID)
		gt.Error(t, err).Is(auth.ErrUnauthorized)

		_, err = uc.Property.Get(internalCtx(), page.Properties[0].ID)
		gt.NoError(t, err)
	})
}

func TestPropertyUseCase_ConcurrentSubmit(t *testing.T) {
	repo := memory.New()
	uc, n := newTestUseCases(repo)

	step := model.FormStep{StepID: "codes", Title: "Codes"}
	values := map[string]any{}
	for i := range 50 {
		key := fmt.Sprintf("code_%d", i)
		step.Fields = append(step.Fields, model.FormField{
			Key:        key,
			Type:       types.FieldTypeText,
			Label:      key,
			Validation: &model.FieldValidation{Required: true, Pattern: fmt.Sprintf(`^[a-z]+%d$`, i)},
		})
		values[key] = fmt.Sprintf("abc%d", i)
	}
	schema, err := uc.Schema.SaveSchema(adminCtx(), &model.FormSchema{FormKey: "CODES", Steps: []model.FormStep{step}})
	gt.NoError(t, err).Required()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Property.Submit(brokerCtx(), usecase.SubmissionRequest{
				FormKey: schema.FormKey,
				Version: schema.Version,
				Values:  values,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		gt.NoError(t, err)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	gt.A(t, n.properties).Length(workers)
}
