package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"github.com/plotline-dev/plotline/pkg/utils/logging"
)

const (
	DefaultPageLimit = 12
	MaxPageLimit     = 100
)

// SubmissionRequest is a completed form. PropertyID is empty for a new property.
type SubmissionRequest struct {
	FormKey    types.FormKey    `json:"formKey"`
	Version    string           `json:"version"`
	Values     map[string]any   `json:"values"`
	PropertyID types.PropertyID `json:"propertyId,omitempty"`
}

// ListPropertiesRequest is a page of a property listing. Page starts at 1.
type ListPropertiesRequest struct {
	Query string
	Sort  interfaces.PropertySort
	Page  int
	Limit int
}

// PropertyPage is one page of a property listing
type PropertyPage struct {
	Properties []*model.Property `json:"properties"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

// PropertyUseCase stores submitted forms as properties
type PropertyUseCase struct {
	repo      interfaces.Repository
	schemas   *SchemaUseCase
	notify    *notifications
	validator *model.FieldValidator
	now       func() time.Time
}

func NewPropertyUseCase(repo interfaces.Repository, schemas *SchemaUseCase, notify *notifications) *PropertyUseCase {
	return &PropertyUseCase{
		repo:      repo,
		schemas:   schemas,
		notify:    notify,
		validator: model.NewFieldValidator(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates a completed form against the schema version it was
// rendered from and creates or updates the property.
func (uc *PropertyUseCase) Submit(ctx context.Context, req SubmissionRequest) (*model.Property, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.SubmitProperty()).Err(); err != nil {
		return nil, goerr.Wrap(err, "cannot submit property", goerr.V(FormKeyKey, req.FormKey))
	}

	var existing *model.Property
	if req.PropertyID != "" {
		if err := req.PropertyID.Validate(); err != nil {
			return nil, goerr.Wrap(ErrInvalidInput, "invalid property ID", goerr.V(PropertyIDKey, req.PropertyID))
		}
		existing, err = uc.get(ctx, req.PropertyID)
		if err != nil {
			return nil, err
		}
		if err := auth.Authorize(principal, auth.EditProperty(existing.CreatedBy)).Err(); err != nil {
			return nil, goerr.Wrap(err, "cannot edit property", goerr.V(PropertyIDKey, req.PropertyID))
		}
	}

	schema, err := uc.schemas.resolveForSubmission(ctx, req.FormKey, req.Version)
	if err != nil {
		return nil, err
	}

	typed, err := uc.validator.ValidateSchema(schema, principal.Role, req.Values)
	if err != nil {
		return nil, goerr.Wrap(err, "submission is not valid",
			goerr.V(FormKeyKey, schema.FormKey),
			goerr.V(VersionKey, schema.Version))
	}
	payload := model.NewPayload(schema, principal.Role, typed, req.Values)

	if existing == nil {
		return uc.create(ctx, principal, schema, payload)
	}
	return uc.update(ctx, principal, schema, existing, payload)
}

func (uc *PropertyUseCase) create(ctx context.Context, principal *auth.Principal, schema *model.FormSchema, payload map[string]any) (*model.Property, error) {
	now := uc.now()
	property := &model.Property{
		ID:          types.NewPropertyID(),
		CreatedBy:   principal.ID,
		FormKey:     schema.FormKey,
		FormVersion: schema.Version,
		Data:        payload,
		Legacy:      model.ProjectLegacy(payload),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := uc.repo.Property().Create(ctx, property)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create property", goerr.V(PropertyIDKey, property.ID))
	}

	logging.From(ctx).Info("property created",
		"property_id", created.ID,
		"form_key", created.FormKey,
		"version", created.FormVersion)
	uc.notify.propertySubmitted(ctx, created, principal, true)
	return created, nil
}

func (uc *PropertyUseCase) update(ctx context.Context, principal *auth.Principal, schema *model.FormSchema, existing *model.Property, payload map[string]any) (*model.Property, error) {
	// values the actor cannot see were not part of the submission and stay as stored
	for i := range schema.Steps {
		for j := range schema.Steps[i].Fields {
			field := &schema.Steps[i].Fields[j]
			if field.VisibleTo(principal.Role) {
				continue
			}
			if v, ok := existing.Data[field.Key]; ok {
				payload[field.Key] = v
			}
		}
	}

	property := existing.Clone()
	property.FormKey = schema.FormKey
	property.FormVersion = schema.Version
	property.Data = payload
	property.Legacy = model.PatchLegacy(existing.Legacy, payload)
	property.UpdatedAt = uc.now()

	updated, err := uc.repo.Property().Update(ctx, property)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrPropertyNotFound, "property was removed", goerr.V(PropertyIDKey, property.ID))
		}
		return nil, goerr.Wrap(err, "failed to update property", goerr.V(PropertyIDKey, property.ID))
	}

	logging.From(ctx).Info("property updated",
		"property_id", updated.ID,
		"form_key", updated.FormKey,
		"version", updated.FormVersion)
	uc.notify.propertySubmitted(ctx, updated, principal, false)
	return updated, nil
}

// Get returns a property visible to the caller
func (uc *PropertyUseCase) Get(ctx context.Context, id types.PropertyID) (*model.Property, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid property ID", goerr.V(PropertyIDKey, id))
	}

	property, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !auth.Authorize(principal, auth.ViewAllProperties()).Allowed {
		if err := auth.Authorize(principal, auth.EditProperty(property.CreatedBy)).Err(); err != nil {
			return nil, goerr.Wrap(err, "cannot view property", goerr.V(PropertyIDKey, id))
		}
	}
	return property, nil
}

// List returns a page of properties. Callers without the view-all capability
// only see their own.
func (uc *PropertyUseCase) List(ctx context.Context, req ListPropertiesRequest) (*PropertyPage, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.SubmitProperty()).Err(); err != nil {
		return nil, goerr.Wrap(err, "cannot list properties")
	}

	page := max(req.Page, 1)
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	limit = min(limit, MaxPageLimit)

	opts := interfaces.ListPropertyOptions{
		Query:  req.Query,
		Sort:   interfaces.ParsePropertySort(string(req.Sort)),
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	if !auth.Authorize(principal, auth.ViewAllProperties()).Allowed {
		opts.CreatedBy = principal.ID
	}

	properties, total, err := uc.repo.Property().List(ctx, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list properties")
	}

	return &PropertyPage{
		Properties: properties,
		Total:      total,
		Page:       page,
		Limit:      limit,
	}, nil
}

// Submitter adapts Submit to a form session running for the caller of ctx.
// propertyID selects the property being edited and may be empty.
func (uc *PropertyUseCase) Submitter(propertyID types.PropertyID) model.Submitter {
	return model.SubmitterFunc(func(ctx context.Context, schema *model.FormSchema, values map[string]any) error {
		_, err := uc.Submit(ctx, SubmissionRequest{
			FormKey:    schema.FormKey,
			Version:    schema.Version,
			Values:     values,
			PropertyID: propertyID,
		})
		return err
	})
}

func (uc *PropertyUseCase) get(ctx context.Context, id types.PropertyID) (*model.Property, error) {
	property, err := uc.repo.Property().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrPropertyNotFound, "property not found", goerr.V(PropertyIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get property", goerr.V(PropertyIDKey, id))
	}
	return property, nil
}
