package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"github.com/plotline-dev/plotline/pkg/utils/logging"
)

// SchemaUseCase resolves and publishes form schema versions
type SchemaUseCase struct {
	repo      interfaces.Repository
	notify    *notifications
	idGen     model.IDGenerator
	validator *model.FieldValidator
}

func NewSchemaUseCase(repo interfaces.Repository, notify *notifications, idGen model.IDGenerator) *SchemaUseCase {
	if idGen == nil {
		idGen = model.DefaultIDGenerator()
	}
	return &SchemaUseCase{
		repo:      repo,
		notify:    notify,
		idGen:     idGen,
		validator: model.NewFieldValidator(),
	}
}

// GetSchema resolves the schema to render. With a version it is an exact
// lookup. Without one it is the active version, or the built-in default when
// the form key has none. Storage failures are returned, never masked by the
// default.
func (uc *SchemaUseCase) GetSchema(ctx context.Context, formKey types.FormKey, version string) (*model.FormSchema, error) {
	if err := formKey.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid form key", goerr.V(FormKeyKey, formKey), goerr.V("reason", err.Error()))
	}

	if version != "" {
		if _, ok := model.ParseVersion(version); !ok {
			return nil, goerr.Wrap(ErrInvalidInput, "invalid version", goerr.V(FormKeyKey, formKey), goerr.V(VersionKey, version))
		}

		schema, err := uc.repo.Schema().Get(ctx, formKey, version)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, goerr.Wrap(ErrSchemaNotFound, "schema version not found", goerr.V(FormKeyKey, formKey), goerr.V(VersionKey, version))
			}
			return nil, goerr.Wrap(err, "failed to get schema version", goerr.V(FormKeyKey, formKey), goerr.V(VersionKey, version))
		}
		return schema, nil
	}

	schema, err := uc.repo.Schema().GetActive(ctx, formKey)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			logging.From(ctx).Debug("no active schema, using default", "form_key", formKey)
			return model.DefaultSchema(formKey), nil
		}
		return nil, goerr.Wrap(err, "failed to get active schema", goerr.V(FormKeyKey, formKey))
	}
	return schema, nil
}

// SaveSchema publishes schema as a new version of its form key. The stored
// schema with the server-assigned version is returned.
func (uc *SchemaUseCase) SaveSchema(ctx context.Context, schema *model.FormSchema) (*model.FormSchema, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.ManageSchema()).Err(); err != nil {
		return nil, goerr.Wrap(err, "cannot save schema", goerr.V(FormKeyKey, schema.FormKey))
	}

	if err := schema.Validate(); err != nil {
		return nil, goerr.Wrap(err, "schema is not valid", goerr.V(FormKeyKey, schema.FormKey))
	}

	draft := schema.Clone()
	draft.ID = ""
	draft.Status = types.SchemaStatusActive
	draft.NormalizeVisibility()

	saved, err := uc.repo.Schema().Publish(ctx, draft)
	if errors.Is(err, interfaces.ErrVersionConflict) {
		logging.From(ctx).Info("schema version conflict, retrying", "form_key", schema.FormKey)
		saved, err = uc.repo.Schema().Publish(ctx, draft)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to publish schema", goerr.V(FormKeyKey, schema.FormKey))
	}

	logging.From(ctx).Info("schema published",
		"form_key", saved.FormKey,
		"version", saved.Version,
		"actor", principal.ID)
	uc.notify.schemaPublished(ctx, saved, principal)

	return saved, nil
}

// ListVersions returns every version of a form key, newest first
func (uc *SchemaUseCase) ListVersions(ctx context.Context, formKey types.FormKey) ([]*model.FormSchema, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.ManageSchema()).Err(); err != nil {
		return nil, goerr.Wrap(err, "cannot list schema versions", goerr.V(FormKeyKey, formKey))
	}
	if err := formKey.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid form key", goerr.V(FormKeyKey, formKey), goerr.V("reason", err.Error()))
	}

	schemas, err := uc.repo.Schema().List(ctx, formKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list schema versions", goerr.V(FormKeyKey, formKey))
	}
	return schemas, nil
}

// ListFormKeys returns every form key with at least one stored version
func (uc *SchemaUseCase) ListFormKeys(ctx context.Context) ([]types.FormKey, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.ManageSchema()).Err(); err != nil {
		return nil, goerr.Wrap(err, "cannot list form keys")
	}

	keys, err := uc.repo.Schema().ListFormKeys(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list form keys")
	}
	return keys, nil
}

// NewBuilder starts an editing session on the schema currently served for formKey
func (uc *SchemaUseCase) NewBuilder(ctx context.Context, formKey types.FormKey) (*SchemaBuilder, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.ManageSchema()).Err(); err != nil {
		return nil, goerr.Wrap(err, "cannot edit schema", goerr.V(FormKeyKey, formKey))
	}

	base, err := uc.GetSchema(ctx, formKey, "")
	if err != nil {
		return nil, err
	}

	return newSchemaBuilder(uc, base, model.NewBuilder(model.WithIDGenerator(uc.idGen))), nil
}

// ValidateStepRequest asks whether values pass one step of a form, or the
// whole form when Step is nil
type ValidateStepRequest struct {
	FormKey types.FormKey  `json:"-"`
	Version string         `json:"version"`
	Step    *int           `json:"step,omitempty"`
	Values  map[string]any `json:"values"`
}

// ValidateStep runs the step-advance gate for the caller's role and returns
// the per-field errors. An empty map means the step may be left.
func (uc *SchemaUseCase) ValidateStep(ctx context.Context, req ValidateStepRequest) (map[string]string, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}

	schema, err := uc.resolveForSubmission(ctx, req.FormKey, req.Version)
	if err != nil {
		return nil, err
	}

	if req.Step == nil {
		_, err = uc.validator.ValidateSchema(schema, principal.Role, req.Values)
	} else {
		idx := *req.Step
		if idx < 0 || idx >= len(schema.Steps) {
			return nil, goerr.Wrap(ErrInvalidInput, "step index out of range",
				goerr.V(FormKeyKey, req.FormKey),
				goerr.V("step", idx),
				goerr.V("step_count", len(schema.Steps)))
		}
		_, err = uc.validator.ValidateStep(&schema.Steps[idx], principal.Role, req.Values)
	}

	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			return verr.Fields, nil
		}
		return nil, goerr.Wrap(err, "failed to validate values", goerr.V(FormKeyKey, req.FormKey))
	}
	return map[string]string{}, nil
}

// resolveForSubmission loads the exact version a form was rendered from. The
// first version of a key that was never published is the built-in default.
func (uc *SchemaUseCase) resolveForSubmission(ctx context.Context, formKey types.FormKey, version string) (*model.FormSchema, error) {
	if version == "" {
		return uc.GetSchema(ctx, formKey, "")
	}

	schema, err := uc.GetSchema(ctx, formKey, version)
	if err == nil {
		return schema, nil
	}
	if !errors.Is(err, ErrSchemaNotFound) {
		return nil, err
	}

	def := model.DefaultSchema(formKey)
	if version != def.Version {
		return nil, err
	}
	if _, latestErr := uc.repo.Schema().GetLatest(ctx, formKey); latestErr == nil {
		return nil, err
	} else if !errors.Is(latestErr, interfaces.ErrNotFound) {
		return nil, goerr.Wrap(latestErr, "failed to get latest schema", goerr.V(FormKeyKey, formKey))
	}
	return def, nil
}
