package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

type schemaRepository struct {
	mu sync.RWMutex
	// versions are kept in creation order
	versions map[types.FormKey][]*model.FormSchema
}

func newSchemaRepository() *schemaRepository {
	return &schemaRepository{
		versions: make(map[types.FormKey][]*model.FormSchema),
	}
}

func (r *schemaRepository) Get(ctx context.Context, formKey types.FormKey, version string) (*model.FormSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.versions[formKey] {
		if s.Version == version {
			return s.Clone(), nil
		}
	}
	return nil, goerr.Wrap(interfaces.ErrNotFound, "schema not found",
		goerr.V("form_key", formKey),
		goerr.V("version", version))
}

func (r *schemaRepository) GetActive(ctx context.Context, formKey types.FormKey) (*model.FormSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active *model.FormSchema
	for _, s := range r.versions[formKey] {
		if s.Status != types.SchemaStatusActive {
			continue
		}
		if active == nil || model.CompareVersions(s.Version, active.Version) > 0 {
			active = s
		}
	}
	if active == nil {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "active schema not found", goerr.V("form_key", formKey))
	}
	return active.Clone(), nil
}

func (r *schemaRepository) GetLatest(ctx context.Context, formKey types.FormKey) (*model.FormSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := r.latest(formKey)
	if latest == nil {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "schema not found", goerr.V("form_key", formKey))
	}
	return latest.Clone(), nil
}

func (r *schemaRepository) latest(formKey types.FormKey) *model.FormSchema {
	versions := r.versions[formKey]
	if len(versions) == 0 {
		return nil
	}
	return versions[len(versions)-1]
}

func (r *schemaRepository) List(ctx context.Context, formKey types.FormKey) ([]*model.FormSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.versions[formKey]
	result := make([]*model.FormSchema, 0, len(versions))
	for i := len(versions) - 1; i >= 0; i-- {
		result = append(result, versions[i].Clone())
	}
	return result, nil
}

func (r *schemaRepository) ListFormKeys(ctx context.Context) ([]types.FormKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]types.FormKey, 0, len(r.versions))
	for k := range r.versions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func (r *schemaRepository) Publish(ctx context.Context, schema *model.FormSchema) (*model.FormSchema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latestVersion string
	if latest := r.latest(schema.FormKey); latest != nil {
		latestVersion = latest.Version
	}
	version := model.NextVersion(latestVersion)

	for _, s := range r.versions[schema.FormKey] {
		if s.Version == version {
			return nil, goerr.Wrap(interfaces.ErrVersionConflict, "version already exists",
				goerr.V("form_key", schema.FormKey),
				goerr.V("version", version))
		}
	}

	now := time.Now().UTC()
	for _, s := range r.versions[schema.FormKey] {
		if s.Status == types.SchemaStatusActive {
			s.Status = types.SchemaStatusDeprecated
			s.UpdatedAt = now
		}
	}

	created := schema.Clone()
	created.ID = uuid.NewString()
	created.Version = version
	created.Status = types.SchemaStatusActive
	created.CreatedAt = now
	created.UpdatedAt = now

	r.versions[schema.FormKey] = append(r.versions[schema.FormKey], created)
	return created.Clone(), nil
}
