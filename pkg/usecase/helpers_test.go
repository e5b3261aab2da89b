package usecase_test

import (
	"context"
	"sync"

	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"github.com/plotline-dev/plotline/pkg/repository/memory"
	"github.com/plotline-dev/plotline/pkg/usecase"
)

const (
	adminID    types.UserID = "u-admin"
	brokerID   types.UserID = "u-broker"
	otherID    types.UserID = "u-other"
	internalID types.UserID = "u-internal"
)

func ptr[T any](v T) *T {
	return &v
}

func syncDispatch(ctx context.Context, handler func(ctx context.Context) error) {
	_ = handler(ctx)
}

type propertyEvent struct {
	property *model.Property
	actor    *auth.Principal
	created  bool
}

type recordingNotifier struct {
	mu         sync.Mutex
	schemas    []*model.FormSchema
	properties []propertyEvent
	pending    []*model.Profile
}

var _ interfaces.Notifier = &recordingNotifier{}

func (n *recordingNotifier) SchemaPublished(ctx context.Context, schema *model.FormSchema, actor *auth.Principal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.schemas = append(n.schemas, schema)
	return nil
}

func (n *recordingNotifier) PropertySubmitted(ctx context.Context, property *model.Property, actor *auth.Principal, created bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.properties = append(n.properties, propertyEvent{property: property, actor: actor, created: created})
	return nil
}

func (n *recordingNotifier) ProfilePending(ctx context.Context, profile *model.Profile) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, profile)
	return nil
}

func newTestUseCases(repo interfaces.Repository) (*usecase.UseCases, *recordingNotifier) {
	n := &recordingNotifier{}
	uc := usecase.New(repo,
		usecase.WithNotifier(n),
		usecase.WithDispatcher(syncDispatch),
	)
	return uc, n
}

func asPrincipal(id types.UserID, role types.Role, approved bool) context.Context {
	return auth.ContextWithPrincipal(context.Background(), &auth.Principal{
		ID:       id,
		Email:    string(id) + "@example.com",
		Role:     role,
		Approved: approved,
	})
}

func adminCtx() context.Context    { return asPrincipal(adminID, types.RoleAdmin, true) }
func brokerCtx() context.Context   { return asPrincipal(brokerID, types.RoleBroker, true) }
func otherCtx() context.Context    { return asPrincipal(otherID, types.RoleBroker, true) }
func internalCtx() context.Context { return asPrincipal(internalID, types.RoleInternal, true) }

// titleSchema is a one-step schema with a single required text field
func titleSchema(formKey types.FormKey) *model.FormSchema {
	return &model.FormSchema{
		FormKey: formKey,
		Steps: []model.FormStep{
			{
				StepID: "basic",
				Title:  "Basic",
				Fields: []model.FormField{
					{
						Key:        model.LegacyKeyTitle,
						Type:       types.FieldTypeText,
						Label:      "Title",
						Validation: &model.FieldValidation{Required: true},
					},
				},
			},
		},
	}
}

// listingSchema has optional legacy fields and an admin-only note
func listingSchema(formKey types.FormKey) *model.FormSchema {
	return &model.FormSchema{
		FormKey: formKey,
		Steps: []model.FormStep{
			{
				StepID: "basic",
				Title:  "Basic",
				Fields: []model.FormField{
					{Key: model.LegacyKeyTitle, Type: types.FieldTypeText, Label: "Title"},
					{Key: model.LegacyKeyCity, Type: types.FieldTypeText, Label: "City"},
				},
			},
			{
				StepID: "price",
				Title:  "Price",
				Fields: []model.FormField{
					{
						Key:        model.LegacyKeyAskingPrice,
						Type:       types.FieldTypeNumber,
						Label:      "Asking Price",
						Validation: &model.FieldValidation{Min: ptr(0.0)},
					},
					{
						Key:        "internal_note",
						Type:       types.FieldTypeTextarea,
						Label:      "Internal Note",
						Validation: &model.FieldValidation{Required: true},
						Visibility: &model.FieldVisibility{Roles: []types.Role{types.RoleAdmin}},
					},
				},
			},
		},
	}
}

// conflictOnceRepository makes the first Publish fail with a version conflict
type conflictOnceRepository struct {
	*memory.Memory
	schema *conflictOnceSchemaRepository
}

type conflictOnceSchemaRepository struct {
	interfaces.SchemaRepository
	mu       sync.Mutex
	failures int
	calls    int
}

func newConflictOnceRepository(failures int) *conflictOnceRepository {
	mem := memory.New()
	return &conflictOnceRepository{
		Memory: mem,
		schema: &conflictOnceSchemaRepository{SchemaRepository: mem.Schema(), failures: failures},
	}
}

func (r *conflictOnceRepository) Schema() interfaces.SchemaRepository {
	return r.schema
}

func (r *conflictOnceSchemaRepository) Publish(ctx context.Context, schema *model.FormSchema) (*model.FormSchema, error) {
	r.mu.Lock()
	r.calls++
	fail := r.calls <= r.failures
	r.mu.Unlock()

	if fail {
		return nil, interfaces.ErrVersionConflict
	}
	return r.SchemaRepository.Publish(ctx, schema)
}
