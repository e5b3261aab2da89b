package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

// FieldOption is one choice of a select, radio or checkbox field.
// Value is a string or a number on the wire; options are matched by the string form.
type FieldOption struct {
	Label string `json:"label" toml:"label" firestore:"label"`
	Value any    `json:"value" toml:"value" firestore:"value"`
}

// ValueString returns the option value in the form submitted values are compared with
func (o FieldOption) ValueString() string {
	switch v := o.Value.(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return formatNumber(v)
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FieldValidation holds per-field rules. Rules apply to the field's own value only.
type FieldValidation struct {
	Required bool     `json:"required,omitempty" toml:"required,omitempty" firestore:"required"`
	Min      *float64 `json:"min,omitempty" toml:"min,omitempty" firestore:"min"`
	Max      *float64 `json:"max,omitempty" toml:"max,omitempty" firestore:"max"`
	Pattern  string   `json:"pattern,omitempty" toml:"pattern,omitempty" firestore:"pattern"`
	Message  string   `json:"message,omitempty" toml:"message,omitempty" firestore:"message"`
}

// FieldVisibility restricts which roles see a field. Empty Roles means every role.
type FieldVisibility struct {
	Roles  []types.Role `json:"roles,omitempty" toml:"roles,omitempty" firestore:"roles"`
	Hidden bool         `json:"hidden,omitempty" toml:"hidden,omitempty" firestore:"hidden"`
}

// FormField defines one input of a form step
type FormField struct {
	Key          string           `json:"key" toml:"key" firestore:"key"`
	Type         types.FieldType  `json:"type" toml:"type" firestore:"type"`
	Label        string           `json:"label" toml:"label" firestore:"label"`
	Placeholder  string           `json:"placeholder,omitempty" toml:"placeholder,omitempty" firestore:"placeholder"`
	Options      []FieldOption    `json:"options,omitempty" toml:"options,omitempty" firestore:"options"`
	Validation   *FieldValidation `json:"validation,omitempty" toml:"validation,omitempty" firestore:"validation"`
	Visibility   *FieldVisibility `json:"visibility,omitempty" toml:"visibility,omitempty" firestore:"visibility"`
	EditableBy   []types.Role     `json:"editableBy,omitempty" toml:"editable_by,omitempty" firestore:"editable_by"`
	DefaultValue any              `json:"defaultValue,omitempty" toml:"default_value,omitempty" firestore:"default_value"`
	Description  string           `json:"description,omitempty" toml:"description,omitempty" firestore:"description"`
	ClassName    string           `json:"className,omitempty" toml:"class_name,omitempty" firestore:"class_name"`
}

// Required reports whether the field carries a required rule
func (f *FormField) Required() bool {
	return f.Validation != nil && f.Validation.Required
}

// HasOption reports whether value matches one of the field's options
func (f *FormField) HasOption(value string) bool {
	for _, opt := range f.Options {
		if opt.ValueString() == value {
			return true
		}
	}
	return false
}

// FormStep is an ordered group of fields. Field order is display and validation order.
type FormStep struct {
	StepID      string      `json:"stepId" toml:"step_id" firestore:"step_id"`
	Title       string      `json:"title" toml:"title" firestore:"title"`
	Description string      `json:"description,omitempty" toml:"description,omitempty" firestore:"description"`
	Fields      []FormField `json:"fields" toml:"fields" firestore:"fields"`
}

// FormSchema is one immutable version of a form definition
type FormSchema struct {
	ID        string             `json:"id,omitempty" toml:"-" firestore:"id"`
	FormKey   types.FormKey      `json:"formKey" toml:"form_key" firestore:"form_key"`
	Version   string             `json:"version" toml:"version,omitempty" firestore:"version"`
	Status    types.SchemaStatus `json:"status" toml:"status,omitempty" firestore:"status"`
	Steps     []FormStep         `json:"steps" toml:"steps" firestore:"steps"`
	CreatedAt time.Time          `json:"created_at,omitzero" toml:"-" firestore:"created_at"`
	UpdatedAt time.Time          `json:"updated_at,omitzero" toml:"-" firestore:"updated_at"`
}

// Field looks up a field by key across all steps
func (s *FormSchema) Field(key string) (*FormField, bool) {
	for i := range s.Steps {
		for j := range s.Steps[i].Fields {
			if s.Steps[i].Fields[j].Key == key {
				return &s.Steps[i].Fields[j], true
			}
		}
	}
	return nil, false
}

// Validate checks the structural integrity of the schema before it is published
func (s *FormSchema) Validate() error {
	if err := s.FormKey.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidSchema, "invalid form key", goerr.V(FormKeyKey, s.FormKey), goerr.V("reason", err.Error()))
	}
	if len(s.Steps) == 0 {
		return goerr.Wrap(ErrInvalidSchema, "schema must have at least one step", goerr.V(FormKeyKey, s.FormKey))
	}

	stepIDs := make(map[string]bool)
	fieldKeys := make(map[string]bool)
	for i, step := range s.Steps {
		if step.StepID == "" {
			return goerr.Wrap(ErrInvalidSchema, "step ID is required", goerr.V(StepIndexKey, i))
		}
		if stepIDs[step.StepID] {
			return goerr.Wrap(ErrDuplicateStepID, "duplicate step ID", goerr.V(StepIDKey, step.StepID))
		}
		stepIDs[step.StepID] = true

		for j := range step.Fields {
			field := &step.Fields[j]
			if fieldKeys[field.Key] {
				return goerr.Wrap(ErrDuplicateFieldKey, "duplicate field key",
					goerr.V(FieldKeyKey, field.Key),
					goerr.V(StepIDKey, step.StepID))
			}
			fieldKeys[field.Key] = true

			if err := field.validateDefinition(); err != nil {
				return goerr.Wrap(err, "invalid field definition",
					goerr.V(StepIDKey, step.StepID),
					goerr.V(FieldIndexKey, j))
			}
		}
	}

	return nil
}

func (f *FormField) validateDefinition() error {
	if f.Key == "" {
		return goerr.Wrap(ErrInvalidSchema, "field key is required")
	}
	if !f.Type.IsValid() {
		return goerr.Wrap(ErrInvalidSchema, "invalid field type",
			goerr.V(FieldKeyKey, f.Key),
			goerr.V(ExpectedTypeKey, f.Type))
	}
	if f.Type.HasOptions() && len(f.Options) == 0 {
		return goerr.Wrap(ErrInvalidSchema, "select and radio fields require at least one option",
			goerr.V(FieldKeyKey, f.Key))
	}

	if f.Visibility != nil {
		for _, role := range f.Visibility.Roles {
			if !role.IsValid() {
				return goerr.Wrap(ErrInvalidSchema, "unknown role in visibility",
					goerr.V(FieldKeyKey, f.Key),
					goerr.V("role", role))
			}
		}
	}

	v := f.Validation
	if v == nil {
		return nil
	}
	if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
		return goerr.Wrap(ErrInvalidSchema, "min must not exceed max",
			goerr.V(FieldKeyKey, f.Key),
			goerr.V("min", *v.Min),
			goerr.V("max", *v.Max))
	}
	if v.Pattern != "" {
		if _, err := regexp.Compile(v.Pattern); err != nil {
			return goerr.Wrap(ErrInvalidSchema, "pattern does not compile",
				goerr.V(FieldKeyKey, f.Key),
				goerr.V("pattern", v.Pattern),
				goerr.V("reason", err.Error()))
		}
	}
	return nil
}

// Clone returns a deep copy of the schema
func (s *FormSchema) Clone() *FormSchema {
	if s == nil {
		return nil
	}
	copied := *s
	copied.Steps = make([]FormStep, len(s.Steps))
	for i, step := range s.Steps {
		copied.Steps[i] = step.clone()
	}
	return &copied
}

func (st FormStep) clone() FormStep {
	copied := st
	if st.Fields != nil {
		copied.Fields = make([]FormField, len(st.Fields))
		for i, f := range st.Fields {
			copied.Fields[i] = f.clone()
		}
	}
	return copied
}

func (f FormField) clone() FormField {
	copied := f
	if f.Options != nil {
		copied.Options = make([]FieldOption, len(f.Options))
		copy(copied.Options, f.Options)
	}
	if f.Validation != nil {
		v := *f.Validation
		if f.Validation.Min != nil {
			min := *f.Validation.Min
			v.Min = &min
		}
		if f.Validation.Max != nil {
			max := *f.Validation.Max
			v.Max = &max
		}
		copied.Validation = &v
	}
	if f.Visibility != nil {
		vis := *f.Visibility
		if f.Visibility.Roles != nil {
			vis.Roles = make([]types.Role, len(f.Visibility.Roles))
			copy(vis.Roles, f.Visibility.Roles)
		}
		copied.Visibility = &vis
	}
	if f.EditableBy != nil {
		copied.EditableBy = make([]types.Role, len(f.EditableBy))
		copy(copied.EditableBy, f.EditableBy)
	}
	return copied
}
