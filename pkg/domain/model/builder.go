package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

// IDGenerator produces identifiers for new steps and fields
type IDGenerator interface {
	StepID() string
	FieldKey() string
}

type uuidGenerator struct{}

func (uuidGenerator) StepID() string {
	return "step_" + shortID()
}

func (uuidGenerator) FieldKey() string {
	return "field_" + shortID()
}

func shortID() string {
	id := uuid.Must(uuid.NewV7())
	s := strings.ReplaceAll(id.String(), "-", "")
	// the tail of a v7 UUID is random; the head is a timestamp
	return s[len(s)-12:]
}

// DefaultIDGenerator returns the generator used by NewBuilder
func DefaultIDGenerator() IDGenerator {
	return uuidGenerator{}
}

// StepPatch is a partial update of a step. Nil fields are left unchanged.
type StepPatch struct {
	StepID      *string `json:"stepId,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Builder edits a draft schema. Every operation returns a new schema and leaves
// its input untouched.
type Builder struct {
	ids IDGenerator
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithIDGenerator replaces the generator of step IDs and field keys
func WithIDGenerator(gen IDGenerator) BuilderOption {
	return func(b *Builder) {
		b.ids = gen
	}
}

// NewBuilder creates a new Builder
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{ids: DefaultIDGenerator()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddStep appends an empty step with a generated ID and a placeholder title
func (b *Builder) AddStep(schema *FormSchema) *FormSchema {
	next := schema.Clone()
	next.Steps = append(next.Steps, FormStep{
		StepID: b.ids.StepID(),
		Title:  "New Step",
		Fields: []FormField{},
	})
	return next
}

// UpdateStep merges patch into the step at stepIndex
func (b *Builder) UpdateStep(schema *FormSchema, stepIndex int, patch StepPatch) (*FormSchema, error) {
	if err := checkStepIndex(schema, stepIndex); err != nil {
		return nil, err
	}

	next := schema.Clone()
	step := &next.Steps[stepIndex]
	if patch.StepID != nil {
		step.StepID = *patch.StepID
	}
	if patch.Title != nil {
		step.Title = *patch.Title
	}
	if patch.Description != nil {
		step.Description = *patch.Description
	}
	return next, nil
}

// DeleteStep removes the step at stepIndex together with its fields
func (b *Builder) DeleteStep(schema *FormSchema, stepIndex int) (*FormSchema, error) {
	if err := checkStepIndex(schema, stepIndex); err != nil {
		return nil, err
	}

	next := schema.Clone()
	next.Steps = append(next.Steps[:stepIndex], next.Steps[stepIndex+1:]...)
	return next, nil
}

// AddField appends an optional text field with a generated key
func (b *Builder) AddField(schema *FormSchema, stepIndex int) (*FormSchema, error) {
	if err := checkStepIndex(schema, stepIndex); err != nil {
		return nil, err
	}

	next := schema.Clone()
	step := &next.Steps[stepIndex]
	step.Fields = append(step.Fields, FormField{
		Key:        b.ids.FieldKey(),
		Type:       types.FieldTypeText,
		Label:      "New Field",
		Validation: &FieldValidation{Required: false},
	})
	return next, nil
}

// UpdateField replaces the field at the given position
func (b *Builder) UpdateField(schema *FormSchema, stepIndex, fieldIndex int, field FormField) (*FormSchema, error) {
	if err := checkFieldIndex(schema, stepIndex, fieldIndex); err != nil {
		return nil, err
	}

	next := schema.Clone()
	next.Steps[stepIndex].Fields[fieldIndex] = field.clone()
	return next, nil
}

// DeleteField removes the field at the given position
func (b *Builder) DeleteField(schema *FormSchema, stepIndex, fieldIndex int) (*FormSchema, error) {
	if err := checkFieldIndex(schema, stepIndex, fieldIndex); err != nil {
		return nil, err
	}

	next := schema.Clone()
	fields := next.Steps[stepIndex].Fields
	next.Steps[stepIndex].Fields = append(fields[:fieldIndex], fields[fieldIndex+1:]...)
	return next, nil
}

// MoveField moves a field within its step from one position to another
func (b *Builder) MoveField(schema *FormSchema, stepIndex, from, to int) (*FormSchema, error) {
	if err := checkFieldIndex(schema, stepIndex, from); err != nil {
		return nil, err
	}
	if err := checkFieldIndex(schema, stepIndex, to); err != nil {
		return nil, err
	}

	next := schema.Clone()
	fields := next.Steps[stepIndex].Fields
	moved := fields[from]
	fields = append(fields[:from], fields[from+1:]...)
	fields = append(fields[:to], append([]FormField{moved}, fields[to:]...)...)
	next.Steps[stepIndex].Fields = fields
	return next, nil
}

func checkStepIndex(schema *FormSchema, stepIndex int) error {
	if stepIndex < 0 || stepIndex >= len(schema.Steps) {
		return goerr.Wrap(ErrIndexOutOfRange, "step index out of range",
			goerr.V(StepIndexKey, stepIndex),
			goerr.V("step_count", len(schema.Steps)))
	}
	return nil
}

func checkFieldIndex(schema *FormSchema, stepIndex, fieldIndex int) error {
	if err := checkStepIndex(schema, stepIndex); err != nil {
		return err
	}
	if fieldIndex < 0 || fieldIndex >= len(schema.Steps[stepIndex].Fields) {
		return goerr.Wrap(ErrIndexOutOfRange, "field index out of range",
			goerr.V(StepIndexKey, stepIndex),
			goerr.V(FieldIndexKey, fieldIndex),
			goerr.V("field_count", len(schema.Steps[stepIndex].Fields)))
	}
	return nil
}
