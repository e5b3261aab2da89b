package model

import (
	"context"
	"errors"
	"maps"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

// Submitter persists the accumulated values of a completed form
type Submitter interface {
	SubmitForm(ctx context.Context, schema *FormSchema, values map[string]any) error
}

// SubmitterFunc adapts a function to Submitter
type SubmitterFunc func(ctx context.Context, schema *FormSchema, values map[string]any) error

func (f SubmitterFunc) SubmitForm(ctx context.Context, schema *FormSchema, values map[string]any) error {
	return f(ctx, schema, values)
}

// FormSession walks a role through the steps of one schema version. Next is
// gated by validation of the current step; Back never is.
type FormSession struct {
	schema    *FormSchema
	role      types.Role
	validator *FieldValidator

	stepIndex int
	values    map[string]any
	errors    map[string]string
	message   string
	done      bool
}

// NewFormSession starts at the first step. Fields without an initial value are
// seeded from their default value.
func NewFormSession(schema *FormSchema, role types.Role, initial map[string]any) *FormSession {
	values := make(map[string]any, len(initial))
	for i := range schema.Steps {
		for _, f := range schema.Steps[i].Fields {
			if f.DefaultValue != nil {
				values[f.Key] = f.DefaultValue
			}
		}
	}
	maps.Copy(values, initial)

	return &FormSession{
		schema:    schema.Clone(),
		role:      role,
		validator: NewFieldValidator(),
		values:    values,
		errors:    make(map[string]string),
	}
}

func (s *FormSession) Schema() *FormSchema { return s.schema }
func (s *FormSession) StepIndex() int      { return s.stepIndex }
func (s *FormSession) StepCount() int      { return len(s.schema.Steps) }
func (s *FormSession) IsLastStep() bool    { return s.stepIndex == len(s.schema.Steps)-1 }
func (s *FormSession) Done() bool          { return s.done }

// Message returns the top-level error of the last failed submission
func (s *FormSession) Message() string { return s.message }

// CurrentStep returns the step being filled in, nil for a schema without steps
func (s *FormSession) CurrentStep() *FormStep {
	if len(s.schema.Steps) == 0 {
		return nil
	}
	return &s.schema.Steps[s.stepIndex]
}

// VisibleFields returns the fields of the current step visible to the role
func (s *FormSession) VisibleFields() []FormField {
	step := s.CurrentStep()
	if step == nil {
		return nil
	}
	return step.VisibleFields(s.role)
}

// Values returns a copy of the values entered so far across all steps
func (s *FormSession) Values() map[string]any {
	return maps.Clone(s.values)
}

// Errors returns a copy of the current per-field error messages
func (s *FormSession) Errors() map[string]string {
	return maps.Clone(s.errors)
}

// Set records a value and clears the error of that field
func (s *FormSession) Set(key string, value any) {
	s.values[key] = value
	delete(s.errors, key)
}

// Next validates the current step and advances. On failure the step is kept
// and the per-field errors are returned as *ValidationError.
func (s *FormSession) Next() error {
	if err := s.validateCurrent(); err != nil {
		return err
	}
	if !s.IsLastStep() {
		s.stepIndex++
	}
	return nil
}

// Back moves to the previous step without validation
func (s *FormSession) Back() {
	if s.stepIndex > 0 {
		s.stepIndex--
	}
}

// Submit validates the last step and hands all accumulated values to
// submitter. A submitter failure is kept in Message and leaves step and values
// intact so the same action can be retried.
func (s *FormSession) Submit(ctx context.Context, submitter Submitter) error {
	if s.done {
		return goerr.Wrap(ErrSessionDone, "form already submitted", goerr.V(FormKeyKey, s.schema.FormKey))
	}
	if !s.IsLastStep() {
		return goerr.Wrap(ErrNotLastStep, "cannot submit before the last step",
			goerr.V(StepIndexKey, s.stepIndex),
			goerr.V("step_count", len(s.schema.Steps)))
	}
	if err := s.validateCurrent(); err != nil {
		return err
	}

	s.message = ""
	if err := submitter.SubmitForm(ctx, s.schema, s.Values()); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			maps.Copy(s.errors, verr.Fields)
		}
		s.message = err.Error()
		return goerr.Wrap(err, "failed to submit form", goerr.V(FormKeyKey, s.schema.FormKey))
	}

	s.done = true
	return nil
}

func (s *FormSession) validateCurrent() error {
	step := s.CurrentStep()
	if step == nil {
		return nil
	}

	for _, f := range step.Fields {
		delete(s.errors, f.Key)
	}
	if _, err := s.validator.ValidateStep(step, s.role, s.values); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			maps.Copy(s.errors, verr.Fields)
		}
		return err
	}
	return nil
}
