package model

import "github.com/m-mizutani/goerr/v2"

// Validation errors
var (
	ErrValidation = goerr.New("validation failed")
)

// Schema definition errors
var (
	ErrInvalidSchema     = goerr.New("invalid schema")
	ErrDuplicateStepID   = goerr.New("duplicate step ID")
	ErrDuplicateFieldKey = goerr.New("duplicate field key")
	ErrIndexOutOfRange   = goerr.New("index out of range")
)

// Form session errors
var (
	ErrNotLastStep = goerr.New("submit is only allowed on the last step")
	ErrSessionDone = goerr.New("form session is already submitted")
)

// Context keys for error values
const (
	FormKeyKey      = "form_key"
	VersionKey      = "version"
	StepIDKey       = "step_id"
	StepIndexKey    = "step_index"
	FieldKeyKey     = "field_key"
	FieldIndexKey   = "field_index"
	ExpectedTypeKey = "expected_type"
)
