package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrSchemaNotFound   = errors.New("schema not found")
	ErrPropertyNotFound = errors.New("property not found")
	ErrUserNotFound     = errors.New("user not found")

	// Input errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidRole  = errors.New("invalid role")
)

// Context keys for error values
const (
	FormKeyKey    = "form_key"
	VersionKey    = "version"
	PropertyIDKey = "property_id"
	UserIDKey     = "user_id"
	RoleKey       = "role"
)
