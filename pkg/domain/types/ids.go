package types

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// FormKey is the logical identity of a form, shared by all of its versions
type FormKey string

var formKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,63}$`)

// Validate checks if the FormKey is valid
func (k FormKey) Validate() error {
	if k == "" {
		return goerr.New("form key cannot be empty")
	}
	if !formKeyPattern.MatchString(string(k)) {
		return goerr.New("form key must be upper case alphanumeric with underscores", goerr.V("form_key", k))
	}
	return nil
}

// String returns the string representation of FormKey
func (k FormKey) String() string {
	return string(k)
}

// PropertyID identifies a property record
type PropertyID string

// NewPropertyID generates a new PropertyID
func NewPropertyID() PropertyID {
	return PropertyID(uuid.New().String())
}

// Validate checks if the PropertyID is a UUID
func (id PropertyID) Validate() error {
	if _, err := uuid.Parse(string(id)); err != nil {
		return goerr.Wrap(err, "invalid property ID", goerr.V("property_id", id))
	}
	return nil
}

// String returns the string representation of PropertyID
func (id PropertyID) String() string {
	return string(id)
}

// UserID identifies a user of the identity provider
type UserID string

// String returns the string representation of UserID
func (id UserID) String() string {
	return string(id)
}
