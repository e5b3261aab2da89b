package types

import "fmt"

// SchemaStatus represents the lifecycle status of a form schema version
type SchemaStatus string

const (
	SchemaStatusDraft      SchemaStatus = "DRAFT"
	SchemaStatusActive     SchemaStatus = "ACTIVE"
	SchemaStatusDeprecated SchemaStatus = "DEPRECATED"
)

// AllSchemaStatuses returns all valid schema statuses
func AllSchemaStatuses() []SchemaStatus {
	return []SchemaStatus{
		SchemaStatusDraft,
		SchemaStatusActive,
		SchemaStatusDeprecated,
	}
}

// IsValid checks if the schema status is valid
func (s SchemaStatus) IsValid() bool {
	switch s {
	case SchemaStatusDraft,
		SchemaStatusActive,
		SchemaStatusDeprecated:
		return true
	default:
		return false
	}
}

// String returns the string representation of the schema status
func (s SchemaStatus) String() string {
	return string(s)
}

// ParseSchemaStatus parses a string into a SchemaStatus
func ParseSchemaStatus(s string) (SchemaStatus, error) {
	status := SchemaStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid schema status: %s", s)
	}
	return status, nil
}
