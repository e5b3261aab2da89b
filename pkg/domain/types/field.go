package types

// FieldType represents the kind of a form field
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeSelect   FieldType = "select"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDate     FieldType = "date"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeMap      FieldType = "map"
)

// AllFieldTypes returns all valid field types
func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeNumber,
		FieldTypeSelect,
		FieldTypeBoolean,
		FieldTypeDate,
		FieldTypeTextarea,
		FieldTypeCheckbox,
		FieldTypeRadio,
		FieldTypeMap,
	}
}

// IsValid checks if the field type is valid
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText,
		FieldTypeNumber,
		FieldTypeSelect,
		FieldTypeBoolean,
		FieldTypeDate,
		FieldTypeTextarea,
		FieldTypeCheckbox,
		FieldTypeRadio,
		FieldTypeMap:
		return true
	default:
		return false
	}
}

// IsStringKind reports whether values of this type are carried as strings
func (t FieldType) IsStringKind() bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeSelect, FieldTypeRadio, FieldTypeDate:
		return true
	default:
		return false
	}
}

// HasOptions reports whether the type picks its value from a fixed option list
func (t FieldType) HasOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio
}

// String returns the string representation of the field type
func (t FieldType) String() string {
	return string(t)
}

// IsBoolKind reports whether the type carries a flag. A checkbox with options
// carries a list instead; that is decided by the field, not the type.
func (t FieldType) IsBoolKind() bool {
	return t == FieldTypeBoolean || t == FieldTypeCheckbox
}
