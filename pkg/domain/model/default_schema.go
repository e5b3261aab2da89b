package model

import "github.com/plotline-dev/plotline/pkg/domain/types"

func ptr[T any](v T) *T {
	return &v
}

// DefaultSchema synthesizes the schema served for a form key that has no
// active version yet, so new keys are usable without a seeding step.
func DefaultSchema(formKey types.FormKey) *FormSchema {
	return &FormSchema{
		FormKey: formKey,
		Version: FormatVersion(1),
		Status:  types.SchemaStatusActive,
		Steps: []FormStep{
			{
				StepID:      "basic_info",
				Title:       "Basic Info",
				Description: "Start with essential details",
				Fields: []FormField{
					{
						Key:         LegacyKeyTitle,
						Type:        types.FieldTypeText,
						Label:       "Property Title",
						Placeholder: "e.g. 2BHK Apartment in Indiranagar",
						Validation:  &FieldValidation{Required: true},
						ClassName:   "col-span-2",
					},
					{
						Key:         LegacyKeyAskingPrice,
						Type:        types.FieldTypeNumber,
						Label:       "Asking Price (₹)",
						Placeholder: "e.g. 5000000",
						Validation:  &FieldValidation{Required: true, Min: ptr(0.0)},
					},
					{
						Key:        LegacyKeyPropertyType,
						Type:       types.FieldTypeSelect,
						Label:      "Property Type",
						Options:    propertyTypeOptions(),
						Validation: &FieldValidation{Required: true},
					},
				},
			},
			{
				StepID:      "location",
				Title:       "Location",
				Description: "Where is the property located?",
				Fields: []FormField{
					{
						Key:         LegacyKeyCity,
						Type:        types.FieldTypeText,
						Label:       "City",
						Placeholder: "e.g. Bangalore",
						Validation:  &FieldValidation{Required: true},
					},
					{
						Key:       "location_map",
						Type:      types.FieldTypeMap,
						Label:     "Pin Location",
						ClassName: "col-span-2",
					},
				},
			},
		},
	}
}

// PropertyTemplate returns the full three-step property form used to seed the
// PROPERTY form key.
func PropertyTemplate(formKey types.FormKey) *FormSchema {
	return &FormSchema{
		FormKey: formKey,
		Status:  types.SchemaStatusActive,
		Steps: []FormStep{
			{
				StepID:      "basic_info",
				Title:       "Basic Info",
				Description: "Essential details about the property",
				Fields: []FormField{
					{
						Key:         LegacyKeyTitle,
						Type:        types.FieldTypeText,
						Label:       "Property Title",
						Placeholder: "e.g. 3BHK Apartment in Indiranagar",
						Validation:  &FieldValidation{Required: true},
						ClassName:   "col-span-2",
					},
					{
						Key:        LegacyKeyPropertyType,
						Type:       types.FieldTypeSelect,
						Label:      "Property Type",
						Options:    propertyTypeOptions(),
						Validation: &FieldValidation{Required: true},
					},
					{
						Key:   LegacyKeyListingType,
						Type:  types.FieldTypeSelect,
						Label: "Listing Type",
						Options: []FieldOption{
							{Label: "Sell", Value: "sale"},
							{Label: "Rent", Value: "rent"},
							{Label: "Lease", Value: "lease"},
						},
						Validation: &FieldValidation{Required: true},
					},
				},
			},
			{
				StepID:      "location",
				Title:       "Location",
				Description: "Where is the property located?",
				Fields: []FormField{
					{Key: LegacyKeyCity, Type: types.FieldTypeText, Label: "City", Validation: &FieldValidation{Required: true}},
					{Key: LegacyKeyArea, Type: types.FieldTypeText, Label: "Area / Locality", Validation: &FieldValidation{Required: true}},
					{
						Key:        LegacyKeyAddress,
						Type:       types.FieldTypeTextarea,
						Label:      "Full Address",
						Validation: &FieldValidation{Required: true},
						ClassName:  "col-span-2",
					},
				},
			},
			{
				StepID: "details",
				Title:  "Property Details",
				Fields: []FormField{
					{
						Key:        LegacyKeyAskingPrice,
						Type:       types.FieldTypeNumber,
						Label:      "Asking Price (₹)",
						Validation: &FieldValidation{Required: true, Min: ptr(0.0)},
					},
					{
						Key:        LegacyKeyAreaSqft,
						Type:       types.FieldTypeNumber,
						Label:      "Area (sqft)",
						Validation: &FieldValidation{Required: true, Min: ptr(1.0)},
					},
					{
						Key:   "bhk",
						Type:  types.FieldTypeSelect,
						Label: "BHK Configuration",
						Options: []FieldOption{
							{Label: "1 RK", Value: "1rk"},
							{Label: "1 BHK", Value: "1bhk"},
							{Label: "2 BHK", Value: "2bhk"},
							{Label: "3 BHK", Value: "3bhk"},
							{Label: "4+ BHK", Value: "4bhk"},
						},
						Visibility: &FieldVisibility{Roles: []types.Role{types.RoleAdmin, types.RoleInternal, types.RoleBroker}},
					},
				},
			},
		},
	}
}

func propertyTypeOptions() []FieldOption {
	return []FieldOption{
		{Label: "Apartment", Value: "apartment"},
		{Label: "Villa", Value: "villa"},
		{Label: "Plot", Value: "plot"},
		{Label: "Commercial", Value: "commercial"},
	}
}
