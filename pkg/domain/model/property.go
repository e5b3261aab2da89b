package model

import (
	"maps"
	"time"

	"github.com/plotline-dev/plotline/pkg/domain/types"
)

// Well-known keys mirrored into legacy columns
const (
	LegacyKeyTitle        = "title"
	LegacyKeyCity         = "city"
	LegacyKeyArea         = "area"
	LegacyKeyAddress      = "address"
	LegacyKeyPropertyType = "property_type"
	LegacyKeyListingType  = "listing_type"
	LegacyKeyAskingPrice  = "asking_price"
	LegacyKeyAreaSqft     = "area_sqft"
)

// Defaults applied to legacy columns when a record is created without them
const (
	DefaultPropertyTitle = "Untitled Property"
	DefaultPropertyType  = "apartment"
	DefaultListingType   = "sale"
)

// LegacyKeys returns the keys projected into legacy columns
func LegacyKeys() []string {
	return []string{
		LegacyKeyTitle,
		LegacyKeyCity,
		LegacyKeyArea,
		LegacyKeyAddress,
		LegacyKeyPropertyType,
		LegacyKeyListingType,
		LegacyKeyAskingPrice,
		LegacyKeyAreaSqft,
	}
}

// LegacyColumns is the fixed column set used by listing, search and sort
type LegacyColumns struct {
	Title        string  `json:"title" firestore:"title"`
	City         string  `json:"city" firestore:"city"`
	Area         string  `json:"area" firestore:"area"`
	Address      string  `json:"address" firestore:"address"`
	PropertyType string  `json:"property_type" firestore:"property_type"`
	ListingType  string  `json:"listing_type" firestore:"listing_type"`
	AskingPrice  float64 `json:"asking_price" firestore:"asking_price"`
	AreaSqft     float64 `json:"area_sqft" firestore:"area_sqft"`
}

// Property is a stored submission: the structured payload together with the
// schema version it was captured with and its legacy projection
type Property struct {
	ID          types.PropertyID `json:"id" firestore:"id"`
	CreatedBy   types.UserID     `json:"created_by" firestore:"created_by"`
	FormKey     types.FormKey    `json:"form_key" firestore:"form_key"`
	FormVersion string           `json:"form_version" firestore:"form_version"`
	Data        map[string]any   `json:"data" firestore:"data"`
	Legacy      LegacyColumns    `json:"legacy" firestore:"legacy"`
	CreatedAt   time.Time        `json:"created_at" firestore:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" firestore:"updated_at"`
}

// Clone returns a copy of the property. Data is copied one level deep; nested
// values are never mutated in place.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	copied := *p
	copied.Data = maps.Clone(p.Data)
	return &copied
}

// ProjectLegacy derives legacy columns for a new record. Missing string
// columns are empty except title, property type and listing type, which fall
// back to their defaults. Missing or unparsable numbers become 0.
func ProjectLegacy(values map[string]any) LegacyColumns {
	cols := LegacyColumns{
		Title:        DefaultPropertyTitle,
		PropertyType: DefaultPropertyType,
		ListingType:  DefaultListingType,
	}
	return PatchLegacy(cols, values)
}

// PatchLegacy overwrites only the columns whose key is present in values with
// a non-empty value. nil and "" count as absent; 0 is a value.
func PatchLegacy(existing LegacyColumns, values map[string]any) LegacyColumns {
	cols := existing

	patchString := func(key string, dst *string) {
		if s, ok := legacyString(values[key]); ok {
			*dst = s
		}
	}
	patchNumber := func(key string, dst *float64) {
		v := values[key]
		if isEmptyValue(v) {
			return
		}
		n, ok := NumberValue(v)
		if !ok {
			n = 0
		}
		*dst = n
	}

	patchString(LegacyKeyTitle, &cols.Title)
	patchString(LegacyKeyCity, &cols.City)
	patchString(LegacyKeyArea, &cols.Area)
	patchString(LegacyKeyAddress, &cols.Address)
	patchString(LegacyKeyPropertyType, &cols.PropertyType)
	patchString(LegacyKeyListingType, &cols.ListingType)
	patchNumber(LegacyKeyAskingPrice, &cols.AskingPrice)
	patchNumber(LegacyKeyAreaSqft, &cols.AreaSqft)

	return cols
}

func legacyString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		if val {
			return "true", true
		}
		return "false", true
	default:
		if n, ok := NumberValue(val); ok {
			return formatNumber(n), true
		}
		return "", false
	}
}

// NewPayload builds the stored payload of a submission: typed values of the
// fields visible to role, empty values of those fields as submitted, plus keys
// the schema does not know, kept verbatim. Values for fields invisible to role
// were not validated and are dropped.
func NewPayload(schema *FormSchema, role types.Role, typed Values, raw map[string]any) map[string]any {
	payload := typed.Raw()
	for k, v := range raw {
		field, known := schema.Field(k)
		if !known {
			payload[k] = v
			continue
		}
		if _, ok := payload[k]; !ok && field.VisibleTo(role) && isEmptyValue(v) {
			payload[k] = v
		}
	}
	return payload
}
