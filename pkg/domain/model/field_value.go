package model

import "github.com/plotline-dev/plotline/pkg/domain/types"

// FieldValue is a submitted value tagged with the declared type of its field.
// Value holds string, float64, bool, []string or GeoPoint depending on Type.
type FieldValue struct {
	Key   string          `json:"key"`
	Type  types.FieldType `json:"type"`
	Value any             `json:"value"`
}

// GeoPoint is the value of a map field
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Values maps field keys to typed values
type Values map[string]FieldValue

// Raw returns the plain value record, as persisted in the property payload
func (v Values) Raw() map[string]any {
	raw := make(map[string]any, len(v))
	for k, fv := range v {
		switch val := fv.Value.(type) {
		case GeoPoint:
			raw[k] = map[string]any{"lat": val.Lat, "lng": val.Lng}
		default:
			raw[k] = val
		}
	}
	return raw
}
