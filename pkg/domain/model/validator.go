package model

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/plotline-dev/plotline/pkg/domain/types"
)

// ValidationError collects per-field failures keyed by field key
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap makes errors.Is(err, ErrValidation) hold for every ValidationError
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func (e *ValidationError) add(key, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[key] = msg
}

// FieldValidator validates submitted values against field definitions and
// converts them into typed values. It is safe for concurrent use.
type FieldValidator struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

// NewFieldValidator creates a new FieldValidator
func NewFieldValidator() *FieldValidator {
	return &FieldValidator{
		patterns: make(map[string]*regexp.Regexp),
	}
}

// ValidateFields validates raw values for the given fields, which are expected
// to be the fields visible to the acting role. Keys in raw that match none of
// the fields are ignored. Returns *ValidationError when any field fails.
func (v *FieldValidator) ValidateFields(fields []FormField, raw map[string]any) (Values, error) {
	values := make(Values)
	verr := &ValidationError{}

	for i := range fields {
		field := &fields[i]
		fv, msg := v.validateField(field, raw[field.Key])
		if msg != "" {
			verr.add(field.Key, msg)
			continue
		}
		if fv != nil {
			values[field.Key] = *fv
		}
	}

	if len(verr.Fields) > 0 {
		return values, verr
	}
	return values, nil
}

// ValidateStep validates the fields of one step visible to role
func (v *FieldValidator) ValidateStep(step *FormStep, role types.Role, raw map[string]any) (Values, error) {
	return v.ValidateFields(step.VisibleFields(role), raw)
}

// ValidateSchema validates the fields of every step visible to role
func (v *FieldValidator) ValidateSchema(schema *FormSchema, role types.Role, raw map[string]any) (Values, error) {
	return v.ValidateFields(schema.VisibleFields(role), raw)
}

// validateField returns the typed value (nil when the field is empty) or a
// failure message
func (v *FieldValidator) validateField(field *FormField, raw any) (*FieldValue, string) {
	if isEmptyValue(raw) {
		if field.Required() {
			return nil, field.message(fmt.Sprintf("%s is required", field.displayName()))
		}
		return nil, ""
	}

	typed, msg := v.coerce(field, raw)
	if msg != "" {
		return nil, field.message(msg)
	}
	if msg := v.checkRules(field, typed); msg != "" {
		return nil, field.message(msg)
	}

	return &FieldValue{Key: field.Key, Type: field.Type, Value: typed}, ""
}

func (v *FieldValidator) coerce(field *FormField, raw any) (any, string) {
	name := field.displayName()

	switch field.Type {
	case types.FieldTypeText, types.FieldTypeTextarea:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Sprintf("%s must be text", name)
		}
		return s, ""

	case types.FieldTypeNumber:
		n, ok := NumberValue(raw)
		if !ok {
			return nil, fmt.Sprintf("%s must be a number", name)
		}
		return n, ""

	case types.FieldTypeSelect, types.FieldTypeRadio:
		s, ok := optionString(raw)
		if !ok || !field.HasOption(s) {
			return nil, fmt.Sprintf("%s is not a valid option for %s", formatAny(raw), name)
		}
		return s, ""

	case types.FieldTypeBoolean:
		b, ok := boolValue(raw)
		if !ok {
			return nil, fmt.Sprintf("%s must be true or false", name)
		}
		return b, ""

	case types.FieldTypeCheckbox:
		if len(field.Options) == 0 {
			b, ok := boolValue(raw)
			if !ok {
				return nil, fmt.Sprintf("%s must be true or false", name)
			}
			return b, ""
		}
		list, ok := stringList(raw)
		if !ok {
			return nil, fmt.Sprintf("%s must be a list of options", name)
		}
		for _, s := range list {
			if !field.HasOption(s) {
				return nil, fmt.Sprintf("%s is not a valid option for %s", s, name)
			}
		}
		return list, ""

	case types.FieldTypeDate:
		s, ok := raw.(string)
		if !ok || !isDate(s) {
			return nil, fmt.Sprintf("%s must be a date (YYYY-MM-DD)", name)
		}
		return s, ""

	case types.FieldTypeMap:
		p, ok := geoPointValue(raw)
		if !ok {
			return nil, fmt.Sprintf("%s must be a coordinate pair", name)
		}
		return p, ""

	default:
		return nil, fmt.Sprintf("%s has unsupported type %s", name, field.Type)
	}
}

func (v *FieldValidator) checkRules(field *FormField, typed any) string {
	rule := field.Validation
	if rule == nil {
		return ""
	}

	if field.Type == types.FieldTypeNumber {
		n := typed.(float64)
		if rule.Min != nil && n < *rule.Min {
			return fmt.Sprintf("Minimum value is %s", formatNumber(*rule.Min))
		}
		if rule.Max != nil && n > *rule.Max {
			return fmt.Sprintf("Maximum value is %s", formatNumber(*rule.Max))
		}
	}

	if rule.Pattern != "" && field.Type.IsStringKind() {
		re, err := v.compile(rule.Pattern)
		if err != nil {
			return fmt.Sprintf("%s has an invalid pattern", field.displayName())
		}
		if !re.MatchString(typed.(string)) {
			return fmt.Sprintf("%s has an invalid format", field.displayName())
		}
	}

	return ""
}

func (v *FieldValidator) compile(pattern string) (*regexp.Regexp, error) {
	v.mu.RLock()
	re, ok := v.patterns[pattern]
	v.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.patterns[pattern] = re
	v.mu.Unlock()
	return re, nil
}

func (f *FormField) displayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}

func (f *FormField) message(fallback string) string {
	if f.Validation != nil && f.Validation.Message != "" {
		return f.Validation.Message
	}
	return fallback
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return val["lat"] == nil && val["lng"] == nil
	default:
		return false
	}
}

// NumberValue converts JSON numbers, Go numeric types and numeric strings to float64
func NumberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func boolValue(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(b) {
		case "true", "on":
			return true, true
		case "false", "off":
			return false, true
		}
	}
	return false, false
}

func optionString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return "", false
	default:
		if n, ok := NumberValue(val); ok {
			return formatNumber(n), true
		}
		return "", false
	}
}

func stringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := optionString(item)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func isDate(s string) bool {
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func geoPointValue(v any) (GeoPoint, bool) {
	var p GeoPoint
	switch val := v.(type) {
	case GeoPoint:
		p = val
	case *GeoPoint:
		if val == nil {
			return p, false
		}
		p = *val
	case map[string]any:
		lat, ok := NumberValue(val["lat"])
		if !ok {
			return p, false
		}
		lng, ok := NumberValue(val["lng"])
		if !ok {
			return p, false
		}
		p = GeoPoint{Lat: lat, Lng: lng}
	default:
		return p, false
	}

	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return p, false
	}
	return p, true
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func formatAny(v any) string {
	if s, ok := optionString(v); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", v)
}
