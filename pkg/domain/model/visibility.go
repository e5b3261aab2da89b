package model

import (
	"slices"

	"github.com/plotline-dev/plotline/pkg/domain/types"
)

// VisibleTo reports whether the field is shown to role. Hidden always wins;
// an empty role list is treated the same as an absent one.
func (f *FormField) VisibleTo(role types.Role) bool {
	if f.Visibility == nil {
		return true
	}
	if f.Visibility.Hidden {
		return false
	}
	// nil roles means every role; an explicit empty list means none
	if f.Visibility.Roles == nil {
		return true
	}
	return slices.Contains(f.Visibility.Roles, role)
}

// NormalizeVisibility rewrites explicit empty role lists as Hidden so the
// rule survives encodings that drop empty lists
func (s *FormSchema) NormalizeVisibility() {
	for i := range s.Steps {
		for j := range s.Steps[i].Fields {
			vis := s.Steps[i].Fields[j].Visibility
			if vis != nil && vis.Roles != nil && len(vis.Roles) == 0 {
				vis.Hidden = true
				vis.Roles = nil
			}
		}
	}
}

// VisibleFields returns the fields of the step visible to role, in display order
func (st *FormStep) VisibleFields(role types.Role) []FormField {
	visible := make([]FormField, 0, len(st.Fields))
	for _, f := range st.Fields {
		if f.VisibleTo(role) {
			visible = append(visible, f)
		}
	}
	return visible
}

// VisibleFields returns every field visible to role across all steps
func (s *FormSchema) VisibleFields(role types.Role) []FormField {
	var visible []FormField
	for i := range s.Steps {
		visible = append(visible, s.Steps[i].VisibleFields(role)...)
	}
	return visible
}

// ForRole returns a copy of the schema with invisible fields removed, as served
// to a client acting as role.
func (s *FormSchema) ForRole(role types.Role) *FormSchema {
	filtered := s.Clone()
	for i := range filtered.Steps {
		filtered.Steps[i].Fields = filtered.Steps[i].VisibleFields(role)
	}
	return filtered
}
