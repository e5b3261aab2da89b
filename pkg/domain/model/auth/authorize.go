package auth

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

// Capability names an operation that needs a permission check
type Capability string

const (
	CapManageSchema      Capability = "manage_schema"
	CapSubmitProperty    Capability = "submit_property"
	CapEditProperty      Capability = "edit_property"
	CapViewAllProperties Capability = "view_all_properties"
	CapManageUsers       Capability = "manage_users"
)

// Action is a capability applied to an optional resource owner
type Action struct {
	Capability Capability
	OwnerID    types.UserID
}

func ManageSchema() Action      { return Action{Capability: CapManageSchema} }
func SubmitProperty() Action    { return Action{Capability: CapSubmitProperty} }
func ViewAllProperties() Action { return Action{Capability: CapViewAllProperties} }
func ManageUsers() Action       { return Action{Capability: CapManageUsers} }

// EditProperty is the action of changing a property owned by ownerID
func EditProperty(ownerID types.UserID) Action {
	return Action{Capability: CapEditProperty, OwnerID: ownerID}
}

// Decision is the outcome of Authorize
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Err returns nil when allowed, otherwise ErrUnauthorized carrying the reason
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return goerr.Wrap(ErrUnauthorized, d.Reason)
}

// Authorize is the single capability check for every mutating and scoped
// operation
func Authorize(p *Principal, action Action) Decision {
	if p == nil {
		return deny("not signed in")
	}
	if p.Role == types.RoleBanned {
		return deny("account is banned")
	}
	if !p.Approved {
		return deny("account is pending approval")
	}
	if p.IsAdmin() {
		return allow()
	}

	switch action.Capability {
	case CapSubmitProperty:
		return allow()
	case CapEditProperty:
		if action.OwnerID != "" && action.OwnerID == p.ID {
			return allow()
		}
		return deny("only the owner or an admin can edit this property")
	case CapViewAllProperties:
		if p.Role == types.RoleInternal {
			return allow()
		}
		return deny("only internal staff can view all properties")
	case CapManageSchema:
		return deny("admin role is required to manage form schemas")
	case CapManageUsers:
		return deny("admin role is required to manage users")
	default:
		return deny("unknown capability " + string(action.Capability))
	}
}
