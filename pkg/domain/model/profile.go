package model

import (
	"time"

	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/plotline-dev/plotline/pkg/domain/types"
)

// Profile is the application-side record of a signed-in user
type Profile struct {
	ID        types.UserID `json:"id" firestore:"id"`
	Email     string       `json:"email" firestore:"email" masq:"secret"`
	Role      types.Role   `json:"role" firestore:"role"`
	Approved  bool         `json:"approved" firestore:"approved"`
	CreatedAt time.Time    `json:"created_at" firestore:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" firestore:"updated_at"`
}

// NewProfile creates the profile of a first sign-in: an unapproved broker
func NewProfile(id types.UserID, email string, now time.Time) *Profile {
	return &Profile{
		ID:        id,
		Email:     email,
		Role:      types.RoleBroker,
		Approved:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Principal returns the acting identity derived from the profile
func (p *Profile) Principal() *auth.Principal {
	return &auth.Principal{
		ID:       p.ID,
		Email:    p.Email,
		Role:     p.Role,
		Approved: p.Approved,
	}
}
