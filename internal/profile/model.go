package profile

import (
	"net/http"

	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/apperror"
)

var ErrNotFound = apperror.New(http.StatusNotFound, "profile not found")

type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

// Profile is the account record owned by the identity provider. This
// service only reads it.
type Profile struct {
	ID        string // UUID, equal to the token subject
	Email     string
	FullName  *string
	Role      Role
	AvatarURL *string
}

// DisplayName falls back to fallback when the profile has no name.
func (p *Profile) DisplayName(fallback string) string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return fallback
}
