package http

import "github.com/nekogravitycat/mentor-booking-backend/internal/profile"

// ProfileTag is the compact form embedded in other responses.
type ProfileTag struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

type ProfileResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name"`
	Role      string  `json:"role"`
	AvatarURL *string `json:"avatar_url"`
}

func NewProfileResponse(p *profile.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      string(p.Role),
		AvatarURL: p.AvatarURL,
	}
}
