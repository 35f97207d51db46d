package http

import (
	"time"

	"github.com/nekogravitycat/mentor-booking-backend/internal/mentor"
)

const unknownMentorName = "Expert Mentor"

type DetailsResponse struct {
	Role        string `json:"role,omitempty"`
	Company     string `json:"company,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
	Address     string `json:"address,omitempty"`
}

type MentorResponse struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Name            string           `json:"name"`
	AvatarURL       *string          `json:"avatar_url"`
	Company         string           `json:"company"`
	Role            string           `json:"role"`
	Bio             string           `json:"bio"`
	Details         *DetailsResponse `json:"details,omitempty"`
	YearsExperience int              `json:"years_experience"`
	HourlyRate      float64          `json:"hourly_rate"`
	Rating          float64          `json:"rating"`
	TotalReviews    int              `json:"total_reviews"`
	Expertise       []string         `json:"expertise"`
	Status          string           `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
}

func NewMentorResponse(m *mentor.Mentor) MentorResponse {
	name := unknownMentorName
	if m.Name != nil && *m.Name != "" {
		name = *m.Name
	}

	resp := MentorResponse{
		ID:              m.ID,
		UserID:          m.UserID,
		Name:            name,
		AvatarURL:       m.AvatarURL,
		Company:         m.Company,
		Role:            m.Role,
		Bio:             m.Bio,
		YearsExperience: m.YearsExperience,
		HourlyRate:      m.HourlyRate,
		Rating:          m.Rating,
		TotalReviews:    m.TotalReviews,
		Expertise:       m.Expertise,
		Status:          string(m.Status),
		CreatedAt:       m.CreatedAt,
	}
	if m.Details != nil {
		d := DetailsResponse(*m.Details)
		resp.Details = &d
	}
	return resp
}

type ListMentorsQuery struct {
	Expertise string `form:"expertise"`
	Status    string `form:"status" binding:"omitempty,oneof=active unavailable"`
}

type UpdateMentorRequest struct {
	HourlyRate *float64 `json:"hourly_rate" binding:"omitempty,gte=0"`
	Status     *string  `json:"status" binding:"omitempty,oneof=active unavailable"`
}
