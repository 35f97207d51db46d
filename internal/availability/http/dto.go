package http

import (
	"github.com/nekogravitycat/mentor-booking-backend/internal/availability"
)

type AvailabilityQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

type AvailabilityResponse struct {
	MentorID string              `json:"mentor_id"`
	Date     string              `json:"date"`
	Slots    []availability.Slot `json:"slots"`
}
