package mentor

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "mentor not found")
	ErrNotMentor     = apperror.New(http.StatusForbidden, "caller is not a mentor")
	ErrInvalidStatus = apperror.New(http.StatusBadRequest, "invalid mentor status")
	ErrNoChanges     = apperror.New(http.StatusBadRequest, "nothing to update")
)

// ErrRateOutOfRange builds the validation error for a rate outside the bounds.
func ErrRateOutOfRange(b Bounds) *apperror.AppError {
	return apperror.New(http.StatusBadRequest,
		fmt.Sprintf("hourly rate must be between %.2f and %.2f", b.MinHourlyRate, b.MaxHourlyRate))
}

type Status string

const (
	StatusActive      Status = "active"
	StatusUnavailable Status = "unavailable"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusUnavailable
}

// Details is the optional structured part of a mentor's bio.
type Details struct {
	Role        string `json:"role,omitempty"`
	Company     string `json:"company,omitempty"`
	Type        string `json:"type,omitempty"` // online | offline
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
	Address     string `json:"address,omitempty"`
}

type Mentor struct {
	ID              string
	UserID          string
	Name            *string // nil when the owning profile is gone
	AvatarURL       *string
	Email           string
	Company         string
	Role            string
	Bio             string
	Details         *Details
	YearsExperience int
	HourlyRate      float64
	Rating          float64
	TotalReviews    int
	Expertise       []string
	Status          Status
	CreatedAt       time.Time
}

// Bounds are the configured limits for mentor-owned numbers.
type Bounds struct {
	MinHourlyRate float64
	MaxHourlyRate float64
	MinRating     float64
	MaxRating     float64
}

type Filter struct {
	Expertise string
	Status    Status
}
