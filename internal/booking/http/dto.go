package http

import (
	"time"

	"github.com/nekogravitycat/mentor-booking-backend/internal/booking"
	profileHttp "github.com/nekogravitycat/mentor-booking-backend/internal/profile/http"
)

const (
	unknownMentor  = "Unknown Mentor"
	unknownStudent = "Unknown Student"
)

type CreateBookingRequest struct {
	MentorID    string    `json:"mentor_id" binding:"required,uuid"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Duration    string    `json:"duration" binding:"max=32"`
	Note        string    `json:"note" binding:"max=2000"`
}

// AcceptBookingRequest leaves meeting_link unchecked so the service reports
// the precise reason it is rejected.
type AcceptBookingRequest struct {
	MeetingLink string `json:"meeting_link"`
	MentorNote  string `json:"mentor_note" binding:"max=2000"`
	PaymentLink string `json:"payment_link" binding:"max=2048"`
}

// AcceptWithProofForm is the multipart variant; the image comes in the payment_proof part.
type AcceptWithProofForm struct {
	MeetingLink string `form:"meeting_link"`
	MentorNote  string `form:"mentor_note" binding:"max=2000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled completed"`
}

type ListBookingsQuery struct {
	Status string     `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit  int        `form:"limit" binding:"omitempty,min=0,max=100"`
}

func (q ListBookingsQuery) Filter() booking.Filter {
	return booking.Filter{
		Status: booking.Status(q.Status),
		From:   q.From,
		Limit:  q.Limit,
	}
}

type MentorTag struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Company   string  `json:"company"`
}

type BookingResponse struct {
	ID          string                  `json:"id"`
	StudentID   string                  `json:"student_id"`
	MentorID    string                  `json:"mentor_id"`
	Status      string                  `json:"status"`
	ScheduledAt time.Time               `json:"scheduled_at"`
	EndsAt      time.Time               `json:"ends_at"`
	Duration    *string                 `json:"duration"`
	Note        *string                 `json:"note"`
	MeetingLink *string                 `json:"meeting_link"`
	MentorNote  *string                 `json:"mentor_note"`
	PaymentLink *string                 `json:"payment_link"`
	Mentor      *MentorTag              `json:"mentor,omitempty"`
	Student     *profileHttp.ProfileTag `json:"student,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		StudentID:   b.StudentID,
		MentorID:    b.MentorID,
		Status:      string(b.Status),
		ScheduledAt: b.ScheduledAt,
		EndsAt:      b.EndsAt(),
		Duration:    b.Duration,
		Note:        b.Note,
		MeetingLink: b.MeetingLink,
		MentorNote:  b.MentorNote,
		PaymentLink: b.PaymentLink,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// NewStudentViewResponse attaches the mentor, rendering a missing one as unknown.
func NewStudentViewResponse(b *booking.Booking) BookingResponse {
	resp := NewBookingResponse(b)
	tag := MentorTag{ID: b.MentorID, Name: unknownMentor}
	if b.Mentor != nil {
		tag.AvatarURL = b.Mentor.AvatarURL
		tag.Company = b.Mentor.Company
		if b.Mentor.Name != nil && *b.Mentor.Name != "" {
			tag.Name = *b.Mentor.Name
		}
	}
	resp.Mentor = &tag
	return resp
}

// NewMentorViewResponse attaches the student, rendering a missing one as unknown.
func NewMentorViewResponse(b *booking.Booking) BookingResponse {
	resp := NewBookingResponse(b)
	tag := profileHttp.ProfileTag{ID: b.StudentID, Name: unknownStudent}
	if b.Student != nil {
		tag.AvatarURL = b.Student.AvatarURL
		if b.Student.Name != nil && *b.Student.Name != "" {
			tag.Name = *b.Student.Name
		}
	}
	resp.Student = &tag
	return resp
}
