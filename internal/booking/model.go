package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "booking not found")
	ErrSlotTaken          = apperror.New(http.StatusConflict, "time slot already booked")
	ErrConcurrentUpdate   = apperror.New(http.StatusConflict, "booking was modified concurrently")
	ErrInvalidTransition  = apperror.New(http.StatusBadRequest, "invalid status transition")
	ErrInvalidStatus      = apperror.New(http.StatusBadRequest, "invalid booking status")
	ErrMeetingLinkMissing = apperror.New(http.StatusBadRequest, "meeting link is required")
	ErrInvalidMeetingLink = apperror.New(http.StatusBadRequest, "meeting link must be a valid http(s) URL")
	ErrStartTimePast      = apperror.New(http.StatusBadRequest, "cannot book a session in the past")
	ErrMentorNotFound     = apperror.New(http.StatusNotFound, "mentor not found")
	ErrStudentNotFound    = apperror.New(http.StatusNotFound, "student not found")
	ErrMentorUnavailable  = apperror.New(http.StatusConflict, "mentor is not accepting bookings")
	ErrSelfBooking        = apperror.New(http.StatusBadRequest, "mentors cannot book themselves")
	ErrPermissionDenied   = apperror.New(http.StatusForbidden, "permission denied")
)

// SessionLength is the fixed length of one bookable session.
const SessionLength = time.Hour

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Party is the side of a booking an actor is on.
type Party int

const (
	PartyNone Party = iota
	PartyStudent
	PartyMentor
)

// transitions lists, per source status, the reachable targets and who may trigger them.
// pending -> confirmed is absent on purpose: it only happens through Accept.
var transitions = map[Status]map[Status][]Party{
	StatusPending: {
		StatusCancelled: {PartyStudent, PartyMentor},
	},
	StatusConfirmed: {
		StatusCancelled: {PartyStudent, PartyMentor},
		StatusCompleted: {PartyMentor},
	},
}

// CanTransition reports whether party may move a booking from one status to another.
func CanTransition(from, to Status, party Party) bool {
	parties, ok := transitions[from][to]
	if !ok {
		return false
	}
	for _, p := range parties {
		if p == party {
			return true
		}
	}
	return false
}

// MentorRef is the mentor side of a booking as seen from the student view.
type MentorRef struct {
	ID        string
	UserID    string
	Name      *string
	AvatarURL *string
	Company   string
}

// StudentRef is the requester side of a booking as seen from the mentor view.
type StudentRef struct {
	ID        string
	Name      *string
	Email     string
	AvatarURL *string
}

type Booking struct {
	ID          string
	StudentID   string
	MentorID    string
	Status      Status
	ScheduledAt time.Time
	Duration    *string
	Note        *string
	MeetingLink *string
	MentorNote  *string
	PaymentLink *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Populated by the list queries; nil when the joined record is missing.
	Mentor  *MentorRef
	Student *StudentRef
}

// EndsAt returns the end of the session.
func (b *Booking) EndsAt() time.Time {
	return b.ScheduledAt.Add(SessionLength)
}

// Confirmation holds the logistics a mentor attaches when accepting.
type Confirmation struct {
	MeetingLink string
	MentorNote  *string
	PaymentLink *string
}

type Filter struct {
	Status Status
	From   *time.Time
	Limit  int
}
