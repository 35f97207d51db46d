package booking

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/mentor"
	"github.com/nekogravitycat/mentor-booking-backend/internal/metrics"
	"github.com/nekogravitycat/mentor-booking-backend/internal/notification"
	"github.com/nekogravitycat/mentor-booking-backend/internal/profile"
)

// CreateRequest carries a student's request for a session.
type CreateRequest struct {
	StudentID   string
	MentorID    string
	ScheduledAt time.Time
	Duration    string
	Note        string
}

// AcceptRequest carries the logistics a mentor attaches when accepting.
type AcceptRequest struct {
	MeetingLink string
	MentorNote  string
	PaymentLink string
}

// Notifier receives committed booking events. It must not block.
type Notifier interface {
	NotifyBookingCreated(evt notification.BookingCreatedEvent) error
}

// Invalidator drops cached availability covering [start, end) for a mentor.
type Invalidator interface {
	Invalidate(ctx context.Context, mentorID string, start, end time.Time)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string, actorUserID string) (*Booking, error)

	// CheckAcceptable runs every Accept precondition without writing anything.
	CheckAcceptable(ctx context.Context, id string, actorUserID string, meetingLink string) error
	Accept(ctx context.Context, id string, actorUserID string, req AcceptRequest) (*Booking, error)
	Cancel(ctx context.Context, id string, actorUserID string) (*Booking, error)
	Complete(ctx context.Context, id string, actorUserID string) (*Booking, error)
	Transition(ctx context.Context, id string, actorUserID string, to Status) (*Booking, error)

	ListForStudent(ctx context.Context, studentID string, filter Filter) ([]*Booking, error)
	ListForMentor(ctx context.Context, mentorUserID string, filter Filter) ([]*Booking, error)
}

// Option customizes the service.
type Option func(*service)

// WithClock overrides the time source used for past-start checks.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo        Repository
	mentors     mentor.Service
	profiles    profile.Service
	notifier    Notifier
	invalidator Invalidator
	log         logger.Logger

	validate *validator.Validate
	policy   *bluemonday.Policy
	now      func() time.Time
}

func NewService(
	repo Repository,
	mentors mentor.Service,
	profiles profile.Service,
	notifier Notifier,
	invalidator Invalidator,
	log logger.Logger,
	opts ...Option,
) Service {
	s := &service{
		repo:        repo,
		mentors:     mentors,
		profiles:    profiles,
		notifier:    notifier,
		invalidator: invalidator,
		log:         log,
		validate:    validator.New(),
		policy:      bluemonday.StrictPolicy(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// maxCleanPasses bounds how many layers of entity encoding clean will peel.
const maxCleanPasses = 5

// clean strips markup from free text and stores it unescaped; empty input
// becomes nil. Unescaping can expose entity-encoded markup, so sanitizing
// repeats until the text is stable. Text that never settles is kept escaped.
func (s *service) clean(text string) *string {
	for i := 0; i < maxCleanPasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(text))
		if next == text {
			return optional(text)
		}
		text = next
	}
	return optional(s.policy.Sanitize(text))
}

func optional(text string) *string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &text
}

func (s *service) checkMeetingLink(link string) error {
	if strings.TrimSpace(link) == "" {
		return ErrMeetingLinkMissing
	}
	if err := s.validate.Var(strings.TrimSpace(link), "http_url"); err != nil {
		return ErrInvalidMeetingLink
	}
	return nil
}

// partyOf tells which side of the booking the actor is on.
func (s *service) partyOf(ctx context.Context, b *Booking, actorUserID string) (Party, error) {
	if actorUserID == "" {
		return PartyNone, nil
	}
	if b.StudentID == actorUserID {
		return PartyStudent, nil
	}

	m, err := s.mentors.GetByID(ctx, b.MentorID)
	if err != nil {
		if errors.Is(err, mentor.ErrNotFound) {
			return PartyNone, nil
		}
		return PartyNone, err
	}
	if m.UserID == actorUserID {
		return PartyMentor, nil
	}
	return PartyNone, nil
}

func (s *service) invalidate(ctx context.Context, b *Booking) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, b.MentorID, b.ScheduledAt, b.EndsAt())
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	// Postgres keeps microseconds; truncating keeps the read-back instant identical.
	scheduledAt := req.ScheduledAt.UTC().Truncate(time.Microsecond)
	if !scheduledAt.After(s.now()) {
		metrics.IncBookingRejected("past")
		return nil, ErrStartTimePast
	}

	if _, err := s.profiles.GetByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	m, err := s.mentors.GetByID(ctx, req.MentorID)
	if err != nil {
		if errors.Is(err, mentor.ErrNotFound) {
			return nil, ErrMentorNotFound
		}
		return nil, err
	}
	if m.UserID == req.StudentID {
		return nil, ErrSelfBooking
	}
	if m.Status != mentor.StatusActive {
		metrics.IncBookingRejected("mentor_unavailable")
		return nil, ErrMentorUnavailable
	}

	b := &Booking{
		StudentID:   req.StudentID,
		MentorID:    req.MentorID,
		Status:      StatusPending,
		ScheduledAt: scheduledAt,
		Duration:    s.clean(req.Duration),
		Note:        s.clean(req.Note),
	}
	if err := s.repo.CreateChecked(ctx, b); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.IncBookingRejected("slot_taken")
		}
		return nil, err
	}
	metrics.IncBookingCreated()
	s.invalidate(ctx, b)

	evt := notification.BookingCreatedEvent{
		BookingID:    b.ID,
		StudentID:    b.StudentID,
		MentorID:     b.MentorID,
		MentorUserID: m.UserID,
		ScheduledAt:  b.ScheduledAt,
		Duration:     b.Duration,
		Note:         b.Note,
	}
	if err := s.notifier.NotifyBookingCreated(evt); err != nil {
		s.log.Warn("booking notification not queued",
			logger.String("booking_id", b.ID), logger.Error(err))
	}

	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string, actorUserID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	party, err := s.partyOf(ctx, b, actorUserID)
	if err != nil {
		return nil, err
	}
	if party == PartyNone {
		return nil, ErrPermissionDenied
	}
	return b, nil
}

// loadForMentor fetches a booking the actor must own as mentor and which must still be pending.
func (s *service) loadForMentor(ctx context.Context, id, actorUserID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	party, err := s.partyOf(ctx, b, actorUserID)
	if err != nil {
		return nil, err
	}
	if party != PartyMentor {
		return nil, ErrPermissionDenied
	}
	if b.Status != StatusPending {
		return nil, ErrInvalidTransition
	}
	return b, nil
}

func (s *service) CheckAcceptable(ctx context.Context, id string, actorUserID string, meetingLink string) error {
	if err := s.checkMeetingLink(meetingLink); err != nil {
		return err
	}
	_, err := s.loadForMentor(ctx, id, actorUserID)
	return err
}

func (s *service) Accept(ctx context.Context, id string, actorUserID string, req AcceptRequest) (*Booking, error) {
	if err := s.checkMeetingLink(req.MeetingLink); err != nil {
		return nil, err
	}

	b, err := s.loadForMentor(ctx, id, actorUserID)
	if err != nil {
		return nil, err
	}

	conf := Confirmation{
		MeetingLink: strings.TrimSpace(req.MeetingLink),
		MentorNote:  s.clean(req.MentorNote),
		PaymentLink: optional(req.PaymentLink),
	}
	if err := s.repo.Confirm(ctx, b.ID, conf); err != nil {
		return nil, err
	}
	metrics.IncBookingTransition(string(StatusConfirmed))

	return s.repo.GetByID(ctx, b.ID)
}

func (s *service) Cancel(ctx context.Context, id string, actorUserID string) (*Booking, error) {
	return s.Transition(ctx, id, actorUserID, StatusCancelled)
}

func (s *service) Complete(ctx context.Context, id string, actorUserID string) (*Booking, error) {
	return s.Transition(ctx, id, actorUserID, StatusCompleted)
}

func (s *service) Transition(ctx context.Context, id string, actorUserID string, to Status) (*Booking, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	party, err := s.partyOf(ctx, b, actorUserID)
	if err != nil {
		return nil, err
	}
	if party == PartyNone {
		return nil, ErrPermissionDenied
	}

	if _, ok := transitions[b.Status][to]; !ok {
		return nil, ErrInvalidTransition
	}
	if !CanTransition(b.Status, to, party) {
		return nil, ErrPermissionDenied
	}

	if err := s.repo.UpdateStatus(ctx, b.ID, b.Status, to); err != nil {
		return nil, err
	}
	metrics.IncBookingTransition(string(to))
	if to == StatusCancelled {
		s.invalidate(ctx, b)
	}

	return s.repo.GetByID(ctx, b.ID)
}

func normalizeFilter(filter Filter) (Filter, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, ErrInvalidStatus
	}
	if filter.Limit < 0 {
		filter.Limit = 0
	}
	if filter.From != nil {
		from := filter.From.UTC()
		filter.From = &from
	}
	return filter, nil
}

func (s *service) ListForStudent(ctx context.Context, studentID string, filter Filter) ([]*Booking, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.repo.ListForStudent(ctx, studentID, filter)
}

func (s *service) ListForMentor(ctx context.Context, mentorUserID string, filter Filter) ([]*Booking, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	m, err := s.mentors.GetByUserID(ctx, mentorUserID)
	if err != nil {
		if errors.Is(err, mentor.ErrNotFound) {
			return nil, mentor.ErrNotMentor
		}
		return nil, err
	}
	return s.repo.ListForMentor(ctx, m.ID, filter)
}
