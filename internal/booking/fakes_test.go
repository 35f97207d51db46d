package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/mentor-booking-backend/internal/mentor"
	"github.com/nekogravitycat/mentor-booking-backend/internal/notification"
	"github.com/nekogravitycat/mentor-booking-backend/internal/profile"
)

// memRepo mirrors the database guarantees: one non-cancelled booking per
// mentor per overlapping hour and status-guarded updates.
type memRepo struct {
	mu       sync.Mutex
	bookings map[string]*Booking
	// beforeUpdate runs inside the lock ahead of a conditional update; tests
	// use it to simulate a concurrent writer.
	beforeUpdate func(b *Booking)
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: map[string]*Booking{}}
}

func (r *memRepo) CreateChecked(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.bookings {
		if other.MentorID != b.MentorID || other.Status == StatusCancelled {
			continue
		}
		if other.ScheduledAt.Before(b.EndsAt()) && other.EndsAt().After(b.ScheduledAt) {
			return ErrSlotTaken
		}
	}

	now := time.Now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt, b.UpdatedAt = now, now
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) guarded(id string, from Status, apply func(b *Booking)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(b)
	}
	if b.Status != from {
		return ErrConcurrentUpdate
	}
	apply(b)
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memRepo) Confirm(_ context.Context, id string, c Confirmation) error {
	return r.guarded(id, StatusPending, func(b *Booking) {
		link := c.MeetingLink
		b.Status = StatusConfirmed
		b.MeetingLink = &link
		b.MentorNote = c.MentorNote
		b.PaymentLink = c.PaymentLink
	})
}

func (r *memRepo) UpdateStatus(_ context.Context, id string, from, to Status) error {
	return r.guarded(id, from, func(b *Booking) { b.Status = to })
}

func (r *memRepo) list(match func(b *Booking) bool, filter Filter) []*Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.bookings {
		if !match(b) {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.From != nil && b.ScheduledAt.Before(*filter.From) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

func (r *memRepo) ListForStudent(_ context.Context, studentID string, filter Filter) ([]*Booking, error) {
	return r.list(func(b *Booking) bool { return b.StudentID == studentID }, filter), nil
}

func (r *memRepo) ListForMentor(_ context.Context, mentorID string, filter Filter) ([]*Booking, error) {
	return r.list(func(b *Booking) bool { return b.MentorID == mentorID }, filter), nil
}

func (r *memRepo) ListActiveForMentor(_ context.Context, mentorID string, from, to time.Time) ([]*Booking, error) {
	return r.list(func(b *Booking) bool {
		return b.MentorID == mentorID && b.Status != StatusCancelled &&
			b.ScheduledAt.Before(to) && b.EndsAt().After(from)
	}, Filter{}), nil
}

type fakeMentors struct {
	byID map[string]*mentor.Mentor
}

func (f *fakeMentors) GetByID(_ context.Context, id string) (*mentor.Mentor, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, mentor.ErrNotFound
	}
	return m, nil
}

func (f *fakeMentors) GetByUserID(_ context.Context, userID string) (*mentor.Mentor, error) {
	for _, m := range f.byID {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, mentor.ErrNotFound
}

func (f *fakeMentors) List(_ context.Context, _ mentor.Filter) ([]*mentor.Mentor, error) {
	return nil, nil
}

func (f *fakeMentors) UpdateOwn(_ context.Context, _ string, _ mentor.UpdateRequest) (*mentor.Mentor, error) {
	return nil, nil
}

type fakeProfiles map[string]*profile.Profile

func (f fakeProfiles) GetByID(_ context.Context, id string) (*profile.Profile, error) {
	p, ok := f[id]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return p, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notification.BookingCreatedEvent
	err    error
}

func (n *fakeNotifier) NotifyBookingCreated(evt notification.BookingCreatedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return n.err
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls []time.Time
}

func (f *fakeInvalidator) Invalidate(_ context.Context, _ string, start, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, start)
}

func strPtr(s string) *string { return &s }
