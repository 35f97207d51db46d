package availability

import (
	"context"
	"time"

	"github.com/nekogravitycat/mentor-booking-backend/internal/booking"
	"github.com/nekogravitycat/mentor-booking-backend/internal/cache"
	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/mentor"
	"github.com/nekogravitycat/mentor-booking-backend/internal/metrics"
)

// BookingLister returns a mentor's non-cancelled bookings overlapping [from, to).
type BookingLister interface {
	ListActiveForMentor(ctx context.Context, mentorID string, from, to time.Time) ([]*booking.Booking, error)
}

// MentorLookup finds a mentor by id.
type MentorLookup interface {
	GetByID(ctx context.Context, id string) (*mentor.Mentor, error)
}

// versionTTL keeps invalidation counters well past any cached entry they guard.
const versionTTL = 24 * time.Hour

type Options struct {
	StartHour int
	EndHour   int
	Location  *time.Location
	CacheTTL  time.Duration
}

// Generator produces a mentor's bookable slots for one day.
type Generator struct {
	bookings BookingLister
	mentors  MentorLookup
	store    *cache.Store // nil disables caching
	log      logger.Logger
	opts     Options
}

func NewGenerator(bookings BookingLister, mentors MentorLookup, store *cache.Store, log logger.Logger, opts Options) *Generator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.EndHour <= opts.StartHour {
		opts.StartHour, opts.EndHour = 9, 17
	}
	return &Generator{bookings: bookings, mentors: mentors, store: store, log: log, opts: opts}
}

// Day returns midnight of date's calendar day in the configured location.
func (g *Generator) Day(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, g.opts.Location)
}

// Generate returns the slots of mentorID on date, ascending by start time.
// A slot is available when no non-cancelled booking overlaps it and the mentor is active.
func (g *Generator) Generate(ctx context.Context, mentorID string, date time.Time) ([]Slot, error) {
	m, err := g.mentors.GetByID(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	day := g.Day(date)
	slots, err := g.daySlots(ctx, mentorID, day)
	if err != nil {
		return nil, err
	}

	if m.Status != mentor.StatusActive {
		for i := range slots {
			slots[i].Available = false
		}
	}
	return slots, nil
}

// daySlots builds slots from bookings, going through the cache when one is configured.
func (g *Generator) daySlots(ctx context.Context, mentorID string, day time.Time) ([]Slot, error) {
	key := cache.AvailabilityKey(mentorID, day)
	// version is read before the bookings so a concurrent Invalidate blocks the write below.
	var version int64
	cacheable := g.store != nil
	if g.store != nil {
		var cached []Slot
		found, err := g.store.GetJSON(ctx, key, &cached)
		switch {
		case err != nil:
			metrics.IncAvailabilityCache("error")
			g.log.Warn("availability cache read failed", logger.String("key", key), logger.Error(err))
		case found:
			metrics.IncAvailabilityCache("hit")
			return cached, nil
		default:
			metrics.IncAvailabilityCache("miss")
		}

		v, err := g.store.Version(ctx, cache.VersionKey(key))
		if err != nil {
			cacheable = false
			g.log.Warn("availability cache version read failed", logger.String("key", key), logger.Error(err))
		}
		version = v
	}

	from := time.Date(day.Year(), day.Month(), day.Day(), g.opts.StartHour, 0, 0, 0, g.opts.Location)
	to := time.Date(day.Year(), day.Month(), day.Day(), g.opts.EndHour, 0, 0, 0, g.opts.Location)

	bookings, err := g.bookings.ListActiveForMentor(ctx, mentorID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}

	busy := make([]Interval, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == booking.StatusCancelled {
			continue
		}
		busy = append(busy, Interval{Start: b.ScheduledAt, End: b.EndsAt()})
	}
	slots := BuildSlots(mentorID, day, g.opts.StartHour, g.opts.EndHour, busy)

	if cacheable {
		stored, err := g.store.SetJSONIfVersion(ctx, key, slots, g.opts.CacheTTL, version)
		switch {
		case err != nil:
			g.log.Warn("availability cache write failed", logger.String("key", key), logger.Error(err))
		case !stored:
			metrics.IncAvailabilityCache("stale")
		}
	}
	return slots, nil
}

// Invalidate drops cached days touched by [start, end) for a mentor.
func (g *Generator) Invalidate(ctx context.Context, mentorID string, start, end time.Time) {
	if g.store == nil {
		return
	}

	first := cache.AvailabilityKey(mentorID, g.Day(start.In(g.opts.Location)))
	last := cache.AvailabilityKey(mentorID, g.Day(end.Add(-time.Nanosecond).In(g.opts.Location)))
	keys := []string{first}
	if last != first {
		keys = append(keys, last)
	}

	if err := g.store.Invalidate(ctx, versionTTL, keys...); err != nil {
		g.log.Warn("availability cache invalidation failed",
			logger.String("mentor_id", mentorID), logger.Error(err))
	}
}
