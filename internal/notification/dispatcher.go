package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nekogravitycat/mentor-booking-backend/internal/cache"
	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/metrics"
	"github.com/nekogravitycat/mentor-booking-backend/internal/profile"
)

const lookupTimeout = 5 * time.Second

var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrStopped   = errors.New("notification dispatcher is stopped")
)

// BookingCreatedEvent is emitted once a booking insert has committed.
type BookingCreatedEvent struct {
	BookingID    string
	StudentID    string
	MentorID     string
	MentorUserID string
	ScheduledAt  time.Time
	Duration     *string
	Note         *string
}

// Directory resolves contact details for a user id.
type Directory interface {
	GetByID(ctx context.Context, id string) (*profile.Profile, error)
}

// DeadLetterStore keeps emails that exhausted their retries.
type DeadLetterStore interface {
	PushJSON(ctx context.Context, key string, value any) error
}

// DeadLetter is the record stored for an undeliverable email.
type DeadLetter struct {
	BookingID string    `json:"booking_id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	FailedAt  time.Time `json:"failed_at"`
}

type Options struct {
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Location renders session times in emails. Defaults to UTC.
	Location *time.Location
}

// Dispatcher sends booking emails from a bounded queue on a single worker.
type Dispatcher struct {
	sender    Sender
	directory Directory
	dead      DeadLetterStore // optional
	log       logger.Logger
	opts      Options

	queue  chan BookingCreatedEvent
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewDispatcher(sender Sender, directory Directory, dead DeadLetterStore, log logger.Logger, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sender:    sender,
		directory: directory,
		dead:      dead,
		log:       log,
		opts:      opts,
		queue:     make(chan BookingCreatedEvent, opts.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
	d.log.Info("notification dispatcher started",
		logger.Int("queue_size", d.opts.QueueSize),
		logger.Int("max_attempts", d.opts.MaxAttempts))
}

// Stop refuses new events and waits for the queue to drain. When ctx expires
// first, sending stops: the email in flight and every email of the events still
// queued are dead-lettered instead of sent.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		d.log.Warn("notification drain interrupted", logger.Int("pending", len(d.queue)))
		d.cancel()
		<-done
	}
	d.cancel()
	d.log.Info("notification dispatcher stopped")
}

// NotifyBookingCreated enqueues evt without blocking.
func (d *Dispatcher) NotifyBookingCreated(evt BookingCreatedEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	select {
	case d.queue <- evt:
		return nil
	default:
		metrics.IncNotification("dropped")
		d.log.Error("notification queue full, event dropped", logger.String("booking_id", evt.BookingID))
		return ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for evt := range d.queue {
		d.handle(evt)
	}
}

func (d *Dispatcher) lookup(id string) *profile.Profile {
	if id == "" {
		return nil
	}
	// Not tied to d.ctx: contacts are still needed to dead-letter after shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	p, err := d.directory.GetByID(ctx, id)
	if err != nil {
		d.log.Warn("notification contact lookup failed", logger.String("user_id", id), logger.Error(err))
		return nil
	}
	return p
}

func (d *Dispatcher) handle(evt BookingCreatedEvent) {
	student := d.lookup(evt.StudentID)
	mentor := d.lookup(evt.MentorUserID)

	studentName, mentorName := "Student", "Mentor"
	if student != nil {
		studentName = student.DisplayName(studentName)
	}
	if mentor != nil {
		mentorName = mentor.DisplayName(mentorName)
	}

	note := ""
	if evt.Note != nil {
		note = *evt.Note
	}
	when := evt.ScheduledAt.In(d.opts.Location).Format("Mon, 02 Jan 2006 15:04 MST")

	if student != nil && student.Email != "" {
		email, err := BuildStudentBookingEmail(BookingEmailData{
			RecipientName: studentName, CounterpartName: mentorName, When: when, Note: note,
		})
		d.logRenderError(evt.BookingID, err)
		email.To = student.Email
		d.deliver(evt.BookingID, email)
	} else {
		d.log.Debug("student has no email, skipping", logger.String("booking_id", evt.BookingID))
	}

	if mentor != nil && mentor.Email != "" {
		email, err := BuildMentorBookingEmail(BookingEmailData{
			RecipientName: mentorName, CounterpartName: studentName, When: when, Note: note,
		})
		d.logRenderError(evt.BookingID, err)
		email.To = mentor.Email
		d.deliver(evt.BookingID, email)
	} else {
		d.log.Debug("mentor has no email, skipping", logger.String("booking_id", evt.BookingID))
	}
}

func (d *Dispatcher) logRenderError(bookingID string, err error) {
	if err != nil {
		d.log.Error("email html render failed, sending text only",
			logger.String("booking_id", bookingID), logger.Error(err))
	}
}

// backoff returns the wait after the given failed attempt (1-based).
func (d *Dispatcher) backoff(attempt int) time.Duration {
	wait := d.opts.InitialBackoff
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= d.opts.MaxBackoff {
			return d.opts.MaxBackoff
		}
	}
	return wait
}

func (d *Dispatcher) deliver(bookingID string, email Email) {
	if err := d.ctx.Err(); err != nil {
		d.deadLetter(bookingID, email, 0, fmt.Errorf("dispatcher stopped before sending: %w", err))
		return
	}

	var lastErr error
	attempt := 0
	for attempt < d.opts.MaxAttempts {
		attempt++
		lastErr = d.sender.Send(d.ctx, email)
		if lastErr == nil {
			metrics.IncNotification("sent")
			return
		}
		if attempt == d.opts.MaxAttempts {
			break
		}

		wait := d.backoff(attempt)
		metrics.IncNotification("retried")
		d.log.Warn("email send failed, retrying",
			logger.String("booking_id", bookingID),
			logger.Int("attempt", attempt),
			logger.Duration("backoff", wait),
			logger.Error(lastErr))

		select {
		case <-time.After(wait):
		case <-d.ctx.Done():
			lastErr = errors.Join(lastErr, d.ctx.Err())
			d.deadLetter(bookingID, email, attempt, lastErr)
			return
		}
	}
	d.deadLetter(bookingID, email, attempt, lastErr)
}

func (d *Dispatcher) deadLetter(bookingID string, email Email, attempts int, lastErr error) {
	metrics.IncNotification("dead_lettered")
	d.log.Error("email dead-lettered",
		logger.String("booking_id", bookingID),
		logger.String("to", email.To),
		logger.Int("attempts", attempts),
		logger.Error(lastErr))

	if d.dead == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec := DeadLetter{
		BookingID: bookingID,
		To:        email.To,
		Subject:   email.Subject,
		Attempts:  attempts,
		LastError: lastErr.Error(),
		FailedAt:  time.Now().UTC(),
	}
	if err := d.dead.PushJSON(ctx, cache.KeyDeadLetter, rec); err != nil {
		d.log.Error("failed to store dead letter", logger.String("booking_id", bookingID), logger.Error(err))
	}
}
