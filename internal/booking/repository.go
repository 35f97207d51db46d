package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// CreateChecked inserts b as a new booking unless another non-cancelled booking
	// of the same mentor overlaps its session. Returns ErrSlotTaken on conflict.
	CreateChecked(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)

	// Confirm moves a pending booking to confirmed and stores the logistics in one statement.
	Confirm(ctx context.Context, id string, c Confirmation) error
	// UpdateStatus moves a booking from one status to another only if it is still in from.
	UpdateStatus(ctx context.Context, id string, from, to Status) error

	ListForStudent(ctx context.Context, studentID string, filter Filter) ([]*Booking, error)
	ListForMentor(ctx context.Context, mentorID string, filter Filter) ([]*Booking, error)

	// ListActiveForMentor returns non-cancelled bookings of a mentor overlapping [from, to).
	ListActiveForMentor(ctx context.Context, mentorID string, from, to time.Time) ([]*Booking, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var bookingColumns = []string{
	"b.id", "b.student_id", "b.mentor_id", "b.status", "b.scheduled_at",
	"b.duration", "b.note", "b.meeting_link", "b.mentor_note", "b.payment_link",
	"b.created_at", "b.updated_at",
}

func scanTargets(b *Booking) []any {
	return []any{
		&b.ID, &b.StudentID, &b.MentorID, &b.Status, &b.ScheduledAt,
		&b.Duration, &b.Note, &b.MeetingLink, &b.MentorNote, &b.PaymentLink,
		&b.CreatedAt, &b.UpdatedAt,
	}
}

// utc pins timestamps read from the driver to UTC.
func utc(b *Booking) *Booking {
	b.ScheduledAt = b.ScheduledAt.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b
}

func (r *pgxRepository) CreateChecked(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	start := b.ScheduledAt
	end := start.Add(SessionLength)

	overlapSQL, overlapArgs, err := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"mentor_id": b.MentorID}).
		Where(squirrel.NotEq{"status": StatusCancelled}).
		Where(squirrel.Lt{"scheduled_at": end}).
		Where(squirrel.Gt{"scheduled_at": start.Add(-SessionLength)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build booking overlap query failed: %w", err)
	}

	insertSQL, insertArgs, err := psql.Insert("public.bookings").
		Columns("student_id", "mentor_id", "status", "scheduled_at", "duration", "note").
		Values(b.StudentID, b.MentorID, b.Status, b.ScheduledAt, b.Duration, b.Note).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Serializes creates per mentor until commit.
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", b.MentorID); err != nil {
			return fmt.Errorf("lock mentor schedule failed: %w", err)
		}

		var taken bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS ("+overlapSQL+")", overlapArgs...).Scan(&taken); err != nil {
			return fmt.Errorf("check booking overlap failed: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		return tx.QueryRow(ctx, insertSQL, insertArgs...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrSlotTaken
		}
		if errors.Is(err, ErrSlotTaken) {
			return ErrSlotTaken
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	utc(b)
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	var b Booking
	if err := r.pool.QueryRow(ctx, query, args...).Scan(scanTargets(&b)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return utc(&b), nil
}

func (r *pgxRepository) Confirm(ctx context.Context, id string, c Confirmation) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", StatusConfirmed).
		Set("meeting_link", c.MeetingLink).
		Set("mentor_note", c.MentorNote).
		Set("payment_link", c.PaymentLink).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": StatusPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build confirm booking query failed: %w", err)
	}

	return r.execConditional(ctx, id, query, args)
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking status query failed: %w", err)
	}

	return r.execConditional(ctx, id, query, args)
}

// execConditional runs a status-guarded update and tells a missing row apart
// from a row whose status moved underneath us.
func (r *pgxRepository) execConditional(ctx context.Context, id, query string, args []any) error {
	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking failed: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM public.bookings WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("recheck booking failed: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConcurrentUpdate
}

func applyFilter(sb squirrel.SelectBuilder, filter Filter) squirrel.SelectBuilder {
	if filter.Status != "" {
		sb = sb.Where(squirrel.Eq{"b.status": filter.Status})
	}
	if filter.From != nil {
		sb = sb.Where(squirrel.GtOrEq{"b.scheduled_at": *filter.From})
	}
	sb = sb.OrderBy("b.scheduled_at ASC", "b.created_at ASC")
	if filter.Limit > 0 {
		sb = sb.Limit(uint64(filter.Limit))
	}
	return sb
}

func (r *pgxRepository) ListForStudent(ctx context.Context, studentID string, filter Filter) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	cols := append(append([]string{}, bookingColumns...),
		"m.id", "m.user_id", "p.full_name", "p.avatar_url", "m.company",
	)
	sb := psql.Select(cols...).
		From("public.bookings b").
		LeftJoin("public.mentors m ON m.id = b.mentor_id").
		LeftJoin("public.profiles p ON p.id = m.user_id").
		Where(squirrel.Eq{"b.student_id": studentID})

	query, args, err := applyFilter(sb, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list student bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list student bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		var b Booking
		var (
			mentorID, mentorUserID, company *string
			name, avatar                    *string
		)
		targets := append(scanTargets(&b), &mentorID, &mentorUserID, &name, &avatar, &company)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan student booking failed: %w", err)
		}
		if mentorID != nil {
			b.Mentor = &MentorRef{ID: *mentorID, Name: name, AvatarURL: avatar}
			if mentorUserID != nil {
				b.Mentor.UserID = *mentorUserID
			}
			if company != nil {
				b.Mentor.Company = *company
			}
		}
		bookings = append(bookings, utc(&b))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate student bookings failed: %w", err)
	}
	return bookings, nil
}

func (r *pgxRepository) ListForMentor(ctx context.Context, mentorID string, filter Filter) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	cols := append(append([]string{}, bookingColumns...),
		"p.id", "p.full_name", "p.email", "p.avatar_url",
	)
	sb := psql.Select(cols...).
		From("public.bookings b").
		LeftJoin("public.profiles p ON p.id = b.student_id").
		Where(squirrel.Eq{"b.mentor_id": mentorID})

	query, args, err := applyFilter(sb, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list mentor bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mentor bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		var b Booking
		var studentID, name, email, avatar *string
		targets := append(scanTargets(&b), &studentID, &name, &email, &avatar)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan mentor booking failed: %w", err)
		}
		if studentID != nil {
			b.Student = &StudentRef{ID: *studentID, Name: name, AvatarURL: avatar}
			if email != nil {
				b.Student.Email = *email
			}
		}
		bookings = append(bookings, utc(&b))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentor bookings failed: %w", err)
	}
	return bookings, nil
}

func (r *pgxRepository) ListActiveForMentor(ctx context.Context, mentorID string, from, to time.Time) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(squirrel.Eq{"b.mentor_id": mentorID}).
		Where(squirrel.NotEq{"b.status": StatusCancelled}).
		Where(squirrel.Lt{"b.scheduled_at": to}).
		Where(squirrel.Gt{"b.scheduled_at": from.Add(-SessionLength)}).
		OrderBy("b.scheduled_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(scanTargets(&b)...); err != nil {
			return nil, fmt.Errorf("scan active booking failed: %w", err)
		}
		bookings = append(bookings, utc(&b))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active bookings failed: %w", err)
	}
	return bookings, nil
}
