package mentor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for accessing mentor data.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Mentor, error)
	GetByUserID(ctx context.Context, userID string) (*Mentor, error)
	List(ctx context.Context, filter Filter) ([]*Mentor, error)
	Update(ctx context.Context, m *Mentor) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) baseSelect() squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Select(
		"m.id", "m.user_id", "p.full_name", "p.avatar_url", "COALESCE(p.email, '')",
		"COALESCE(m.company, '')", "COALESCE(m.bio, '')",
		"COALESCE(m.years_experience, 0)", "COALESCE(m.hourly_rate, 0)",
		"m.rating", "m.total_reviews", "m.status", "m.created_at",
		"COALESCE((SELECT array_agg(e.skill ORDER BY e.skill) FROM public.mentor_expertise e WHERE e.mentor_id = m.id), '{}'::text[])",
	).
		From("public.mentors m").
		LeftJoin("public.profiles p ON p.id = m.user_id")
}

func scanMentor(row pgx.Row) (*Mentor, error) {
	var m Mentor
	var bio string
	if err := row.Scan(
		&m.ID, &m.UserID, &m.Name, &m.AvatarURL, &m.Email,
		&m.Company, &bio,
		&m.YearsExperience, &m.HourlyRate,
		&m.Rating, &m.TotalReviews, &m.Status, &m.CreatedAt,
		&m.Expertise,
	); err != nil {
		return nil, err
	}
	m.applyBio(bio)
	return &m, nil
}

func (r *pgxRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*Mentor, error) {
	query, args, err := r.baseSelect().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get mentor query failed: %w", err)
	}

	m, err := scanMentor(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get mentor failed: %w", err)
	}
	return m, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Mentor, error) {
	return r.getOne(ctx, squirrel.Eq{"m.id": id})
}

func (r *pgxRepository) GetByUserID(ctx context.Context, userID string) (*Mentor, error) {
	return r.getOne(ctx, squirrel.Eq{"m.user_id": userID})
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Mentor, error) {
	sb := r.baseSelect()
	if filter.Status != "" {
		sb = sb.Where(squirrel.Eq{"m.status": filter.Status})
	}
	if filter.Expertise != "" {
		sb = sb.Where(squirrel.Expr(
			"EXISTS (SELECT 1 FROM public.mentor_expertise e WHERE e.mentor_id = m.id AND lower(e.skill) = lower(?))",
			filter.Expertise,
		))
	}

	query, args, err := sb.OrderBy("m.rating DESC", "m.created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list mentors query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mentors failed: %w", err)
	}
	defer rows.Close()

	var mentors []*Mentor
	for rows.Next() {
		m, err := scanMentor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mentor failed: %w", err)
		}
		mentors = append(mentors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentors failed: %w", err)
	}
	return mentors, nil
}

// Update persists the mentor-editable fields.
func (r *pgxRepository) Update(ctx context.Context, m *Mentor) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.mentors").
		Set("hourly_rate", m.HourlyRate).
		Set("status", m.Status).
		Where(squirrel.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update mentor query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update mentor failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
