package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for reading profiles from storage.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "COALESCE(email, '')", "full_name", "role", "avatar_url").
		From("public.profiles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get profile query failed: %w", err)
	}

	var p Profile
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Role, &p.AvatarURL,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile failed: %w", err)
	}
	return &p, nil
}
