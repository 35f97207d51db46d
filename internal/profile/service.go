package profile

import "context"

// Service exposes profile lookups to the other modules.
type Service interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}
