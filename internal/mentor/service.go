package mentor

import (
	"context"
	"errors"
)

// UpdateRequest carries the fields a mentor may change on their own record.
type UpdateRequest struct {
	HourlyRate *float64
	Status     *Status
}

type Service interface {
	GetByID(ctx context.Context, id string) (*Mentor, error)
	GetByUserID(ctx context.Context, userID string) (*Mentor, error)
	List(ctx context.Context, filter Filter) ([]*Mentor, error)
	UpdateOwn(ctx context.Context, userID string, req UpdateRequest) (*Mentor, error)
}

type service struct {
	repo   Repository
	bounds Bounds
}

func NewService(repo Repository, bounds Bounds) Service {
	return &service{repo: repo, bounds: bounds}
}

// normalize clamps stored values into the configured display range.
func (s *service) normalize(m *Mentor) *Mentor {
	m.Rating = clamp(m.Rating, s.bounds.MinRating, s.bounds.MaxRating)
	if m.Expertise == nil {
		m.Expertise = []string{}
	}
	return m
}

func (s *service) GetByID(ctx context.Context, id string) (*Mentor, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.normalize(m), nil
}

func (s *service) GetByUserID(ctx context.Context, userID string) (*Mentor, error) {
	m, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.normalize(m), nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Mentor, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	mentors, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, m := range mentors {
		s.normalize(m)
	}
	return mentors, nil
}

func (s *service) UpdateOwn(ctx context.Context, userID string, req UpdateRequest) (*Mentor, error) {
	if req.HourlyRate == nil && req.Status == nil {
		return nil, ErrNoChanges
	}

	m, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotMentor
		}
		return nil, err
	}

	if req.HourlyRate != nil {
		rate := *req.HourlyRate
		if rate < s.bounds.MinHourlyRate || rate > s.bounds.MaxHourlyRate {
			return nil, ErrRateOutOfRange(s.bounds)
		}
		m.HourlyRate = rate
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		m.Status = *req.Status
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return s.normalize(m), nil
}
