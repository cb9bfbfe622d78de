package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"userlist/internal/domain"
)

type userDirectoryService struct {
	repo           domain.UserRepository
	cache          domain.CountCache
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewUserDirectoryService serves user pages from repo and the total count
// through cache. A nil cache disables caching.
func NewUserDirectoryService(repo domain.UserRepository, cache domain.CountCache, logger *slog.Logger, timeout time.Duration) domain.UserDirectoryService {
	return &userDirectoryService{
		repo:           repo,
		cache:          cache,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *userDirectoryService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.contextTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.contextTimeout)
}

func (s *userDirectoryService) ListUsers(ctx context.Context, page domain.PageRequest) ([]domain.User, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if page.Limit > domain.MaxPageSize {
		page.Limit = domain.MaxPageSize
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	users, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// CountUsers reads the cached total when present. Cache failures are logged
// and fall through to the repository.
func (s *userDirectoryService) CountUsers(ctx context.Context) (domain.UserCount, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if s.cache != nil {
		n, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "count cache read failed", "err", err)
		} else if ok {
			return domain.NewUserCount(n)
		}
	}

	n, err := s.repo.Count(ctx)
	if err != nil {
		return domain.UserCount{}, fmt.Errorf("count users: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, n); err != nil {
			s.logger.WarnContext(ctx, "count cache write failed", "err", err)
		}
	}
	return domain.NewUserCount(n)
}
