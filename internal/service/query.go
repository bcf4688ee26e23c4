// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the store
//
// Services accept primitives and models, not HTTP types, and return domain
// errors (apperror), not status codes. Every owner-only operation takes the
// authenticated identity as an explicit parameter and runs it through
// auth.AssertOwner before touching the repository, so the ownership rule
// lives in exactly one place instead of being re-typed per route.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nahid/queryhive-server/internal/apperror"
	"github.com/nahid/queryhive-server/internal/auth"
	"github.com/nahid/queryhive-server/internal/model"
	"github.com/nahid/queryhive-server/internal/repository"
)

// QueryService handles business logic for boycott queries.
type QueryService struct {
	repo        repository.QueryRepository
	recentLimit int
	logger      *slog.Logger
}

// NewQueryService creates a QueryService. recentLimit caps ListRecent; it
// comes from configuration (the source versions disagreed between 6 and 8,
// so the value is a setting rather than a constant).
func NewQueryService(repo repository.QueryRepository, recentLimit int, logger *slog.Logger) *QueryService {
	if recentLimit <= 0 {
		recentLimit = 6
	}
	return &QueryService{
		repo:        repo,
		recentLimit: recentLimit,
		logger:      logger,
	}
}

// Create validates and saves a new query. The counter starts at zero; the
// repository enforces that regardless of the input.
func (s *QueryService) Create(ctx context.Context, query *model.Query) (*model.Query, error) {
	query.UserEmail = strings.TrimSpace(query.UserEmail)
	query.QueryTitle = strings.TrimSpace(query.QueryTitle)

	if query.UserEmail == "" {
		return nil, apperror.ValidationFailed("userEmail", "query owner email is required")
	}
	if query.QueryTitle == "" {
		return nil, apperror.ValidationFailed("queryTitle", "query title is required")
	}

	if err := s.repo.Create(ctx, query); err != nil {
		s.logger.Error("failed to create query",
			slog.String("owner", query.UserEmail),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating query: %w", err)
	}

	s.logger.Info("query created",
		slog.String("id", query.ID),
		slog.String("owner", query.UserEmail),
	)

	return query, nil
}

// GetByID retrieves a query. Returns apperror.ErrNotFound when absent.
func (s *QueryService) GetByID(ctx context.Context, id string) (*model.Query, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "query ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// ListRecent returns the newest queries, capped at the configured limit.
func (s *QueryService) ListRecent(ctx context.Context) ([]model.Query, error) {
	queries, err := s.repo.ListRecent(ctx, s.recentLimit)
	if err != nil {
		s.logger.Error("failed to list recent queries", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing recent queries: %w", err)
	}
	return queries, nil
}

// ListAll returns every query, newest first.
func (s *QueryService) ListAll(ctx context.Context) ([]model.Query, error) {
	queries, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list queries", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing queries: %w", err)
	}
	return queries, nil
}

// ListByOwner returns the given user's queries. Owner-only: identity must
// match the requested email.
func (s *QueryService) ListByOwner(ctx context.Context, email, identity string) ([]model.Query, error) {
	if err := auth.AssertOwner(identity, email); err != nil {
		return nil, err
	}

	queries, err := s.repo.ListByOwner(ctx, email)
	if err != nil {
		s.logger.Error("failed to list queries by owner",
			slog.String("owner", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing queries by owner: %w", err)
	}
	return queries, nil
}

// Update applies the whitelisted mutable fields. Anything outside the
// whitelist the client sent has already been dropped by the QueryUpdate
// decode, and the repository's SET list keeps the owner and counter
// untouchable.
func (s *QueryService) Update(ctx context.Context, id string, upd model.QueryUpdate) (*model.Query, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "query ID is required")
	}

	query, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		s.logger.Error("failed to update query",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating query: %w", err)
	}

	s.logger.Info("query updated", slog.String("id", id))
	return query, nil
}

// Delete removes a query and its recommendations. Owner-only: the original
// API deleted unconditionally, which let anyone remove anyone's query; here
// the authenticated identity must match the stored owner.
func (s *QueryService) Delete(ctx context.Context, id, identity string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "query ID is required")
	}

	query, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := auth.AssertOwner(identity, query.UserEmail); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("query deleted",
		slog.String("id", id),
		slog.String("owner", identity),
	)
	return nil
}
