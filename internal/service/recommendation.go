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

// RecommendationService handles business logic for recommendations: the
// self-recommendation rule and the counter-paired create/delete.
type RecommendationService struct {
	queries repository.QueryRepository
	recs    repository.RecommendationRepository
	logger  *slog.Logger
}

// NewRecommendationService creates a RecommendationService.
func NewRecommendationService(
	queries repository.QueryRepository,
	recs repository.RecommendationRepository,
	logger *slog.Logger,
) *RecommendationService {
	return &RecommendationService{
		queries: queries,
		recs:    recs,
		logger:  logger,
	}
}

// Create attaches a recommendation to a query.
//
// Order of checks matters for the no-partial-write property:
//  1. the parent query must exist (typed NotFound, no nil dereference);
//  2. the author must not be the query's owner (SelfRecommendationForbidden,
//     nothing inserted, counter untouched);
//  3. only then the repository inserts and increments in one transaction.
//
// The parent could be deleted between steps 1 and 3; the transactional
// create detects that and returns NotFound rather than inserting an orphan.
func (s *RecommendationService) Create(ctx context.Context, rec *model.Recommendation) (*model.Recommendation, error) {
	rec.QueryID = strings.TrimSpace(rec.QueryID)
	rec.RecommendationEmail = strings.TrimSpace(rec.RecommendationEmail)

	if rec.QueryID == "" {
		return nil, apperror.ValidationFailed("queryId", "query ID is required")
	}
	if rec.RecommendationEmail == "" {
		return nil, apperror.ValidationFailed("recommendationEmail", "recommender email is required")
	}

	query, err := s.queries.GetByID(ctx, rec.QueryID)
	if err != nil {
		return nil, err
	}

	if query.UserEmail == rec.RecommendationEmail {
		return nil, apperror.SelfRecommendation()
	}

	if err := s.recs.CreateRecommendation(ctx, rec); err != nil {
		s.logger.Error("failed to create recommendation",
			slog.String("queryID", rec.QueryID),
			slog.String("author", rec.RecommendationEmail),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("recommendation created",
		slog.String("id", rec.ID),
		slog.String("queryID", rec.QueryID),
		slog.String("author", rec.RecommendationEmail),
	)

	return rec, nil
}

// ListAll returns every recommendation.
func (s *RecommendationService) ListAll(ctx context.Context) ([]model.Recommendation, error) {
	recs, err := s.recs.ListAllRecommendations(ctx)
	if err != nil {
		s.logger.Error("failed to list recommendations", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing recommendations: %w", err)
	}
	return recs, nil
}

// ListByAuthor returns the recommendations written by email. Owner-only.
func (s *RecommendationService) ListByAuthor(ctx context.Context, email, identity string) ([]model.Recommendation, error) {
	if err := auth.AssertOwner(identity, email); err != nil {
		return nil, err
	}

	recs, err := s.recs.ListByAuthor(ctx, email)
	if err != nil {
		s.logger.Error("failed to list recommendations by author",
			slog.String("author", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing recommendations by author: %w", err)
	}
	return recs, nil
}

// ListForQuery returns the recommendations attached to a query. Public.
func (s *RecommendationService) ListForQuery(ctx context.Context, queryID string) ([]model.Recommendation, error) {
	queryID = strings.TrimSpace(queryID)
	if queryID == "" {
		return nil, apperror.ValidationFailed("queryId", "query ID is required")
	}

	recs, err := s.recs.ListForQuery(ctx, queryID)
	if err != nil {
		s.logger.Error("failed to list recommendations for query",
			slog.String("queryID", queryID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing recommendations for query: %w", err)
	}
	return recs, nil
}

// ListForOwnersQueries returns the recommendations other users attached to
// any of the owner's queries. Owner-only.
func (s *RecommendationService) ListForOwnersQueries(ctx context.Context, email, identity string) ([]model.Recommendation, error) {
	if err := auth.AssertOwner(identity, email); err != nil {
		return nil, err
	}

	recs, err := s.recs.ListForQueryOwner(ctx, email)
	if err != nil {
		s.logger.Error("failed to list recommendations for owner's queries",
			slog.String("owner", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing recommendations for owner: %w", err)
	}
	return recs, nil
}

// Delete removes a recommendation and decrements the parent counter. The
// repository handles the pairing transactionally; absence surfaces as
// NotFound before anything is written.
func (s *RecommendationService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "recommendation ID is required")
	}

	if err := s.recs.DeleteRecommendation(ctx, id); err != nil {
		return err
	}

	s.logger.Info("recommendation deleted", slog.String("id", id))
	return nil
}
