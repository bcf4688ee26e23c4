package repository

import (
	"context"

	"github.com/nahid/queryhive-server/internal/model"
)

// The three interfaces are implemented by a single sqlite.DB, so the
// recommendation and user methods carry the resource in their name
// (CreateRecommendation, GetUserByEmail) while the primary query resource
// keeps the short forms.

type QueryRepository interface {
	Create(ctx context.Context, query *model.Query) error
	GetByID(ctx context.Context, id string) (*model.Query, error)
	ListRecent(ctx context.Context, limit int) ([]model.Query, error)
	ListAll(ctx context.Context) ([]model.Query, error)
	ListByOwner(ctx context.Context, email string) ([]model.Query, error)

	// Update applies the whitelist fields to the query with the given id,
	// creating the row when it does not exist (upsert). It never touches
	// the owner or the recommendation counter.
	Update(ctx context.Context, id string, upd model.QueryUpdate) (*model.Query, error)

	// Delete removes the query and, in the same transaction, every
	// recommendation referencing it.
	Delete(ctx context.Context, id string) error
}

type RecommendationRepository interface {
	// CreateRecommendation inserts the recommendation and increments the
	// parent query's recommendation counter in a single transaction.
	// Returns NotFound if the parent query is absent.
	CreateRecommendation(ctx context.Context, rec *model.Recommendation) error

	GetRecommendationByID(ctx context.Context, id string) (*model.Recommendation, error)
	ListAllRecommendations(ctx context.Context) ([]model.Recommendation, error)
	ListByAuthor(ctx context.Context, email string) ([]model.Recommendation, error)
	ListForQuery(ctx context.Context, queryID string) ([]model.Recommendation, error)

	// ListForQueryOwner returns the recommendations attached to any query
	// owned by the given email.
	ListForQueryOwner(ctx context.Context, ownerEmail string) ([]model.Recommendation, error)

	// DeleteRecommendation removes the recommendation and decrements the
	// parent query's counter (clamped at zero) in a single transaction.
	DeleteRecommendation(ctx context.Context, id string) error
}

type UserRepository interface {
	// CreateUser inserts a new user. Returns Conflict when the email is
	// already registered.
	CreateUser(ctx context.Context, user *model.User) error

	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// UpsertUserByEmail inserts the user or refreshes name/photo on an
	// existing row, keyed by email. Used by social sign-in.
	UpsertUserByEmail(ctx context.Context, user *model.User) error
}
