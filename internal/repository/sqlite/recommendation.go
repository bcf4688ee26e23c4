package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/xid"

	"github.com/nahid/queryhive-server/internal/apperror"
	"github.com/nahid/queryhive-server/internal/model"
	"github.com/nahid/queryhive-server/internal/repository"
)

// Compile-time check that *DB implements repository.RecommendationRepository.
var _ repository.RecommendationRepository = (*DB)(nil)

const recommendationColumns = `id, query_id, recommendation_title,
	recommended_product_name, recommended_product_image_url,
	recommendation_reason, recommendation_email, recommender_name,
	created_at`

// CreateRecommendation inserts a recommendation and increments the parent
// query's counter as one transaction.
//
// The increment is done in-store (recommendation_count + 1 inside the
// UPDATE), never read-modify-write in Go, so concurrent creates against the
// same query each land exactly once. The UPDATE doubles as the existence
// check: zero rows affected means the parent query is gone, and the whole
// transaction rolls back. The failure mode of the system this replaces,
// where the insert could succeed and the counter bump be lost (or vice
// versa), cannot happen here.
func (db *DB) CreateRecommendation(ctx context.Context, rec *model.Recommendation) error {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	rec.ID = xid.New().String()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	return db.inTx(ctx, "creating recommendation", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE queries
			 SET recommendation_count = recommendation_count + 1
			 WHERE id = ?`,
			rec.QueryID,
		)
		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return apperror.NotFound("query", rec.QueryID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO recommendations (id, query_id, recommendation_title,
			   recommended_product_name, recommended_product_image_url,
			   recommendation_reason, recommendation_email, recommender_name,
			   created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID,
			rec.QueryID,
			rec.RecommendationTitle,
			rec.RecommendedProductName,
			rec.RecommendedProductImageURL,
			rec.RecommendationReason,
			rec.RecommendationEmail,
			rec.RecommenderName,
			rec.CreatedAt,
		)
		return err
	})
}

// GetRecommendationByID retrieves a single recommendation.
func (db *DB) GetRecommendationByID(ctx context.Context, id string) (*model.Recommendation, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations WHERE id = ?`, id)

	rec, err := scanRecommendation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("recommendation", id)
		}
		return nil, storeErr("getting recommendation", err)
	}

	return rec, nil
}

// ListAllRecommendations returns every recommendation, unordered.
func (db *DB) ListAllRecommendations(ctx context.Context) ([]model.Recommendation, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations`)
	if err != nil {
		return nil, storeErr("listing recommendations", err)
	}
	defer rows.Close()

	return collectRecommendations(rows)
}

// ListByAuthor returns the recommendations written by the given email.
func (db *DB) ListByAuthor(ctx context.Context, email string) ([]model.Recommendation, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations
		 WHERE recommendation_email = ?`,
		email,
	)
	if err != nil {
		return nil, storeErr("listing recommendations by author", err)
	}
	defer rows.Close()

	return collectRecommendations(rows)
}

// ListForQuery returns every recommendation attached to the given query.
func (db *DB) ListForQuery(ctx context.Context, queryID string) ([]model.Recommendation, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations
		 WHERE query_id = ?`,
		queryID,
	)
	if err != nil {
		return nil, storeErr("listing recommendations for query", err)
	}
	defer rows.Close()

	return collectRecommendations(rows)
}

// ListForQueryOwner returns the recommendations other users attached to any
// of the owner's queries. The document store this design came from had no
// joins and did a two-phase fetch (owner's query ids, then recommendations
// in that id set); SQL expresses the same fan-out as a subquery.
func (db *DB) ListForQueryOwner(ctx context.Context, ownerEmail string) ([]model.Recommendation, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations
		 WHERE query_id IN (SELECT id FROM queries WHERE user_email = ?)`,
		ownerEmail,
	)
	if err != nil {
		return nil, storeErr("listing recommendations for query owner", err)
	}
	defer rows.Close()

	return collectRecommendations(rows)
}

// DeleteRecommendation removes a recommendation and decrements the parent
// query's counter as one transaction.
//
// The decrement is clamped with max(recommendation_count - 1, 0): two
// racing deletes of recommendations on the same query both decrement, but
// the counter can never be driven negative. Zero rows affected on the
// parent UPDATE is tolerated; it only happens if the parent query itself
// has been deleted, which also removed its counter.
func (db *DB) DeleteRecommendation(ctx context.Context, id string) error {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	return db.inTx(ctx, "deleting recommendation", func(tx *sql.Tx) error {
		var queryID string
		err := tx.QueryRowContext(ctx,
			`SELECT query_id FROM recommendations WHERE id = ?`, id,
		).Scan(&queryID)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperror.NotFound("recommendation", id)
			}
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recommendations WHERE id = ?`, id); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE queries
			 SET recommendation_count = MAX(recommendation_count - 1, 0)
			 WHERE id = ?`,
			queryID,
		)
		return err
	})
}

func scanRecommendation(row scanTarget) (*model.Recommendation, error) {
	var r model.Recommendation
	err := row.Scan(
		&r.ID,
		&r.QueryID,
		&r.RecommendationTitle,
		&r.RecommendedProductName,
		&r.RecommendedProductImageURL,
		&r.RecommendationReason,
		&r.RecommendationEmail,
		&r.RecommenderName,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func collectRecommendations(rows *sql.Rows) ([]model.Recommendation, error) {
	recs := []model.Recommendation{}
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, storeErr("scanning recommendation row", err)
		}
		recs = append(recs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating recommendations", err)
	}
	return recs, nil
}
