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

// Compile-time check that *DB implements repository.QueryRepository.
var _ repository.QueryRepository = (*DB)(nil)

const queryColumns = `id, user_email, user_name, query_title, product_name,
	product_brand, product_image_url, boycotting_reason_details, timestamp,
	recommendation_count`

// Create inserts a new query. The ID is generated here (xid: 20 chars,
// URL-safe, sortable by creation time) and the recommendation counter
// always starts at zero regardless of what the caller set.
func (db *DB) Create(ctx context.Context, query *model.Query) error {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	query.ID = xid.New().String()
	query.RecommendationCount = 0
	if query.Timestamp.IsZero() {
		query.Timestamp = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO queries (id, user_email, user_name, query_title,
		   product_name, product_brand, product_image_url,
		   boycotting_reason_details, timestamp, recommendation_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		query.ID,
		query.UserEmail,
		query.UserName,
		query.QueryTitle,
		query.ProductName,
		query.ProductBrand,
		query.ProductImageURL,
		query.BoycottingReasonDetails,
		query.Timestamp,
	)
	if err != nil {
		return storeErr("creating query", err)
	}

	return nil
}

// GetByID retrieves a single query. Returns a typed NotFound when absent,
// never a nil result, so callers can dereference without existence checks
// of their own.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Query, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+queryColumns+` FROM queries WHERE id = ?`, id)

	query, err := scanQuery(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("query", id)
		}
		return nil, storeErr("getting query", err)
	}

	return query, nil
}

// ListRecent returns the newest queries by timestamp, capped at limit.
func (db *DB) ListRecent(ctx context.Context, limit int) ([]model.Query, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+queryColumns+` FROM queries
		 ORDER BY timestamp DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, storeErr("listing recent queries", err)
	}
	defer rows.Close()

	return collectQueries(rows)
}

// ListAll returns every query, newest first.
func (db *DB) ListAll(ctx context.Context) ([]model.Query, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+queryColumns+` FROM queries ORDER BY timestamp DESC`)
	if err != nil {
		return nil, storeErr("listing queries", err)
	}
	defer rows.Close()

	return collectQueries(rows)
}

// ListByOwner returns the given user's queries, newest first.
func (db *DB) ListByOwner(ctx context.Context, email string) ([]model.Query, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+queryColumns+` FROM queries
		 WHERE user_email = ?
		 ORDER BY timestamp DESC`,
		email,
	)
	if err != nil {
		return nil, storeErr("listing queries by owner", err)
	}
	defer rows.Close()

	return collectQueries(rows)
}

// Update applies the whitelisted mutable fields to the query with the given
// id, inserting a fresh row when none exists (the PUT /update/{id} route
// has upsert semantics, carried over from the original API).
//
// The SET list is the whole point: user_email and recommendation_count are
// absent from it, so no update can reassign a query or corrupt the counter.
func (db *DB) Update(ctx context.Context, id string, upd model.QueryUpdate) (*model.Query, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	if upd.Timestamp.IsZero() {
		upd.Timestamp = time.Now()
	}

	err := db.inTx(ctx, "updating query", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE queries
			 SET query_title = ?, product_name = ?, product_brand = ?,
			     product_image_url = ?, boycotting_reason_details = ?,
			     timestamp = ?
			 WHERE id = ?`,
			upd.QueryTitle,
			upd.ProductName,
			upd.ProductBrand,
			upd.ProductImageURL,
			upd.BoycottingReasonDetails,
			upd.Timestamp,
			id,
		)
		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			// Upsert: create the row with the whitelist fields, no
			// owner, zero counter.
			_, err = tx.ExecContext(ctx,
				`INSERT INTO queries (id, query_title, product_name,
				   product_brand, product_image_url,
				   boycotting_reason_details, timestamp,
				   recommendation_count)
				 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
				id,
				upd.QueryTitle,
				upd.ProductName,
				upd.ProductBrand,
				upd.ProductImageURL,
				upd.BoycottingReasonDetails,
				upd.Timestamp,
			)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return db.GetByID(ctx, id)
}

// Delete removes a query and every recommendation referencing it, in one
// transaction. The cascade means no orphaned recommendations survive and
// no counter is left pointing at a dead query.
func (db *DB) Delete(ctx context.Context, id string) error {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	return db.inTx(ctx, "deleting query", func(tx *sql.Tx) error {
		// Children first: the FK would reject deleting the parent while
		// recommendations still reference it.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recommendations WHERE query_id = ?`, id); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM queries WHERE id = ?`, id)
		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return apperror.NotFound("query", id)
		}
		return nil
	})
}

// scanTarget abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanQuery(row scanTarget) (*model.Query, error) {
	var q model.Query
	err := row.Scan(
		&q.ID,
		&q.UserEmail,
		&q.UserName,
		&q.QueryTitle,
		&q.ProductName,
		&q.ProductBrand,
		&q.ProductImageURL,
		&q.BoycottingReasonDetails,
		&q.Timestamp,
		&q.RecommendationCount,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func collectQueries(rows *sql.Rows) ([]model.Query, error) {
	queries := []model.Query{}
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, storeErr("scanning query row", err)
		}
		queries = append(queries, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating queries", err)
	}
	return queries, nil
}
