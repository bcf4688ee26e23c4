package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nahid/queryhive-server/internal/apperror"
	"github.com/nahid/queryhive-server/internal/model"
)

// newTestDB returns an in-memory store that is torn down with the test.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:", 0)
	if err != nil {
		t.Fatalf("New(:memory:) error = %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// seedQuery inserts a query owned by email and returns it.
func seedQuery(t *testing.T, db *DB, email string, ts time.Time) *model.Query {
	t.Helper()

	q := &model.Query{
		UserEmail:               email,
		UserName:                "Test User",
		QueryTitle:              "Is this brand worth avoiding?",
		ProductName:             "Widget",
		ProductBrand:            "Acme",
		ProductImageURL:         "https://example.com/widget.png",
		BoycottingReasonDetails: "labor practices",
		Timestamp:               ts,
	}
	if err := db.Create(context.Background(), q); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return q
}

func TestQueryCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	q := seedQuery(t, db, "alice@example.com", time.Now())
	if q.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}
	if q.RecommendationCount != 0 {
		t.Errorf("RecommendationCount = %d, want 0", q.RecommendationCount)
	}

	got, err := db.GetByID(ctx, q.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.UserEmail != "alice@example.com" {
		t.Errorf("UserEmail = %q, want %q", got.UserEmail, "alice@example.com")
	}
	if got.QueryTitle != q.QueryTitle {
		t.Errorf("QueryTitle = %q, want %q", got.QueryTitle, q.QueryTitle)
	}
	if got.RecommendationCount != 0 {
		t.Errorf("RecommendationCount = %d, want 0", got.RecommendationCount)
	}
}

func TestQueryCreate_CounterForcedToZero(t *testing.T) {
	db := newTestDB(t)

	q := &model.Query{
		UserEmail:           "alice@example.com",
		QueryTitle:          "title",
		RecommendationCount: 99,
	}
	if err := db.Create(context.Background(), q); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.GetByID(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.RecommendationCount != 0 {
		t.Errorf("RecommendationCount = %d, want 0 (client-supplied value must be ignored)", got.RecommendationCount)
	}
}

func TestQueryGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestQueryListRecent_OrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 5; i++ {
		q := seedQuery(t, db, "alice@example.com", base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, q.ID)
	}

	got, err := db.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListRecent() returned %d queries, want 3", len(got))
	}

	// Newest first: the last three seeded, in reverse order.
	want := []string{ids[4], ids[3], ids[2]}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("ListRecent()[%d].ID = %q, want %q", i, got[i].ID, want[i])
		}
	}
}

func TestQueryListAll_Empty(t *testing.T) {
	db := newTestDB(t)

	got, err := db.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if got == nil {
		t.Error("ListAll() = nil, want empty slice (JSON must encode as [])")
	}
	if len(got) != 0 {
		t.Errorf("ListAll() returned %d queries, want 0", len(got))
	}
}

func TestQueryListByOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	now := time.Now()
	seedQuery(t, db, "alice@example.com", now.Add(-2*time.Minute))
	seedQuery(t, db, "bob@example.com", now.Add(-time.Minute))
	seedQuery(t, db, "alice@example.com", now)

	got, err := db.ListByOwner(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByOwner() returned %d queries, want 2", len(got))
	}
	for _, q := range got {
		if q.UserEmail != "alice@example.com" {
			t.Errorf("ListByOwner() returned query owned by %q", q.UserEmail)
		}
	}
	if !got[0].Timestamp.After(got[1].Timestamp) {
		t.Error("ListByOwner() should return newest first")
	}
}

func TestQueryUpdate_WhitelistOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	q := seedQuery(t, db, "alice@example.com", time.Now())

	// Attach a recommendation so the counter is nonzero.
	rec := &model.Recommendation{QueryID: q.ID, RecommendationEmail: "bob@example.com"}
	if err := db.CreateRecommendation(ctx, rec); err != nil {
		t.Fatalf("CreateRecommendation() error = %v", err)
	}

	updated, err := db.Update(ctx, q.ID, model.QueryUpdate{
		QueryTitle:              "Updated title",
		ProductName:             "New Widget",
		ProductBrand:            "NewAcme",
		ProductImageURL:         "https://example.com/new.png",
		BoycottingReasonDetails: "updated reason",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.QueryTitle != "Updated title" {
		t.Errorf("QueryTitle = %q, want %q", updated.QueryTitle, "Updated title")
	}
	if updated.UserEmail != "alice@example.com" {
		t.Errorf("UserEmail = %q; update must not reassign the owner", updated.UserEmail)
	}
	if updated.RecommendationCount != 1 {
		t.Errorf("RecommendationCount = %d; update must not touch the counter", updated.RecommendationCount)
	}
}

func TestQueryUpdate_UpsertsMissingID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	got, err := db.Update(ctx, "brand-new-id", model.QueryUpdate{
		QueryTitle: "created by update",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ID != "brand-new-id" {
		t.Errorf("ID = %q, want %q", got.ID, "brand-new-id")
	}
	if got.QueryTitle != "created by update" {
		t.Errorf("QueryTitle = %q, want %q", got.QueryTitle, "created by update")
	}
	if got.UserEmail != "" {
		t.Errorf("UserEmail = %q, want empty on upserted row", got.UserEmail)
	}
	if got.RecommendationCount != 0 {
		t.Errorf("RecommendationCount = %d, want 0", got.RecommendationCount)
	}
}

func TestQueryDelete_CascadesRecommendations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	q := seedQuery(t, db, "alice@example.com", time.Now())
	for i := 0; i < 3; i++ {
		rec := &model.Recommendation{QueryID: q.ID, RecommendationEmail: "bob@example.com"}
		if err := db.CreateRecommendation(ctx, rec); err != nil {
			t.Fatalf("CreateRecommendation() error = %v", err)
		}
	}

	if err := db.Delete(ctx, q.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := db.GetByID(ctx, q.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	recs, err := db.ListForQuery(ctx, q.ID)
	if err != nil {
		t.Fatalf("ListForQuery() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("delete left %d orphaned recommendations", len(recs))
	}
}

func TestQueryDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Delete(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
