package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nahid/queryhive-server/internal/apperror"
	"github.com/nahid/queryhive-server/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeQueryRepo is a map-backed QueryRepository. Shared by the query and
// recommendation service tests in this package.
type fakeQueryRepo struct {
	queries map[string]*model.Query
	nextID  int
	deleted []string
}

func newFakeQueryRepo() *fakeQueryRepo {
	return &fakeQueryRepo{queries: map[string]*model.Query{}}
}

func (f *fakeQueryRepo) add(email, title string) *model.Query {
	f.nextID++
	q := &model.Query{
		ID:         fmt.Sprintf("q%d", f.nextID),
		UserEmail:  email,
		QueryTitle: title,
		Timestamp:  time.Now(),
	}
	f.queries[q.ID] = q
	return q
}

func (f *fakeQueryRepo) Create(_ context.Context, query *model.Query) error {
	f.nextID++
	query.ID = fmt.Sprintf("q%d", f.nextID)
	query.RecommendationCount = 0
	f.queries[query.ID] = query
	return nil
}

func (f *fakeQueryRepo) GetByID(_ context.Context, id string) (*model.Query, error) {
	q, ok := f.queries[id]
	if !ok {
		return nil, apperror.NotFound("query", id)
	}
	cp := *q
	return &cp, nil
}

func (f *fakeQueryRepo) ListRecent(_ context.Context, limit int) ([]model.Query, error) {
	out := []model.Query{}
	for _, q := range f.queries {
		if len(out) == limit {
			break
		}
		out = append(out, *q)
	}
	return out, nil
}

func (f *fakeQueryRepo) ListAll(_ context.Context) ([]model.Query, error) {
	out := []model.Query{}
	for _, q := range f.queries {
		out = append(out, *q)
	}
	return out, nil
}

func (f *fakeQueryRepo) ListByOwner(_ context.Context, email string) ([]model.Query, error) {
	out := []model.Query{}
	for _, q := range f.queries {
		if q.UserEmail == email {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeQueryRepo) Update(_ context.Context, id string, upd model.QueryUpdate) (*model.Query, error) {
	q, ok := f.queries[id]
	if !ok {
		q = &model.Query{ID: id}
		f.queries[id] = q
	}
	q.QueryTitle = upd.QueryTitle
	q.ProductName = upd.ProductName
	q.ProductBrand = upd.ProductBrand
	q.ProductImageURL = upd.ProductImageURL
	q.BoycottingReasonDetails = upd.BoycottingReasonDetails
	cp := *q
	return &cp, nil
}

func (f *fakeQueryRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.queries[id]; !ok {
		return apperror.NotFound("query", id)
	}
	delete(f.queries, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func TestQueryServiceCreate(t *testing.T) {
	repo := newFakeQueryRepo()
	svc := NewQueryService(repo, 6, testLogger())

	created, err := svc.Create(context.Background(), &model.Query{
		UserEmail:  "  alice@example.com  ",
		QueryTitle: "  Is this brand worth avoiding?  ",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if created.UserEmail != "alice@example.com" {
		t.Errorf("UserEmail = %q, want trimmed email", created.UserEmail)
	}
	if created.QueryTitle != "Is this brand worth avoiding?" {
		t.Errorf("QueryTitle = %q, want trimmed title", created.QueryTitle)
	}
}

func TestQueryServiceCreate_Validation(t *testing.T) {
	svc := NewQueryService(newFakeQueryRepo(), 6, testLogger())

	tests := []struct {
		name  string
		query *model.Query
	}{
		{"missing email", &model.Query{QueryTitle: "title"}},
		{"missing title", &model.Query{UserEmail: "alice@example.com"}},
		{"whitespace-only title", &model.Query{UserEmail: "alice@example.com", QueryTitle: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.query)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestQueryServiceListByOwner_OwnerOnly(t *testing.T) {
	repo := newFakeQueryRepo()
	repo.add("alice@example.com", "alice's query")
	svc := NewQueryService(repo, 6, testLogger())
	ctx := context.Background()

	got, err := svc.ListByOwner(ctx, "alice@example.com", "alice@example.com")
	if err != nil {
		t.Fatalf("ListByOwner() as owner error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("ListByOwner() returned %d queries, want 1", len(got))
	}

	if _, err := svc.ListByOwner(ctx, "alice@example.com", "mallory@example.com"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("ListByOwner() as other user error = %v, want ErrForbidden", err)
	}
	if _, err := svc.ListByOwner(ctx, "alice@example.com", ""); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("ListByOwner() anonymous error = %v, want ErrUnauthenticated", err)
	}
}

func TestQueryServiceDelete_OwnerOnly(t *testing.T) {
	repo := newFakeQueryRepo()
	q := repo.add("alice@example.com", "alice's query")
	svc := NewQueryService(repo, 6, testLogger())
	ctx := context.Background()

	err := svc.Delete(ctx, q.ID, "mallory@example.com")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Delete() as other user error = %v, want ErrForbidden", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatal("repository Delete was called despite the ownership failure")
	}

	if err := svc.Delete(ctx, q.ID, "alice@example.com"); err != nil {
		t.Fatalf("Delete() as owner error = %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != q.ID {
		t.Errorf("deleted = %v, want [%s]", repo.deleted, q.ID)
	}
}

func TestQueryServiceDelete_NotFound(t *testing.T) {
	svc := NewQueryService(newFakeQueryRepo(), 6, testLogger())

	err := svc.Delete(context.Background(), "no-such-id", "alice@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestQueryServiceGetByID_EmptyID(t *testing.T) {
	svc := NewQueryService(newFakeQueryRepo(), 6, testLogger())

	if _, err := svc.GetByID(context.Background(), "  "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetByID() error = %v, want ErrValidation", err)
	}
}
