package domainstore_test

import (
	"testing"

	domainstore "github.com/intellipmo/intellipmo/internal/app/store/domains"
	"github.com/intellipmo/intellipmo/internal/app/system/indexes"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"github.com/intellipmo/intellipmo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newStore(t *testing.T) *domainstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return domainstore.New(db)
}

func TestCreate_CaseInsensitiveUniqueness(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Domain{Name: "Machine Learning"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.Domain{Name: "machine learning"}); err != domainstore.ErrDuplicateDomain {
		t.Errorf("got %v, want ErrDuplicateDomain", err)
	}
}

func TestUpdate(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	web, _ := store.Create(ctx, models.Domain{Name: "Web"})
	ml, _ := store.Create(ctx, models.Domain{Name: "ML"})

	got, err := store.Update(ctx, web.ID, "Web Engineering", "Full-stack projects")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Web Engineering" || got.Description != "Full-stack projects" {
		t.Errorf("Update returned %+v", got)
	}

	if _, err := store.Update(ctx, ml.ID, "web engineering", ""); err != domainstore.ErrDuplicateDomain {
		t.Errorf("rename onto existing name: got %v, want ErrDuplicateDomain", err)
	}
	if _, err := store.Update(ctx, primitive.NewObjectID(), "X", ""); err != mongo.ErrNoDocuments {
		t.Errorf("missing domain: got %v, want ErrNoDocuments", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "ML" {
		t.Errorf("List = %+v", list)
	}
}
