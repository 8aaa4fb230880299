package adminstore_test

import (
	"testing"

	adminstore "github.com/intellipmo/intellipmo/internal/app/store/admins"
	"github.com/intellipmo/intellipmo/internal/app/system/indexes"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"github.com/intellipmo/intellipmo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAdminStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := adminstore.New(db)
	sess := primitive.NewObjectID()

	a := models.Admin{
		Account:    models.Account{FullName: "Head CS", Email: "head.cs@uni.edu", PasswordHash: "x"},
		Department: "CS",
		SessionID:  &sess,
	}
	created, err := store.Create(ctx, a)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, a); err != adminstore.ErrDuplicateEmail {
		t.Errorf("got %v, want ErrDuplicateEmail", err)
	}

	got, err := store.GetByEmail(ctx, "head.cs@uni.edu")
	if err != nil || got.ID != created.ID {
		t.Errorf("GetByEmail = %v, %v", got.ID, err)
	}
	if got.PasswordHash != "x" {
		t.Error("password hash not round-tripped through storage")
	}
	if ok, _ := store.EmailExists(ctx, "nobody@uni.edu"); ok {
		t.Error("EmailExists reported a missing email")
	}
}
