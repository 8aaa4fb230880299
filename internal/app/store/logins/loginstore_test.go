package loginstore_test

import (
	"testing"
	"time"

	loginstore "github.com/intellipmo/intellipmo/internal/app/store/logins"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"github.com/intellipmo/intellipmo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_RecordAndListRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	accountID := primitive.NewObjectID()
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, ip := range []string{"192.0.2.1", "192.0.2.2", "192.0.2.3"} {
		err := store.Record(ctx, models.LoginRecord{
			AccountID: accountID,
			Role:      models.RoleStudent,
			IP:        ip,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	// Same id under another role is a different account.
	if err := store.Record(ctx, models.LoginRecord{AccountID: accountID, Role: models.RoleAdmin, IP: "198.51.100.1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	recs, err := store.ListRecent(ctx, accountID, models.RoleStudent, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].IP != "192.0.2.3" || recs[1].IP != "192.0.2.2" {
		t.Errorf("order = %s, %s; want newest first", recs[0].IP, recs[1].IP)
	}
	if recs[0].ID.IsZero() {
		t.Error("Record did not assign an ID")
	}
}

func TestStore_ListRecent_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recs, err := store.ListRecent(ctx, primitive.NewObjectID(), models.RoleSupervisor, 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("got %v, want empty non-nil slice", recs)
	}
}
