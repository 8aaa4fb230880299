package studentstore_test

import (
	"testing"
	"time"

	studentstore "github.com/intellipmo/intellipmo/internal/app/store/students"
	"github.com/intellipmo/intellipmo/internal/app/system/indexes"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"github.com/intellipmo/intellipmo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) *studentstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return studentstore.New(db)
}

func student(email, rollNo string, session primitive.ObjectID) models.Student {
	return models.Student{
		Account:    models.Account{FullName: "Test Student", Email: email, PasswordHash: "x"},
		Department: "CS",
		RollNo:     rollNo,
		CGPA:       3.1,
		SessionID:  &session,
	}
}

func TestCreate_DuplicateClassification(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	sess := primitive.NewObjectID()

	if _, err := store.Create(ctx, student("a@uni.edu", "21011519-001", sess)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, student("a@uni.edu", "21011519-002", sess)); err != studentstore.ErrDuplicateEmail {
		t.Errorf("same email: got %v, want ErrDuplicateEmail", err)
	}
	if _, err := store.Create(ctx, student("b@uni.edu", "21011519-001", sess)); err != studentstore.ErrDuplicateRollNo {
		t.Errorf("same roll no: got %v, want ErrDuplicateRollNo", err)
	}

	exists, err := store.EmailExists(ctx, "a@uni.edu")
	if err != nil || !exists {
		t.Errorf("EmailExists: %v %v", exists, err)
	}
	exists, _ = store.RollNoExists(ctx, "99999999-999")
	if exists {
		t.Error("RollNoExists reported a missing roll number")
	}
}

func TestReserveGroup(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	sess := primitive.NewObjectID()
	other := primitive.NewObjectID()

	st, err := store.Create(ctx, student("r@uni.edu", "21011519-010", sess))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	g1, g2 := primitive.NewObjectID(), primitive.NewObjectID()

	if ok, _ := store.ReserveGroup(ctx, st.ID, other, g1); ok {
		t.Error("reservation in the wrong session should fail")
	}
	if ok, err := store.ReserveGroup(ctx, st.ID, sess, g1); err != nil || !ok {
		t.Fatalf("first reservation: ok=%v err=%v", ok, err)
	}
	if ok, _ := store.ReserveGroup(ctx, st.ID, sess, g2); ok {
		t.Error("second reservation should fail while the student is grouped")
	}

	// Releasing under the wrong group leaves the binding alone.
	if err := store.ReleaseGroup(ctx, []primitive.ObjectID{st.ID}, g2); err != nil {
		t.Fatalf("ReleaseGroup: %v", err)
	}
	got, _ := store.GetByID(ctx, st.ID)
	if got.GroupID == nil || *got.GroupID != g1 {
		t.Fatalf("GroupID = %v, want %s", got.GroupID, g1.Hex())
	}

	if err := store.ReleaseGroup(ctx, []primitive.ObjectID{st.ID}, g1); err != nil {
		t.Fatalf("ReleaseGroup: %v", err)
	}
	got, _ = store.GetByID(ctx, st.ID)
	if got.GroupID != nil {
		t.Errorf("GroupID = %v after release, want nil", got.GroupID)
	}
}

func TestGroupRefsAndClear(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	sess := primitive.NewObjectID()

	old := primitive.NewObjectIDFromTimestamp(time.Now().Add(-time.Hour))
	fresh := primitive.NewObjectID()
	a, _ := store.Create(ctx, student("a@uni.edu", "21011519-031", sess))
	b, _ := store.Create(ctx, student("b@uni.edu", "21011519-032", sess))
	c, _ := store.Create(ctx, student("c@uni.edu", "21011519-033", sess))
	_, _ = store.Create(ctx, student("d@uni.edu", "21011519-034", sess))
	for _, r := range []struct {
		id, group primitive.ObjectID
	}{{a.ID, old}, {b.ID, old}, {c.ID, fresh}} {
		if ok, err := store.ReserveGroup(ctx, r.id, sess, r.group); err != nil || !ok {
			t.Fatalf("ReserveGroup: ok=%v err=%v", ok, err)
		}
	}

	refs, err := store.GroupRefs(ctx, primitive.NewObjectIDFromTimestamp(time.Now().Add(-time.Minute)))
	if err != nil {
		t.Fatalf("GroupRefs: %v", err)
	}
	if len(refs) != 1 || refs[0] != old {
		t.Errorf("GroupRefs = %v, want only %s", refs, old.Hex())
	}

	n, err := store.ClearGroupRef(ctx, old)
	if err != nil || n != 2 {
		t.Fatalf("ClearGroupRef = %d, %v; want 2", n, err)
	}
	got, _ := store.GetByID(ctx, c.ID)
	if got.GroupID == nil || *got.GroupID != fresh {
		t.Errorf("unrelated reservation cleared: %v", got.GroupID)
	}
}

func TestListUngrouped(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	sess := primitive.NewObjectID()

	a, _ := store.Create(ctx, student("a@uni.edu", "21011519-021", sess))
	b, _ := store.Create(ctx, student("b@uni.edu", "21011519-022", sess))
	_, _ = store.Create(ctx, student("c@uni.edu", "21011519-023", primitive.NewObjectID()))
	if _, err := store.ReserveGroup(ctx, a.ID, sess, primitive.NewObjectID()); err != nil {
		t.Fatalf("ReserveGroup: %v", err)
	}

	list, err := store.ListUngrouped(ctx, sess)
	if err != nil {
		t.Fatalf("ListUngrouped: %v", err)
	}
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("ListUngrouped = %+v, want only %s", list, b.ID.Hex())
	}
}
