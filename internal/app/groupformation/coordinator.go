// Package groupformation validates proposed project groups and binds their
// members.
//
// Binding is reserve-then-commit. The group id is allocated first, every
// member is reserved with a conditional write (group_id := G only where the
// student is in the session and ungrouped), and the group document is
// inserted only after every reservation landed.
//
// A failed reservation releases the ones already taken. The insert runs
// detached from the request, and when it reports an error the group is
// looked up before anything is released: a stored group keeps its members.
// If neither the insert nor the lookup gives an answer the reservations stay
// in place, and SweepDangling clears them once the group is known to be
// missing.
package groupformation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/eligibility"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	minIdeaName        = 2
	maxIdeaName        = 200
	maxIdeaDescription = 2000
)

// ActiveSessions resolves the active session for an identity's scope.
type ActiveSessions interface {
	ActiveFor(ctx context.Context, id models.Identity) (*models.Session, error)
}

type StudentStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Student, error)
	ListUngrouped(ctx context.Context, sessionID primitive.ObjectID) ([]models.Student, error)
	ReserveGroup(ctx context.Context, studentID, sessionID, groupID primitive.ObjectID) (bool, error)
	ReleaseGroup(ctx context.Context, studentIDs []primitive.ObjectID, groupID primitive.ObjectID) error
	GroupRefs(ctx context.Context, cutoff primitive.ObjectID) ([]primitive.ObjectID, error)
	ClearGroupRef(ctx context.Context, groupID primitive.ObjectID) (int64, error)
}

type SupervisorStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Supervisor, error)
}

type GroupStore interface {
	Insert(ctx context.Context, g models.Group) (models.Group, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
	GetByMember(ctx context.Context, studentID primitive.ObjectID) (models.Group, error)
	ListBySession(ctx context.Context, sessionID primitive.ObjectID, supervisorID *primitive.ObjectID) ([]models.Group, error)
}

// Request is a proposed group.
type Request struct {
	IdeaName        string   `json:"ideaName"`
	IdeaDescription string   `json:"ideaDescription"`
	SupervisorID    string   `json:"supervisor_id"`
	Members         []string `json:"members"`
}

type Coordinator struct {
	sessions    ActiveSessions
	students    StudentStore
	supervisors SupervisorStore
	groups      GroupStore
	log         *zap.Logger
}

func New(sessions ActiveSessions, students StudentStore, supervisors SupervisorStore, groups GroupStore, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		sessions:    sessions,
		students:    students,
		supervisors: supervisors,
		groups:      groups,
		log:         logger,
	}
}

// CreateGroup checks the preconditions in order and stops at the first one
// that fails; each has its own error code. On success every member's
// group_id points at the returned group.
func (c *Coordinator) CreateGroup(ctx context.Context, actor models.Identity, req Request) (models.Group, error) {
	active, err := c.sessions.ActiveFor(ctx, actor)
	if err != nil {
		return models.Group{}, err
	}
	if active == nil {
		return models.Group{}, apierr.ErrNoActiveSession
	}

	if actor.Role != models.RoleStudent || actor.Student == nil {
		return models.Group{}, apierr.ErrGroupForbidden
	}
	creator := *actor.Student

	if err := eligibility.Check(creator.SessionID, active); err != nil {
		return models.Group{}, apierr.ErrSessionMismatch
	}
	if creator.GroupID != nil {
		return models.Group{}, apierr.ErrAlreadyGrouped
	}

	name, desc, err := checkIdea(req.IdeaName, req.IdeaDescription)
	if err != nil {
		return models.Group{}, err
	}

	sup, err := c.checkSupervisor(ctx, req.SupervisorID, active.ID)
	if err != nil {
		return models.Group{}, err
	}

	members := MemberSet(req.Members)
	if len(members) < active.MinMembers || len(members) > active.MaxMembers {
		return models.Group{}, apierr.ErrMembershipSizeViolation.WithMessage(
			fmt.Sprintf("Group must have between %d and %d members.", active.MinMembers, active.MaxMembers))
	}

	// Fail early with the friendlier message when a member is plainly ineligible.
	// The reservations below are what actually guarantee correctness.
	if err := c.precheckMembers(ctx, members, active.ID); err != nil {
		return models.Group{}, err
	}

	g := models.Group{
		ID:              primitive.NewObjectID(),
		IdeaName:        name,
		IdeaDescription: desc,
		SessionID:       active.ID,
		Supervisor:      models.SupervisorSnapshot{ID: sup.ID, Name: sup.FullName},
		Members:         members,
	}
	if err := c.reserve(ctx, g.ID, members, active.ID); err != nil {
		return models.Group{}, err
	}

	created, err := c.commit(ctx, g)
	if err != nil {
		return models.Group{}, err
	}

	c.log.Info("group created",
		zap.String("group_id", created.ID.Hex()),
		zap.String("session_id", active.ID.Hex()),
		zap.String("created_by", creator.ID.Hex()),
		zap.Int("members", len(members)))
	return created, nil
}

func checkIdea(rawName, rawDesc string) (string, string, error) {
	name := strings.TrimSpace(rawName)
	if n := utf8.RuneCountInString(name); n < minIdeaName {
		return "", "", apierr.ErrInvalidIdea
	} else if n > maxIdeaName {
		return "", "", apierr.ErrInvalidIdea.WithMessage("Idea name must be at most 200 characters.")
	}
	desc := strings.TrimSpace(rawDesc)
	if utf8.RuneCountInString(desc) > maxIdeaDescription {
		return "", "", apierr.ErrInvalidIdea.WithMessage("Idea description must be at most 2000 characters.")
	}
	return name, desc, nil
}

func (c *Coordinator) checkSupervisor(ctx context.Context, rawID string, sessionID primitive.ObjectID) (models.Supervisor, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(rawID))
	if err != nil {
		return models.Supervisor{}, apierr.ErrInvalidSupervisor.WithMessage("Please select a valid supervisor.")
	}
	sup, err := c.supervisors.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Supervisor{}, apierr.ErrInvalidSupervisor
	}
	if err != nil {
		return models.Supervisor{}, apierr.Internal(err)
	}
	if sup.SessionID == nil || *sup.SessionID != sessionID {
		return models.Supervisor{}, apierr.ErrInvalidSupervisor
	}
	return sup, nil
}

// MemberSet parses raw member ids. Entries that are not valid ids are
// dropped; duplicates collapse to their first occurrence.
func MemberSet(raw []string) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(raw))
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (c *Coordinator) precheckMembers(ctx context.Context, members []primitive.ObjectID, sessionID primitive.ObjectID) error {
	found, err := c.students.FindByIDs(ctx, members)
	if err != nil {
		return apierr.Internal(err)
	}
	if len(found) != len(members) {
		return apierr.ErrMemberNotInSession
	}
	for _, st := range found {
		if st.SessionID == nil || *st.SessionID != sessionID {
			return apierr.ErrMemberNotInSession
		}
	}
	for _, st := range found {
		if st.GroupID != nil {
			return apierr.ErrMemberAlreadyGrouped
		}
	}
	return nil
}

// reserve binds every member to groupID or none of them. Members are taken
// in id order so overlapping requests contend on the same student first.
func (c *Coordinator) reserve(ctx context.Context, groupID primitive.ObjectID, members []primitive.ObjectID, sessionID primitive.ObjectID) error {
	ordered := append([]primitive.ObjectID(nil), members...)
	sort.Slice(ordered, func(i, j int) bool { return bytes.Compare(ordered[i][:], ordered[j][:]) < 0 })

	taken := make([]primitive.ObjectID, 0, len(ordered))
	for _, m := range ordered {
		ok, err := c.students.ReserveGroup(ctx, m, sessionID, groupID)
		if err != nil {
			c.release(ctx, taken, groupID)
			return apierr.Internal(err)
		}
		if !ok {
			c.release(ctx, taken, groupID)
			return c.classifyLostReservation(ctx, m, sessionID)
		}
		taken = append(taken, m)
	}
	return nil
}

// classifyLostReservation explains why a reservation matched nothing.
func (c *Coordinator) classifyLostReservation(ctx context.Context, studentID, sessionID primitive.ObjectID) error {
	st, err := c.students.GetByID(context.WithoutCancel(ctx), studentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apierr.ErrMemberNotInSession
		}
		return apierr.Internal(err)
	}
	if st.SessionID == nil || *st.SessionID != sessionID {
		return apierr.ErrMemberNotInSession
	}
	return apierr.ErrMemberAlreadyGrouped
}

// commit inserts g after its members were reserved. It runs with its own
// budget so a cancelled request cannot abandon a half-written group.
func (c *Coordinator) commit(ctx context.Context, g models.Group) (models.Group, error) {
	detached := context.WithoutCancel(ctx)
	ictx, cancel := context.WithTimeout(detached, timeouts.Long())
	created, err := c.groups.Insert(ictx, g)
	cancel()
	if err == nil {
		return created, nil
	}

	// The write may have reached the server before the error did.
	lctx, cancel := context.WithTimeout(detached, timeouts.Short())
	defer cancel()
	stored, lerr := c.groups.GetByID(lctx, g.ID)
	switch {
	case lerr == nil:
		c.log.Warn("group insert reported an error but the group was stored",
			zap.String("group_id", g.ID.Hex()),
			zap.Error(err))
		return stored, nil
	case errors.Is(lerr, mongo.ErrNoDocuments):
		c.release(ctx, g.Members, g.ID)
		return models.Group{}, apierr.Internal(err)
	}
	c.log.Error("group insert outcome unknown; reservations kept",
		zap.String("group_id", g.ID.Hex()),
		zap.NamedError("insert_error", err),
		zap.NamedError("lookup_error", lerr))
	return models.Group{}, apierr.Internal(err)
}

// SweepDangling clears group_id on students whose group was never stored.
// Only reservations older than grace are considered, so groups still being
// formed are left alone. It returns the number of students released.
func (c *Coordinator) SweepDangling(ctx context.Context, grace time.Duration) (int64, error) {
	cutoff := primitive.NewObjectIDFromTimestamp(time.Now().Add(-grace))
	refs, err := c.students.GroupRefs(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	var released int64
	for _, id := range refs {
		_, err := c.groups.GetByID(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return released, err
		}
		n, err := c.students.ClearGroupRef(ctx, id)
		if err != nil {
			return released, err
		}
		released += n
		c.log.Warn("dangling group reservation cleared",
			zap.String("group_id", id.Hex()),
			zap.Int64("students", n))
	}
	return released, nil
}

// release runs even when the request was cancelled; a half-bound group must
// not survive a timeout.
func (c *Coordinator) release(ctx context.Context, members []primitive.ObjectID, groupID primitive.ObjectID) {
	if len(members) == 0 {
		return
	}
	if err := c.students.ReleaseGroup(context.WithoutCancel(ctx), members, groupID); err != nil {
		c.log.Error("release group reservations failed",
			zap.String("group_id", groupID.Hex()),
			zap.Int("members", len(members)),
			zap.Error(err))
	}
}

// AvailableStudents lists the students of the actor's active session who are
// not in a group yet. The actor must belong to the active session.
func (c *Coordinator) AvailableStudents(ctx context.Context, actor models.Identity) ([]models.Student, error) {
	active, err := c.sessions.ActiveFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := eligibility.CheckIdentity(actor, active); err != nil {
		return nil, err
	}
	list, err := c.students.ListUngrouped(ctx, active.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return list, nil
}

// MyGroup returns the group the student actor belongs to.
func (c *Coordinator) MyGroup(ctx context.Context, actor models.Identity) (models.Group, error) {
	if actor.Role != models.RoleStudent || actor.Student == nil {
		return models.Group{}, apierr.ErrAccessDenied
	}
	if actor.Student.GroupID == nil {
		return models.Group{}, apierr.ErrGroupNotFound
	}
	g, err := c.groups.GetByMember(ctx, actor.Student.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Group{}, apierr.ErrGroupNotFound
	}
	if err != nil {
		return models.Group{}, apierr.Internal(err)
	}
	return g, nil
}

// ListGroups returns the groups of the actor's active session. Supervisors
// see the groups they supervise; admins see every group in the session.
func (c *Coordinator) ListGroups(ctx context.Context, actor models.Identity) ([]models.Group, error) {
	if actor.Role != models.RoleSupervisor && actor.Role != models.RoleAdmin {
		return nil, apierr.ErrAccessDenied
	}
	active, err := c.sessions.ActiveFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, apierr.ErrNoActiveSession.WithMessage("No active session.")
	}

	var supervisorID *primitive.ObjectID
	if actor.Role == models.RoleSupervisor {
		if err := eligibility.CheckIdentity(actor, active); err != nil {
			return nil, err
		}
		id := actor.Account().ID
		supervisorID = &id
	}
	list, err := c.groups.ListBySession(ctx, active.ID, supervisorID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return list, nil
}
