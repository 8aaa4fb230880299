// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Names of the unique indexes. Stores match on these to tell which
// constraint a duplicate-key error came from.
const (
	UniqSessionYearDept   = "uniq_sessions_year_department"
	UniqCounterKey        = "uniq_session_counters_key"
	UniqStudentEmail      = "uniq_students_email"
	UniqStudentRollNo     = "uniq_students_roll_no"
	UniqSupervisorSession = "uniq_supervisors_email_session"
	UniqEvaluatorSession  = "uniq_evaluators_email_session"
	UniqAdminEmail        = "uniq_admins_email"
	UniqDomainName        = "uniq_domains_nameci"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, step := range []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"sessions", ensureSessions},
		{"session_counters", ensureSessionCounters},
		{"students", ensureStudents},
		{"supervisors", ensureSupervisors},
		{"evaluators", ensureEvaluators},
		{"admins", ensureAdmins},
		{"domains", ensureDomains},
		{"groups", ensureGroups},
		{"login_records", ensureLoginRecords},
	} {
		if err := step.fn(ctx, db); err != nil {
			problems = append(problems, step.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		isUnique := unique != nil && *unique
		start := time.Now()

		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique),
		}

		if ex, ok := existing[sig]; ok {
			if sameBoolPtr(unique, ex.Unique) && (name == "" || ex.Name == name) {
				zap.L().Info("reusing existing index", append(fields, zap.Duration("took", time.Since(start)))...)
				continue
			}
			// Name or uniqueness differs: drop and recreate under the desired definition.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed", append(fields, zap.String("existing", ex.Name), zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && isUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			continue
		}
		zap.L().Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureSessions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("sessions"), []mongo.IndexModel{
		// One policy record per (year, department).
		{
			Keys:    bson.D{{Key: "year", Value: 1}, {Key: "department", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UniqSessionYearDept),
		},
		// Active-session lookup, per department or global.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "department", Value: 1}},
			Options: options.Index().SetName("idx_sessions_status_department"),
		},
	})
}

func ensureSessionCounters(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("session_counters"), []mongo.IndexModel{
		// The activation guard depends on this: a losing upsert fails with a duplicate key.
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UniqCounterKey),
		},
	})
}

func ensureStudents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("students"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UniqStudentEmail),
		},
		{
			Keys:    bson.D{{Key: "roll_no", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UniqStudentRollNo),
		},
		// Available-students listing: same session, no group yet.
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "group_id", Value: 1}, {Key: "full_name", Value: 1}},
			Options: options.Index().SetName("idx_students_session_group_name"),
		},
		// Dangling reservation sweep: distinct group ids in use.
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetName("idx_students_group"),
		},
	})
}

func ensureSupervisors(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("supervisors"), []mongo.IndexModel{
		// A supervisor enrols once per session.
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UniqSupervisorSession),
		},
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "domain_id", Value: 1}},
			Options: options.Index().SetName("idx_supervisors_session_domain"),
		},
	})
}

func ensureEvaluators(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("evaluators"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UniqEvaluatorSession),
		},
	})
}

func ensureAdmins(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("admins"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UniqAdminEmail),
		},
	})
}

func ensureDomains(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("domains"), []mongo.IndexModel{
		// Case/diacritics-folded names.
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UniqDomainName),
		},
	})
}

// --- groups ---
func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_groups_session_created"),
		},
		{
			Keys:    bson.D{{Key: "supervisor.id", Value: 1}, {Key: "session_id", Value: 1}},
			Options: options.Index().SetName("idx_groups_supervisor_session"),
		},
		// MyGroup lookup by member.
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("idx_groups_members"),
		},
	})
}

func ensureLoginRecords(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("login_records"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "role", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_login_records_account_role_created"),
		},
	})
}

// IsDuplicateOn reports whether err is a duplicate-key error raised by the
// named unique index.
func IsDuplicateOn(err error, index string) bool {
	return wafflemongo.IsDup(err) && strings.Contains(err.Error(), index)
}
