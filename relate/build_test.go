package relate

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/turnkey-commerce/relinfer/catalog"
)

func findRel(rels []*Relationship, name string) *Relationship {
	for _, r := range rels {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Scenario A: single-column nullable FK.
func TestScenarioA_SingleColumnNullableFK(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "author", SanitizedName: "author", Columns: []*catalog.Column{col("id", false), col("name", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{RawName: "book", SanitizedName: "book", Columns: []*catalog.Column{col("id", false), col("author_id", true)}, PrimaryKey: []string{"id"}})
	cat.addFK(&catalog.ForeignKey{Name: "book_author_id_fkey", LocalTable: "book", LocalColumns: []string{"author_id"}, RemoteTable: "author", RemoteColumns: []string{"id"}})

	plan, diag, err := BuildPlan(context.Background(), cat, Options{})
	require.NoError(t, err)
	require.Empty(t, diag.Warnings)

	bookRels := plan.For("Book")
	belongsTo := findRel(bookRels, "author")
	require.NotNil(t, belongsTo)
	require.Equal(t, BelongsTo, belongsTo.Method)
	require.Equal(t, "LEFT", belongsTo.Attrs["join_type"])

	authorRels := plan.For("Author")
	hasMany := findRel(authorRels, "books")
	require.NotNil(t, hasMany)
	require.Equal(t, HasMany, hasMany.Method)
}

// Scenario B: multi-column FK (composite primary key on the local table).
func TestScenarioB_MultiColumnFK(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "order", SanitizedName: "order", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{
		RawName: "order_line", SanitizedName: "order_line",
		Columns:    []*catalog.Column{col("order_id", false), col("line_no", false)},
		PrimaryKey: []string{"order_id", "line_no"},
	})
	cat.addFK(&catalog.ForeignKey{Name: "order_line_order_id_fkey", LocalTable: "order_line", LocalColumns: []string{"order_id"}, RemoteTable: "order", RemoteColumns: []string{"id"}})

	plan, _, err := BuildPlan(context.Background(), cat, Options{})
	require.NoError(t, err)

	belongsTo := findRel(plan.For("OrderLine"), "order")
	require.NotNil(t, belongsTo)
	require.Equal(t, BelongsTo, belongsTo.Method)

	hasMany := findRel(plan.For("Order"), "order_lines")
	require.NotNil(t, hasMany)
	require.Equal(t, HasMany, hasMany.Method)
}

// Scenario C: unique-constraint FK (one-to-one).
func TestScenarioC_UniqueConstraintFK(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "user", SanitizedName: "user", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{
		RawName: "profile", SanitizedName: "profile",
		Columns:    []*catalog.Column{col("id", false), col("user_id", false)},
		PrimaryKey: []string{"id"},
		Uniques:    []*catalog.UniqueConstraint{{Name: "profile_user_id_key", Columns: []string{"user_id"}}},
	})
	cat.addFK(&catalog.ForeignKey{Name: "profile_user_id_fkey", LocalTable: "profile", LocalColumns: []string{"user_id"}, RemoteTable: "user", RemoteColumns: []string{"id"}})

	plan, _, err := BuildPlan(context.Background(), cat, Options{})
	require.NoError(t, err)

	belongsTo := findRel(plan.For("Profile"), "user")
	require.NotNil(t, belongsTo)

	mightHave := findRel(plan.For("User"), "profile")
	require.NotNil(t, mightHave)
	require.Equal(t, MightHave, mightHave.Method)
}

// Scenario D: two FKs between the same pair of tables.
func TestScenarioD_TwoFKsSamePair(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "user", SanitizedName: "user", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{
		RawName: "message", SanitizedName: "message",
		Columns:    []*catalog.Column{col("id", false), col("sender_id", false), col("recipient_id", false)},
		PrimaryKey: []string{"id"},
	})
	cat.addFK(&catalog.ForeignKey{Name: "message_sender_id_fkey", LocalTable: "message", LocalColumns: []string{"sender_id"}, RemoteTable: "user", RemoteColumns: []string{"id"}})
	cat.addFK(&catalog.ForeignKey{Name: "message_recipient_id_fkey", LocalTable: "message", LocalColumns: []string{"recipient_id"}, RemoteTable: "user", RemoteColumns: []string{"id"}})

	plan, _, err := BuildPlan(context.Background(), cat, Options{})
	require.NoError(t, err)

	msgRels := plan.For("Message")
	require.NotNil(t, findRel(msgRels, "sender"))
	require.NotNil(t, findRel(msgRels, "recipient"))

	userRels := plan.For("User")
	require.NotNil(t, findRel(userRels, "messages_senders"))
	require.NotNil(t, findRel(userRels, "messages_recipients"))
}

// Scenario E: collision with an inherited method.
func TestScenarioE_CollisionWithInheritedMethod_DefaultSuffix(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "new", SanitizedName: "new", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{RawName: "item", SanitizedName: "item", Columns: []*catalog.Column{col("id", false), col("new_id", false)}, PrimaryKey: []string{"id"}})
	cat.addFK(&catalog.ForeignKey{Name: "item_new_id_fkey", LocalTable: "item", LocalColumns: []string{"new_id"}, RemoteTable: "new", RemoteColumns: []string{"id"}})
	cat.methods["new"] = true

	plan, diag, err := BuildPlan(context.Background(), cat, Options{})
	require.NoError(t, err)

	belongsTo := findRel(plan.For("Item"), "new_rel")
	require.NotNil(t, belongsTo)
	require.Len(t, diag.Warnings, 1)
	require.Equal(t, WarnRelSuffix, diag.Warnings[0].Kind)
}

func TestScenarioE_CollisionWithInheritedMethod_CollisionMap(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "new", SanitizedName: "new", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{RawName: "item", SanitizedName: "item", Columns: []*catalog.Column{col("id", false), col("new_id", false)}, PrimaryKey: []string{"id"}})
	cat.addFK(&catalog.ForeignKey{Name: "item_new_id_fkey", LocalTable: "item", LocalColumns: []string{"new_id"}, RemoteTable: "new", RemoteColumns: []string{"id"}})
	cat.methods["new"] = true

	opts := Options{
		RelCollisionMap: []CollisionRule{
			{Pattern: regexp.MustCompile(`^(new)$`), Template: "%s_record"},
		},
	}

	plan, _, err := BuildPlan(context.Background(), cat, opts)
	require.NoError(t, err)

	belongsTo := findRel(plan.For("Item"), "new_record")
	require.NotNil(t, belongsTo)
}

// Scenario F: user override via rel_name_map.
func TestScenarioF_RelNameMapOverride(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "author", SanitizedName: "author", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{RawName: "book", SanitizedName: "book", Columns: []*catalog.Column{col("id", false), col("author_id", true)}, PrimaryKey: []string{"id"}})
	cat.addFK(&catalog.ForeignKey{Name: "book_author_id_fkey", LocalTable: "book", LocalColumns: []string{"author_id"}, RemoteTable: "author", RemoteColumns: []string{"id"}})

	opts := Options{
		RelNameMap: RelNameMap{
			Nested: map[string]map[string]string{
				"Book": {"author": "written_by"},
			},
		},
	}

	plan, _, err := BuildPlan(context.Background(), cat, opts)
	require.NoError(t, err)

	require.NotNil(t, findRel(plan.For("Book"), "written_by"))
	require.NotNil(t, findRel(plan.For("Author"), "books"))
}

// Determinism: two runs over the same catalog produce byte-identical plans.
func TestDeterminism(t *testing.T) {
	build := func() *Plan {
		cat := newFakeCatalog()
		cat.addTable(&catalog.Table{RawName: "user", SanitizedName: "user", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
		cat.addTable(&catalog.Table{
			RawName: "message", SanitizedName: "message",
			Columns:    []*catalog.Column{col("id", false), col("sender_id", false), col("recipient_id", false)},
			PrimaryKey: []string{"id"},
		})
		cat.addFK(&catalog.ForeignKey{Name: "message_sender_id_fkey", LocalTable: "message", LocalColumns: []string{"sender_id"}, RemoteTable: "user", RemoteColumns: []string{"id"}})
		cat.addFK(&catalog.ForeignKey{Name: "message_recipient_id_fkey", LocalTable: "message", LocalColumns: []string{"recipient_id"}, RemoteTable: "user", RemoteColumns: []string{"id"}})
		plan, _, err := BuildPlan(context.Background(), cat, Options{})
		require.NoError(t, err)
		return plan
	}

	first := build()
	second := build()

	diff := cmp.Diff(first, second, cmpopts.IgnoreUnexported(Relationship{}))
	require.Empty(t, diff)
}

// Invariant: no relationship name equals another within the same source.
func TestInvariant_UniqueNamesWithinSource(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "user", SanitizedName: "user", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{
		RawName: "message", SanitizedName: "message",
		Columns:    []*catalog.Column{col("id", false), col("sender_id", false), col("recipient_id", false)},
		PrimaryKey: []string{"id"},
	})
	cat.addFK(&catalog.ForeignKey{Name: "message_sender_id_fkey", LocalTable: "message", LocalColumns: []string{"sender_id"}, RemoteTable: "user", RemoteColumns: []string{"id"}})
	cat.addFK(&catalog.ForeignKey{Name: "message_recipient_id_fkey", LocalTable: "message", LocalColumns: []string{"recipient_id"}, RemoteTable: "user", RemoteColumns: []string{"id"}})

	plan, _, err := BuildPlan(context.Background(), cat, Options{})
	require.NoError(t, err)

	for _, m := range plan.Monikers {
		seen := map[string]bool{}
		for _, rel := range plan.For(m) {
			require.False(t, seen[rel.Name], "duplicate name %q on %s", rel.Name, m)
			seen[rel.Name] = true
		}
	}
}

// Prior-name reuse: a dump file registered for User's moniker carries a
// structured marker for the sender_id edge, so that edge's remote-side name
// is read back from the marker instead of computed fresh; the untouched
// recipient_id edge still gets the ordinary combined-column name.
func TestPriorName_ReusedFromDumpFile(t *testing.T) {
	dir := t.TempDir()
	dumpPath := filepath.Join(dir, "user.rb")
	require.NoError(t, os.WriteFile(dumpPath, []byte(
		"# auto-generated\n// relinfer:relationship name=legacy_senders local_columns=sender_id\n",
	), 0o644))

	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "user", SanitizedName: "user", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{
		RawName: "message", SanitizedName: "message",
		Columns:    []*catalog.Column{col("id", false), col("sender_id", false), col("recipient_id", false)},
		PrimaryKey: []string{"id"},
	})
	cat.addFK(&catalog.ForeignKey{Name: "message_sender_id_fkey", LocalTable: "message", LocalColumns: []string{"sender_id"}, RemoteTable: "user", RemoteColumns: []string{"id"}})
	cat.addFK(&catalog.ForeignKey{Name: "message_recipient_id_fkey", LocalTable: "message", LocalColumns: []string{"recipient_id"}, RemoteTable: "user", RemoteColumns: []string{"id"}})
	cat.dumpFiles["User"] = dumpPath

	plan, _, err := BuildPlan(context.Background(), cat, Options{})
	require.NoError(t, err)

	userRels := plan.For("User")
	require.NotNil(t, findRel(userRels, "legacy_senders"), "sender edge should reuse the name from the dump file marker")
	require.Nil(t, findRel(userRels, "messages_senders"))
	require.NotNil(t, findRel(userRels, "messages_recipients"), "recipient edge has no marker and keeps the computed name")
}

// Constraint/Exclude: Constraint admits only the matching tables, and
// Exclude removes matches from what Constraint already admitted.
func TestOptions_ConstraintAndExclude(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "author", SanitizedName: "author", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{RawName: "book", SanitizedName: "book", Columns: []*catalog.Column{col("id", false), col("author_id", true)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{RawName: "audit_log", SanitizedName: "audit_log", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addFK(&catalog.ForeignKey{Name: "book_author_id_fkey", LocalTable: "book", LocalColumns: []string{"author_id"}, RemoteTable: "author", RemoteColumns: []string{"id"}})

	opts := Options{
		Constraint: regexp.MustCompile(`^(author|book|audit_log)$`),
		Exclude:    regexp.MustCompile(`^audit_log$`),
	}

	plan, _, err := BuildPlan(context.Background(), cat, opts)
	require.NoError(t, err)

	require.Equal(t, []string{"Author", "Book"}, plan.Monikers)
	require.NotNil(t, findRel(plan.For("Book"), "author"))
	require.NotNil(t, findRel(plan.For("Author"), "books"))
}

func TestOptions_ConstraintAlone(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "author", SanitizedName: "author", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{RawName: "book", SanitizedName: "book", Columns: []*catalog.Column{col("id", false), col("author_id", true)}, PrimaryKey: []string{"id"}})
	cat.addFK(&catalog.ForeignKey{Name: "book_author_id_fkey", LocalTable: "book", LocalColumns: []string{"author_id"}, RemoteTable: "author", RemoteColumns: []string{"id"}})

	opts := Options{Constraint: regexp.MustCompile(`^book$`)}

	plan, _, err := BuildPlan(context.Background(), cat, opts)
	require.NoError(t, err)

	require.Equal(t, []string{"Book"}, plan.Monikers)
	// author was excluded by Constraint, so the FK's remote moniker is
	// unknown and inferTable skips the edge entirely.
	require.Empty(t, plan.For("Book"))
}

// RelationshipAttrs: All merges into every bucket, and per-method buckets
// override both the default attrs and All.
func TestOptions_RelationshipAttrs(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "author", SanitizedName: "author", Columns: []*catalog.Column{col("id", false)}, PrimaryKey: []string{"id"}})
	cat.addTable(&catalog.Table{RawName: "book", SanitizedName: "book", Columns: []*catalog.Column{col("id", false), col("author_id", false)}, PrimaryKey: []string{"id"}})
	cat.addFK(&catalog.ForeignKey{Name: "book_author_id_fkey", LocalTable: "book", LocalColumns: []string{"author_id"}, RemoteTable: "author", RemoteColumns: []string{"id"}})

	opts := Options{
		RelationshipAttrs: RelationshipAttrs{
			All:       AttrBucket{"source": "v1"},
			BelongsTo: AttrBucket{"on_delete": "RESTRICT"},
			HasMany:   AttrBucket{"cascade_delete": true},
		},
	}

	plan, _, err := BuildPlan(context.Background(), cat, opts)
	require.NoError(t, err)

	belongsTo := findRel(plan.For("Book"), "author")
	require.NotNil(t, belongsTo)
	require.Equal(t, "RESTRICT", belongsTo.Attrs["on_delete"])
	require.Equal(t, "v1", belongsTo.Attrs["source"])

	hasMany := findRel(plan.For("Author"), "books")
	require.NotNil(t, hasMany)
	require.Equal(t, true, hasMany.Attrs["cascade_delete"])
	require.Equal(t, "v1", hasMany.Attrs["source"])
}

func TestSchemaMismatchIsFatal(t *testing.T) {
	cat := newFakeCatalog()
	cat.addTable(&catalog.Table{RawName: "order", SanitizedName: "order", Columns: []*catalog.Column{col("id", false), col("seq", false)}, PrimaryKey: []string{"id", "seq"}})
	cat.addTable(&catalog.Table{RawName: "order_line", SanitizedName: "order_line", Columns: []*catalog.Column{col("order_id", false)}, PrimaryKey: []string{}})
	cat.addFK(&catalog.ForeignKey{Name: "bad_fkey", LocalTable: "order_line", LocalColumns: []string{"order_id"}, RemoteTable: "order", RemoteColumns: []string{"id", "seq"}})

	_, _, err := BuildPlan(context.Background(), cat, Options{})
	require.Error(t, err)
	var mismatch *SchemaMismatch
	require.ErrorAs(t, err, &mismatch)
}
