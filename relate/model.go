// Package relate is the heart of the engine: it infers bidirectional
// relationships from catalog foreign keys, resolves name collisions, and
// assembles the final RelationshipPlan. See spec.md §4.5-4.6 and
// SPEC_FULL.md for the package map.
package relate

import (
	"github.com/turnkey-commerce/relinfer/catalog"
)

// Method is the relationship kind assigned to one side of a foreign key.
type Method int

const (
	// BelongsTo is the local (owning) side of every foreign key.
	BelongsTo Method = iota
	// HasMany is the remote side when the local columns are not a key.
	HasMany
	// MightHave is the remote side when the local columns are the primary
	// key, or an ordered prefix of a unique constraint (one-to-one).
	MightHave
)

func (m Method) String() string {
	switch m {
	case BelongsTo:
		return "belongs_to"
	case HasMany:
		return "has_many"
	case MightHave:
		return "might_have"
	default:
		return "unknown"
	}
}

// MarshalJSON renders a Method as its string form ("belongs_to", ...)
// rather than its underlying int, so a Plan serializes to readable JSON.
func (m Method) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// priority orders methods for the numeric-suffix disambiguation pass
// (spec.md §4.6.b.4): BelongsTo=3, HasMany=2, MightHave=1.
func (m Method) priority() int {
	switch m {
	case BelongsTo:
		return 3
	case HasMany:
		return 2
	case MightHave:
		return 1
	default:
		return 0
	}
}

// ColumnMapping is one (local column, remote column) pair derived
// positionally from a foreign key.
type ColumnMapping struct {
	Local  string
	Remote string
}

// Provenance records which foreign key produced a relationship, and the
// monikers on each side at the time it was produced.
type Provenance struct {
	OriginFK      *catalog.ForeignKey
	LocalMoniker  string
	RemoteMoniker string
}

// Relationship is one named, directed edge between two sources.
type Relationship struct {
	OwningSource string
	Method       Method
	Name         string
	TargetSource string
	ColumnMap    []ColumnMapping
	Attrs        map[string]interface{}
	Provenance   Provenance

	// seq is the insertion order of the originating foreign key within
	// BuildPlan's single pass; it is the stable tie-break spec.md §4.6's
	// Open Question (ii) leaves ambiguous, and the source of truth for
	// "catalog order" throughout this package.
	seq int
}

// Source is the monikerized view of a catalog.Table that relationships
// attach to.
type Source struct {
	Moniker    string
	Table      *catalog.Table
	PrimaryKey []string
	Uniques    []*catalog.UniqueConstraint
}

// Plan is the final, post-resolution assignment of relationships to
// sources. Monikers lists every source's moniker in sorted order so callers
// never depend on Go's randomized map order to get deterministic output.
type Plan struct {
	Monikers      []string
	Relationships map[string][]*Relationship
}

// For returns the relationships owned by moniker, or nil.
func (p *Plan) For(moniker string) []*Relationship {
	return p.Relationships[moniker]
}

// ColumnLocalColumns and ColumnRemoteColumns expose the flattened column
// lists from ColumnMap, used when building a RelNameContext for the
// override callback.
func (r *Relationship) ColumnLocalColumns() []string {
	cols := make([]string, len(r.ColumnMap))
	for i, cm := range r.ColumnMap {
		cols[i] = cm.Local
	}
	return cols
}

func (r *Relationship) ColumnRemoteColumns() []string {
	cols := make([]string, len(r.ColumnMap))
	for i, cm := range r.ColumnMap {
		cols[i] = cm.Remote
	}
	return cols
}
