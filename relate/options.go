package relate

import (
	"regexp"

	"github.com/turnkey-commerce/relinfer/inflect"
	"github.com/turnkey-commerce/relinfer/moniker"
)

// RelNameContext is the full context passed to a rel_name_map callback, per
// spec.md §6.
type RelNameContext struct {
	Name          string
	Method        Method
	LocalMoniker  string
	LocalColumns  []string
	RemoteMoniker string
	RemoteColumns []string
}

// RelNameMap is the override hook for relationship names. Nested resolves
// moniker -> name -> new first; Flat resolves name -> new next; Func is
// tried last and receives the full RelNameContext.
type RelNameMap struct {
	Nested map[string]map[string]string
	Flat   map[string]string
	Func   func(ctx RelNameContext) string
}

func (r RelNameMap) lookup(ctx RelNameContext) (string, bool) {
	if r.Nested != nil {
		if byName, ok := r.Nested[ctx.LocalMoniker]; ok {
			if v, ok := byName[ctx.Name]; ok && v != "" {
				return v, true
			}
		}
	}
	if r.Flat != nil {
		if v, ok := r.Flat[ctx.Name]; ok && v != "" {
			return v, true
		}
	}
	if r.Func != nil {
		if v := r.Func(ctx); v != "" {
			return v, true
		}
	}
	return "", false
}

// CollisionRule is one entry of rel_collision_map: an ordered regex ->
// sprintf template mapping consulted when a candidate name collides with an
// inherited method.
type CollisionRule struct {
	Pattern  *regexp.Regexp
	Template string
}

// AttrBucket is one of the four attribute buckets relationship_attrs can
// populate: applied in the order default < All < per-method, last wins.
type AttrBucket map[string]interface{}

// RelationshipAttrs is the relationship_attrs option from spec.md §6.
type RelationshipAttrs struct {
	All       AttrBucket
	BelongsTo AttrBucket
	HasMany   AttrBucket
	MightHave AttrBucket
}

func (r RelationshipAttrs) bucketFor(m Method) AttrBucket {
	switch m {
	case BelongsTo:
		return r.BelongsTo
	case HasMany:
		return r.HasMany
	case MightHave:
		return r.MightHave
	default:
		return nil
	}
}

// Options are the recognized options from spec.md §6.
type Options struct {
	MonikerMap moniker.Options

	InflectPlural   inflect.Overrides
	InflectSingular inflect.Overrides

	RelNameMap      RelNameMap
	RelCollisionMap []CollisionRule

	RelationshipAttrs RelationshipAttrs

	// DBSchema records the schema name the caller configured. BuildPlan
	// neither reads it nor passes it to the catalog; a schema filter takes
	// effect only where the caller hands it to the adapter itself (as
	// catalogsql.Open's schema argument).
	DBSchema string

	// Constraint, if set, excludes tables whose name does not match.
	// Exclude, if set, excludes tables (after Constraint) whose name
	// matches.
	Constraint *regexp.Regexp
	Exclude    *regexp.Regexp
}
