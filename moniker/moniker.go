// Package moniker assigns a source (class) name to each catalog table:
// user overrides first, then split + singularize + CamelCase, then a
// catalog-order collision fallback. Monikers feed straight into
// relationship naming, so collisions here must be resolved before any
// relationship is inferred.
package moniker

import (
	"fmt"
	"strings"

	"github.com/knq/snaker"
	"github.com/pkg/errors"

	"github.com/turnkey-commerce/relinfer/catalog"
	"github.com/turnkey-commerce/relinfer/inflect"
	"github.com/turnkey-commerce/relinfer/names"
)

// Options configures the monikerizer.
type Options struct {
	// Map and Func mirror moniker_map from spec.md §6: a lookup table or
	// callback keyed by the table's sanitized name. Map wins on an exact
	// hit; Func is consulted next. A Func returning "" is treated as "no
	// override" per the Open Question in spec.md §9(iii).
	Map  map[string]string
	Func func(sanitizedName string) string

	// Singular overrides the default Inflector used to singularize the
	// final word of the split name.
	Singular inflect.Overrides
}

func (o Options) lookup(sanitized string) (string, bool) {
	if o.Map != nil {
		if v, ok := o.Map[sanitized]; ok && v != "" {
			return v, true
		}
	}
	if o.Func != nil {
		if v := o.Func(sanitized); v != "" {
			return v, true
		}
	}
	return "", false
}

// Monikerizer assigns monikers to tables and guarantees uniqueness across a
// whole catalog pass.
type Monikerizer struct {
	opts Options
}

// New creates a Monikerizer.
func New(opts Options) *Monikerizer {
	return &Monikerizer{opts: opts}
}

// Default returns the moniker for a single table's sanitized name without
// applying the cross-catalog collision fallback (step 3 of spec.md §4.4).
// AssignAll should be preferred whenever the whole catalog is known, since
// only it can detect and resolve cross-table collisions.
func (m *Monikerizer) Default(t *catalog.Table) (string, bool) {
	if v, ok := m.opts.lookup(t.SanitizedName); ok {
		return v, true
	}
	return camelize(t.SanitizedName, m.opts.Singular), false
}

// AssignAll monikerizes every table in catalog order and resolves
// collisions deterministically: the table that sorts first in the input
// slice keeps the unqualified moniker; subsequent colliding tables fall
// back to a schema-qualified name (if the table's raw name carried a
// schema prefix) or else a numeric suffix ("_2", "_3", ...).
func (m *Monikerizer) AssignAll(tables []*catalog.Table) (map[string]string, error) {
	result := make(map[string]string, len(tables))
	seen := make(map[string]bool, len(tables))

	for _, t := range tables {
		base, _ := m.Default(t)
		moniker := base

		if seen[moniker] {
			if schema, ok := schemaQualifier(t.RawName); ok {
				moniker = camelize(schema, m.opts.Singular) + base
			}
		}

		for n := 2; seen[moniker]; n++ {
			moniker = fmt.Sprintf("%s_%d", base, n)
		}

		if moniker == "" {
			return nil, errors.Errorf("moniker: table %q produced an empty moniker", t.RawName)
		}

		seen[moniker] = true
		result[t.RawName] = moniker
	}

	return result, nil
}

func schemaQualifier(rawName string) (string, bool) {
	if i := strings.IndexByte(rawName, '.'); i >= 0 {
		return rawName[:i], true
	}
	return "", false
}

// camelize implements the default rule: split, singularize the final word,
// then hand the underscore-joined result to snaker.SnakeToCamelIdentifier
// for the CamelCase join, the same call the teacher's loader makes to turn
// a column_name into a Go field name.
func camelize(sanitized string, singular inflect.Overrides) string {
	words := names.Split(sanitized)
	if len(words) == 0 {
		return ""
	}

	res := inflect.ToSingular(strings.Join(words, "_"), singular)
	return snaker.SnakeToCamelIdentifier(res.Value)
}
