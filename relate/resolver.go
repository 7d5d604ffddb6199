package relate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turnkey-commerce/relinfer/catalog"
	"github.com/turnkey-commerce/relinfer/inflect"
)

// maxRelSuffixAttempts bounds the "_rel" suffix loop in resolveCollision;
// spec.md §7 calls a NameCollision after "a reasonable suffix budget (e.g.,
// 16 _rel appends)".
const maxRelSuffixAttempts = 16

// resolver implements spec.md §4.6: collision-with-inherited-method
// resolution and same-source duplicate-name resolution.
type resolver struct {
	cat    catalog.Catalog
	opts   Options
	tagger *Tagger
	diag   *Diagnostics
}

func newResolver(cat catalog.Catalog, opts Options, diag *Diagnostics) *resolver {
	return &resolver{cat: cat, opts: opts, diag: diag}
}

func (r *resolver) ensureTagger() *Tagger {
	if r.tagger == nil {
		r.tagger = NewTagger()
	}
	return r.tagger
}

// resolveCollision implements spec.md §4.6(a): if name collides with an
// inherited method on moniker, apply rel_collision_map or else suffix
// "_rel" until it doesn't.
func (r *resolver) resolveCollision(name, moniker string) (string, error) {
	if !r.cat.IsResultClassMethod(name, moniker) {
		return name, nil
	}

	for _, rule := range r.opts.RelCollisionMap {
		m := rule.Pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		args := make([]interface{}, 0, len(m)-1)
		for _, g := range m[1:] {
			args = append(args, g)
		}
		resolved := fmt.Sprintf(rule.Template, args...)
		if r.cat.IsResultClassMethod(resolved, moniker) {
			return "", &NameCollision{Source: moniker, Name: name, Reason: "rel_collision_map template still collides"}
		}
		return resolved, nil
	}

	candidate := name
	for i := 0; i < maxRelSuffixAttempts; i++ {
		candidate = candidate + "_rel"
		if !r.cat.IsResultClassMethod(candidate, moniker) {
			r.diag.warn(WarnRelSuffix, moniker, name, "relationship name %q collided with an inherited method; renamed to %q", name, candidate)
			return candidate, nil
		}
	}
	return "", &NameCollision{Source: moniker, Name: name, Reason: "exhausted _rel suffix budget"}
}

// resolveDuplicates implements spec.md §4.6(b) for every relationship owned
// by a single source. rels is mutated in place; it must already be in
// catalog (seq) order.
func (r *resolver) resolveDuplicates(moniker string, rels []*Relationship) error {
	groups := groupByName(rels)

	for name, group := range groups {
		if len(group) < 2 {
			continue
		}
		if err := r.resolveGroupAdjectives(moniker, name, group); err != nil {
			return err
		}
	}

	// Re-group: adjective substitution may have changed names, and may
	// have introduced fresh duplicates or resolved old ones.
	groups = groupByName(rels)
	var remaining [][]*Relationship
	for _, group := range groups {
		if len(group) >= 2 {
			remaining = append(remaining, group)
		}
	}

	for _, group := range remaining {
		if err := r.resolveGroupNumeric(moniker, group); err != nil {
			return err
		}
	}

	return nil
}

func groupByName(rels []*Relationship) map[string][]*Relationship {
	groups := make(map[string][]*Relationship)
	for _, rel := range rels {
		groups[rel.Name] = append(groups[rel.Name], rel)
	}
	return groups
}

func (r *resolver) resolveGroupAdjectives(moniker, originalName string, group []*Relationship) error {
	tagger := r.ensureTagger()

	mightHaveCount := 0
	for _, rel := range group {
		if rel.Method == MightHave {
			mightHaveCount++
		}
	}

	for _, rel := range group {
		if rel.Method == BelongsTo {
			continue
		}

		var localCols []string
		if rel.Provenance.OriginFK != nil {
			localCols = rel.Provenance.OriginFK.LocalColumns
		}
		words := tokenizeColumns(localCols)
		adjectives := tagger.Adjectives(words)

		if len(adjectives) == 0 && rel.Method == MightHave && mightHaveCount == 2 {
			adjectives = []string{"active"}
		}

		if len(adjectives) == 0 {
			continue
		}

		sort.Strings(adjectives)
		stem := strings.Join(adjectives, "_") + "_" + originalName
		newName := r.reinflect(stem, rel.Method)

		ctx := RelNameContext{
			Name:          newName,
			Method:        rel.Method,
			LocalMoniker:  moniker,
			LocalColumns:  rel.ColumnLocalColumns(),
			RemoteMoniker: rel.TargetSource,
			RemoteColumns: rel.ColumnRemoteColumns(),
		}
		if mapped, ok := r.opts.RelNameMap.lookup(ctx); ok {
			newName = mapped
		}

		resolved, err := r.resolveCollision(newName, moniker)
		if err != nil {
			return err
		}
		rel.Name = resolved
	}

	return nil
}

func (r *resolver) resolveGroupNumeric(moniker string, group []*Relationship) error {
	sort.SliceStable(group, func(i, j int) bool {
		pi, pj := group[i].Method.priority(), group[j].Method.priority()
		if pi != pj {
			return pi > pj
		}
		return group[i].seq < group[j].seq
	})

	for i, rel := range group {
		if i == 0 {
			continue
		}

		stem := inflect.ToSingular(rel.Name, r.opts.InflectSingular).Value
		suffixed := fmt.Sprintf("%s_%d", stem, i+1)
		newName := r.reinflect(suffixed, rel.Method)

		plural := inflect.ToPlural(stripNumericSuffix(rel.Name), r.opts.InflectPlural)
		singular := inflect.ToSingular(stripNumericSuffix(rel.Name), r.opts.InflectSingular)
		mappedByInflector := plural.Mapped || singular.Mapped

		ctx := RelNameContext{
			Name:          newName,
			Method:        rel.Method,
			LocalMoniker:  moniker,
			RemoteMoniker: rel.TargetSource,
		}
		mappedByOverride := false
		if mapped, ok := r.opts.RelNameMap.lookup(ctx); ok {
			newName = mapped
			mappedByOverride = true
		}

		if !mappedByInflector && !mappedByOverride {
			r.diag.warn(WarnUnmappedDuplicate, moniker, rel.Name,
				"relationship name %q duplicated within source %s; disambiguated to %q without a natural name — consider a rel_name_map override",
				rel.Name, moniker, newName)
		}

		resolved, err := r.resolveCollision(newName, moniker)
		if err != nil {
			return err
		}
		rel.Name = resolved
	}

	return nil
}

func (r *resolver) reinflect(name string, method Method) string {
	if method == HasMany {
		return inflect.ToPlural(name, r.opts.InflectPlural).Value
	}
	return inflect.ToSingular(name, r.opts.InflectSingular).Value
}

func tokenizeColumns(cols []string) []string {
	var words []string
	for _, c := range cols {
		for _, w := range strings.Split(strings.ToLower(c), "_") {
			if w == "" || w == "id" {
				continue
			}
			words = append(words, w)
		}
	}
	return words
}

func stripNumericSuffix(name string) string {
	idx := strings.LastIndexByte(name, '_')
	if idx < 0 {
		return name
	}
	suffix := name[idx+1:]
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return name
		}
	}
	return name[:idx]
}
