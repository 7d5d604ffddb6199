package relate

import (
	"context"
	"sort"

	"github.com/turnkey-commerce/relinfer/catalog"
	"github.com/turnkey-commerce/relinfer/moniker"
)

// Engine runs a single BuildPlan pass. It is not safe for reuse across
// concurrent calls; construct a fresh Engine (via BuildPlan) per catalog.
type Engine struct {
	cat      catalog.Catalog
	opts     Options
	monikers map[string]string // raw table name -> moniker
	sources  map[string]*Source
	plan     *Plan
	resolver *resolver
	diag     *Diagnostics

	seq int
}

func (e *Engine) nextSeq() int {
	s := e.seq
	e.seq++
	return s
}

// Cleanup releases the engine's lazily-created resources (the adjective
// tagger). spec.md §5 requires this run on every exit path; BuildPlan
// defers it unconditionally.
func (e *Engine) Cleanup() {
	e.resolver.tagger = nil
}

// BuildPlan is the main entry point: it infers a RelationshipPlan from the
// catalog, applying opts at every naming stage, and returns the plan
// together with the non-fatal diagnostics channel. A non-nil error means a
// fatal condition (CatalogError, SchemaMismatch, NameCollision) aborted the
// pass; the returned plan is then nil, and the diagnostics hold whatever
// warnings were recorded before the failure.
func BuildPlan(ctx context.Context, cat catalog.Catalog, opts Options) (*Plan, *Diagnostics, error) {
	diag := &Diagnostics{}
	engine := &Engine{
		cat:      cat,
		opts:     opts,
		sources:  map[string]*Source{},
		diag:     diag,
		resolver: newResolver(cat, opts, diag),
	}
	defer engine.Cleanup()

	tables, err := engine.loadTables(ctx)
	if err != nil {
		return nil, diag, err
	}

	monikerizer := moniker.New(opts.MonikerMap)
	catTables := make([]*catalog.Table, len(tables))
	for i, t := range tables {
		catTables[i] = t
	}
	monikers, err := monikerizer.AssignAll(catTables)
	if err != nil {
		return nil, diag, err
	}
	engine.monikers = monikers

	plan := &Plan{Relationships: map[string][]*Relationship{}}
	engine.plan = plan

	for _, t := range tables {
		m := monikers[t.RawName]
		src := &Source{
			Moniker:    m,
			Table:      t,
			PrimaryKey: t.PrimaryKey,
			Uniques:    t.Uniques,
		}
		engine.sources[m] = src
		plan.Monikers = append(plan.Monikers, m)
		if _, ok := plan.Relationships[m]; !ok {
			plan.Relationships[m] = nil
		}
	}
	sort.Strings(plan.Monikers)

	for _, t := range tables {
		edges, err := cat.ForeignKeys(ctx, t.RawName)
		if err != nil {
			return nil, diag, newCatalogError(t.RawName, err)
		}

		local := engine.sources[monikers[t.RawName]]
		if err := engine.inferTable(local, edges); err != nil {
			return nil, diag, err
		}
	}

	for _, m := range plan.Monikers {
		rels := plan.Relationships[m]
		sort.SliceStable(rels, func(i, j int) bool { return rels[i].seq < rels[j].seq })
		if err := engine.resolver.resolveDuplicates(m, rels); err != nil {
			return nil, diag, err
		}
		plan.Relationships[m] = rels
	}

	return plan, diag, nil
}

func (e *Engine) loadTables(ctx context.Context) ([]*catalog.Table, error) {
	rawNames, err := e.cat.ListTables(ctx)
	if err != nil {
		return nil, newCatalogError("", err)
	}

	var filtered []string
	for _, raw := range rawNames {
		if e.opts.Constraint != nil && !e.opts.Constraint.MatchString(raw) {
			continue
		}
		if e.opts.Exclude != nil && e.opts.Exclude.MatchString(raw) {
			continue
		}
		filtered = append(filtered, raw)
	}

	tables := make([]*catalog.Table, 0, len(filtered))
	for _, raw := range filtered {
		t, err := e.cat.DescribeTable(ctx, raw)
		if err != nil {
			return nil, newCatalogError(raw, err)
		}
		tables = append(tables, t)
	}

	return tables, nil
}
