package relate

import (
	"fmt"

	"github.com/pkg/errors"
)

// WarningKind classifies a non-fatal diagnostic (spec.md §7.4).
type WarningKind int

const (
	// WarnRelSuffix is emitted when an inherited-method collision was
	// resolved by repeatedly appending "_rel".
	WarnRelSuffix WarningKind = iota
	// WarnNumericDisambiguator is a defined kind that no code path in this
	// package emits; numeric-suffix renames are reported as
	// WarnUnmappedDuplicate.
	WarnNumericDisambiguator
	// WarnUnmappedDuplicate is emitted by the numeric-suffix pass for every
	// duplicate it renames whose name was mapped neither by an inflection
	// override nor by rel_name_map. It is the same kind whether or not the
	// adjective pass had already changed the name.
	WarnUnmappedDuplicate
)

// Warning is one entry on the non-fatal diagnostics channel.
type Warning struct {
	Kind    WarningKind
	Source  string
	Name    string
	Message string
}

// Diagnostics accumulates every non-fatal Warning produced during a
// BuildPlan call. The caller inspects it after BuildPlan returns,
// regardless of whether BuildPlan succeeded.
type Diagnostics struct {
	Warnings []Warning
}

func (d *Diagnostics) warn(kind WarningKind, source, name, format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, Warning{
		Kind:    kind,
		Source:  source,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
	})
}

// CatalogError wraps an error returned by the catalog adapter. The
// underlying cause remains reachable via errors.Cause/errors.Unwrap.
type CatalogError struct {
	Table string
	cause error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog error on table %q: %s", e.Table, e.cause)
}

func (e *CatalogError) Unwrap() error { return e.cause }

func newCatalogError(table string, cause error) *CatalogError {
	return &CatalogError{Table: table, cause: errors.Wrapf(cause, "catalog: table %q", table)}
}

// SchemaMismatch is fatal: a foreign key's local/remote column counts did
// not match.
type SchemaMismatch struct {
	LocalTable    string
	LocalColumns  []string
	RemoteTable   string
	RemoteColumns []string
}

func (e *SchemaMismatch) Error() string {
	return fmt.Sprintf(
		"schema mismatch: %s%v references %s%v (column count mismatch)",
		e.LocalTable, e.LocalColumns, e.RemoteTable, e.RemoteColumns,
	)
}

// NameCollision is fatal: a name could not be resolved within the allotted
// suffix budget, or a rel_collision_map template could not be applied.
type NameCollision struct {
	Source string
	Name   string
	Reason string
}

func (e *NameCollision) Error() string {
	return fmt.Sprintf("name collision on %s.%s: %s", e.Source, e.Name, e.Reason)
}
