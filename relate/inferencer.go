package relate

import (
	"strings"

	"github.com/turnkey-commerce/relinfer/catalog"
	"github.com/turnkey-commerce/relinfer/inflect"
	"github.com/turnkey-commerce/relinfer/names"
)

// inferTable implements spec.md §4.5 for a single table's outgoing foreign
// keys, appending the resulting relationships onto e.plan.
func (e *Engine) inferTable(local *Source, edges []*catalog.ForeignKey) error {
	counters := make(map[string]int, len(edges))
	for _, fk := range edges {
		remoteMoniker, ok := e.monikers[fk.RemoteTable]
		if !ok {
			continue
		}
		counters[remoteMoniker]++
	}

	for _, fk := range edges {
		if len(fk.LocalColumns) != len(fk.RemoteColumns) || len(fk.LocalColumns) == 0 {
			return &SchemaMismatch{
				LocalTable:    fk.LocalTable,
				LocalColumns:  fk.LocalColumns,
				RemoteTable:   fk.RemoteTable,
				RemoteColumns: fk.RemoteColumns,
			}
		}

		remoteMoniker, ok := e.monikers[fk.RemoteTable]
		if !ok {
			// Foreign key points at a table excluded by constraint/exclude;
			// nothing to relate it to.
			continue
		}
		remote := e.sources[remoteMoniker]

		if err := e.inferEdge(local, remote, fk, counters[remoteMoniker]); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) inferEdge(local, remote *Source, fk *catalog.ForeignKey, count int) error {
	method := remoteMethod(local, fk.LocalColumns)

	belongsToName := belongsToSeed(fk, remote)
	remoteSideName, err := e.remoteSideSeed(local, remote, fk, method, count)
	if err != nil {
		return err
	}

	seq := e.nextSeq()

	belongsToName, err = e.applyRelNameMapAndResolve(belongsToName, BelongsTo, local.Moniker, remote.Moniker, fk.LocalColumns, fk.RemoteColumns)
	if err != nil {
		return err
	}
	remoteSideName, err = e.applyRelNameMapAndResolve(remoteSideName, method, local.Moniker, remote.Moniker, fk.LocalColumns, fk.RemoteColumns)
	if err != nil {
		return err
	}

	localColumnMap := make([]ColumnMapping, len(fk.LocalColumns))
	remoteColumnMap := make([]ColumnMapping, len(fk.LocalColumns))
	for i := range fk.LocalColumns {
		localColumnMap[i] = ColumnMapping{Local: fk.LocalColumns[i], Remote: fk.RemoteColumns[i]}
		remoteColumnMap[i] = ColumnMapping{Local: fk.RemoteColumns[i], Remote: fk.LocalColumns[i]}
	}

	belongsTo := &Relationship{
		OwningSource: local.Moniker,
		Method:       BelongsTo,
		Name:         belongsToName,
		TargetSource: remote.Moniker,
		ColumnMap:    localColumnMap,
		Attrs:        e.belongsToAttrs(local, fk),
		Provenance:   Provenance{OriginFK: fk, LocalMoniker: local.Moniker, RemoteMoniker: remote.Moniker},
		seq:          seq,
	}
	remoteSide := &Relationship{
		OwningSource: remote.Moniker,
		Method:       method,
		Name:         remoteSideName,
		TargetSource: local.Moniker,
		ColumnMap:    remoteColumnMap,
		Attrs:        e.remoteSideAttrs(method),
		Provenance:   Provenance{OriginFK: fk, LocalMoniker: local.Moniker, RemoteMoniker: remote.Moniker},
		seq:          seq,
	}

	e.plan.Relationships[local.Moniker] = append(e.plan.Relationships[local.Moniker], belongsTo)
	e.plan.Relationships[remote.Moniker] = append(e.plan.Relationships[remote.Moniker], remoteSide)

	return nil
}

// remoteMethod implements spec.md §4.5.b's method decision: MightHave if
// localColumns is exactly the table's primary key or an ordered prefix of
// any unique constraint, HasMany otherwise.
func remoteMethod(local *Source, localColumns []string) Method {
	if columnsEqual(local.PrimaryKey, localColumns) {
		return MightHave
	}
	for _, uq := range local.Uniques {
		if isOrderedPrefix(localColumns, uq.Columns) {
			return MightHave
		}
	}
	return HasMany
}

func columnsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func isOrderedPrefix(prefix, full []string) bool {
	if len(prefix) == 0 || len(prefix) > len(full) {
		return false
	}
	for i := range prefix {
		if !strings.EqualFold(prefix[i], full[i]) {
			return false
		}
	}
	return true
}

// belongsToSeed implements spec.md §4.5.a: the name the local (BelongsTo)
// side uses to refer to the remote source.
func belongsToSeed(fk *catalog.ForeignKey, remote *Source) string {
	if len(fk.LocalColumns) == 1 {
		norm := names.Normalize(fk.LocalColumns[0], false)
		norm = stripTrailingID(norm)
		return inflect.ToSingular(norm, inflect.Overrides{}).Value
	}
	norm := names.Normalize(remote.Table.SanitizedName, false)
	return inflect.ToSingular(norm, inflect.Overrides{}).Value
}

// remoteSideSeed implements spec.md §4.5.b-c: the name the remote
// (HasMany/MightHave) side uses to refer back to the local source, with
// column-based disambiguation when multiple edges target the same remote
// moniker.
func (e *Engine) remoteSideSeed(local, remote *Source, fk *catalog.ForeignKey, method Method, count int) (string, error) {
	base := names.Normalize(local.Table.SanitizedName, false)
	seed := e.reinflectSeed(base, method)

	if count <= 1 {
		return seed, nil
	}

	if prior, ok := e.priorName(remote.Moniker, fk.LocalColumns); ok {
		return prior, nil
	}

	combined := seed + "_" + names.JoinUnderscore(fk.LocalColumns)
	combined = stripTrailingID(combined)
	return e.reinflectSeed(combined, method), nil
}

func (e *Engine) reinflectSeed(seed string, method Method) string {
	if method == HasMany {
		return inflect.ToPlural(seed, e.opts.InflectPlural).Value
	}
	return inflect.ToSingular(seed, e.opts.InflectSingular).Value
}

// priorName implements the exception in spec.md §4.5.c: reuse a name a
// previously emitted class file already assigned to this exact edge,
// instead of computing (and disambiguating) it fresh.
func (e *Engine) priorName(remoteMoniker string, localColumns []string) (string, bool) {
	path, ok := e.cat.GetDumpFilename(remoteMoniker)
	if !ok {
		return "", false
	}
	prior := priorRelationshipNames(path)
	name, ok := prior[columnSignature(localColumns)]
	return name, ok
}

func stripTrailingID(s string) string {
	const suffix = "_id"
	if strings.HasSuffix(strings.ToLower(s), suffix) {
		return s[:len(s)-len(suffix)]
	}
	return s
}

func (e *Engine) applyRelNameMapAndResolve(name string, method Method, localMoniker, remoteMoniker string, localCols, remoteCols []string) (string, error) {
	ctx := RelNameContext{
		Name:          name,
		Method:        method,
		LocalMoniker:  localMoniker,
		LocalColumns:  localCols,
		RemoteMoniker: remoteMoniker,
		RemoteColumns: remoteCols,
	}
	if mapped, ok := e.opts.RelNameMap.lookup(ctx); ok {
		name = mapped
	}

	owner := localMoniker
	if method != BelongsTo {
		owner = remoteMoniker
	}
	return e.resolver.resolveCollision(name, owner)
}

func (e *Engine) belongsToAttrs(local *Source, fk *catalog.ForeignKey) map[string]interface{} {
	attrs := map[string]interface{}{
		"on_delete":     "CASCADE",
		"on_update":     "CASCADE",
		"is_deferrable": true,
	}

	if anyNullable(local, fk.LocalColumns) {
		attrs["join_type"] = "LEFT"
	}

	mergeAttrs(attrs, e.opts.RelationshipAttrs.All)
	mergeAttrs(attrs, e.opts.RelationshipAttrs.bucketFor(BelongsTo))

	return attrs
}

func (e *Engine) remoteSideAttrs(method Method) map[string]interface{} {
	attrs := map[string]interface{}{
		"cascade_delete": false,
		"cascade_copy":   false,
	}

	mergeAttrs(attrs, e.opts.RelationshipAttrs.All)
	mergeAttrs(attrs, e.opts.RelationshipAttrs.bucketFor(method))

	return attrs
}

func mergeAttrs(dst map[string]interface{}, src AttrBucket) {
	for k, v := range src {
		dst[k] = v
	}
}

func anyNullable(local *Source, columns []string) bool {
	for _, col := range columns {
		for _, c := range local.Table.Columns {
			if strings.EqualFold(c.Name, col) {
				if c.Nullable {
					return true
				}
				break
			}
		}
	}
	return false
}
