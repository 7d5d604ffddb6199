package catalogsql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/pkg/errors"
	"github.com/xo/dburl"
	"go.uber.org/zap"

	"github.com/turnkey-commerce/relinfer/catalog"
	"github.com/turnkey-commerce/relinfer/names"
)

// quotedIdentRE flags identifiers the engine should treat as Quoted: those
// carrying anything other than lowercase ASCII letters, digits and
// underscores, the same heuristic the teacher's postgres loader applies
// before deciding whether to wrap a name in quote_ident.
var quotedIdentRE = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Catalog is a catalog.Catalog backed by a live database connection. It is
// safe for concurrent read-only use once opened.
type Catalog struct {
	db      *sql.DB
	dialect dialect
	schema  string
	dumps   map[string]string
	log     *zap.SugaredLogger
}

// Open parses dsn with xo/dburl, selects the registered dialect for its
// driver, and returns a ready-to-use Catalog. schema may be empty to use
// the dialect's default schema.
func Open(ctx context.Context, dsn, schema string, log *zap.SugaredLogger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	u, err := dburl.Parse(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "catalogsql: parse dsn")
	}

	d, ok := dialects[u.Driver]
	if !ok {
		return nil, fmt.Errorf("catalogsql: no dialect registered for driver %q", u.Driver)
	}

	db, err := dburl.OpenURL(u)
	if err != nil {
		return nil, errors.Wrapf(err, "catalogsql: open %s", d.name())
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "catalogsql: ping %s", d.name())
	}

	log.Infow("catalog opened", "dialect", d.name(), "schema", schema)

	return &Catalog{db: db, dialect: d, schema: schema, dumps: map[string]string{}, log: log}, nil
}

// WithDumpFile registers the path of a previously emitted class dump file
// for moniker, so GetDumpFilename (and therefore the prior-name lookup in
// package relate) can find it. The caller populates this before BuildPlan
// runs, typically by scanning an output directory for the naming convention
// the code generator uses.
func (c *Catalog) WithDumpFile(moniker, path string) {
	c.dumps[moniker] = path
}

// Close releases the underlying connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) ListTables(ctx context.Context) ([]string, error) {
	tables, err := c.dialect.listTables(ctx, c.db, c.schema)
	if err != nil {
		return nil, errors.Wrap(err, "catalogsql: list tables")
	}
	return tables, nil
}

func (c *Catalog) DescribeTable(ctx context.Context, rawName string) (*catalog.Table, error) {
	cols, err := c.dialect.columns(ctx, c.db, c.schema, rawName)
	if err != nil {
		return nil, errors.Wrapf(err, "catalogsql: columns for %q", rawName)
	}
	pk, err := c.dialect.primaryKey(ctx, c.db, c.schema, rawName)
	if err != nil {
		return nil, errors.Wrapf(err, "catalogsql: primary key for %q", rawName)
	}
	uqs, err := c.dialect.uniqueConstraints(ctx, c.db, c.schema, rawName)
	if err != nil {
		return nil, errors.Wrapf(err, "catalogsql: unique constraints for %q", rawName)
	}

	quoted := !quotedIdentRE.MatchString(rawName)

	t := &catalog.Table{
		RawName:       rawName,
		SanitizedName: names.Sanitize(rawName, quoted),
		PrimaryKey:    pk,
		Quoted:        quoted,
	}
	for _, col := range cols {
		t.Columns = append(t.Columns, &catalog.Column{
			Name:     col.Name,
			Nullable: col.Nullable,
			TypeHint: col.DataType,
			Default:  col.Default,
			Comment:  col.Comment,
		})
	}
	for _, u := range uqs {
		t.Uniques = append(t.Uniques, &catalog.UniqueConstraint{Name: u.Name, Columns: u.Columns})
	}

	return t, nil
}

func (c *Catalog) ForeignKeys(ctx context.Context, rawName string) ([]*catalog.ForeignKey, error) {
	fks, err := c.dialect.foreignKeys(ctx, c.db, c.schema, rawName)
	if err != nil {
		return nil, errors.Wrapf(err, "catalogsql: foreign keys for %q", rawName)
	}

	out := make([]*catalog.ForeignKey, 0, len(fks))
	for _, fk := range fks {
		out = append(out, &catalog.ForeignKey{
			Name:          fk.Name,
			LocalTable:    rawName,
			LocalColumns:  fk.LocalColumns,
			RemoteTable:   fk.RemoteTable,
			RemoteColumns: fk.RemoteColumns,
		})
	}
	return out, nil
}

// IsResultClassMethod reports whether name collides with one of the base
// methods every generated result class carries (spec.md's "inherited
// method" check). The concrete list mirrors the base-class surface the
// generator's output always defines; it intentionally does not depend on
// moniker, since every generated class shares the same base.
func (c *Catalog) IsResultClassMethod(name, moniker string) bool {
	_, ok := baseResultClassMethods[name]
	return ok
}

var baseResultClassMethods = map[string]struct{}{
	"new": {}, "save": {}, "delete": {}, "update": {}, "reload": {},
	"id": {}, "errors": {}, "valid": {}, "table": {}, "attributes": {},
	"clone": {}, "to_s": {}, "to_json": {}, "destroy": {},
}

func (c *Catalog) GetDumpFilename(moniker string) (string, bool) {
	p, ok := c.dumps[moniker]
	return p, ok
}
