// Package catalogsql is the only place in this module that knows about a
// specific database flavor: it implements catalog.Catalog against a live
// *sql.DB, dispatching to a per-flavor dialect the way this repo's teacher
// dispatches to a per-flavor internal.Loader.
package catalogsql

import (
	"context"
	"database/sql"
)

// dialect is the narrow, per-database-flavor surface catalogsql needs.
// Each concrete dialect owns the SQL text for its information schema; the
// rest of the package never branches on database flavor again once a
// dialect has been selected.
type dialect interface {
	// name identifies the dialect in error messages ("postgres", "mysql", ...).
	name() string

	// listTables returns every base table/view name in schema (or the
	// flavor's default schema if schema is empty).
	listTables(ctx context.Context, db *sql.DB, schema string) ([]string, error)

	// columns returns the columns of table, in ordinal position order.
	columns(ctx context.Context, db *sql.DB, schema, table string) ([]dialectColumn, error)

	// primaryKey returns the ordered primary key column names of table.
	primaryKey(ctx context.Context, db *sql.DB, schema, table string) ([]string, error)

	// uniqueConstraints returns every non-primary unique constraint on table.
	uniqueConstraints(ctx context.Context, db *sql.DB, schema, table string) ([]dialectUnique, error)

	// foreignKeys returns every foreign key whose local table is table.
	foreignKeys(ctx context.Context, db *sql.DB, schema, table string) ([]dialectForeignKey, error)
}

type dialectColumn struct {
	Name     string
	DataType string
	Nullable bool
	Default  string
	Comment  string
}

type dialectUnique struct {
	Name    string
	Columns []string
}

type dialectForeignKey struct {
	Name          string
	LocalColumns  []string
	RemoteTable   string
	RemoteColumns []string
}

var dialects = map[string]dialect{}

func register(driver string, d dialect) {
	dialects[driver] = d
}
