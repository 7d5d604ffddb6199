package catalogsql

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

func init() {
	register("sqlite3", sqliteDialect{})
}

// sqliteDialect uses PRAGMA statements instead of an information schema;
// SQLite has none. schema is always ignored: SQLite databases are
// single-schema ("main") from the driver's point of view.
type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite3" }

func (sqliteDialect) listTables(ctx context.Context, db *sql.DB, schema string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (sqliteDialect) columns(ctx context.Context, db *sql.DB, schema, table string) ([]dialectColumn, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(`+quoteIdent(table)+`)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dialectColumn
	for rows.Next() {
		var cid int
		var name, typ string
		var notNull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		out = append(out, dialectColumn{
			Name:     name,
			DataType: typ,
			Nullable: notNull == 0,
			Default:  dflt.String,
		})
	}
	return out, rows.Err()
}

func (sqliteDialect) primaryKey(ctx context.Context, db *sql.DB, schema, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(`+quoteIdent(table)+`)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type pkCol struct {
		name string
		ord  int
	}
	var pks []pkCol
	for rows.Next() {
		var cid int
		var name, typ string
		var notNull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		if pk > 0 {
			pks = append(pks, pkCol{name: name, ord: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]string, len(pks))
	for _, p := range pks {
		out[p.ord-1] = p.name
	}
	return out, nil
}

func (sqliteDialect) uniqueConstraints(ctx context.Context, db *sql.DB, schema, table string) ([]dialectUnique, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA index_list(`+quoteIdent(table)+`)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type idx struct {
		name   string
		unique bool
		origin string
	}
	var indexes []idx
	for rows.Next() {
		var seq int
		var name string
		var unique int
		var origin string
		var partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx{name: name, unique: unique == 1, origin: origin})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []dialectUnique
	for _, ix := range indexes {
		if !ix.unique || ix.origin == "pk" {
			continue
		}
		cols, err := sqliteIndexColumns(ctx, db, ix.name)
		if err != nil {
			return nil, err
		}
		out = append(out, dialectUnique{Name: ix.name, Columns: cols})
	}
	return out, nil
}

func sqliteIndexColumns(ctx context.Context, db *sql.DB, index string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA index_info(`+quoteIdent(index)+`)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var seqno, cid int
		var name string
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (sqliteDialect) foreignKeys(ctx context.Context, db *sql.DB, schema, table string) ([]dialectForeignKey, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA foreign_key_list(`+quoteIdent(table)+`)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := map[int]*dialectForeignKey{}
	var order []int
	for rows.Next() {
		var id, seq int
		var remoteTable, localCol, remoteCol string
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &remoteTable, &localCol, &remoteCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &dialectForeignKey{RemoteTable: remoteTable}
			byID[id] = fk
			order = append(order, id)
		}
		fk.LocalColumns = append(fk.LocalColumns, localCol)
		fk.RemoteColumns = append(fk.RemoteColumns, remoteCol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]dialectForeignKey, 0, len(order))
	for i, id := range order {
		fk := *byID[id]
		if fk.Name == "" {
			fk.Name = table + "_fk_" + strconv.Itoa(i)
		}
		out = append(out, fk)
	}
	return out, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
