package catalogsql

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

func init() {
	register("postgres", pgDialect{})
}

type pgDialect struct{}

func (pgDialect) name() string { return "postgres" }

func (pgDialect) listTables(ctx context.Context, db *sql.DB, schema string) ([]string, error) {
	if schema == "" {
		schema = "public"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name`, schema)
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

func (pgDialect) columns(ctx context.Context, db *sql.DB, schema, table string) ([]dialectColumn, error) {
	if schema == "" {
		schema = "public"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES', COALESCE(column_default, ''),
		       COALESCE(col_description((quote_ident($1) || '.' || quote_ident($2))::regclass::oid, ordinal_position), '')
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dialectColumn
	for rows.Next() {
		var c dialectColumn
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.Default, &c.Comment); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (pgDialect) primaryKey(ctx context.Context, db *sql.DB, schema, table string) ([]string, error) {
	if schema == "" {
		schema = "public"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = (quote_ident($1) || '.' || quote_ident($2))::regclass
		  AND i.indisprimary
		ORDER BY array_position(i.indkey, a.attnum)`, schema, table)
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

func (pgDialect) uniqueConstraints(ctx context.Context, db *sql.DB, schema, table string) ([]dialectUnique, error) {
	if schema == "" {
		schema = "public"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT con.conname, a.attname
		FROM pg_constraint con
		JOIN unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
		WHERE con.conrelid = (quote_ident($1) || '.' || quote_ident($2))::regclass
		  AND con.contype = 'u'
		ORDER BY con.conname, k.ord`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*dialectUnique{}
	var order []string
	for rows.Next() {
		var name, col string
		if err := rows.Scan(&name, &col); err != nil {
			return nil, err
		}
		u, ok := byName[name]
		if !ok {
			u = &dialectUnique{Name: name}
			byName[name] = u
			order = append(order, name)
		}
		u.Columns = append(u.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]dialectUnique, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func (pgDialect) foreignKeys(ctx context.Context, db *sql.DB, schema, table string) ([]dialectForeignKey, error) {
	if schema == "" {
		schema = "public"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT con.conname,
		       a.attname AS local_column,
		       rt.relname AS remote_table,
		       ra.attname AS remote_column,
		       k.ord
		FROM pg_constraint con
		JOIN unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
		JOIN pg_class rt ON rt.oid = con.confrelid
		JOIN pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = con.confkey[k.ord]
		WHERE con.conrelid = (quote_ident($1) || '.' || quote_ident($2))::regclass
		  AND con.contype = 'f'
		ORDER BY con.conname, k.ord`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*dialectForeignKey{}
	var order []string
	for rows.Next() {
		var name, localCol, remoteTable, remoteCol string
		var ord int
		if err := rows.Scan(&name, &localCol, &remoteTable, &remoteCol, &ord); err != nil {
			return nil, err
		}
		fk, ok := byName[name]
		if !ok {
			fk = &dialectForeignKey{Name: name, RemoteTable: remoteTable}
			byName[name] = fk
			order = append(order, name)
		}
		fk.LocalColumns = append(fk.LocalColumns, localCol)
		fk.RemoteColumns = append(fk.RemoteColumns, remoteCol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]dialectForeignKey, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}
