package catalogsql

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

func init() {
	register("mysql", mysqlDialect{})
}

type mysqlDialect struct{}

func (mysqlDialect) name() string { return "mysql" }

func (mysqlDialect) listTables(ctx context.Context, db *sql.DB, schema string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
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

func (mysqlDialect) columns(ctx context.Context, db *sql.DB, schema, table string) ([]dialectColumn, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES', COALESCE(column_default, ''), COALESCE(column_comment, '')
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ?
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

func (mysqlDialect) primaryKey(ctx context.Context, db *sql.DB, schema, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT k.column_name
		FROM information_schema.table_constraints t
		JOIN information_schema.key_column_usage k
		  ON k.constraint_name = t.constraint_name AND k.table_schema = t.table_schema AND k.table_name = t.table_name
		WHERE t.constraint_type = 'PRIMARY KEY'
		  AND t.table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND t.table_name = ?
		ORDER BY k.ordinal_position`, schema, table)
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

func (mysqlDialect) uniqueConstraints(ctx context.Context, db *sql.DB, schema, table string) ([]dialectUnique, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT t.constraint_name, k.column_name
		FROM information_schema.table_constraints t
		JOIN information_schema.key_column_usage k
		  ON k.constraint_name = t.constraint_name AND k.table_schema = t.table_schema AND k.table_name = t.table_name
		WHERE t.constraint_type = 'UNIQUE'
		  AND t.table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND t.table_name = ?
		ORDER BY t.constraint_name, k.ordinal_position`, schema, table)
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

func (mysqlDialect) foreignKeys(ctx context.Context, db *sql.DB, schema, table string) ([]dialectForeignKey, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT k.constraint_name, k.column_name, k.referenced_table_name, k.referenced_column_name
		FROM information_schema.key_column_usage k
		WHERE k.table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND k.table_name = ?
		  AND k.referenced_table_name IS NOT NULL
		ORDER BY k.constraint_name, k.ordinal_position`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*dialectForeignKey{}
	var order []string
	for rows.Next() {
		var name, localCol, remoteTable, remoteCol string
		if err := rows.Scan(&name, &localCol, &remoteTable, &remoteCol); err != nil {
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
