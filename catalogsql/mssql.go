package catalogsql

import (
	"context"
	"database/sql"

	_ "github.com/denisenkom/go-mssqldb"
)

func init() {
	register("sqlserver", mssqlDialect{})
	register("mssql", mssqlDialect{})
}

type mssqlDialect struct{}

func (mssqlDialect) name() string { return "mssql" }

func (mssqlDialect) listTables(ctx context.Context, db *sql.DB, schema string) ([]string, error) {
	if schema == "" {
		schema = "dbo"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = @p1
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

func (mssqlDialect) columns(ctx context.Context, db *sql.DB, schema, table string) ([]dialectColumn, error) {
	if schema == "" {
		schema = "dbo"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT c.column_name, c.data_type, c.is_nullable = 'YES',
		       COALESCE(c.column_default, ''),
		       COALESCE(CAST(ep.value AS nvarchar(max)), '')
		FROM information_schema.columns c
		LEFT JOIN sys.extended_properties ep
		  ON ep.major_id = OBJECT_ID(QUOTENAME(c.table_schema) + '.' + QUOTENAME(c.table_name))
		 AND ep.minor_id = COLUMNPROPERTY(ep.major_id, c.column_name, 'ColumnId')
		 AND ep.name = 'MS_Description'
		WHERE c.table_schema = @p1 AND c.table_name = @p2
		ORDER BY c.ordinal_position`, schema, table)
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

func (mssqlDialect) primaryKey(ctx context.Context, db *sql.DB, schema, table string) ([]string, error) {
	if schema == "" {
		schema = "dbo"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT k.column_name
		FROM information_schema.table_constraints t
		JOIN information_schema.key_column_usage k
		  ON k.constraint_name = t.constraint_name AND k.table_schema = t.table_schema AND k.table_name = t.table_name
		WHERE t.constraint_type = 'PRIMARY KEY'
		  AND t.table_schema = @p1 AND t.table_name = @p2
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

func (mssqlDialect) uniqueConstraints(ctx context.Context, db *sql.DB, schema, table string) ([]dialectUnique, error) {
	if schema == "" {
		schema = "dbo"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT t.constraint_name, k.column_name
		FROM information_schema.table_constraints t
		JOIN information_schema.key_column_usage k
		  ON k.constraint_name = t.constraint_name AND k.table_schema = t.table_schema AND k.table_name = t.table_name
		WHERE t.constraint_type = 'UNIQUE'
		  AND t.table_schema = @p1 AND t.table_name = @p2
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

func (mssqlDialect) foreignKeys(ctx context.Context, db *sql.DB, schema, table string) ([]dialectForeignKey, error) {
	if schema == "" {
		schema = "dbo"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT fk.name, lc.name AS local_column, rt.name AS remote_table, rc.name AS remote_column, fkc.constraint_column_id
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.columns lc ON lc.object_id = fkc.parent_object_id AND lc.column_id = fkc.parent_column_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		JOIN sys.tables lt ON lt.object_id = fk.parent_object_id
		JOIN sys.tables rt ON rt.object_id = fk.referenced_object_id
		JOIN sys.schemas s ON s.schema_id = lt.schema_id
		WHERE s.name = @p1 AND lt.name = @p2
		ORDER BY fk.name, fkc.constraint_column_id`, schema, table)
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
