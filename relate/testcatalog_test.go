package relate

import (
	"context"

	"github.com/turnkey-commerce/relinfer/catalog"
)

// fakeCatalog is a small in-memory catalog.Catalog used by this package's
// tests; it plays the role the teacher repo's models package plays for raw
// database rows, except entirely in memory.
type fakeCatalog struct {
	tables      map[string]*catalog.Table
	order       []string
	foreignKeys map[string][]*catalog.ForeignKey
	methods     map[string]bool
	dumpFiles   map[string]string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		tables:      map[string]*catalog.Table{},
		foreignKeys: map[string][]*catalog.ForeignKey{},
		methods:     map[string]bool{},
		dumpFiles:   map[string]string{},
	}
}

func (f *fakeCatalog) addTable(t *catalog.Table) {
	f.tables[t.RawName] = t
	f.order = append(f.order, t.RawName)
}

func (f *fakeCatalog) addFK(fk *catalog.ForeignKey) {
	f.foreignKeys[fk.LocalTable] = append(f.foreignKeys[fk.LocalTable], fk)
}

func (f *fakeCatalog) ListTables(ctx context.Context) ([]string, error) {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out, nil
}

func (f *fakeCatalog) DescribeTable(ctx context.Context, rawName string) (*catalog.Table, error) {
	return f.tables[rawName], nil
}

func (f *fakeCatalog) ForeignKeys(ctx context.Context, rawName string) ([]*catalog.ForeignKey, error) {
	return f.foreignKeys[rawName], nil
}

func (f *fakeCatalog) IsResultClassMethod(name, moniker string) bool {
	return f.methods[name]
}

func (f *fakeCatalog) GetDumpFilename(moniker string) (string, bool) {
	p, ok := f.dumpFiles[moniker]
	return p, ok
}

func col(name string, nullable bool) *catalog.Column {
	return &catalog.Column{Name: name, Nullable: nullable, TypeHint: "text"}
}
