package moniker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnkey-commerce/relinfer/catalog"
)

func tbl(raw string) *catalog.Table {
	return &catalog.Table{RawName: raw, SanitizedName: sanitizedOf(raw)}
}

// sanitizedOf mimics the schema-prefix-stripping branch of Sanitize for
// test fixtures without importing the names package's internal behavior
// twice.
func sanitizedOf(raw string) string {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '.' {
			return raw[i+1:]
		}
	}
	return raw
}

func TestDefaultCamelizesAndSingularizes(t *testing.T) {
	m := New(Options{})
	got, mapped := m.Default(tbl("books"))
	assert.False(t, mapped)
	assert.Equal(t, "Book", got)
}

func TestDefaultMultiWord(t *testing.T) {
	m := New(Options{})
	got, _ := m.Default(tbl("order_lines"))
	assert.Equal(t, "OrderLine", got)
}

func TestMonikerMapOverride(t *testing.T) {
	m := New(Options{Map: map[string]string{"book": "Publication"}})
	got, mapped := m.Default(tbl("book"))
	assert.True(t, mapped)
	assert.Equal(t, "Publication", got)
}

func TestMonikerFuncEmptyFallsThrough(t *testing.T) {
	m := New(Options{Func: func(string) string { return "" }})
	got, mapped := m.Default(tbl("book"))
	assert.False(t, mapped)
	assert.Equal(t, "Book", got)
}

func TestAssignAllLeavesDistinctMonikersAlone(t *testing.T) {
	m := New(Options{})
	tables := []*catalog.Table{
		tbl("book"),
		tbl("books_archive"), // unrelated, won't collide
	}
	result, err := m.AssignAll(tables)
	require.NoError(t, err)
	assert.Equal(t, "Book", result["book"])
	assert.NotEqual(t, result["book"], result["books_archive"])
}

func TestAssignAllResolvesCollisionWithSchemaQualifier(t *testing.T) {
	m := New(Options{})
	tables := []*catalog.Table{
		tbl("book"),
		tbl("archive.book"),
	}
	result, err := m.AssignAll(tables)
	require.NoError(t, err)
	assert.Equal(t, "Book", result["book"])
	assert.Equal(t, "ArchiveBook", result["archive.book"])
}

func TestAssignAllFallsBackToNumericSuffixWithoutSchema(t *testing.T) {
	m := New(Options{})
	tables := []*catalog.Table{
		tbl("book"),
		tbl("books"),
	}
	result, err := m.AssignAll(tables)
	require.NoError(t, err)
	assert.Equal(t, "Book", result["book"])
	assert.Equal(t, "Book_2", result["books"])
}
