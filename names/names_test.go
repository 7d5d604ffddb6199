package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"fooID3bar", []string{"foo", "id", "3", "bar"}},
		{"user_id", []string{"user", "id"}},
		{"FooBar", []string{"foo", "bar"}},
		{"HTTPServer", []string{"http", "server"}},
		{"order_line", []string{"order", "line"}},
		{"book", []string{"book"}},
		{"", nil},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, Split(c.in), "Split(%q)", c.in)
	}
}

func TestSanitizeSchemaPrefix(t *testing.T) {
	assert.Equal(t, "book", Sanitize("public.book", false))
	assert.Equal(t, "book", Sanitize("book", false))
}

func TestSanitizeQuoted(t *testing.T) {
	assert.Equal(t, "weird_table_name", Sanitize("weird table-name", true))
	assert.Equal(t, "a_b", Sanitize("a!!b", true))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "order_line", Normalize("OrderLine", false))
	assert.Equal(t, "foo_id_3_bar", Normalize("fooID3bar", false))
	assert.Equal(t, "book", Normalize("public.book", false))
}
