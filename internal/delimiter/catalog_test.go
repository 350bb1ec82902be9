package delimiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gochunk-mcp/pkg/types"
)

func TestCatalog_CustomLanguage(t *testing.T) {
	c, err := NewCatalogBuilder().MapLanguage("Starlet", PythonStyle).Build()
	require.NoError(t, err)

	assert.Equal(t, PythonStyle, c.Family("starlet"))
	assert.True(t, c.Known("starlet"))
	assert.Equal(t, CStyle, c.Family("go"))

	found := false
	for _, d := range c.BuiltinDelimiters("starlet") {
		if d.Start == "def" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCatalog_RegisterCustomChunker(t *testing.T) {
	c, err := NewCatalogBuilder().
		RegisterCustomChunker("jinja", Delimiter{Start: "{%", End: "%}", Kind: KindBlock}).
		RegisterCustomChunker("jinja", Delimiter{Start: "{#", End: "#}", Kind: KindCommentBlock, Priority: 60}).
		Build()
	require.NoError(t, err)

	assert.True(t, c.HasUserDelimiters("Jinja"))
	assert.False(t, c.HasUserDelimiters("python"))

	user := c.UserDelimiters("jinja")
	require.Len(t, user, 2)
	assert.Equal(t, uint32(60), user[0].Priority)
	assert.Equal(t, KindBlock.DefaultPriority(), user[1].Priority)

	s, err := c.UserScanner("jinja")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	again, err := c.UserScanner("jinja")
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestCatalog_InvalidDelimiter(t *testing.T) {
	_, err := NewCatalogBuilder().
		RegisterCustomChunker("foo", Delimiter{Start: "", End: "x", Kind: KindBlock}).
		Build()
	require.Error(t, err)

	var ce *types.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "custom_delimiters[foo][0]", ce.Field)

	_, err = NewCatalogBuilder().
		RegisterCustomChunker("foo", Delimiter{Start: "x", Kind: KindBlock, Priority: 150}).
		Build()
	require.ErrorAs(t, err, &ce)
}

func TestCatalog_InvalidFamily(t *testing.T) {
	_, err := NewCatalogBuilder().MapLanguage("foo", Family("bogus")).Build()
	var ce *types.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "custom_languages[foo]", ce.Field)
}
