package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategy_Order(t *testing.T) {
	all := Strategies()
	require.Len(t, all, 5)

	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.String()
	}
	assert.Equal(t, []string{"semantic", "user_delimiter", "special", "builtin_delimiter", "recursive_text"}, names)

	for i := 0; i < len(all)-1; i++ {
		next, ok := all[i].Next()
		require.True(t, ok)
		assert.Equal(t, all[i+1], next)
		assert.False(t, all[i].Terminal())
	}

	_, ok := StrategyRecursiveText.Next()
	assert.False(t, ok)
	assert.True(t, StrategyRecursiveText.Terminal())
}

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies() {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseStrategy(" Builtin_Delimiter ")
	require.NoError(t, err)
	assert.Equal(t, StrategyBuiltinDelimiter, got)

	_, err = ParseStrategy("regex")
	assert.Error(t, err)
	assert.Equal(t, "strategy(9)", Strategy(9).String())
}

func TestRegistry_Get(t *testing.T) {
	reg := &Registry{}
	_, ok := reg.Get(StrategySpecial)
	assert.False(t, ok)

	reg.Register(StrategySpecial, NewSpecialChunker(100, 20))
	impl, ok := reg.Get(StrategySpecial)
	require.True(t, ok)
	assert.IsType(t, &SpecialChunker{}, impl)

	reg.Register(Strategy(42), NewSpecialChunker(100, 20))
	_, ok = reg.Get(Strategy(42))
	assert.False(t, ok)
}

func TestContentBudget(t *testing.T) {
	assert.Equal(t, 386, contentBudget(450))
	assert.Equal(t, 5, contentBudget(10))
	assert.Equal(t, 1, contentBudget(1))
}

func TestHeadline(t *testing.T) {
	assert.Equal(t, "func a() {", headline("\n\n  func a() {\n}", 80))
	assert.Equal(t, "abc", headline("abcdef", 3))
	assert.Equal(t, "", headline(" \n\t\n", 10))
}
