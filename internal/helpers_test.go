package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertParam(t *testing.T) {
	t.Parallel()

	s, ok := convertParam[string]("abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", s)

	i, ok := convertParam[int]("42")
	assert.True(t, ok)
	assert.Equal(t, 42, i)

	i64, ok := convertParam[int64]("9000000000")
	assert.True(t, ok)
	assert.Equal(t, int64(9000000000), i64)

	f, ok := convertParam[float64]("1.5")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, f, 0)

	b, ok := convertParam[bool]("true")
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = convertParam[int]("x")
	assert.False(t, ok)
	_, ok = convertParam[bool]("maybe")
	assert.False(t, ok)
}
