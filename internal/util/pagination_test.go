package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}

func TestCalculate(t *testing.T) {
	offset, limit := Calculate(0, 0)
	assert.Equal(t, 0, offset)
	assert.Equal(t, DefaultPageSize, limit)

	offset, limit = Calculate(3, 10)
	assert.Equal(t, 20, offset)
	assert.Equal(t, 10, limit)

	_, limit = Calculate(1, 1000)
	assert.Equal(t, MaxPageSize, limit)
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(2, 10, 10, 25)
	assert.Equal(t, int64(3), m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)

	m = NewMeta(3, 20, 10, 25)
	assert.False(t, m.HasNext)
}
