package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSearchOffset(t *testing.T) {
	// A full page continues from where it left off.
	next := NextSearchOffset(0, 10, 10)
	assert.NotNil(t, next)
	assert.Equal(t, 10, *next)

	next = NextSearchOffset(20, 10, 10)
	assert.NotNil(t, next)
	assert.Equal(t, 30, *next)

	// A short page means the source is exhausted.
	assert.Nil(t, NextSearchOffset(20, 7, 10))
	assert.Nil(t, NextSearchOffset(0, 0, 10))
}
