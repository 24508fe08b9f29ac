package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortHash(t *testing.T) {
	a := ShortHash("CQLK\x01\x01abc")
	assert.Len(t, a, 16)
	assert.Equal(t, a, ShortHash("CQLK\x01\x01abc"), "deterministic")
	assert.NotEqual(t, a, ShortHash("CQLK\x01\x01abd"))
	// sha256("") prefix
	assert.Equal(t, "e3b0c44298fc1c14", ShortHash(""))
}
