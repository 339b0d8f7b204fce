package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashKeyIsStableAndOpaque(t *testing.T) {
	a := HashKey("sessionid=abc")
	assert.Equal(t, a, HashKey("sessionid=abc"))
	assert.NotEqual(t, a, HashKey("sessionid=abd"))
	assert.Len(t, a, 64)
	assert.NotContains(t, a, "abc")
}
