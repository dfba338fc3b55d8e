package xid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsPrefixedAndUnique(t *testing.T) {
	a := New("req")
	b := New("req")

	assert.True(t, strings.HasPrefix(a, "req-"))
	assert.NotEqual(t, a, b)
	assert.True(t, Accept(a))
}

func TestAccept(t *testing.T) {
	assert.True(t, Accept("abc-123_x.y"))
	assert.False(t, Accept(""))
	assert.False(t, Accept("has space"))
	assert.False(t, Accept("line\nbreak"))
	assert.False(t, Accept(strings.Repeat("a", 65)))
}
