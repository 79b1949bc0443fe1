package httpmiddleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowExhaustsCapacity(t *testing.T) {
	l := NewSimpleTokenBucket(3, 3)

	assert.True(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("1.2.3.4"))
	assert.False(t, l.allow("1.2.3.4"))

	// Other clients are tracked independently.
	assert.True(t, l.allow("5.6.7.8"))
}

func TestZeroCapacityFallsBackToRate(t *testing.T) {
	l := NewSimpleTokenBucket(0, 2)
	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
}
