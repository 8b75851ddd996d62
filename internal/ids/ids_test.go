package ids

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ParsesAsULID(t *testing.T) {
	id := New()
	_, err := ulid.Parse(id)
	require.NoError(t, err)
}

func TestNew_Monotonic(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		assert.Greater(t, next, prev)
		prev = next
	}
}
