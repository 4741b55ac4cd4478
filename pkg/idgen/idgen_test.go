package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionalMessageId(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := ProvisionalMessageId()
		assert.True(t, IsProvisional(id))
		assert.False(t, seen[id], "provisional ids must not repeat")
		seen[id] = true
	}
}

func TestIsProvisional(t *testing.T) {
	assert.True(t, IsProvisional("temp_1700000000000_ab12cd34"))
	assert.False(t, IsProvisional("m99"))
	assert.False(t, IsProvisional(""))
}

func TestOperationId(t *testing.T) {
	a := OperationId()
	b := OperationId()
	require.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestSonyflakeGenerator(t *testing.T) {
	gen, err := NewSonyflakeGenerator(1)
	require.NoError(t, err)

	a, err := gen.NextID()
	require.NoError(t, err)
	b, err := gen.NextID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
