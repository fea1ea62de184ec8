package upload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStore_PutGetRoundTrip(t *testing.T) {
	s := NewMemoryObjectStore()
	ctx := context.Background()

	key, err := s.Put(ctx, []byte("hello contract"))
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "hello contract", string(got))
}

func TestMemoryObjectStore_GetMissingKeyFails(t *testing.T) {
	s := NewMemoryObjectStore()
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
