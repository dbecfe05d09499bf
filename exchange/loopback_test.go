package exchange

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Neumenon/bdoc/bdoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopback_StartsEmpty(t *testing.T) {
	ctx := context.Background()
	loop := NewLoopback()

	raw, err := loop.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, raw)

	state, err := loop.State(ctx)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestLoopback_SubmitStoresAndEchoes(t *testing.T) {
	ctx := context.Background()
	loop := NewLoopback()

	payload, err := bdoc.Encode(sampleDocument())
	require.NoError(t, err)

	echoed, err := loop.Submit(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, payload, echoed)

	stored, err := loop.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, stored)

	// Mutating returned bytes must not reach the stored state.
	stored[len(stored)-1] ^= 0xff
	again, err := loop.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, again)
}

func TestLoopback_RejectsMalformed(t *testing.T) {
	ctx := context.Background()
	loop := NewLoopback()

	require.NoError(t, loop.Save(ctx, []byte{0, 0, 0, 0}))

	err := loop.Save(ctx, []byte{5, 0, 0, 0, 0x7f})
	assert.ErrorIs(t, err, bdoc.ErrTruncated)

	// Rejected submissions leave the previous state in place.
	stored, err := loop.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, stored)
}

func TestLoopback_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoopback().Submit(ctx, []byte{0, 0, 0, 0})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = NewLoopback().Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.bdoc")
	store := FileStore{Path: path}

	raw, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, raw, "missing file means no state")

	loop := NewLoopback(WithStore(store))
	_, err = RoundTrip(ctx, loop, sampleDocument())
	require.NoError(t, err)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := bdoc.Encode(sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, want, onDisk)

	// A fresh loopback over the same file sees the saved state.
	state, err := NewLoopback(WithStore(store)).State(ctx)
	require.NoError(t, err)
	assert.True(t, state.Equal(sampleDocument()))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should be cleaned up")
}
