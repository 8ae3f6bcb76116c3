package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePosition(t *testing.T) {
	ix := openTestIndex(t)
	insertTestEntry(t, ix, "despacho_01")
	insertTestEntry(t, ix, "despacho_02")
	insertTestEntry(t, ix, "relatorio_final")

	entry, found, err := ix.Resolve("2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "despacho_02", entry.Identifier)

	// An out-of-range position with no name match resolves to nothing
	_, found, err = ix.Resolve("7")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResolveExactIdentifier(t *testing.T) {
	ix := openTestIndex(t)
	insertTestEntry(t, ix, "despacho_01")
	insertTestEntry(t, ix, "despacho_02")

	entry, found, err := ix.Resolve("despacho_02")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "despacho_02", entry.Identifier)
}

func TestResolveSubstring(t *testing.T) {
	ix := openTestIndex(t)
	insertTestEntry(t, ix, "despacho_01")
	insertTestEntry(t, ix, "relatorio_final")

	// Case-insensitive, matches identifier or original file name
	entry, found, err := ix.Resolve("RELATORIO")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "relatorio_final", entry.Identifier)

	entry, found, err = ix.Resolve("final.pdf")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "relatorio_final", entry.Identifier)
}

func TestResolvePositionBeatsName(t *testing.T) {
	ix := openTestIndex(t)
	insertTestEntry(t, ix, "2") // a document literally named "2"
	insertTestEntry(t, ix, "second")

	// Positional lookup wins over identifier matching
	entry, found, err := ix.Resolve("2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", entry.Identifier)

	// An out-of-range number still reaches the identifier rules
	entry, found, err = ix.Resolve("1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2", entry.Identifier) // position 1
}

func TestResolveDeterministic(t *testing.T) {
	ix := openTestIndex(t)
	insertTestEntry(t, ix, "despacho_01")
	insertTestEntry(t, ix, "despacho_02")

	// Repeated resolution against an unchanged index always yields the
	// same entry
	first, found, err := ix.Resolve("despacho")
	require.NoError(t, err)
	require.True(t, found)
	for i := 0; i < 5; i++ {
		again, found, err := ix.Resolve("despacho")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, first.Identifier, again.Identifier)
	}
	assert.Equal(t, "despacho_01", first.Identifier)
}

func TestResolveNotFound(t *testing.T) {
	ix := openTestIndex(t)
	insertTestEntry(t, ix, "despacho_01")

	entry, found, err := ix.Resolve("nonexistent")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, entry)
}
