package presentation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportEntriesXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.xlsx")
	require.NoError(t, ExportEntriesXLSX(sampleEntries(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Cache")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Identifier", rows[0][1])
	assert.Equal(t, "despacho_41", rows[1][1])
	assert.Equal(t, "relatorio_final", rows[2][1])
	assert.Equal(t, "ultra", rows[2][5])
}

func TestExportEntriesXLSXEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, ExportEntriesXLSX(nil, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Cache")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
