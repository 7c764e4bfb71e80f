package trainer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, dir string) [][]string {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, CSVFileName))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVLoggerWithValidation(t *testing.T) {
	dir := t.TempDir()
	l, err := NewCSVLogger(dir, true)
	require.NoError(t, err)
	require.NoError(t, l.Log(0, 0.91, 0.35, 0.1, 0.89, 0.4))
	require.NoError(t, l.Log(1, 0.95, 0.2, 0.1, 0.92, 0.3))
	require.NoError(t, l.Close())

	rows := readCSV(t, dir)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"epoch", "accuracy", "loss", "lr", "val_accuracy", "val_loss"}, rows[0])
	assert.Equal(t, []string{"0", "0.91", "0.35", "0.1", "0.89", "0.4"}, rows[1])
	assert.Equal(t, []string{"1", "0.95", "0.2", "0.1", "0.92", "0.3"}, rows[2])
}

func TestCSVLoggerWithoutValidation(t *testing.T) {
	dir := t.TempDir()
	l, err := NewCSVLogger(dir, false)
	require.NoError(t, err)
	// The validation values are ignored without the columns.
	require.NoError(t, l.Log(0, 0.91, 0.35, 0.001, 0.5, 0.5))
	require.NoError(t, l.Close())

	rows := readCSV(t, dir)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"epoch", "accuracy", "loss", "lr"}, rows[0])
	assert.Equal(t, []string{"0", "0.91", "0.35", "0.001"}, rows[1])
}

func TestCSVLoggerAppends(t *testing.T) {
	dir := t.TempDir()
	l, err := NewCSVLogger(dir, true)
	require.NoError(t, err)
	require.NoError(t, l.Log(0, 0.9, 0.4, 0.1, 0.88, 0.45))
	require.NoError(t, l.Close())

	// Reopening over the same directory appends without a second header.
	l, err = NewCSVLogger(dir, true)
	require.NoError(t, err)
	require.NoError(t, l.Log(1, 0.93, 0.3, 0.1, 0.9, 0.38))
	require.NoError(t, l.Close())

	rows := readCSV(t, dir)
	require.Len(t, rows, 3)
	assert.Equal(t, "epoch", rows[0][0])
	assert.Equal(t, "0", rows[1][0])
	assert.Equal(t, "1", rows[2][0])
}
