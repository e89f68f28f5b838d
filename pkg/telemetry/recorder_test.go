package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parquetFiles(t *testing.T, dir string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "turns_*.parquet"))
	require.NoError(t, err)
	return files
}

func TestRecorderCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "telemetry")

	_, err := NewRecorder(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRecorderBuffersUntilFlush(t *testing.T) {
	dir := t.TempDir()
	recorder, err := NewRecorder(dir)
	require.NoError(t, err)

	require.NoError(t, recorder.Record(TurnRecord{Query: "who knows go", Intent: "find_people"}))
	assert.Empty(t, parquetFiles(t, dir), "single record stays buffered")

	require.NoError(t, recorder.Flush())
	files := parquetFiles(t, dir)
	require.Len(t, files, 1)

	rows, err := parquet.ReadFile[TurnRecord](files[0])
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "who knows go", rows[0].Query)
	assert.Equal(t, "find_people", rows[0].Intent)
	assert.NotEmpty(t, rows[0].ID, "missing id is generated")
	assert.False(t, rows[0].Timestamp.IsZero(), "missing timestamp is stamped")
}

func TestRecorderFlushesFullBatch(t *testing.T) {
	dir := t.TempDir()
	recorder, err := NewRecorder(dir)
	require.NoError(t, err)
	recorder.batchSize = 3

	for i := 0; i < 3; i++ {
		require.NoError(t, recorder.Record(TurnRecord{Query: "q"}))
	}

	files := parquetFiles(t, dir)
	require.Len(t, files, 1, "hitting the batch size flushes without Close")

	rows, err := parquet.ReadFile[TurnRecord](files[0])
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestRecorderFlushEmptyIsNoop(t *testing.T) {
	dir := t.TempDir()
	recorder, err := NewRecorder(dir)
	require.NoError(t, err)

	require.NoError(t, recorder.Flush())
	assert.Empty(t, parquetFiles(t, dir))
}

func TestRecorderClose(t *testing.T) {
	dir := t.TempDir()
	recorder, err := NewRecorder(dir)
	require.NoError(t, err)

	require.NoError(t, recorder.Record(TurnRecord{Query: "q"}))
	require.NoError(t, recorder.Close())
	assert.Len(t, parquetFiles(t, dir), 1)
}
