package csvlog

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuya-takeyama/strict-dedup/pkg/executor"
	"github.com/yuya-takeyama/strict-dedup/pkg/planner"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.csv")

	w, err := NewWriter(path)
	require.NoError(t, err)
	assert.Equal(t, path, w.Path())

	group := planner.Item{
		GroupID:     1,
		Path:        "/data/a.txt",
		KeeperPath:  "/data/a.txt",
		Size:        100,
		GroupSize:   300,
		Reclaimable: 200,
		Hash:        "aaaa",
	}

	keeper := executor.Result{Item: group, Action: executor.ResultKeep}

	moved := executor.Result{Item: group, Action: executor.ResultMoved, DestPath: "/quarantine/b.txt"}
	moved.Item.Path = "/data/b.txt"

	failed := executor.Result{Item: group, Action: executor.ResultError, Err: errors.New("unlink source: permission denied")}
	failed.Item.Path = "/data/c.txt"

	require.NoError(t, w.WriteResult(keeper))
	require.NoError(t, w.WriteResult(moved))
	require.NoError(t, w.WriteResult(failed))
	require.NoError(t, w.Close())

	rows := readAll(t, path)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{
		"GROUP_ID", "ACTION", "ORIGINAL_PATH", "DEST_PATH", "KEEPER_PATH",
		"GROUP_SIZE", "RECLAIMABLE", "HASH", "ERROR",
	}, rows[0])

	assert.Equal(t, []string{"1", "keep", "/data/a.txt", "", "/data/a.txt", "300", "200", "aaaa", ""}, rows[1])
	assert.Equal(t, []string{"1", "moved", "/data/b.txt", "/quarantine/b.txt", "/data/a.txt", "300", "200", "aaaa", ""}, rows[2])
	assert.Equal(t, []string{"1", "error", "/data/c.txt", "", "/data/a.txt", "300", "200", "aaaa", "unlink source: permission denied"}, rows[3])
}

func TestWriterQuotesAwkwardPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.csv")
	w, err := NewWriter(path)
	require.NoError(t, err)

	// Commas and quotes in paths must survive the round trip.
	awkward := `/data/report, "final" draft.txt`
	res := executor.Result{
		Item:     planner.Item{GroupID: 2, Path: awkward, KeeperPath: "/data/keep.txt", GroupSize: 10, Reclaimable: 5, Hash: "bb"},
		Action:   executor.ResultWouldMove,
		DestPath: `/quarantine/report, "final" draft.txt`,
	}
	require.NoError(t, w.WriteResult(res))
	require.NoError(t, w.Close())

	rows := readAll(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, awkward, rows[1][2])
	assert.Equal(t, `/quarantine/report, "final" draft.txt`, rows[1][3])
}

func TestDefaultPath(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	dry := DefaultPath("/quarantine", executor.ModeDryRun, now)
	assert.Equal(t, "dupes-20250314-092653.csv", dry)

	wet := DefaultPath("/quarantine", executor.ModeWet, now)
	assert.Equal(t, filepath.Join("/quarantine", "dupes-20250314-092653.csv"), wet)
}

func TestNewWriterFailsWhenDirMissing(t *testing.T) {
	_, err := NewWriter(filepath.Join(t.TempDir(), "missing", "audit.csv"))
	require.Error(t, err)
}

func TestWriterPersistsRowsBeforeClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.csv")
	w, err := NewWriter(path)
	require.NoError(t, err)
	defer w.Close()

	res := executor.Result{
		Item:     planner.Item{GroupID: 1, Path: "/data/a.txt", KeeperPath: "/data/keep.txt", GroupSize: 4, Reclaimable: 2, Hash: "cc"},
		Action:   executor.ResultMoved,
		DestPath: "/quarantine/a.txt",
	}
	require.NoError(t, w.WriteResult(res))

	// The row must already be on disk, not sitting in a buffer.
	rows := readAll(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "moved", rows[1][1])
}
