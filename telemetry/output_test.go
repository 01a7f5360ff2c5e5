package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	assert.Nil(t, om)

	// A nil manager swallows every write.
	assert.NoError(t, om.WriteTelemetry(WindowStats{}))
	assert.NoError(t, om.WriteBookmark(Bookmark{}))
	assert.NoError(t, om.WritePerf(PerfStats{}, 0))
	assert.Equal(t, "", om.Dir())
	assert.NoError(t, om.Close())
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	require.NoError(t, err)

	require.NoError(t, om.WriteTelemetry(WindowStats{WindowEndTick: 120, Particles: 10}))
	require.NoError(t, om.WriteTelemetry(WindowStats{WindowEndTick: 240, Particles: 12}))
	require.NoError(t, om.WriteBookmark(Bookmark{Type: BookmarkSettled, Tick: 240, Description: "rest"}))
	require.NoError(t, om.Close())

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "window_end,sim_time,particles"))
	assert.True(t, strings.HasPrefix(lines[1], "120,"))
	assert.True(t, strings.HasPrefix(lines[2], "240,"))

	data, err = os.ReadFile(filepath.Join(dir, "bookmarks.csv"))
	require.NoError(t, err)
	assert.Equal(t, "type,tick,description\nsettled,240,rest\n", string(data))
}

func TestOutputManagerSnapshot(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	require.NoError(t, err)
	defer om.Close()

	path, err := om.WriteSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 7})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "snapshots", "snapshot_7.json"), path)
}
