package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/flip/config"
)

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir           string
	telemetryFile *os.File
	perfFile      *os.File
	bookmarkFile  *os.File

	// Track if headers have been written
	telemetryHeaderWritten bool
	perfHeaderWritten      bool
	bookmarkHeaderWritten  bool
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		name string
		dst  **os.File
	}{
		{"telemetry.csv", &om.telemetryFile},
		{"perf.csv", &om.perfFile},
		{"bookmarks.csv", &om.bookmarkFile},
	}
	for _, spec := range files {
		f, err := os.Create(filepath.Join(dir, spec.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", spec.name, err)
		}
		*spec.dst = f
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.telemetryFile, &om.telemetryHeaderWritten, []WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.perfFile, &om.perfHeaderWritten, []PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.bookmarkFile, &om.bookmarkHeaderWritten, []Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// appendCSV writes records to f, with a header row on the first call only.
func appendCSV[T any](f *os.File, headerWritten *bool, records []T) error {
	if *headerWritten {
		return gocsv.MarshalWithoutHeaders(records, f)
	}
	if err := gocsv.Marshal(records, f); err != nil {
		return err
	}
	*headerWritten = true
	return nil
}

// WriteSnapshot saves a snapshot under the snapshots/ subdirectory and
// returns its path.
func (om *OutputManager) WriteSnapshot(snap *Snapshot) (string, error) {
	if om == nil || snap == nil {
		return "", nil
	}
	return SaveSnapshot(snap, filepath.Join(om.dir, "snapshots"))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, f := range []**os.File{&om.telemetryFile, &om.perfFile, &om.bookmarkFile} {
		if *f == nil {
			continue
		}
		if err := (*f).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		*f = nil
	}
	return firstErr
}
