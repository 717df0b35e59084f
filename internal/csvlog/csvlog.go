package csvlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yuya-takeyama/strict-dedup/pkg/executor"
)

// header is the fixed column set, in order. Consumers parse by position.
var header = []string{
	"GROUP_ID",
	"ACTION",
	"ORIGINAL_PATH",
	"DEST_PATH",
	"KEEPER_PATH",
	"GROUP_SIZE",
	"RECLAIMABLE",
	"HASH",
	"ERROR",
}

// DefaultPath returns the audit log location for a run starting at now. Wet
// runs place it inside the move directory so the audit trail travels with
// the relocated files.
func DefaultPath(moveDir string, mode executor.Mode, now time.Time) string {
	name := fmt.Sprintf("dupes-%s.csv", now.Format("20060102-150405"))
	if mode == executor.ModeWet {
		return filepath.Join(moveDir, name)
	}
	return name
}

// Writer writes one audit row per processed file.
type Writer struct {
	path string
	file *os.File
	csv  *csv.Writer
}

// NewWriter creates the audit log at path and writes the header row.
func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create audit log: %w", err)
	}

	w := &Writer{path: path, file: file, csv: csv.NewWriter(file)}
	if err := w.csv.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("write audit header: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		file.Close()
		return nil, fmt.Errorf("write audit header: %w", err)
	}
	return w, nil
}

// Path returns where the audit log is being written.
func (w *Writer) Path() string {
	return w.path
}

// WriteResult appends the row for one executed item. Keepers are logged with
// action "keep"; failed items carry the error detail and no destination.
// Each row is flushed as it is written, so an interrupted run keeps the
// rows for every file it finished.
func (w *Writer) WriteResult(res executor.Result) error {
	errDetail := ""
	if res.Err != nil {
		errDetail = res.Err.Error()
	}

	row := []string{
		strconv.Itoa(res.Item.GroupID),
		string(res.Action),
		res.Item.Path,
		res.DestPath,
		res.Item.KeeperPath,
		strconv.FormatInt(res.Item.GroupSize, 10),
		strconv.FormatInt(res.Item.Reclaimable, 10),
		res.Item.Hash,
		errDetail,
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("write audit row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("write audit row: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush audit log: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close audit log: %w", err)
	}
	return nil
}
