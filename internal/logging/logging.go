package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultMaxSizeMB = 100

// Options selects where and how diagnostic logs are written.
type Options struct {
	// Level is a zerolog level name. The CLI resolves --quiet and
	// --verbose to "error" and "debug" before building the logger.
	Level string

	// JSON switches the console stream from human-readable lines to one
	// JSON object per line.
	JSON bool

	// FilePath, when set, adds a rotating file sink next to the console.
	FilePath string

	// MaxSizeMB and MaxBackups bound the rotating sink.
	MaxSizeMB  int
	MaxBackups int

	NoColor bool
}

// New builds the process logger. Diagnostics go to stderr so stdout stays
// reserved for the run report and JSON artifacts.
func New(opts Options) (zerolog.Logger, error) {
	levelStr := strings.ToLower(opts.Level)
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var console io.Writer = os.Stderr
	if !opts.JSON {
		console = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    opts.NoColor,
		}
	}

	writers := []io.Writer{console}
	if opts.FilePath != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = defaultMaxSizeMB
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
			LocalTime:  true,
		})
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(level)
	return logger, nil
}

// Summary aggregates one run for the final report.
type Summary struct {
	DryRun       bool
	Scanned      int
	Warnings     int
	HashedFiles  int64
	HashedBytes  int64
	Groups       int
	GroupedFiles int
	Reclaimable  int64
	Moved        int
	Errors       int
	AuditLog     string
	Duration     time.Duration
}

// PrintSummary writes the human run report to w.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Summary ===")

	fmt.Fprintf(w, "Scanned: %d files", s.Scanned)
	if s.Warnings > 0 {
		fmt.Fprintf(w, " (%d warnings)", s.Warnings)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Hashed: %d files (%s)\n", s.HashedFiles, humanize.IBytes(uint64(s.HashedBytes)))
	fmt.Fprintf(w, "Duplicate groups: %d (%d files)\n", s.Groups, s.GroupedFiles)
	fmt.Fprintf(w, "Reclaimable: %s\n", humanize.IBytes(uint64(s.Reclaimable)))

	if s.DryRun {
		fmt.Fprintf(w, "Would move: %d files (dry run, nothing touched)\n", s.Moved)
	} else {
		fmt.Fprintf(w, "Moved: %d files\n", s.Moved)
	}
	if s.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	}
	if s.AuditLog != "" {
		fmt.Fprintf(w, "Audit log: %s\n", s.AuditLog)
	}
	fmt.Fprintf(w, "Duration: %s\n", s.Duration.Round(time.Millisecond))
}
