package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuya-takeyama/strict-dedup/internal/config"
	"github.com/yuya-takeyama/strict-dedup/internal/csvlog"
	"github.com/yuya-takeyama/strict-dedup/internal/logging"
	"github.com/yuya-takeyama/strict-dedup/internal/walker"
	"github.com/yuya-takeyama/strict-dedup/pkg/checksum"
	"github.com/yuya-takeyama/strict-dedup/pkg/executor"
	"github.com/yuya-takeyama/strict-dedup/pkg/logger"
	"github.com/yuya-takeyama/strict-dedup/pkg/planner"
	"github.com/yuya-takeyama/strict-dedup/pkg/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

var (
	moveDir        string
	wet            bool
	yesReally      bool
	keeper         string
	strict         bool
	excludes       []string
	auditLogFile   string
	planJSONFile   string
	resultJSONFile string
	parallelism    int
	quiet          bool
	verbose        bool
	configFile     string
)

// PlanResult represents the planned operations before execution
type PlanResult struct {
	Files   []PlanFile  `json:"files"`
	Summary PlanSummary `json:"summary"`
}

type PlanFile struct {
	Group       int    `json:"group"`
	Action      string `json:"action"` // "keep", "move"
	Path        string `json:"path"`
	Keeper      string `json:"keeper"`
	Size        int64  `json:"size"`
	GroupSize   int64  `json:"group_size"`
	Reclaimable int64  `json:"reclaimable"`
	Hash        string `json:"hash"`
	Reason      string `json:"reason"`
}

type PlanSummary struct {
	Groups           int   `json:"groups"`
	Keep             int   `json:"keep"`
	Move             int   `json:"move"`
	ReclaimableBytes int64 `json:"reclaimable_bytes"`
}

// RunResult represents the actual execution results
type RunResult struct {
	Files   []ResultFile  `json:"files"`
	Errors  []ErrorFile   `json:"errors"`
	Summary ResultSummary `json:"summary"`
}

type ResultFile struct {
	Group  int    `json:"group"`
	Action string `json:"action"` // "keep", "moved", "would-move"
	Source string `json:"source"`
	Dest   string `json:"dest,omitempty"`
}

type ErrorFile struct {
	Group  int    `json:"group"`
	Source string `json:"source"`
	Error  string `json:"error"`
}

type ResultSummary struct {
	Kept      int `json:"kept"`
	Moved     int `json:"moved"`
	WouldMove int `json:"would_move"`
	Failed    int `json:"failed"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the CLI command and rebinds every flag to its default.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "strict-dedup <RootDir>",
		Short: "Duplicate file detector with verified, reversible relocation",
		Long: `strict-dedup finds files with identical content under a directory tree and
moves all but one of each set into a quarantine directory.

Duplicates are detected by size partitioning followed by content hashing.
Nothing is modified unless --wet, --yes-really and STRICT_DEDUP_CONFIRM=YES
are all given; the default is a dry run that only reports what would move.`,
		Version:      fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:         cobra.ExactArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&moveDir, "move-dir", "", "Directory to move duplicates into (default: .strict-dedup-quarantine/<timestamp> under the root)")
	rootCmd.Flags().BoolVar(&wet, "wet", false, "Actually move files (default is a dry run)")
	rootCmd.Flags().BoolVar(&yesReally, "yes-really", false, "Confirm wet mode (required together with --wet and STRICT_DEDUP_CONFIRM=YES)")
	rootCmd.Flags().StringVar(&keeper, "keeper", config.DefaultKeeper, "Keeper strategy: first, oldest, newest or longest")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "Re-read and re-hash each destination before unlinking its source")
	rootCmd.Flags().StringArrayVar(&excludes, "exclude", nil, "Exclude pattern, trailing / excludes a directory subtree (multiple allowed)")
	rootCmd.Flags().StringVar(&auditLogFile, "log", "", "CSV audit log path (default: dupes-<timestamp>.csv)")
	rootCmd.Flags().StringVar(&planJSONFile, "plan-json-file", "", "Path to output plan as JSON file")
	rootCmd.Flags().StringVar(&resultJSONFile, "result-json-file", "", "Path to output result as JSON file")
	rootCmd.Flags().IntVar(&parallelism, "parallelism", 0, "Concurrent hash workers (default: number of CPUs)")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress non-error output")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Log per-item progress and debug detail")
	rootCmd.Flags().StringVar(&configFile, "config", "", "Path to strict-dedup.yaml")

	return rootCmd
}

func run(cmd *cobra.Command, args []string) error {
	start := time.Now()

	if quiet && verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	// Flags override the file.
	if cmd.Flags().Changed("move-dir") {
		cfg.MoveDir = moveDir
	}
	if cmd.Flags().Changed("keeper") {
		cfg.Keeper = keeper
	}
	if cmd.Flags().Changed("parallelism") {
		cfg.Parallelism = parallelism
	}
	if strict {
		cfg.StrictVerify = true
	}
	cfg.Excludes = append(cfg.Excludes, excludes...)

	// Everything that can fail does so before the scan starts.
	strategy, err := planner.ParseStrategy(cfg.Keeper)
	if err != nil {
		return err
	}
	algo, err := checksum.ParseAlgorithm(cfg.Hash)
	if err != nil {
		return err
	}
	mode, err := config.ResolveMode(wet, yesReally)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if quiet {
		level = "error"
	}
	if verbose {
		level = "debug"
	}
	zlog, err := logging.New(logging.Options{
		Level:      level,
		JSON:       strings.EqualFold(cfg.Log.Format, "json"),
		FilePath:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return err
	}

	absRoot, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}

	defaulted := cfg.MoveDir == ""
	if defaulted {
		cfg.MoveDir = config.DefaultMoveDir(absRoot, start)
	}
	absMoveDir, err := filepath.Abs(cfg.MoveDir)
	if err != nil {
		return fmt.Errorf("resolve move dir: %w", err)
	}
	cfg.MoveDir = absMoveDir

	// A move dir inside the scan root is excluded from the scan, so files
	// quarantined by earlier runs are never rescanned as duplicates.
	if defaulted {
		cfg.Excludes = append(cfg.Excludes, config.QuarantineDirName+"/")
	} else if rel, relErr := filepath.Rel(absRoot, absMoveDir); relErr == nil && rel != "." && rel != ".." &&
		!strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		cfg.Excludes = append(cfg.Excludes, filepath.ToSlash(rel)+"/")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		zlog.Warn().Str("signal", sig.String()).Msg("interrupt received, stopping after the current file")
		cancel()
	}()

	var progress logger.Logger
	switch {
	case verbose:
		progress = &logger.VerboseLogger{}
	case quiet:
		progress = &logger.NullLogger{}
	default:
		progress = &logger.QuietLogger{}
	}

	zlog.Info().
		Str("root", absRoot).
		Str("mode", modeName(mode)).
		Str("keeper", cfg.Keeper).
		Str("hash", cfg.Hash).
		Msg("scan starting")

	w, err := walker.NewWalker(absRoot, cfg.Excludes)
	if err != nil {
		return err
	}
	files, scanWarnings, err := w.Walk()
	if err != nil {
		return fmt.Errorf("scan %s: %w", absRoot, err)
	}
	for _, warn := range scanWarnings {
		zlog.Warn().Str("path", warn.Path).Err(warn.Err).Msg("skipped during scan")
	}

	records := make([]planner.FileRecord, len(files))
	for i, f := range files {
		records[i] = planner.FileRecord{
			Path:    f.Path,
			RelPath: f.RelPath,
			Size:    f.Size,
			ModTime: f.ModTime,
			Mode:    f.Mode,
		}
	}

	plnr := planner.NewDuplicatePlanner(algo)
	plan, err := plnr.Plan(ctx, records, planner.Options{
		Strategy:    strategy,
		Parallelism: cfg.Parallelism,
		Logger:      progress,
	})
	if err != nil {
		return fmt.Errorf("plan duplicates: %w", err)
	}
	for _, warn := range plan.Warnings {
		zlog.Warn().Str("path", warn.Path).Err(warn.Err).Msg("dropped during hashing")
	}

	if planJSONFile != "" {
		if err := writePlanResult(planJSONFile, plan); err != nil {
			return fmt.Errorf("write plan JSON: %w", err)
		}
	}

	warnings := len(scanWarnings) + len(plan.Warnings)

	if len(plan.Items) == 0 {
		zlog.Info().Int("scanned", len(records)).Msg("no duplicates found")
		if auditLogFile != "" {
			audit, err := csvlog.NewWriter(auditLogFile)
			if err != nil {
				return err
			}
			if err := audit.Close(); err != nil {
				return err
			}
		}
		if resultJSONFile != "" {
			if err := writeRunResult(resultJSONFile, nil); err != nil {
				return fmt.Errorf("write result JSON: %w", err)
			}
		}
		if !quiet {
			logging.PrintSummary(os.Stdout, buildSummary(mode, len(records), warnings, plan, nil, auditLogFile, time.Since(start)))
		}
		return nil
	}

	// The move dir and audit log are prepared before anything moves; an
	// unusable log path aborts while the tree is still untouched.
	auditPath := auditLogFile
	if auditPath == "" {
		auditPath = csvlog.DefaultPath(cfg.MoveDir, mode, start)
	}
	if mode == executor.ModeWet {
		if err := os.MkdirAll(cfg.MoveDir, 0755); err != nil {
			return fmt.Errorf("create move dir %s: %w", cfg.MoveDir, err)
		}
	}
	audit, err := csvlog.NewWriter(auditPath)
	if err != nil {
		return err
	}

	exec := executor.NewExecutor(store.NewOS(), progress, executor.Options{
		Mode:         mode,
		MoveDir:      cfg.MoveDir,
		StrictVerify: cfg.StrictVerify,
		Algorithm:    algo,
		OnResult:     audit.WriteResult,
	})
	results, execErr := exec.Execute(ctx, plan.Items)

	closeErr := audit.Close()
	if closeErr == nil {
		zlog.Info().Str("path", auditPath).Msg("audit log written")
	}

	if resultJSONFile != "" {
		if err := writeRunResult(resultJSONFile, results); err != nil {
			return fmt.Errorf("write result JSON: %w", err)
		}
	}

	summary := buildSummary(mode, len(records), warnings, plan, results, auditPath, time.Since(start))
	if !quiet || summary.Errors > 0 {
		logging.PrintSummary(os.Stdout, summary)
	}

	if execErr != nil {
		return fmt.Errorf("execution interrupted: %w", execErr)
	}
	if closeErr != nil {
		return closeErr
	}
	if summary.Errors > 0 {
		return fmt.Errorf("%d files failed", summary.Errors)
	}
	return nil
}

func buildSummary(mode executor.Mode, scanned, warnings int, plan *planner.Plan, results []executor.Result, auditPath string, elapsed time.Duration) logging.Summary {
	s := logging.Summary{
		DryRun:      mode == executor.ModeDryRun,
		Scanned:     scanned,
		Warnings:    warnings,
		HashedFiles: plan.HashedFiles,
		HashedBytes: plan.HashedBytes,
		Groups:      len(plan.Groups),
		AuditLog:    auditPath,
		Duration:    elapsed,
	}
	for _, g := range plan.Groups {
		s.GroupedFiles += len(g.Members)
		s.Reclaimable += g.Reclaimable()
	}
	for _, res := range results {
		switch res.Action {
		case executor.ResultMoved, executor.ResultWouldMove:
			s.Moved++
		case executor.ResultError:
			s.Errors++
		}
	}
	return s
}

func writePlanResult(path string, plan *planner.Plan) error {
	out := PlanResult{Files: []PlanFile{}}
	out.Summary.Groups = len(plan.Groups)

	for _, item := range plan.Items {
		out.Files = append(out.Files, PlanFile{
			Group:       item.GroupID,
			Action:      string(item.Action),
			Path:        item.Path,
			Keeper:      item.KeeperPath,
			Size:        item.Size,
			GroupSize:   item.GroupSize,
			Reclaimable: item.Reclaimable,
			Hash:        item.Hash,
			Reason:      item.Reason,
		})
		switch item.Action {
		case planner.ActionKeep:
			out.Summary.Keep++
		case planner.ActionMove:
			out.Summary.Move++
			out.Summary.ReclaimableBytes += item.Size
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func writeRunResult(path string, results []executor.Result) error {
	out := RunResult{Files: []ResultFile{}, Errors: []ErrorFile{}}

	for _, res := range results {
		if res.Err != nil {
			out.Errors = append(out.Errors, ErrorFile{
				Group:  res.Item.GroupID,
				Source: res.Item.Path,
				Error:  res.Err.Error(),
			})
			out.Summary.Failed++
			continue
		}

		out.Files = append(out.Files, ResultFile{
			Group:  res.Item.GroupID,
			Action: string(res.Action),
			Source: res.Item.Path,
			Dest:   res.DestPath,
		})
		switch res.Action {
		case executor.ResultKeep:
			out.Summary.Kept++
		case executor.ResultMoved:
			out.Summary.Moved++
		case executor.ResultWouldMove:
			out.Summary.WouldMove++
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func modeName(mode executor.Mode) string {
	if mode == executor.ModeWet {
		return "wet"
	}
	return "dry-run"
}
