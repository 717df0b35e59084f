package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yuya-takeyama/strict-dedup/pkg/checksum"
	"github.com/yuya-takeyama/strict-dedup/pkg/logger"
	"github.com/yuya-takeyama/strict-dedup/pkg/planner"
	"github.com/yuya-takeyama/strict-dedup/pkg/store"
)

// Mode selects whether Execute mutates the filesystem.
type Mode int

const (
	// ModeDryRun resolves every destination without touching any file.
	ModeDryRun Mode = iota

	// ModeWet copies, verifies and unlinks for real.
	ModeWet
)

var (
	// ErrCollisionExhausted reports that every candidate name for a
	// destination is already taken.
	ErrCollisionExhausted = errors.New("collision suffixes exhausted")

	// ErrVerificationMismatch reports a digest disagreement between the
	// content a file was planned under and the content that was read.
	ErrVerificationMismatch = errors.New("content digest mismatch")
)

type Options struct {
	// Mode defaults to ModeDryRun. Nothing is modified unless the caller
	// explicitly asks for ModeWet.
	Mode Mode

	// MoveDir is the flat directory duplicates are relocated into.
	MoveDir string

	// StrictVerify re-reads each destination after the copy and compares
	// digests before the source is unlinked.
	StrictVerify bool

	// Algorithm is the digest used for copy verification. It must be the
	// algorithm the plan was built with.
	Algorithm checksum.Algorithm

	// OnResult, when set, receives each result as soon as its item
	// settles. A non-nil return stops the run before the next item; the
	// results so far are still returned.
	OnResult func(Result) error
}

type Executor struct {
	store    store.Store
	logger   logger.Logger
	hashFile func(path string) (string, error)
	opts     Options
}

func NewExecutor(st store.Store, log logger.Logger, opts Options) *Executor {
	if log == nil {
		log = &logger.NullLogger{}
	}
	if opts.Algorithm == "" {
		opts.Algorithm = checksum.SHA256
	}
	return &Executor{
		store:  st,
		logger: log,
		hashFile: func(path string) (string, error) {
			return checksum.File(opts.Algorithm, path)
		},
		opts: opts,
	}
}

// ResultAction is the terminal state of one plan item.
type ResultAction string

const (
	ResultKeep      ResultAction = "keep"
	ResultMoved     ResultAction = "moved"
	ResultWouldMove ResultAction = "would-move"
	ResultError     ResultAction = "error"
)

// Result pairs a plan item with what actually happened to it. DestPath is
// empty for keepers and for failed moves.
type Result struct {
	Item     planner.Item
	Action   ResultAction
	DestPath string
	Err      error
}

// Execute applies plan items in order. Moves are sequential: the
// copy-verify-unlink ordering per file stays auditable and collision suffix
// generation cannot race. A non-nil error means execution stopped early;
// per-file failures land in their Result instead.
func (e *Executor) Execute(ctx context.Context, items []planner.Item) ([]Result, error) {
	if e.opts.Mode == ModeWet {
		if err := e.store.MkdirAll(e.opts.MoveDir, 0755); err != nil {
			return nil, fmt.Errorf("create move dir %s: %w", e.opts.MoveDir, err)
		}
	}

	e.logger.PhaseStart("move", len(items))

	// Destinations resolved earlier in the run are reserved so a dry run
	// reports the same collision suffixes a wet run would create.
	reserved := make(map[string]bool)

	results := make([]Result, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := e.executeItem(item, reserved)
		e.logger.ItemProcessed("move", item.Path, string(res.Action))
		results = append(results, res)

		if e.opts.OnResult != nil {
			if err := e.opts.OnResult(res); err != nil {
				return results, fmt.Errorf("record result: %w", err)
			}
		}
	}

	e.logger.PhaseComplete("move", len(results))
	return results, nil
}

func (e *Executor) executeItem(item planner.Item, reserved map[string]bool) Result {
	switch item.Action {
	case planner.ActionKeep:
		return Result{Item: item, Action: ResultKeep}
	case planner.ActionMove:
		return e.moveItem(item, reserved)
	default:
		return Result{
			Item:   item,
			Action: ResultError,
			Err:    fmt.Errorf("unknown plan action: %q", item.Action),
		}
	}
}

func (e *Executor) moveItem(item planner.Item, reserved map[string]bool) Result {
	if e.opts.Mode != ModeWet {
		dest, err := e.planDestination(filepath.Base(item.Path), reserved)
		if err != nil {
			return Result{Item: item, Action: ResultError, Err: err}
		}
		return Result{Item: item, Action: ResultWouldMove, DestPath: dest}
	}

	dest, err := e.moveFile(item)
	if err != nil {
		return Result{Item: item, Action: ResultError, Err: err}
	}
	return Result{Item: item, Action: ResultMoved, DestPath: dest}
}

// moveFile copies item to a fresh destination, verifies the content and only
// then unlinks the source. Every failure path removes the provisional
// destination, so a failed move leaves the tree exactly as it found it.
func (e *Executor) moveFile(item planner.Item) (string, error) {
	if item.Hash == "" {
		return "", fmt.Errorf("plan item for %s carries no digest", item.Path)
	}

	info, err := e.store.Stat(item.Path)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}

	src, err := e.store.Open(item.Path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}

	dest, out, err := e.createDestination(filepath.Base(item.Path))
	if err != nil {
		src.Close()
		return "", err
	}

	digest, err := e.copyTo(out, src)
	// The source handle must not stay open past the copy; the unlink below
	// needs it released.
	src.Close()
	if err != nil {
		out.Close()
		e.discard(dest)
		return "", err
	}

	if err := out.Sync(); err != nil {
		out.Close()
		e.discard(dest)
		return "", fmt.Errorf("sync %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		e.discard(dest)
		return "", fmt.Errorf("close %s: %w", dest, err)
	}

	// The teed digest must match the digest the file was grouped under. A
	// mismatch means the source changed between scan and move.
	if !checksum.Compare(digest, item.Hash) {
		e.discard(dest)
		return "", fmt.Errorf("source %s changed since scan: %w", item.Path, ErrVerificationMismatch)
	}

	if err := e.store.Chmod(dest, info.Mode().Perm()); err != nil {
		e.discard(dest)
		return "", fmt.Errorf("chmod %s: %w", dest, err)
	}
	if err := e.store.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		e.discard(dest)
		return "", fmt.Errorf("chtimes %s: %w", dest, err)
	}

	if e.opts.StrictVerify {
		reread, err := e.hashFile(dest)
		if err != nil {
			e.discard(dest)
			return "", fmt.Errorf("verify %s: %w", dest, err)
		}
		if !checksum.Compare(reread, digest) {
			e.discard(dest)
			return "", fmt.Errorf("destination %s did not read back intact: %w", dest, ErrVerificationMismatch)
		}
	}

	if err := e.store.Remove(item.Path); err != nil {
		e.discard(dest)
		return "", fmt.Errorf("unlink source: %w", err)
	}

	return dest, nil
}

// copyTo streams src into dst through a hashing tee and returns the digest of
// the copied bytes.
func (e *Executor) copyTo(dst io.Writer, src io.Reader) (string, error) {
	tee, err := checksum.NewTeeReader(e.opts.Algorithm, src)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, tee); err != nil {
		return "", fmt.Errorf("copy: %w", err)
	}
	return tee.Digest()
}

// createDestination claims a collision-free destination via exclusive create.
// The open file handle doubles as the name reservation.
func (e *Executor) createDestination(base string) (string, store.File, error) {
	for attempt := 0; attempt <= maxNameAttempts; attempt++ {
		candidate := filepath.Join(e.opts.MoveDir, candidateName(base, attempt))
		f, err := e.store.CreateExclusive(candidate, 0600)
		if err == nil {
			return candidate, f, nil
		}
		if !os.IsExist(err) {
			return "", nil, fmt.Errorf("create %s: %w", candidate, err)
		}
	}
	return "", nil, fmt.Errorf("no free name for %s in %s: %w", base, e.opts.MoveDir, ErrCollisionExhausted)
}

// planDestination resolves the destination a wet run would claim, using stat
// probes plus in-run reservations instead of exclusive creates.
func (e *Executor) planDestination(base string, reserved map[string]bool) (string, error) {
	for attempt := 0; attempt <= maxNameAttempts; attempt++ {
		candidate := filepath.Join(e.opts.MoveDir, candidateName(base, attempt))
		if reserved[candidate] {
			continue
		}
		if _, err := e.store.Stat(candidate); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		reserved[candidate] = true
		return candidate, nil
	}
	return "", fmt.Errorf("no free name for %s in %s: %w", base, e.opts.MoveDir, ErrCollisionExhausted)
}

// discard removes a provisional destination artifact after a failed move.
func (e *Executor) discard(dest string) {
	if err := e.store.Remove(dest); err != nil && !os.IsNotExist(err) {
		e.logger.ItemProcessed("move", dest, "orphaned")
	}
}
