package planner

import (
	"context"
	"os"
	"time"

	"github.com/yuya-takeyama/strict-dedup/pkg/logger"
)

// Planner turns scanned file records into a deduplication plan.
type Planner interface {
	Plan(ctx context.Context, records []FileRecord, opts Options) (*Plan, error)
}

// FileRecord is one regular file observed during a scan. Records are
// immutable once produced; the content digest is filled in by the hash
// phase and never changes afterwards.
type FileRecord struct {
	Path    string // Absolute path
	RelPath string // Relative path from scan root
	Size    int64
	ModTime time.Time
	Mode    os.FileMode
	Hash    string // Hex content digest, empty until hashed
}

// DuplicateGroup is a set of at least two records with identical size
// and identical content digest, members in canonical (path-sorted)
// order.
type DuplicateGroup struct {
	ID      int
	Size    int64 // Size of a single member
	Hash    string
	Members []FileRecord
}

// TotalSize returns the combined bytes of all members.
func (g DuplicateGroup) TotalSize() int64 {
	return g.Size * int64(len(g.Members))
}

// Reclaimable returns the bytes freed by relocating every non-keeper
// member.
func (g DuplicateGroup) Reclaimable() int64 {
	return g.Size * int64(len(g.Members)-1)
}

type Action string

const (
	ActionKeep Action = "keep"
	ActionMove Action = "move"
)

// Item is one planned operation on a single group member.
type Item struct {
	GroupID     int
	Action      Action
	Path        string
	KeeperPath  string
	Size        int64
	GroupSize   int64 // Combined bytes of the whole group
	Reclaimable int64
	Hash        string
	Reason      string
}

// Warning records a file that was dropped between scan and grouping
// because it could not be digested.
type Warning struct {
	Path string
	Err  error
}

// Plan is the full output of planning: the duplicate groups found, the
// ordered operations derived from them, and the files that fell out
// along the way.
type Plan struct {
	Groups      []DuplicateGroup
	Items       []Item
	Warnings    []Warning
	HashedFiles int64
	HashedBytes int64
}

// Options control grouping and plan generation.
type Options struct {
	Strategy    Strategy
	Parallelism int
	Logger      logger.Logger
}
