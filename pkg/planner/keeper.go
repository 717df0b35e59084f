package planner

import (
	"errors"
	"fmt"
)

// Strategy selects which member of a duplicate group is retained.
type Strategy string

const (
	StrategyFirst  Strategy = "first"
	StrategyOldest Strategy = "oldest"
	StrategyNewest Strategy = "newest"

	// StrategyLongest is retained for interface compatibility. Within a
	// group every member has the same byte size (grouping is
	// size-then-hash), so the comparison never distinguishes members and
	// selection always resolves through the canonical-order tie-break.
	StrategyLongest Strategy = "longest"
)

// ErrInvalidStrategy reports an unrecognized keeper strategy name.
var ErrInvalidStrategy = errors.New("invalid keeper strategy")

// ParseStrategy validates a strategy name. Callers run this before any
// scanning starts so a bad name fails fast.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyFirst, StrategyOldest, StrategyNewest, StrategyLongest:
		return Strategy(name), nil
	default:
		return "", fmt.Errorf("%w: %q (want first, oldest, newest or longest)", ErrInvalidStrategy, name)
	}
}

// SelectKeeper returns the member of the group that stays in place.
// Members arrive in canonical order and every tie resolves to the
// earliest member, so selection is deterministic for a given group and
// strategy.
func SelectKeeper(group DuplicateGroup, strategy Strategy) (FileRecord, error) {
	if len(group.Members) == 0 {
		return FileRecord{}, fmt.Errorf("duplicate group %d has no members", group.ID)
	}

	switch strategy {
	case StrategyFirst:
		return group.Members[0], nil

	case StrategyOldest:
		keeper := group.Members[0]
		for _, m := range group.Members[1:] {
			if m.ModTime.Before(keeper.ModTime) {
				keeper = m
			}
		}
		return keeper, nil

	case StrategyNewest:
		keeper := group.Members[0]
		for _, m := range group.Members[1:] {
			if m.ModTime.After(keeper.ModTime) {
				keeper = m
			}
		}
		return keeper, nil

	case StrategyLongest:
		// Degenerate on purpose: all members share one size, so this is
		// the canonical-order tie-break in every case.
		return group.Members[0], nil

	default:
		return FileRecord{}, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
	}
}
