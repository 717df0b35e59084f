package planner

import (
	"fmt"
	"sort"
)

// PhaseSizePartition partitions records by exact byte size and keeps
// only the classes with at least two members; a unique size cannot be a
// duplicate set. Zero-byte files form a normal size class. Classes come
// back sorted by size with members in canonical order, so the result is
// deterministic regardless of input order.
func PhaseSizePartition(records []FileRecord) []SizeClass {
	bySize := make(map[int64][]FileRecord)
	for _, r := range records {
		bySize[r.Size] = append(bySize[r.Size], r)
	}

	classes := []SizeClass{}
	for size, members := range bySize {
		if len(members) < 2 {
			continue
		}
		sortRecords(members)
		classes = append(classes, SizeClass{Size: size, Members: members})
	}

	sort.Slice(classes, func(i, j int) bool {
		return classes[i].Size < classes[j].Size
	})

	return classes
}

// PhaseHashPartition sub-partitions each size class by content digest
// and returns the duplicate groups, IDs assigned in deterministic
// (size, digest) order. Digest-only equality is treated as proof of
// duplication; there is no byte-compare fallback. Members without an
// entry in digests (hash failures) are left out; callers surface those
// as warnings.
func PhaseHashPartition(classes []SizeClass, digests map[string]string) []DuplicateGroup {
	groups := []DuplicateGroup{}

	for _, class := range classes {
		byHash := make(map[string][]FileRecord)
		for _, m := range class.Members {
			digest, ok := digests[m.Path]
			if !ok || digest == "" {
				continue
			}
			m.Hash = digest
			byHash[digest] = append(byHash[digest], m)
		}

		hashes := make([]string, 0, len(byHash))
		for h := range byHash {
			hashes = append(hashes, h)
		}
		sort.Strings(hashes)

		for _, h := range hashes {
			members := byHash[h]
			if len(members) < 2 {
				continue
			}
			groups = append(groups, DuplicateGroup{
				ID:      len(groups) + 1,
				Size:    class.Size,
				Hash:    h,
				Members: members,
			})
		}
	}

	return groups
}

// GeneratePlan applies keeper selection to every group and emits the
// ordered operations: the keeper row first, then each remaining member
// in canonical order.
func GeneratePlan(groups []DuplicateGroup, strategy Strategy) ([]Item, error) {
	items := []Item{}

	for _, group := range groups {
		keeper, err := SelectKeeper(group, strategy)
		if err != nil {
			return nil, err
		}

		groupSize := group.TotalSize()
		reclaimable := group.Reclaimable()

		items = append(items, Item{
			GroupID:     group.ID,
			Action:      ActionKeep,
			Path:        keeper.Path,
			KeeperPath:  keeper.Path,
			Size:        group.Size,
			GroupSize:   groupSize,
			Reclaimable: reclaimable,
			Hash:        group.Hash,
			Reason:      fmt.Sprintf("keeper (%s)", strategy),
		})

		for _, m := range group.Members {
			if m.Path == keeper.Path {
				continue
			}
			items = append(items, Item{
				GroupID:     group.ID,
				Action:      ActionMove,
				Path:        m.Path,
				KeeperPath:  keeper.Path,
				Size:        m.Size,
				GroupSize:   groupSize,
				Reclaimable: reclaimable,
				Hash:        group.Hash,
				Reason:      "duplicate",
			})
		}
	}

	return items, nil
}
