package planner

import "sort"

// SizeClass is one size partition that still has duplicate potential:
// at least two records of the same byte size.
type SizeClass struct {
	Size    int64
	Members []FileRecord
}

func sortRecords(records []FileRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})
}
