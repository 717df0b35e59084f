package executor

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxNameAttempts bounds the collision suffix search. Suffixes are five
// digits, so the namespace per base name is stem-00001 through stem-99999.
const maxNameAttempts = 99999

// splitName splits a file name into stem and extension. Names like
// ".gitignore" have no extension; the leading dot stays in the stem.
func splitName(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// candidateName returns the attempt-th destination name for a base name.
// Attempt 0 is the name itself; attempt n inserts -n, zero padded to five
// digits, between stem and extension.
func candidateName(name string, attempt int) string {
	if attempt == 0 {
		return name
	}
	stem, ext := splitName(name)
	return fmt.Sprintf("%s-%05d%s", stem, attempt, ext)
}
