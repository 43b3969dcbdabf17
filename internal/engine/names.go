package engine

import (
	"fmt"

	"github.com/IshaanNene/diwancrawl/internal/storage"
)

// Directory names used when an era or poet name sanitizes to nothing.
const (
	unnamedEra  = "era_unnamed"
	unnamedPoet = "poet_unnamed"
)

// nameAllocator hands out poem file stems for one poet page. A later poem
// whose sanitized title repeats an earlier one gets a numeric suffix
// (title_2, title_3, ...). Allocation follows page order, so every run
// maps the same poem to the same file.
type nameAllocator struct {
	used map[string]bool
	next map[string]int
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{
		used: make(map[string]bool),
		next: make(map[string]int),
	}
}

// allocate returns the file stem for the poem at the 1-based index. Long
// titles are cut to storage.MaxNameBytes; poems that only differ past the
// cut get suffixes like any other collision.
func (a *nameAllocator) allocate(title string, index int) string {
	stem := storage.TruncateName(storage.SanitizeName(title), storage.MaxNameBytes)
	if stem == "" {
		stem = fmt.Sprintf("poem_unnamed_%d", index)
	}

	name := stem
	for a.used[name] {
		n := a.next[stem]
		if n < 2 {
			n = 2
		}
		name = fmt.Sprintf("%s_%d", stem, n)
		a.next[stem] = n + 1
	}
	a.used[name] = true
	return name
}

// dirName returns the directory name for an era or poet, or fallback when
// nothing usable is left after sanitizing.
func dirName(name, fallback string) string {
	if dir := storage.TruncateName(storage.SanitizeName(name), storage.MaxNameBytes); dir != "" {
		return dir
	}
	return fallback
}
