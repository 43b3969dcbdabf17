package corpus

import (
	"fmt"
	"strings"

	"github.com/IshaanNene/diwancrawl/internal/types"
)

// GroupKey is the set of values that together identify one poem in the
// verse table.
type GroupKey struct {
	Poet  string
	Diwan string
	Meter string
	Rhyme string
	Era   string
}

func keyOf(row *types.VerseRow) (GroupKey, bool) {
	k := GroupKey{Poet: row.Poet, Diwan: row.Diwan, Meter: row.Meter, Rhyme: row.Rhyme, Era: row.Era}
	ok := k.Poet != "" && k.Diwan != "" && k.Meter != "" && k.Rhyme != "" && k.Era != ""
	return k, ok
}

// Group is one reconstructed poem: every row sharing a key, in input order.
type Group struct {
	Key  GroupKey
	Rows []*types.VerseRow
}

// GroupRows buckets rows by GroupKey. Groups come out in order of first
// appearance and rows keep their input order. Rows with any empty key
// value are left out.
func GroupRows(rows []*types.VerseRow) []*Group {
	byKey := make(map[GroupKey]*Group)
	var groups []*Group

	for _, row := range rows {
		k, ok := keyOf(row)
		if !ok {
			continue
		}
		g, seen := byKey[k]
		if !seen {
			g = &Group{Key: k}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.Rows = append(g.Rows, row)
	}
	return groups
}

// FormatVerse renders one row as "[rhyme] right [meter] left". The
// hemistichs are used as given; clean them first.
func FormatVerse(row *types.VerseRow) string {
	return fmt.Sprintf("[%s] %s [%s] %s",
		strings.TrimSpace(row.Rhyme), row.Right,
		strings.TrimSpace(row.Meter), row.Left)
}

// FormatPoem renders every row of a poem, one verse per line.
func FormatPoem(rows []*types.VerseRow) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = FormatVerse(row)
	}
	return strings.Join(lines, "\n")
}

// BuildRecords turns groups into corpus records, dropping any whose text is
// blank.
func BuildRecords(groups []*Group) []types.CorpusRecord {
	records := make([]types.CorpusRecord, 0, len(groups))
	for _, g := range groups {
		text := FormatPoem(g.Rows)
		if strings.TrimSpace(text) == "" {
			continue
		}
		records = append(records, types.CorpusRecord{
			Poem:  text,
			Meter: g.Key.Meter,
			Rhyme: g.Key.Rhyme,
			Diwan: g.Key.Diwan,
			Poet:  g.Key.Poet,
			Era:   g.Key.Era,
		})
	}
	return records
}
