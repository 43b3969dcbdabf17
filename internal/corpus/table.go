// Package corpus turns a tabular verse dataset into the line-delimited
// training corpus, and bridges crawler output into that tabular form.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/IshaanNene/diwancrawl/internal/types"
)

// Column headers of the verse table.
const (
	ColRight = "الشطر الايمن"
	ColLeft  = "الشطر الايسر"
	ColMeter = "البحر"
	ColRhyme = "القافية"
	ColDiwan = "الديوان"
	ColPoet  = "الشاعر"
	ColEra   = "العصر"
)

// Headers lists the verse table columns in the order export writes them.
var Headers = []string{ColRight, ColLeft, ColMeter, ColRhyme, ColDiwan, ColPoet, ColEra}

// missingMarkers are cell values read as missing, in addition to the
// empty string. They are the default null spellings of pandas.read_csv.
var missingMarkers = map[string]bool{
	"#N/A": true, "#N/A N/A": true, "#NA": true,
	"-1.#IND": true, "-1.#QNAN": true, "-NaN": true, "-nan": true,
	"1.#IND": true, "1.#QNAN": true, "<NA>": true,
	"N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

const utf8BOM = "\ufeff"

// LoadTable reads a verse table with a header row. Extra columns are
// ignored; a missing column is an ErrNoHeader error.
func LoadTable(r io.Reader) ([]*types.VerseRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty table", types.ErrNoHeader)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	for _, col := range Headers {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", types.ErrNoHeader, col)
		}
	}

	var rows []*types.VerseRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		cell := func(col string) string {
			i := index[col]
			if i >= len(record) || missingMarkers[record[i]] {
				return ""
			}
			return record[i]
		}

		rows = append(rows, &types.VerseRow{
			Right: cell(ColRight),
			Left:  cell(ColLeft),
			Meter: cell(ColMeter),
			Rhyme: cell(ColRhyme),
			Diwan: cell(ColDiwan),
			Poet:  cell(ColPoet),
			Era:   cell(ColEra),
			Line:  line,
		})
	}
	return rows, nil
}

// LoadTableFile opens path and reads it with LoadTable.
func LoadTableFile(path string) ([]*types.VerseRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	rows, err := LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}
