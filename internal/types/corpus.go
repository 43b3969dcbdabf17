package types

// VerseRow is one row of the tabular verse dataset consumed by prepare.
// Empty strings stand for missing cells.
type VerseRow struct {
	Right string
	Left  string
	Meter string
	Rhyme string
	Diwan string
	Poet  string
	Era   string

	// Line is the 1-based data line the row came from.
	Line int
}

// CorpusRecord is one training example: a whole poem rendered with its
// rhyme and meter tokens, plus the grouping keys it was built from.
type CorpusRecord struct {
	Poem  string `json:"poem"`
	Meter string `json:"meter"`
	Rhyme string `json:"rhyme"`
	Diwan string `json:"diwan"`
	Poet  string `json:"poet"`
	Era   string `json:"era"`
}
