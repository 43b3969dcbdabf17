package types

// Metadata sentinels used when a poem page does not carry the value.
const (
	UnspecifiedMeta = "غير محدد"
	MainDiwan       = "الديوان الرئيسي"
)

// VerseSeparator joins the two hemistichs of a full verse.
const VerseSeparator = " ... "

// Era is one historical period listed in the site navigation.
type Era struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Poet is a poet profile listed on an era page.
type Poet struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PoemLink is one entry in a poet's poem list, in page order.
type PoemLink struct {
	Title string
	Href  string
}

// Verse is one line of a poem split into its two hemistichs.
type Verse struct {
	RightHemistich string `json:"right_hemistich" bson:"right_hemistich"`
	LeftHemistich  string `json:"left_hemistich" bson:"left_hemistich"`
	FullVerse      string `json:"full_verse" bson:"full_verse"`
}

// NewVerse builds a Verse, deriving the full verse from the two halves.
func NewVerse(right, left string) Verse {
	full := right
	if left != "" {
		full = right + VerseSeparator + left
	}
	return Verse{RightHemistich: right, LeftHemistich: left, FullVerse: full}
}

// PoemContent is what a poem page yields on its own, before the crawl
// context (era, poet, title, URL) is attached.
type PoemContent struct {
	Bahr    string
	Qafiyah string
	Diwan   string
	Verses  []Verse
}

// Poem is the record written to disk for every scraped poem.
type Poem struct {
	Era       string  `json:"era" bson:"era"`
	Poet      string  `json:"poet" bson:"poet"`
	PoemTitle string  `json:"poem_title" bson:"poem_title"`
	Diwan     string  `json:"diwan" bson:"diwan"`
	Bahr      string  `json:"bahr" bson:"bahr"`
	Qafiyah   string  `json:"qafiyah" bson:"qafiyah"`
	SourceURL string  `json:"source_url" bson:"source_url"`
	Verses    []Verse `json:"verses" bson:"verses"`
}

// NewPoem assembles a Poem record from extracted content and crawl context.
func NewPoem(era, poet, title, sourceURL string, c *PoemContent) *Poem {
	return &Poem{
		Era:       era,
		Poet:      poet,
		PoemTitle: title,
		Diwan:     c.Diwan,
		Bahr:      c.Bahr,
		Qafiyah:   c.Qafiyah,
		SourceURL: sourceURL,
		Verses:    c.Verses,
	}
}
