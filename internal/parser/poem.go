package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/diwancrawl/internal/types"
)

// Label words found in the poem info panel.
const (
	MeterLabel = "بحر"
	RhymeLabel = "قافية"
)

const (
	metaSelector  = ".tips a"
	bodySelector  = "div#poem_content"
	lineSelector  = "h3"
	linksSelector = ".record a.float-right"
)

// ExtractPoem reads the metadata and verses of a single poem page.
// It returns nil when doc is nil. Missing metadata keeps the sentinel
// defaults and a missing poem body yields no verses.
func ExtractPoem(doc *goquery.Document) *types.PoemContent {
	if doc == nil {
		return nil
	}

	content := &types.PoemContent{
		Bahr:    types.UnspecifiedMeta,
		Qafiyah: types.UnspecifiedMeta,
		Diwan:   types.MainDiwan,
	}

	doc.Find(metaSelector).Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		switch {
		case strings.Contains(text, MeterLabel):
			content.Bahr = stripLabel(text, MeterLabel)
		case strings.Contains(text, RhymeLabel):
			content.Qafiyah = stripLabel(text, RhymeLabel)
		}
	})

	var lines []string
	doc.Find(bodySelector).First().Find(lineSelector).Each(func(i int, sel *goquery.Selection) {
		lines = append(lines, strings.TrimSpace(sel.Text()))
	})
	content.Verses = PairHemistichs(lines)

	return content
}

// PairHemistichs groups a flat list of half-verses two at a time: even
// indexes are right hemistichs, odd indexes left. A trailing unpaired half
// becomes a verse with an empty left hemistich.
func PairHemistichs(lines []string) []types.Verse {
	if len(lines) == 0 {
		return nil
	}

	verses := make([]types.Verse, 0, (len(lines)+1)/2)
	for i := 0; i < len(lines); i += 2 {
		var left string
		if i+1 < len(lines) {
			left = lines[i+1]
		}
		verses = append(verses, types.NewVerse(lines[i], left))
	}
	return verses
}

// ExtractPoemLinks lists the poem entries on a poet's profile page, in page
// order. Entries without an href are kept with an empty Href so that
// ordinals line up with the page.
func ExtractPoemLinks(doc *goquery.Document) []types.PoemLink {
	if doc == nil {
		return nil
	}

	var links []types.PoemLink
	doc.Find(linksSelector).Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		links = append(links, types.PoemLink{
			Title: strings.TrimSpace(sel.Text()),
			Href:  href,
		})
	})
	return links
}

func stripLabel(text, label string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, label, ""))
}
