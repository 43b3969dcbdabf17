package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/diwancrawl/internal/types"
)

// PoetLinkPrefix marks hrefs that point at a poet profile.
const PoetLinkPrefix = "cat-poet-"

// ExtractPoets lists the poets linked from an era page. Only anchors whose
// href starts with PoetLinkPrefix and that hold a span.h3 name count.
// Poets are unique by resolved URL; the first occurrence wins.
func ExtractPoets(doc *goquery.Document, base *url.URL) []types.Poet {
	if doc == nil {
		return nil
	}

	seen := make(map[string]bool)
	var poets []types.Poet

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.HasPrefix(href, PoetLinkPrefix) {
			return
		}

		name := sel.Find("span.h3").First()
		if name.Length() == 0 {
			return
		}

		poetURL, ok := resolve(base, href)
		if !ok || seen[poetURL] {
			return
		}
		seen[poetURL] = true

		poets = append(poets, types.Poet{
			Name: strings.TrimSpace(name.Text()),
			URL:  poetURL,
		})
	})

	return poets
}
