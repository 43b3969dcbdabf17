package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/diwancrawl/internal/types"
)

// EraMenuLabel is the heading text of the navigation block listing eras.
const EraMenuLabel = "تصنيفات العصور"

const (
	eraHeadingXPath = `//h2[contains(., '` + EraMenuLabel + `')]`
	eraContentXPath = `.//div[contains(concat(' ', normalize-space(@class), ' '), ' content ')]`
	eraLinkXPath    = `.//a`
)

// ExtractEras reads the era directory from the site's root page, in
// navigation order. It returns nil when doc is nil or the menu is absent.
func ExtractEras(doc *goquery.Document, base *url.URL) []types.Era {
	if doc == nil || len(doc.Nodes) == 0 {
		return nil
	}

	heading, err := htmlquery.Query(doc.Nodes[0], eraHeadingXPath)
	if err != nil || heading == nil {
		return nil
	}

	menu := closestDiv(heading, "s-menu")
	if menu == nil {
		return nil
	}

	content, err := htmlquery.Query(menu, eraContentXPath)
	if err != nil || content == nil {
		return nil
	}

	links, err := htmlquery.QueryAll(content, eraLinkXPath)
	if err != nil {
		return nil
	}

	eras := make([]types.Era, 0, len(links))
	for _, link := range links {
		eraURL, ok := resolve(base, htmlquery.SelectAttr(link, "href"))
		if !ok {
			continue
		}
		eras = append(eras, types.Era{
			Name: strings.TrimSpace(htmlquery.InnerText(link)),
			URL:  eraURL,
		})
	}
	return eras
}

// closestDiv walks up from n to the nearest enclosing div carrying class.
func closestDiv(n *html.Node, class string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "div" && hasClass(htmlquery.SelectAttr(p, "class"), class) {
			return p
		}
	}
	return nil
}
