package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// arabicMarks are the combining diacritics (harakat, tanween, shadda,
// sukun, Quranic marks, superscript alef) plus tatweel.
var arabicMarks = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0610, Hi: 0x061A, Stride: 1},
		{Lo: 0x0640, Hi: 0x0640, Stride: 1},
		{Lo: 0x064B, Hi: 0x065F, Stride: 1},
		{Lo: 0x0670, Hi: 0x0670, Stride: 1},
	},
}

// arabicBlock is the basic Arabic Unicode block.
var arabicBlock = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1},
	},
}

func notArabicOrSpace(r rune) bool {
	return !unicode.Is(arabicBlock, r) && !unicode.IsSpace(r)
}

// CleanArabic normalizes a hemistich for training: it strips diacritics and
// tatweel, drops anything outside the Arabic block except whitespace, then
// collapses whitespace runs to single spaces and trims.
//
//	CleanArabic("خَليلَيَّ لا تَستَعجِلا") == "خليلي لا تستعجلا"
//	CleanArabic("جميـــل") == "جميل"
func CleanArabic(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	t := transform.Chain(
		runes.Remove(runes.In(arabicMarks)),
		runes.Remove(runes.Predicate(notArabicOrSpace)),
	)
	cleaned, _, err := transform.String(t, text)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(cleaned), " "), nil
}
