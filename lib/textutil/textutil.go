package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// strips combining marks after canonical decomposition, so "pão" folds
// down to "pao"
var accentStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold normalizes a product name or search query for matching:
// lowercase, accents stripped, inner whitespace collapsed.
func Fold(s string) string {
	stripped, _, err := transform.String(accentStripper, s)
	if err != nil {
		stripped = s
	}
	stripped = strings.ToLower(stripped)
	stripped = strings.Trim(stripped, " \n\t")
	return whitespaceRegex.ReplaceAllString(stripped, " ")
}

// ContainsFold reports whether name contains query, ignoring case,
// accents and whitespace differences.
func ContainsFold(name, query string) bool {
	return strings.Contains(Fold(name), Fold(query))
}

var unitWordRegex = regexp.MustCompile(`(?i)\b(kg|g|bandeja)\b`)

// SearchTerm cleans a catalog line before it is sent to a retailer search
// endpoint. Unit words like "kg" throw off storefront search relevance.
func SearchTerm(query string) string {
	query = unitWordRegex.ReplaceAllString(query, " ")
	query = whitespaceRegex.ReplaceAllString(query, " ")
	return strings.Trim(query, " \n\t")
}
