// Package slug derives the URL slugs Vendure uses for collections, facet
// values and products.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate lowercases name, strips accents ("Válvulas de 3 vías" becomes
// "valvulas-de-3-vias") and joins the remaining alphanumeric runs with
// single hyphens. It is idempotent, so a stored slug can be fed back in.
func Generate(name string) string {
	// transform.Chain is stateful; build one per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	s, _, err := transform.String(stripMarks, strings.ToLower(name))
	if err != nil {
		s = strings.ToLower(name)
	}
	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}
