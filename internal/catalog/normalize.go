package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	priceJunk    = regexp.MustCompile(`[^0-9.]`)
	pricePrefix  = regexp.MustCompile(`^[0-9]*(\.[0-9]*)?`)
	stockPrefix  = regexp.MustCompile(`^[+-]?[0-9]+`)
	htmlTag      = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`[\s\p{Zs}\x{FEFF}]+`)

	hundred = decimal.NewFromInt(100)
)

// ParsePrice converts a European formatted price such as "45,99" or
// "1.234,50 €" to integer cents. The first comma is the decimal separator;
// anything that is not a digit or dot is dropped and the longest leading
// number is used. Empty or unparseable input yields 0.
func ParsePrice(s string) int64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	cleaned := priceJunk.ReplaceAllString(strings.Replace(s, ",", ".", 1), "")
	num := strings.TrimSuffix(pricePrefix.FindString(cleaned), ".")
	if num == "" || num == "." {
		return 0
	}
	if strings.HasPrefix(num, ".") {
		num = "0" + num
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return 0
	}
	return d.Mul(hundred).Round(0).IntPart()
}

// ParseStock reads the leading base-10 integer of s, so "7 uds" is 7.
// Empty or non-numeric input yields 0.
func ParseStock(s string) int {
	m := stockPrefix.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// CleanDescription strips HTML tags and &nbsp; entities and collapses runs
// of whitespace into single spaces.
func CleanDescription(html string) string {
	if html == "" {
		return ""
	}
	s := htmlTag.ReplaceAllString(html, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
