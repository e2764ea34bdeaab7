package validate

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxQty = 50

var (
	// letters in any script; product names are often Bangla
	reQ = regexp.MustCompile(`^[\p{L}\p{M}\p{N} _'&.,/()+#%\-]{1,50}$`)
	// sheet ids are free text: any printable rune, no control characters
	reID = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\p{P}\p{S} ]{1,128}$`)
)

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	s = truncate(s, 50)
	return s, reQ.MatchString(s)
}

// Qty parses an add-to-cart quantity, clamped to 1..50.
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > maxQty {
		return maxQty
	}
	return n
}

// Quantity parses an explicit quantity edit. Values below 1 are passed
// through so the cart can ignore them; ok is false for non-numbers.
func Quantity(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	if n > maxQty {
		n = maxQty
	}
	return n, true
}

// ID validates a resource identifier (product ids, feed/spreadsheet ids, order ids).
// Ids are used as lookup keys only, never as file paths.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// PathID is ID for a value taken from a URL path segment, which arrives
// percent-encoded.
func PathID(raw string) (string, bool) {
	s, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}
	return ID(s)
}

// Text trims free-form input and caps it at max runes. Empty is allowed;
// presence is checked by the caller.
func Text(s string, max int) string {
	return truncate(strings.TrimSpace(s), max)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}
