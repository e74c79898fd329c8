package infer

import (
	"regexp"
	"strings"
	"time"
)

// Explicit date shapes, checked in order before the generic parse.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),                  // 2024-01-15
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),                  // 01/15/2024
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),                  // 01-15-2024
	regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`),                  // 2024/01/15
	regexp.MustCompile(`^\w{3}\s+\d{1,2},?\s+\d{4}$`),          // Jan 15, 2024
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`), // ISO 8601 datetime
	regexp.MustCompile(`^\d{4}-\d{2}$`),                        // 2024-01
}

var (
	pureNumber    = regexp.MustCompile(`^\d+(\.\d+)?$`)
	dateSeparator = regexp.MustCompile(`[-/,.\s]`)
)

// Layouts accepted by the generic fallback.
var fallbackLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006",
	"1/2/2006 15:04",
	"1-2-2006",
	"2006.01.02",
	"01.02.2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2 2006 15:04",
	"Jan 2, 2006 15:04",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"Mon, 2 Jan 2006",
	"Monday, January 2, 2006",
	"January 2006",
	"Jan 2006",
}

// IsDate reports whether v looks like a calendar date or timestamp.
// Bare integers and decimals are never dates, and the generic fallback only
// applies to values of at least six characters containing a separator.
func IsDate(v string) bool {
	s := strings.TrimSpace(v)
	if s == "" {
		return false
	}
	for _, p := range datePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	if pureNumber.MatchString(s) {
		return false
	}
	if len(s) < 6 || !dateSeparator.MatchString(s) {
		return false
	}
	for _, layout := range fallbackLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
