// Package sqlguard is the static safety gate in front of query execution.
//
// It is a conservative blocklist, not a parser: it accepts only text that
// starts with SELECT or WITH, contains none of the forbidden keywords as a
// whole word, and holds a single statement. False positives are accepted in
// exchange for never needing a SQL grammar. Every query is checked, whatever
// its origin.
package sqlguard

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// Rejection reasons.
const (
	ReasonEmpty          = "Empty SQL query"
	ReasonNotRead        = "Query must start with SELECT or WITH"
	ReasonForbidden      = "Forbidden keyword detected: "
	ReasonMultiStatement = "Multiple SQL statements are not allowed"
)

// ForbiddenKeywords may not appear anywhere in the text as whole words.
var ForbiddenKeywords = []string{
	"DROP", "DELETE", "INSERT", "UPDATE", "ALTER", "CREATE", "TRUNCATE",
	"REPLACE", "EXEC", "EXECUTE", "GRANT", "REVOKE", "ATTACH", "DETACH",
}

var (
	forbidden     = compileKeywords(ForbiddenKeywords)
	stringLiteral = regexp.MustCompile(`'[^']*'`)
)

func compileKeywords(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

// Validate checks sql and reports the first rule it breaks.
// The text is only inspected, never rewritten.
func Validate(sql string) core.ValidationResult {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return reject(ReasonEmpty)
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return reject(ReasonNotRead)
	}

	for i, re := range forbidden {
		if re.MatchString(sql) {
			return reject(ReasonForbidden + ForbiddenKeywords[i])
		}
	}

	if hasTrailingStatement(sql) {
		return reject(ReasonMultiStatement)
	}

	return core.ValidationResult{Valid: true}
}

// Check is Validate as an error: nil for safe SQL, otherwise a
// *core.ValidationError carrying the text and the reason.
func Check(sql string) error {
	res := Validate(sql)
	if res.Valid {
		return nil
	}
	return &core.ValidationError{SQL: sql, Reason: res.Reason}
}

// hasTrailingStatement reports whether anything other than whitespace and
// further semicolons follows the first semicolon outside a string literal.
func hasTrailingStatement(sql string) bool {
	stripped := stringLiteral.ReplaceAllString(sql, "")
	idx := strings.IndexByte(stripped, ';')
	if idx < 0 {
		return false
	}
	rest := strings.ReplaceAll(stripped[idx+1:], ";", "")
	return strings.TrimSpace(rest) != ""
}

func reject(reason string) core.ValidationResult {
	return core.ValidationResult{Valid: false, Reason: reason}
}
