package infer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// IsNumber reports whether v is a finite decimal once a leading "$", every
// thousands comma and a trailing "%" are removed.
func IsNumber(v string) bool {
	s := strings.TrimSpace(v)
	if s == "" {
		return false
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return false
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}
