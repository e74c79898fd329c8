package translator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

var (
	codeFence = regexp.MustCompile("```(?:json)?\\s*")
	bareQuery = regexp.MustCompile(`(?is)SELECT.+?;?$`)
)

// response is the wire shape of a translator reply. SQL is required; the
// presentation fields default when absent or empty.
type response struct {
	SQL       *string `json:"sql"`
	ChartType string  `json:"chartType"`
	XAxis     string  `json:"xAxis"`
	YAxis     string  `json:"yAxis"`
	Title     string  `json:"title"`
}

// ParseResponse turns raw provider output into a Translation.
//
// Code fences are stripped first. A JSON document must carry a non-empty
// "sql" string. Only when the text is not JSON at all is a bare SELECT
// extracted by pattern match; such results are marked Degraded and carry
// default presentation fields. Everything else is a *core.TranslatorError.
func ParseResponse(raw string) (*core.Translation, error) {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return nil, &core.TranslatorError{Raw: raw, Err: errors.New("empty response")}
	}

	if json.Valid([]byte(cleaned)) {
		var resp response
		if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
			return nil, &core.TranslatorError{Raw: raw, Err: fmt.Errorf("unexpected response shape: %w", err)}
		}
		if resp.SQL == nil || strings.TrimSpace(*resp.SQL) == "" {
			return nil, &core.TranslatorError{Raw: raw, Err: errors.New("response missing 'sql' field")}
		}
		return &core.Translation{
			SQL:       *resp.SQL,
			ChartType: orDefault(resp.ChartType, core.DefaultChartType),
			XAxis:     resp.XAxis,
			YAxis:     resp.YAxis,
			Title:     orDefault(resp.Title, core.DefaultTitle),
		}, nil
	}

	if m := bareQuery.FindString(cleaned); m != "" {
		return &core.Translation{
			SQL:       strings.TrimSuffix(m, ";"),
			ChartType: core.DefaultChartType,
			Title:     core.DefaultTitle,
			Degraded:  true,
		}, nil
	}

	return nil, &core.TranslatorError{Raw: raw, Err: fmt.Errorf("failed to parse response: %s", truncate(cleaned, 200))}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
