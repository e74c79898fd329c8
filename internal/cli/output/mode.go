// Package output renders CLI results as styled text, markdown or JSON.
package output

import "strings"

// OutputMode selects how results are rendered.
type OutputMode string //nolint:revive // output.OutputMode reads better at call sites than output.Kind

// Output modes.
const (
	ModeAuto     OutputMode = "auto" // text on a TTY, markdown otherwise
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Modes lists the accepted --output values.
var Modes = []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON)}

// Mode parses s. Unknown and empty values mean ModeAuto.
func Mode(s string) OutputMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return ModeText
	case "markdown", "md":
		return ModeMarkdown
	case "json":
		return ModeJSON
	default:
		return ModeAuto
	}
}

// Description explains the mode for help and reference text.
func (m OutputMode) Description() string {
	switch m {
	case ModeText:
		return "Styled text and box-drawn tables for a terminal"
	case ModeMarkdown:
		return "Markdown headings, fenced SQL and pipe tables"
	case ModeJSON:
		return "One JSON document per command"
	default:
		return "text on a TTY, markdown otherwise"
	}
}
