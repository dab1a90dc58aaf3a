package lintbridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders a lint result as a human- or machine-readable message.
type Formatter interface {
	Format(res *LintResult) ([]byte, error)
	ContentType() string
}

// NewFormatter creates a formatter by name.
func NewFormatter(name string) (Formatter, error) {
	switch name {
	case "stylish":
		return &StylishFormatter{}, nil
	case "compact":
		return &CompactFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported formatter: %s", name)
	}
}

// StylishFormatter is the default human-readable formatter, shaped like
// ESLint's stylish output: findings grouped per file, a colored summary line
// at the end.
type StylishFormatter struct{}

func (f *StylishFormatter) Format(res *LintResult) ([]byte, error) {
	var sb strings.Builder

	underline := color.New(color.Underline)
	dim := color.New(color.Faint)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	for _, file := range res.Results {
		if len(file.Messages) == 0 {
			continue
		}

		sb.WriteString(underline.Sprint(file.FilePath))
		sb.WriteString("\n")

		for _, msg := range file.Messages {
			severity := yellow.Sprint("warning")
			if msg.Severity == SeverityError {
				severity = red.Sprint("error")
			}
			sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
				dim.Sprintf("%d:%d", msg.Line, msg.Column),
				severity,
				msg.Message,
				dim.Sprint(msg.RuleID)))
		}
		sb.WriteString("\n")
	}

	total := res.ErrorCount + res.WarningCount
	if total > 0 {
		summary := fmt.Sprintf("✖ %d problem%s (%d error%s, %d warning%s)",
			total, plural(total),
			res.ErrorCount, plural(res.ErrorCount),
			res.WarningCount, plural(res.WarningCount))
		if res.ErrorCount > 0 {
			sb.WriteString(red.Add(color.Bold).Sprint(summary))
		} else {
			sb.WriteString(yellow.Add(color.Bold).Sprint(summary))
		}
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

func (f *StylishFormatter) ContentType() string {
	return "text/plain"
}

// CompactFormatter emits one line per finding.
type CompactFormatter struct{}

func (f *CompactFormatter) Format(res *LintResult) ([]byte, error) {
	var sb strings.Builder

	for _, file := range res.Results {
		for _, msg := range file.Messages {
			severity := "Warning"
			if msg.Severity == SeverityError {
				severity = "Error"
			}
			sb.WriteString(fmt.Sprintf("%s: line %d, col %d, %s - %s (%s)\n",
				file.FilePath, msg.Line, msg.Column, severity, msg.Message, msg.RuleID))
		}
	}

	total := res.ErrorCount + res.WarningCount
	if total > 0 {
		sb.WriteString(fmt.Sprintf("\n%d problem%s\n", total, plural(total)))
	}

	return []byte(sb.String()), nil
}

func (f *CompactFormatter) ContentType() string {
	return "text/plain"
}

// JSONFormatter emits the per-file result records as a JSON array, matching
// the engine's own wire format.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(res *LintResult) ([]byte, error) {
	return json.Marshal(res.Results)
}

func (f *JSONFormatter) ContentType() string {
	return "application/json"
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
