package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats linting results for output.
type Formatter interface {
	Format(w io.Writer, result *Result) error
}

// NewFormatter returns the formatter for format ("text" or "json").
func NewFormatter(format string) Formatter {
	if format == "json" {
		return NewJSONFormatter()
	}
	return NewTextFormatter()
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

// NewTextFormatter creates a text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format outputs results in human-readable text format.
func (f *TextFormatter) Format(w io.Writer, result *Result) error {
	for _, issue := range result.Issues {
		if err := f.formatIssue(w, issue); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, strings.Repeat("━", 60)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%d disciplines checked: %d error%s, %d warning%s, %d info\n",
		result.Disciplines,
		result.ErrorCount(), pluralize(result.ErrorCount()),
		result.WarningCount(), pluralize(result.WarningCount()),
		result.InfoCount()); err != nil {
		return err
	}

	switch {
	case result.HasErrors():
		_, err := fmt.Fprintln(w, "✗ Curriculum has errors that make published pages wrong.")
		return err
	case result.HasWarnings():
		_, err := fmt.Fprintln(w, "⚠ Curriculum has warnings. Consider fixing before publishing.")
		return err
	default:
		_, err := fmt.Fprintln(w, "✓ Curriculum is valid.")
		return err
	}
}

func (f *TextFormatter) formatIssue(w io.Writer, issue Issue) error {
	var icon string
	switch issue.Severity {
	case SeverityError:
		icon = "✗"
	case SeverityWarning:
		icon = "⚠"
	default:
		icon = "ℹ"
	}
	if _, err := fmt.Fprintf(w, "%s %s [%s] %s\n", icon, issue.Subject, issue.Rule, issue.Message); err != nil {
		return err
	}
	if issue.Fix != "" {
		if _, err := fmt.Fprintf(w, "  Fix: %s\n", issue.Fix); err != nil {
			return err
		}
	}
	return nil
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	Disciplines  int         `json:"disciplines"`
	ErrorCount   int         `json:"error_count"`
	WarningCount int         `json:"warning_count"`
	InfoCount    int         `json:"info_count"`
	Issues       []JSONIssue `json:"issues"`
}

// JSONIssue represents a single issue in JSON format.
type JSONIssue struct {
	Subject  string `json:"subject"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Format outputs results in JSON format.
func (f *JSONFormatter) Format(w io.Writer, result *Result) error {
	out := JSONOutput{
		Disciplines:  result.Disciplines,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		InfoCount:    result.InfoCount(),
		Issues:       make([]JSONIssue, 0, len(result.Issues)),
	}
	for _, issue := range result.Issues {
		out.Issues = append(out.Issues, JSONIssue{
			Subject:  issue.Subject,
			Severity: strings.ToLower(issue.Severity.String()),
			Rule:     issue.Rule,
			Message:  issue.Message,
			Fix:      issue.Fix,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
