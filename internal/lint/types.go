// Package lint checks a loaded curriculum for quality problems that do not prevent
// generation: unmapped disciplines, unknown template tokens, stale links and the like.
package lint

import (
	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/render"
)

// Severity indicates the importance level of a linting issue.
type Severity int

const (
	// SeverityInfo marks observations that need no action.
	SeverityInfo Severity = iota
	// SeverityWarning marks issues that should be fixed but don't block publishing.
	SeverityWarning
	// SeverityError marks issues that make published output wrong.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue is a single problem found in the curriculum.
type Issue struct {
	Subject  string // discipline code, template name or file the issue is about
	Severity Severity
	Rule     string
	Message  string
	Fix      string
}

// Result contains all issues found during linting.
type Result struct {
	Issues      []Issue
	Disciplines int
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool {
	return r.count(SeverityError) > 0
}

// HasWarnings returns true if any warning-level issues exist.
func (r *Result) HasWarnings() bool {
	return r.count(SeverityWarning) > 0
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int { return r.count(SeverityError) }

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int { return r.count(SeverityWarning) }

// InfoCount returns the number of informational issues.
func (r *Result) InfoCount() int { return r.count(SeverityInfo) }

func (r *Result) count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// Input is everything a rule may inspect. Only Catalog is required.
type Input struct {
	Catalog *catalog.Catalog
	// UnknownKeys are top-level curriculum keys the loader ignored.
	UnknownKeys []string
	Templates   []*render.Template
	// Index is the current index document, nil when none exists yet.
	Index     []byte
	IndexFile string
	// Links are the published URLs by code.
	Links map[string]string
}

// Rule defines a check over the curriculum.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string
	Check(in *Input) []Issue
}

// Config contains configuration for the linter.
type Config struct {
	// Quiet suppresses warnings and infos, only showing errors.
	Quiet bool
	// Format specifies output format (text, json).
	Format string
}
