package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Process exit codes by category. Unclassified errors exit with 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2, // bad flags or lint failures
	CategorySchema:     3,
	CategoryReference:  3,
	CategoryNotFound:   4,
	CategoryAuth:       5,
	CategoryTemplate:   6,
	CategoryParse:      6,
	CategoryConfig:     7,
	CategoryNetwork:    8,
	CategoryPublish:    8,
	CategoryInternal:   10,
	CategoryFileSystem: 11,
	CategoryStorage:    11,
}

// CLIErrorAdapter reports a command's final error on stderr and picks the exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter returns an adapter writing to stderr. A nil logger uses slog.Default.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr}
}

// ExitCodeFor maps err to a process exit code, 0 for nil.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	ce, ok := AsClassified(err)
	if !ok {
		return 1
	}
	if code, ok := exitCodes[ce.Category()]; ok {
		return code
	}
	return 1
}

// FormatError renders the one-line message shown to the user. Verbose mode
// shows the full chain; otherwise only the message and the discipline code.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	ce, ok := AsClassified(err)
	switch {
	case !ok:
		return fmt.Sprintf("Error: %v", err)
	case a.verbose:
		return err.Error()
	}
	if code, ok := ce.Context().GetString("code"); ok {
		return fmt.Sprintf("Error: %s (%s)", ce.Message(), code)
	}
	return "Error: " + ce.Message()
}

// HandleError logs err, prints it and exits. It returns only when err is nil.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	a.logError(err)
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	os.Exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) logError(err error) {
	ce, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Command failed", slog.Any("error", err))
		return
	}
	attrs := make([]slog.Attr, 0, len(ce.Context())+2)
	attrs = append(attrs, slog.String("category", string(ce.Category())))
	for k, v := range ce.Context() {
		attrs = append(attrs, slog.Any(k, v))
	}
	if cause := ce.Cause(); cause != nil {
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}
	a.logger.LogAttrs(context.Background(), levelFor(ce.Severity()), ce.Message(), attrs...)
}

func levelFor(s ErrorSeverity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
