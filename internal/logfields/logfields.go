package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCode       = "code"
	KeyLecturer   = "lecturer_id"
	KeyTemplate   = "template"
	KeyFile       = "file"
	KeyURL        = "url"
	KeyPageID     = "page_id"
	KeyRunID      = "run_id"
	KeyTarget     = "target"
	KeyStatus     = "status"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Code(c string) slog.Attr         { return slog.String(KeyCode, c) }
func Lecturer(id string) slog.Attr    { return slog.String(KeyLecturer, id) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func File(path string) slog.Attr      { return slog.String(KeyFile, path) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func PageID(id int) slog.Attr         { return slog.Int(KeyPageID, id) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
