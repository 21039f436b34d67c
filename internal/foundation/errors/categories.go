package errors

// ErrorCategory groups errors by what went wrong, independent of where.
// Callers branch on categories with HasCategory; the CLI maps them to exit codes.
type ErrorCategory string

// Catalog, template and index document failures.
const (
	CategorySchema    ErrorCategory = "schema"    // malformed or duplicate record
	CategoryReference ErrorCategory = "reference" // identifier that resolves to nothing
	CategoryNotFound  ErrorCategory = "not_found"
	CategoryTemplate  ErrorCategory = "template"
	CategoryParse     ErrorCategory = "parse"
)

// Input and environment failures.
const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"
	CategoryNetwork    ErrorCategory = "network"
	CategoryPublish    ErrorCategory = "publish" // remote target rejected a page
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryStorage    ErrorCategory = "storage" // publish ledger
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity is how far an error propagates.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
	SeverityInfo    ErrorSeverity = "info"
)

// RetryStrategy tells the publish runner whether another attempt can succeed.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user" // fix credentials or input first
)

// ErrorContext carries the structured fields of an error (file, code, url, ...).
type ErrorContext map[string]any

// Set stores value under key, allocating the map on first use.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = ErrorContext{}
	}
	c[key] = value
	return c
}

// Get returns the value stored under key.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}
