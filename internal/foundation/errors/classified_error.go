package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError is a failure tagged with a category, a severity and a retry
// strategy. Build one with NewError, WrapError or a category constructor.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// Error renders "[category:severity] message", followed by the cause when wrapped.
func (e *ClassifiedError) Error() string {
	prefix := fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
	if e.cause == nil {
		return prefix
	}
	return prefix + ": " + e.cause.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory      { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity      { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Message() string              { return e.message }
func (e *ClassifiedError) Cause() error                 { return e.cause }
func (e *ClassifiedError) Context() ErrorContext        { return e.context }

// Is matches another ClassifiedError with the same category and message, so
// sentinel-style comparisons work across separately built values.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && other.category == e.category && other.message == e.message
}

// CanRetry reports whether a backoff retry may succeed.
func (e *ClassifiedError) CanRetry() bool { return e.retry == RetryBackoff }

// IsFatal reports whether the error aborts the command.
func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// AsClassified returns the outermost ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	ok := stderrors.As(err, &ce)
	return ce, ok
}

func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// CategoryOf returns the category of err, CategoryInternal for unclassified errors.
func CategoryOf(err error) ErrorCategory {
	if ce, ok := AsClassified(err); ok {
		return ce.category
	}
	return CategoryInternal
}

// HasCategory reports whether err is classified under category.
func HasCategory(err error, category ErrorCategory) bool {
	ce, ok := AsClassified(err)
	return ok && ce.category == category
}

// IsRetryable reports whether err asks the publish runner for another attempt.
func IsRetryable(err error) bool {
	ce, ok := AsClassified(err)
	return ok && ce.CanRetry()
}
