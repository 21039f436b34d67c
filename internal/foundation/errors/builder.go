package errors

// ErrorBuilder assembles a ClassifiedError. Builders are single-use and not
// safe for concurrent use.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of category with default severity and no retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
	}}
}

// WrapError starts an error of category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = err
	return b
}

// WithContext attaches a structured field, e.g. the file, code or url involved.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

func (b *ErrorBuilder) Warning() *ErrorBuilder {
	b.err.severity = SeverityWarning
	return b
}

// Retryable marks a transient failure the publish runner retries with backoff.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	b.err.retry = RetryBackoff
	return b
}

// UserAction marks a failure that persists until the input or credentials change.
func (b *ErrorBuilder) UserAction() *ErrorBuilder {
	b.err.retry = RetryUserAction
	return b
}

func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	return &e
}

// Catalog and document constructors. These need the input fixed before a rerun.

func SchemaError(message string) *ErrorBuilder {
	return NewError(CategorySchema, message).UserAction()
}

func ReferenceError(message string) *ErrorBuilder {
	return NewError(CategoryReference, message).UserAction()
}

func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message)
}

func TemplateError(message string) *ErrorBuilder {
	return NewError(CategoryTemplate, message).UserAction()
}

// ParseError reports an index document that cannot be scanned.
func ParseError(message string) *ErrorBuilder {
	return NewError(CategoryParse, message)
}

// Environment constructors.

func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

func AuthError(message string) *ErrorBuilder {
	return NewError(CategoryAuth, message).UserAction()
}

// NetworkError is retryable unless the caller says otherwise.
func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).Retryable()
}

// PublishError reports a page the remote target rejected.
func PublishError(message string) *ErrorBuilder {
	return NewError(CategoryPublish, message)
}

func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// StorageError reports a publish ledger failure.
func StorageError(message string) *ErrorBuilder {
	return NewError(CategoryStorage, message)
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
