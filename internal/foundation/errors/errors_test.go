package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := ReferenceError("unknown lecturer").
			WithContext("code", "ПО 01").
			WithContext("lecturer_id", "L99").
			Build()

		assert.Equal(t, CategoryReference, err.Category())
		assert.Equal(t, SeverityError, err.Severity())
		assert.Equal(t, "unknown lecturer", err.Message())

		id, ok := err.Context().GetString("lecturer_id")
		require.True(t, ok)
		assert.Equal(t, "L99", id)
		assert.Equal(t, "[reference:error] unknown lecturer", err.Error())
	})

	t.Run("Wrapped in fmt.Errorf", func(t *testing.T) {
		inner := SchemaError("missing field").Build()
		wrapped := fmt.Errorf("load catalog: %w", inner)

		assert.True(t, IsClassified(wrapped))
		assert.True(t, HasCategory(wrapped, CategorySchema))
		assert.Equal(t, CategorySchema, CategoryOf(wrapped))
		assert.True(t, stderrors.Is(wrapped, SchemaError("missing field").Build()))
	})

	t.Run("Unclassified", func(t *testing.T) {
		err := stderrors.New("plain")
		assert.False(t, IsClassified(err))
		assert.Equal(t, CategoryInternal, CategoryOf(err))
		assert.False(t, IsRetryable(err))
	})
}

func TestErrorBuilder(t *testing.T) {
	original := stderrors.New("connection reset")
	err := WrapError(original, CategoryNetwork, "upload failed").
		Warning().
		Retryable().
		WithContext("url", "https://example.org").
		Build()

	assert.Equal(t, SeverityWarning, err.Severity())
	assert.Equal(t, RetryBackoff, err.RetryStrategy())
	assert.True(t, err.CanRetry())
	assert.True(t, IsRetryable(err))
	assert.True(t, stderrors.Is(err, original))
	assert.Equal(t, original, err.Cause())
	assert.Contains(t, err.Error(), "connection reset")
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
		fatal    bool
		retry    bool
	}{
		{"schema", SchemaError("x"), CategorySchema, false, false},
		{"reference", ReferenceError("x"), CategoryReference, false, false},
		{"not found", NotFoundError("x"), CategoryNotFound, false, false},
		{"template", TemplateError("x"), CategoryTemplate, false, false},
		{"parse", ParseError("x"), CategoryParse, false, false},
		{"config", ConfigError("x"), CategoryConfig, true, false},
		{"network", NetworkError("x"), CategoryNetwork, false, true},
		{"internal", InternalError("x"), CategoryInternal, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			assert.Equal(t, tt.category, err.Category())
			assert.Equal(t, tt.fatal, err.IsFatal())
			assert.Equal(t, tt.retry, err.CanRetry())
		})
	}
}

func TestErrorContext(t *testing.T) {
	var c ErrorContext
	c = c.Set("file", "curriculum.yaml").Set("line", 4)

	file, ok := c.GetString("file")
	assert.True(t, ok)
	assert.Equal(t, "curriculum.yaml", file)

	_, ok = c.GetString("line")
	assert.False(t, ok, "not a string")

	line, ok := c.Get("line")
	assert.True(t, ok)
	assert.Equal(t, 4, line)

	_, ok = ErrorContext(nil).Get("file")
	assert.False(t, ok)
}
