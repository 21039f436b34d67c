package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type customError struct{ msg string }

func (e *customError) Error() string { return e.msg }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"schema", SchemaError("missing name").Build(), 3},
		{"reference", fmt.Errorf("load: %w", ReferenceError("dangling").Build()), 3},
		{"not found", NotFoundError("no such code").Build(), 4},
		{"parse", ParseError("binary input").Build(), 6},
		{"config", ConfigError("bad config").Build(), 7},
		{"publish", PublishError("status 500").Build(), 8},
		{"unclassified", &customError{msg: "unknown error"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	quiet := NewCLIErrorAdapter(false, logger)
	verbose := NewCLIErrorAdapter(true, logger)

	err := NotFoundError("discipline not found").WithContext("code", "ПО 99").Build()

	assert.Equal(t, "", quiet.FormatError(nil))
	assert.Equal(t, "Error: discipline not found (ПО 99)", quiet.FormatError(err))
	assert.Equal(t, "[not_found:error] discipline not found", verbose.FormatError(err))
	assert.Equal(t, "Error: boom", quiet.FormatError(&customError{msg: "boom"}))

	quiet.logError(err)
	assert.Contains(t, buf.String(), "category=not_found")
}
