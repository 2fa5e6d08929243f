package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineErrorFormatting(t *testing.T) {
	cause := errors.New("no such file")
	err := NewInputError("read", "failed to open input file", cause)

	assert.Equal(t, "[INPUT] read: failed to open input file: no such file", err.Error())
	assert.True(t, errors.Is(err, cause))

	bare := NewConfigError("load", "bad mapping", nil)
	assert.Equal(t, "[CONFIG] load: bad mapping", bare.Error())
}

func TestWithContext(t *testing.T) {
	err := NewParsingError("read", "malformed row", nil).
		WithContext("file", "extracted_data_20241113.csv").
		WithContext("line", 7)

	assert.Equal(t, "extracted_data_20241113.csv", err.Context["file"])
	assert.Equal(t, 7, err.Context["line"])
}

func TestIsTypeMatchesWrappedErrors(t *testing.T) {
	base := NewStorageError("watermark", "store unreachable", errors.New("connection refused"))

	// The runner wraps step failures before they reach callers.
	wrapped := fmt.Errorf("step watermark: %w", base)
	twice := fmt.Errorf("run failed: %w", wrapped)

	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"direct", base, ErrTypeStorage, true},
		{"wrapped once", wrapped, ErrTypeStorage, true},
		{"wrapped twice", twice, ErrTypeStorage, true},
		{"wrong type", wrapped, ErrTypeInput, false},
		{"plain error", errors.New("plain"), ErrTypeStorage, false},
		{"nil", nil, ErrTypeStorage, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.typ))
		})
	}
}

func TestIsTypeFindsInnermostPipelineError(t *testing.T) {
	inner := NewParsingError("read", "malformed row", nil)
	outer := fmt.Errorf("step discover: %w", inner)

	var pe *PipelineError
	require.True(t, errors.As(outer, &pe))
	assert.Equal(t, ErrTypeParsing, pe.Type)
	assert.True(t, IsType(outer, ErrTypeParsing))
}
