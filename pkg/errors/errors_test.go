package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewError tests the basic creation of errors.
func TestNewError(t *testing.T) {
	tests := []struct {
		name    string
		code    ErrorCode
		message string
	}{
		{
			name:    "ValidationFailed",
			code:    ValidationFailed,
			message: "validation failed",
		},
		{
			name:    "DocumentReadFailed",
			code:    DocumentReadFailed,
			message: "could not read document",
		},
		{
			name:    "LLMGenerationFailed",
			code:    LLMGenerationFailed,
			message: "generation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)

			customErr, ok := err.(*Error)

			assert.True(t, ok, "should be a custom *Error")
			assert.Equal(t, tt.code, customErr.Code())
			assert.Equal(t, tt.message, customErr.Error())
			assert.Nil(t, customErr.Unwrap())
		})
	}
}

func TestWrapError(t *testing.T) {
	originalErr := stderrors.New("connection refused")

	err := Wrap(originalErr, LLMGenerationFailed, "failed to generate response")
	require.NotNil(t, err)

	customErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, LLMGenerationFailed, customErr.Code())
	assert.Equal(t, "failed to generate response: connection refused", customErr.Error())
	assert.Equal(t, originalErr, customErr.Unwrap())

	// Wrapping nil stays nil
	assert.Nil(t, Wrap(nil, LLMGenerationFailed, "should vanish"))
}

func TestWithFields(t *testing.T) {
	err := New(UnsupportedFormat, "unsupported file format")
	err = WithFields(err, Fields{"extension": ".odt"})

	customErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, UnsupportedFormat, customErr.Code())
	assert.Equal(t, ".odt", customErr.Fields()["extension"])
	assert.Contains(t, customErr.Error(), "extension=.odt")

	// Adding fields does not clobber existing ones
	err = WithFields(err, Fields{"path": "doc.odt"})
	customErr = err.(*Error)
	assert.Equal(t, ".odt", customErr.Fields()["extension"])
	assert.Equal(t, "doc.odt", customErr.Fields()["path"])

	// Plain errors get promoted to Unknown
	plain := WithFields(stderrors.New("boom"), Fields{"k": "v"})
	customErr = plain.(*Error)
	assert.Equal(t, Unknown, customErr.Code())

	assert.Nil(t, WithFields(nil, Fields{"k": "v"}))
}

func TestErrorIs(t *testing.T) {
	err := Wrap(New(RateLimitExceeded, "too many requests"), LLMGenerationFailed, "generation failed")

	assert.True(t, stderrors.Is(err, New(LLMGenerationFailed, "whatever")))
	assert.False(t, stderrors.Is(err, stderrors.New("other")))
}

func TestErrorAs(t *testing.T) {
	err := New(InvalidResponse, "not valid JSON")

	var customErr *Error
	require.True(t, stderrors.As(err, &customErr))
	assert.Equal(t, InvalidResponse, customErr.Code())
}

func TestHasCode(t *testing.T) {
	err := Wrap(New(RateLimitExceeded, "too many requests"), LLMGenerationFailed, "generation failed")

	assert.True(t, HasCode(err, LLMGenerationFailed))
	assert.True(t, HasCode(err, RateLimitExceeded))
	assert.False(t, HasCode(err, Timeout))

	assert.False(t, HasCode(stderrors.New("plain"), Unknown))
	assert.False(t, HasCode(nil, Unknown))
}

func TestCheckContext(t *testing.T) {
	assert.NoError(t, CheckContext(context.Background(), "analysis"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := CheckContext(ctx, "analysis")
	require.Error(t, err)

	var customErr *Error
	require.True(t, stderrors.As(err, &customErr))
	assert.Equal(t, Canceled, customErr.Code())
	assert.Contains(t, err.Error(), "analysis canceled")
}
