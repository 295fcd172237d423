package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Format(t *testing.T) {
	err := NewError(ErrUpstreamError, "embedding call failed")
	assert.Equal(t, "[UPSTREAM_ERROR] embedding call failed", err.Error())

	wrapped := NewError(ErrIndexCorrupt, "count mismatch").WithCause(fmt.Errorf("12 vectors, 10 chunks"))
	assert.Contains(t, wrapped.Error(), "count mismatch")
	assert.Contains(t, wrapped.Error(), "12 vectors")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrUpstreamError, "market data fetch failed").WithCause(cause)

	require.ErrorIs(t, err, cause)
}

func TestError_As(t *testing.T) {
	var target *Error
	err := fmt.Errorf("build index: %w", NewError(ErrConfigChunking, "overlap must be smaller than chunk size"))

	require.ErrorAs(t, err, &target)
	assert.Equal(t, ErrConfigChunking, target.Code)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(ErrRateLimited, "429").WithRetryable(true)))
	assert.False(t, IsRetryable(NewError(ErrConfiguration, "missing API key")))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrIndexNotFound, CodeOf(NewError(ErrIndexNotFound, "no artifacts")))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))

	// 经 fmt.Errorf %w 包装后仍能取到错误码
	wrapped := fmt.Errorf("retrieve context: %w", NewError(ErrIndexCorrupt, "count mismatch"))
	assert.Equal(t, ErrIndexCorrupt, CodeOf(wrapped))
	assert.True(t, IsRetryable(fmt.Errorf("call failed: %w",
		NewError(ErrRateLimited, "429").WithRetryable(true))))
}
