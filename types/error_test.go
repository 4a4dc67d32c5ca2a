package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := NewError(ErrEntityNotFound, "no such entity").WithEntity("user:preference:theme")
	require.Contains(t, err.Error(), "ENTITY_NOT_FOUND")
	require.Contains(t, err.Error(), "user:preference:theme")
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := NewError(ErrSyncIO, "snapshot write failed").WithCause(cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "disk full")
}

func TestGetErrorCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, ErrSyncTimeout, GetErrorCode(NewError(ErrSyncTimeout, "deadline exceeded")))
	require.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	require.Equal(t, ErrorCode(""), GetErrorCode(nil))
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	err := Errorf(ErrArchiveNotFound, "entity %q not in archive", "user:profile:main")
	require.True(t, IsCode(err, ErrArchiveNotFound))
	require.False(t, IsCode(err, ErrEntityNotFound))
	require.False(t, IsCode(fmt.Errorf("wrapped: %w", err), ErrArchiveNotFound))
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	require.True(t, IsRetryable(NewError(ErrSyncIO, "io").WithRetryable(true)))
	require.False(t, IsRetryable(NewError(ErrSyncIO, "io")))
	require.False(t, IsRetryable(errors.New("plain")))
}
