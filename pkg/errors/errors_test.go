package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/dirlink/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{"path_not_found", errors.ErrPathNotFound, "no such root", "[PATH_NOT_FOUND] no such root"},
		{"comparison_failed", errors.ErrComparisonFailed, "read failed", "[COMPARISON_FAILED] read failed"},
		{"link_creation_failed", errors.ErrLinkCreationFailed, "denied", "[LINK_CREATION_FAILED] denied"},
		{"validation", errors.ErrValidation, "bad flag", "[VALIDATION] bad flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.wantStr, err.Error())
			assert.NotNil(t, err.Details)
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("NilError", func(t *testing.T) {
		assert.Nil(t, errors.Wrap(nil, errors.ErrConfig, "ignored"))
		assert.Nil(t, errors.Wrapf(nil, errors.ErrConfig, "ignored %d", 1))
	})

	t.Run("KeepsCause", func(t *testing.T) {
		cause := stderrors.New("permission denied")
		err := errors.Wrapf(cause, errors.ErrLinkCreationFailed, "symlink %s", "/d/x")

		assert.Equal(t, "[LINK_CREATION_FAILED] symlink /d/x: permission denied", err.Error())
		assert.True(t, stderrors.Is(err, cause))
	})
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", errors.New(errors.ErrPathNotFound, "missing"))

	assert.True(t, stderrors.Is(err, errors.New(errors.ErrPathNotFound, "")))
	assert.False(t, stderrors.Is(err, errors.New(errors.ErrValidation, "")))
}

func TestIsErrorCode(t *testing.T) {
	inner := errors.New(errors.ErrComparisonFailed, "vanished")
	outer := errors.Wrap(inner, errors.ErrUnknown, "pair failed")

	assert.True(t, errors.IsErrorCode(outer, errors.ErrUnknown))
	assert.True(t, errors.IsErrorCode(outer, errors.ErrComparisonFailed))
	assert.False(t, errors.IsErrorCode(outer, errors.ErrLinkCreationFailed))
	assert.False(t, errors.IsErrorCode(stderrors.New("plain"), errors.ErrUnknown))
	assert.False(t, errors.IsErrorCode(nil, errors.ErrUnknown))
}

func TestDetails(t *testing.T) {
	err := errors.New(errors.ErrLinkCreationFailed, "denied").
		WithDetail("link_path", "/d/y.bin").
		WithDetail("target_path", "/t/x.bin")

	details := errors.GetErrorDetails(fmt.Errorf("ctx: %w", err))
	require.NotNil(t, details)
	assert.Equal(t, "/d/y.bin", details["link_path"])
	assert.Equal(t, "/t/x.bin", details["target_path"])

	assert.Equal(t, errors.ErrLinkCreationFailed, errors.GetErrorCode(err))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
	assert.Nil(t, errors.GetErrorDetails(stderrors.New("plain")))
}
