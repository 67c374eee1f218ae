package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsAreDistinctAndStable(t *testing.T) {
	assert.NotEqual(t, ErrAgain.Error(), ErrEmpty.Error())
	assert.ErrorIs(t, ErrAborted, ErrAborted)
	assert.False(t, errors.Is(ErrAborted, ErrEOF))
}

func TestKindClassifiersMatchTheirConstructor(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"invalid input", NewInvalidInput("open", nil), IsInvalidInput},
		{"open failure", NewOpenFailure("open", nil), IsOpenFailure},
		{"decode", NewDecodeError("decode", nil), IsDecodeError},
		{"config change", NewConfigurationChange("reconfigure", nil), IsConfigurationChange},
		{"fatal", NewFatal("init", nil), IsFatal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.True(t, c.check(c.err))
		})
	}
}

func TestKindClassifiersDoNotCrossMatch(t *testing.T) {
	err := NewDecodeError("decode", nil)
	assert.False(t, IsFatal(err))
	assert.False(t, IsOpenFailure(err))
	assert.False(t, IsInvalidInput(err))
}

func TestSyncViolationIsClassifiedAndFormatted(t *testing.T) {
	err := NewSyncViolation("resync", 0.25)
	assert.True(t, IsSyncViolation(err))
	assert.Contains(t, err.Error(), "resync")
	assert.Contains(t, err.Error(), "0.250")
}

func TestErrorWrapsCauseAndUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := NewOpenFailure("open_input", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "open_input")
}

func TestKindSurvivesWrappingWithFmtErrorf(t *testing.T) {
	inner := NewDecodeError("decode_frame", nil)
	wrapped := fmt.Errorf("worker loop: %w", inner)

	assert.True(t, IsDecodeError(wrapped))
	assert.False(t, IsFatal(wrapped))
}
