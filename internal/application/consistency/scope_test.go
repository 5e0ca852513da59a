package consistency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectScope_Execute(t *testing.T) {
	scope := NewDirectScope(nil, nil, nil)
	boom := errors.New("boom")

	var got Repositories
	err := scope.Execute(context.Background(), func(repos Repositories) error {
		got = repos
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Same(t, scope, got)
	assert.Equal(t, ModeSequential, scope.Mode())
}

func TestOutcome(t *testing.T) {
	err := errors.New("save failed")

	assert.Equal(t, OutcomeSuccess, Outcome(ModeTransactional, nil, true))
	assert.Equal(t, OutcomeFailed, Outcome(ModeTransactional, err, true))
	assert.Equal(t, OutcomeFailed, Outcome(ModeSequential, err, false))
	assert.Equal(t, OutcomePartial, Outcome(ModeSequential, err, true))
}

func TestMode_IsValid(t *testing.T) {
	assert.True(t, ModeTransactional.IsValid())
	assert.True(t, ModeSequential.IsValid())
	assert.False(t, Mode("eventual").IsValid())
}
