package chain

import (
	"context"
	"errors"
	"testing"

	"anti-instagram/internal/opencv/safe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStep struct {
	name  string
	err   error
	calls int
}

func (s *stubStep) Name() string { return s.name }

func (s *stubStep) Apply(context.Context, *safe.Mat) (*safe.Mat, error) {
	s.calls++
	return nil, s.err
}

func TestChainStopsAtFailingStep(t *testing.T) {
	first := &stubStep{name: "blur", err: errors.New("kernel too large")}
	second := &stubStep{name: "canny"}
	c := New(first, second)

	_, err := c.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step blur failed")
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls)
}

func TestChainHonoursCancellation(t *testing.T) {
	step := &stubStep{name: "blur"}
	c := New(step)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Execute(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, step.calls)
}

func TestChainStepNames(t *testing.T) {
	c := New(&stubStep{name: "blur"})
	c.Append(&stubStep{name: "close"})
	assert.Equal(t, []string{"blur", "close"}, c.StepNames())
}
