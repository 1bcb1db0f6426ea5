package chain

import (
	"context"
	"fmt"

	"anti-instagram/internal/opencv/safe"
)

// Step is one stage of a chain; see filters.Filter
type Step interface {
	Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error)
	Name() string
}

// Chain runs steps in order, closing every intermediate result. The input
// is never closed and the caller owns the returned Mat.
type Chain struct {
	steps []Step
}

func New(steps ...Step) *Chain {
	return &Chain{steps: steps}
}

func (c *Chain) Execute(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	current := input

	release := func() {
		if current != input {
			current.Close()
		}
	}

	for _, step := range c.steps {
		select {
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		default:
		}

		result, err := step.Apply(ctx, current)
		if err != nil {
			release()
			return nil, fmt.Errorf("step %s failed: %w", step.Name(), err)
		}

		release()
		current = result
	}

	if current == input {
		return input.Clone()
	}
	return current, nil
}

func (c *Chain) Append(step Step) {
	c.steps = append(c.steps, step)
}

func (c *Chain) StepNames() []string {
	names := make([]string, len(c.steps))
	for i, step := range c.steps {
		names[i] = step.Name()
	}
	return names
}
