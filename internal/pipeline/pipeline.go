// Package pipeline runs ordered prompt/action stages over a shared context.
//
// All prompts run first so that the whole interview completes before any
// filesystem or network side effect starts. Stages run strictly in order and
// the first non-OK result ends the run.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
)

// Func is a prompt or action operating on the shared context C.
type Func[C any] func(ctx context.Context, c *C) Result

// Stage pairs a prompt with the action it gates. Either may be nil.
type Stage[C any] struct {
	Name   string
	Prompt Func[C]
	Action Func[C]
}

// Run executes every prompt, then every action, in stage order.
func Run[C any](ctx context.Context, logger *slog.Logger, stages []Stage[C], c *C) Result {
	for _, stage := range stages {
		if stage.Prompt == nil {
			continue
		}
		if r := runOne(ctx, logger, "prompt", stage.Name, stage.Prompt, c); r.Status != StatusOK {
			return r
		}
	}

	for _, stage := range stages {
		if stage.Action == nil {
			continue
		}
		if r := runOne(ctx, logger, "action", stage.Name, stage.Action, c); r.Status != StatusOK {
			return r
		}
	}

	return OK()
}

func runOne[C any](ctx context.Context, logger *slog.Logger, phase, name string, fn Func[C], c *C) Result {
	if err := ctx.Err(); err != nil {
		return interrupted(err)
	}

	logger.Debug("stage started", "phase", phase, "stage", name)
	r := fn(ctx, c)
	if r.Status == StatusFailed && errors.Is(r.Err, context.Canceled) {
		r = Cancelled()
	}
	switch r.Status {
	case StatusOK:
		logger.Debug("stage finished", "phase", phase, "stage", name)
	case StatusCancelled:
		logger.Debug("stage cancelled", "phase", phase, "stage", name)
	case StatusFailed:
		logger.Debug("stage failed", "phase", phase, "stage", name, "error", r.Err)
	}
	return r
}

// interrupted treats a cancelled context as the user stopping the run; a
// deadline still fails it.
func interrupted(err error) Result {
	if errors.Is(err, context.Canceled) {
		return Cancelled()
	}
	return Failed(err)
}
