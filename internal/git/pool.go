// Package git samples repository metadata for agent working directories.
package git

import (
	"context"
	"errors"

	"golang.org/x/sync/semaphore"
)

// ErrSaturated is returned when every pool slot is busy.
var ErrSaturated = errors.New("git pool saturated")

// Pool bounds how many git CLI processes the sampler forks at once. Every
// live session's working directory is sampled on the same tick, so without
// a bound a busy guild would spawn one git process per session
// simultaneously.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a Pool with the given number of slots. Limits below one
// are clamped to one.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Run executes fn if a slot is free right now and returns ErrSaturated
// otherwise. Sampling is periodic and best-effort: a sample that would
// have to queue behind other git calls is stale before it runs, so the
// pool sheds it and the next tick retries. A nil pool runs fn unbounded.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil || p.sem == nil {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.sem.TryAcquire(1) {
		return ErrSaturated
	}
	defer p.sem.Release(1)
	return fn()
}
