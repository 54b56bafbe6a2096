package engine

import (
	"context"
	"time"
)

// Limits bounds a single search. Zero values mean no limit.
type Limits struct {
	MoveTime time.Duration // wall time for the whole move
	Nodes    uint64        // nodes over all iterations
}

// Budget decides when a running search has to stop.
type Budget struct {
	ctx       context.Context
	startTime time.Time
	deadline  time.Time
	maxNodes  uint64
}

// NewBudget starts the clock for a search bounded by ctx and limits.
// The earlier of the context deadline and MoveTime wins.
func NewBudget(ctx context.Context, limits Limits) *Budget {
	b := &Budget{
		ctx:       ctx,
		startTime: time.Now(),
		maxNodes:  limits.Nodes,
	}
	if limits.MoveTime > 0 {
		b.deadline = b.startTime.Add(limits.MoveTime)
	}
	if d, ok := ctx.Deadline(); ok && (b.deadline.IsZero() || d.Before(b.deadline)) {
		b.deadline = d
	}
	return b
}

// Elapsed returns the time elapsed since search started.
func (b *Budget) Elapsed() time.Duration {
	return time.Since(b.startTime)
}

// Exceeded reports whether the search must stop after nodes nodes.
func (b *Budget) Exceeded(nodes uint64) bool {
	if b.ctx.Err() != nil {
		return true
	}
	if b.maxNodes > 0 && nodes >= b.maxNodes {
		return true
	}
	return !b.deadline.IsZero() && time.Now().After(b.deadline)
}

// StartNext reports whether another iteration is worth starting. Each
// iteration takes at least as long as all previous ones together, so none
// is started once more than half of the time is gone.
func (b *Budget) StartNext(nodes uint64) bool {
	if b.Exceeded(nodes) {
		return false
	}
	if b.maxNodes > 0 && nodes > b.maxNodes/2 {
		return false
	}
	if b.deadline.IsZero() {
		return true
	}
	elapsed := b.Elapsed()
	remaining := b.deadline.Sub(b.startTime) - elapsed
	return remaining >= elapsed
}
