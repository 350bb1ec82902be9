package governor

import (
	"context"
	"time"

	"github.com/dshills/gochunk-mcp/pkg/types"
)

// Budget tracks the wall-clock deadline for one file
type Budget struct {
	started  time.Time
	deadline time.Time
	timeout  time.Duration
}

// NewBudget starts a budget. A zero timeout never expires.
func NewBudget(timeout time.Duration) *Budget {
	now := time.Now()
	b := &Budget{started: now, timeout: timeout}
	if timeout > 0 {
		b.deadline = now.Add(timeout)
	}
	return b
}

// Expired reports whether the deadline passed or ctx is done
func (b *Budget) Expired(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return !b.deadline.IsZero() && time.Now().After(b.deadline)
}

// Elapsed returns the time since the budget started
func (b *Budget) Elapsed() time.Duration {
	return time.Since(b.started)
}

// Exceeded describes the timeout as an error
func (b *Budget) Exceeded() *types.ResourceLimitExceeded {
	return &types.ResourceLimitExceeded{
		LimitType: types.LimitTimeout,
		Limit:     int64(b.timeout),
		Actual:    int64(b.Elapsed()),
	}
}
