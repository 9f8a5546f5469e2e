package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxTransfers is the maximum number of concurrent blob transfers.
	// If 0, defaults to 1.
	MaxTransfers int64

	// IOLimitBytesPerSec is the maximum throughput of blob transfers.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller governs blob transfer concurrency and throughput.
type Controller struct {
	cfg Config

	transfers *semaphore.Weighted
	active    atomic.Int64

	ioLimiter *rate.Limiter // nil if unlimited
	ioBytes   atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxTransfers <= 0 {
		cfg.MaxTransfers = 1
	}

	c := &Controller{
		cfg:       cfg,
		transfers: semaphore.NewWeighted(cfg.MaxTransfers),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireTransfer reserves a transfer slot. Blocks if all slots are busy.
func (c *Controller) AcquireTransfer(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.transfers.Acquire(ctx, 1); err != nil {
		return err
	}
	c.active.Add(1)
	return nil
}

// ReleaseTransfer releases a transfer slot.
func (c *Controller) ReleaseTransfer() {
	if c == nil {
		return
	}
	c.active.Add(-1)
	c.transfers.Release(1)
}

// ActiveTransfers returns the number of held transfer slots.
func (c *Controller) ActiveTransfers() int64 {
	if c == nil {
		return 0
	}
	return c.active.Load()
}

// AcquireIO waits until the IO limit allows bytes. Requests larger than the
// bucket are split into burst-sized waits.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	c.ioBytes.Add(int64(bytes))
	if c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// IOBytes returns the total bytes admitted by AcquireIO.
func (c *Controller) IOBytes() int64 {
	if c == nil {
		return 0
	}
	return c.ioBytes.Load()
}

// IOLimit returns the configured throughput limit (0 if unlimited).
func (c *Controller) IOLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.IOLimitBytesPerSec
}
