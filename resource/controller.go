package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes caps the payload bytes held by caches sharing the controller.
	// If 0, usage is tracked but not limited.
	MemoryLimitBytes int64

	// ReadBytesPerSec caps backing-store read throughput. If 0, unlimited.
	ReadBytesPerSec int64
}

// Controller tracks memory reservations and throttles reads.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	readLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.ReadBytesPerSec > 0 {
		c.readLimiter = rate.NewLimiter(rate.Limit(cfg.ReadBytesPerSec), int(cfg.ReadBytesPerSec))
	}

	return c
}

// Reserve charges bytes of cached record text against the memory limit
// without blocking. It reports false if the limit would be exceeded.
func (c *Controller) Reserve(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}

	c.memUsed.Add(bytes)
	return true
}

// Release returns bytes taken by Reserve.
func (c *Controller) Release(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// Reserved returns the bytes currently reserved.
func (c *Controller) Reserved() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// Limit returns the memory limit in bytes, 0 if unlimited.
func (c *Controller) Limit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// WaitRead blocks until the read limit allows n more bytes or ctx is done.
// Requests larger than one second's budget are split into bursts.
func (c *Controller) WaitRead(ctx context.Context, n int) error {
	if c == nil || c.readLimiter == nil || n <= 0 {
		return nil
	}

	burst := c.readLimiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.readLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
