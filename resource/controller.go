// Package resource tracks the memory and IO budget shared by page
// allocators and page sources. The write-memory estimate of a model is
// the intended input for the memory limit.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits. Zero values mean unlimited.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed page-buffer memory.
	// If 0, usage is tracked but not limited.
	MemoryLimitBytes int64

	// IOLimitBytesPerSec caps the decompression/read throughput of
	// background page loading.
	IOLimitBytesPerSec int64
}

// Controller manages a shared memory and IO budget. A nil Controller is
// valid and enforces nothing.
type Controller struct {
	memSem    *semaphore.Weighted // nil if unlimited
	memUsed   atomic.Int64
	ioLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a controller for the given limits.
func NewController(cfg Config) *Controller {
	c := &Controller{}
	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// AcquireMemory reserves memory, blocking until the budget allows it or
// ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}
	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory reserves memory without blocking. It reports whether
// the reservation succeeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory returns reserved memory to the budget.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the currently reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireIO waits until the IO limit allows the given number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil || bytes <= 0 {
		return nil
	}
	if bytes > c.ioLimiter.Burst() {
		bytes = c.ioLimiter.Burst()
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}
