// Package ledger supplies the host context the registry runs against: the
// caller identity of a request and the current block height.
package ledger

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock reports the current block height.
type Clock interface {
	Height() uint64
}

// BlockClock derives heights from wall time: one height per interval elapsed
// since genesis. Heights never decrease, even if the wall clock steps back.
//
// Safe for concurrent use.
type BlockClock struct {
	genesis  time.Time
	interval time.Duration
	now      func() time.Time
	high     atomic.Uint64
}

// NewBlockClock creates a clock whose height is 0 at genesis. A non-positive
// interval is replaced by one second.
func NewBlockClock(genesis time.Time, interval time.Duration) *BlockClock {
	if interval <= 0 {
		interval = time.Second
	}
	return &BlockClock{genesis: genesis, interval: interval, now: time.Now}
}

// Height returns the number of whole intervals since genesis.
func (c *BlockClock) Height() uint64 {
	var h uint64
	if elapsed := c.now().Sub(c.genesis); elapsed > 0 {
		h = uint64(elapsed / c.interval)
	}
	for {
		prev := c.high.Load()
		if h <= prev {
			return prev
		}
		if c.high.CompareAndSwap(prev, h) {
			return h
		}
	}
}

// ManualClock is a Clock moved explicitly. Used by tests and the in-memory
// demo mode.
type ManualClock struct {
	mu     sync.Mutex
	height uint64
}

// NewManualClock creates a clock at height start.
func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{height: start}
}

// Height returns the current height.
func (c *ManualClock) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Advance moves the clock forward by n and returns the new height.
func (c *ManualClock) Advance(n uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height += n
	return c.height
}

// Set moves the clock to h.
func (c *ManualClock) Set(h uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = h
}
