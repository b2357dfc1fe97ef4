package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// expirer is implemented by backends that hold expired entries until they
// are swept.
type expirer interface {
	DeleteExpired() int
}

// Cleaner periodically removes expired entries so that entries nobody reads
// again do not occupy capacity until eviction.
//
// Cleaner 定期清理过期条目，使不再被读取的条目不会一直占用容量直到被淘汰。
type Cleaner struct {
	target        expirer
	interval      time.Duration
	closeChan     chan struct{} // Shutdown signal / 关闭信号
	closeOnce     sync.Once
	wg            sync.WaitGroup
	cleanCount    uint64 // Completed sweeps / 清理次数
	expiredCount  uint64 // Entries removed / 过期项数量
	cleanDuration int64  // Duration of the last sweep in ns / 最近一次清理耗时（纳秒）
}

// CleanerStats reports the work done by a Cleaner.
type CleanerStats struct {
	Sweeps       uint64        `json:"sweeps"`
	Expired      uint64        `json:"expired"`
	LastDuration time.Duration `json:"last_duration"`
}

// newCleaner starts sweeping target every interval.
func newCleaner(target expirer, interval time.Duration) *Cleaner {
	c := &Cleaner{
		target:    target,
		interval:  interval,
		closeChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.loop()
	return c
}

func (c *Cleaner) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.closeChan:
			return
		}
	}
}

func (c *Cleaner) sweep() {
	start := time.Now()
	n := c.target.DeleteExpired()

	atomic.AddUint64(&c.cleanCount, 1)
	atomic.AddUint64(&c.expiredCount, uint64(n))
	atomic.StoreInt64(&c.cleanDuration, time.Since(start).Nanoseconds())
}

// Stats returns the counters of the cleaner.
func (c *Cleaner) Stats() CleanerStats {
	return CleanerStats{
		Sweeps:       atomic.LoadUint64(&c.cleanCount),
		Expired:      atomic.LoadUint64(&c.expiredCount),
		LastDuration: time.Duration(atomic.LoadInt64(&c.cleanDuration)),
	}
}

// Close stops the cleaner and waits for a running sweep. It is safe to call
// more than once.
//
// Close 停止清理器并等待正在进行的清理完成，可以多次调用。
func (c *Cleaner) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
	})
	c.wg.Wait()
}
