package idle

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ActivityClock 记录最近一次观察到活动的时间
//
// 由 Monitor 独占写入；其他组件只读。
type ActivityClock struct {
	clock clock.Clock

	mu             sync.Mutex
	lastActivityAt time.Time
}

// NewActivityClock 创建活动时钟，初始值为当前时间
func NewActivityClock(clk clock.Clock) *ActivityClock {
	if clk == nil {
		clk = clock.New()
	}
	return &ActivityClock{
		clock:          clk,
		lastActivityAt: clk.Now(),
	}
}

// Reset 将最近活动时间设为当前时间
func (a *ActivityClock) Reset() time.Time {
	now := a.clock.Now()
	a.mu.Lock()
	a.lastActivityAt = now
	a.mu.Unlock()
	return now
}

// LastActivity 返回最近活动时间
func (a *ActivityClock) LastActivity() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastActivityAt
}

// IdleFor 返回已空闲时长
func (a *ActivityClock) IdleFor() time.Duration {
	return a.clock.Since(a.LastActivity())
}
