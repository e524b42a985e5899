package gateway

import (
	"net"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// perIPCapacity 跟踪的来源 IP 上限；超出后淘汰最久未见的
const perIPCapacity = 4096

// ipLimiter 按来源 IP 限制新连接速率
type ipLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *lru.Cache[string, *rate.Limiter]
}

func newIPLimiter(r float64, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	cache, err := lru.New[string, *rate.Limiter](perIPCapacity)
	if err != nil {
		// 仅在容量非正时返回错误
		panic(err)
	}
	return &ipLimiter{
		limit:    rate.Limit(r),
		burst:    burst,
		limiters: cache,
	}
}

// Allow 检查该地址是否允许新连接
func (l *ipLimiter) Allow(addr net.Addr) bool {
	key := hostOf(addr)

	l.mu.Lock()
	lim, ok := l.limiters.Get(key)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(key, lim)
	}
	l.mu.Unlock()

	return lim.Allow()
}

// Len 当前跟踪的来源数
func (l *ipLimiter) Len() int {
	return l.limiters.Len()
}

func hostOf(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
