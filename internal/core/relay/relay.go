// Package relay 在客户端与后端之间双向转发字节
//
// 两个方向独立复制。任一方向结束（EOF 或错误）时：
//   - 对端写方向半关闭，把 EOF 传递过去
//   - 两个连接都设置排空截止时间，保证另一方向在有限时间内结束
//
// 两个方向都结束后关闭两个连接，不会残留半开连接。
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-wakegate/internal/core/metrics"
	"github.com/dep2p/go-wakegate/internal/util/logger"
)

var log = logger.Logger("relay")

// ErrRelayIO 中继读写错误
var ErrRelayIO = errors.New("relay: io error")

// 方向标签
const (
	DirectionUpstream   = "upstream"
	DirectionDownstream = "downstream"
)

// Config 中继配置
type Config struct {
	// BackendAddr 后端地址
	BackendAddr string

	// DialTimeout 拨号超时
	DialTimeout time.Duration

	// DrainTimeout 一个方向结束后另一方向的最长排空时间
	DrainTimeout time.Duration
}

// Stats 一次中继的统计
type Stats struct {
	Upstream   int64
	Downstream int64
	Duration   time.Duration
}

// Relay 双向中继
type Relay struct {
	config  Config
	dialer  net.Dialer
	metrics *metrics.Metrics
	active  int64
}

// New 创建中继
func New(cfg Config, m *metrics.Metrics) *Relay {
	return &Relay{
		config:  cfg,
		dialer:  net.Dialer{Timeout: cfg.DialTimeout},
		metrics: m,
	}
}

// Active 当前中继数
func (r *Relay) Active() int64 {
	return atomic.LoadInt64(&r.active)
}

// DialBackend 连接后端
func (r *Relay) DialBackend(ctx context.Context) (net.Conn, error) {
	conn, err := r.dialer.DialContext(ctx, "tcp", r.config.BackendAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial backend %s: %v", ErrRelayIO, r.config.BackendAddr, err)
	}
	return conn, nil
}

// pair 一对正在中继的连接
type pair struct {
	client  net.Conn
	backend net.Conn
	drain   time.Duration

	draining  int32
	drainOnce sync.Once
	closed    int32
}

// Pipe 在两个已建立的连接之间转发，直到两个方向都结束
//
// 返回时两个连接都已关闭。返回的错误只用于日志。
func (r *Relay) Pipe(client, backend net.Conn, l *slog.Logger) (Stats, error) {
	if l == nil {
		l = log
	}

	atomic.AddInt64(&r.active, 1)
	r.metrics.RelayOpened()
	defer func() {
		atomic.AddInt64(&r.active, -1)
		r.metrics.RelayClosed()
	}()

	p := &pair{client: client, backend: backend, drain: r.config.DrainTimeout}
	start := time.Now()

	var stats Stats
	var g errgroup.Group

	// 客户端 -> 后端
	g.Go(func() error {
		n, err := p.copy(backend, client)
		atomic.AddInt64(&stats.Upstream, n)
		r.metrics.AddRelayBytes(DirectionUpstream, n)
		return err
	})

	// 后端 -> 客户端
	g.Go(func() error {
		n, err := p.copy(client, backend)
		atomic.AddInt64(&stats.Downstream, n)
		r.metrics.AddRelayBytes(DirectionDownstream, n)
		return err
	})

	err := g.Wait()
	closeErr := p.close()
	stats.Duration = time.Since(start)

	l.Debug("中继结束",
		"up", stats.Upstream,
		"down", stats.Downstream,
		"duration", stats.Duration)

	if err != nil {
		return stats, fmt.Errorf("%w: %v", ErrRelayIO, multierr.Append(err, closeErr))
	}
	return stats, nil
}

// copy 单向复制，结束后把 EOF 传给对端并开始排空
func (p *pair) copy(dst, src net.Conn) (int64, error) {
	n, err := io.Copy(dst, src)
	draining := atomic.LoadInt32(&p.draining) == 1

	closeWrite(dst)
	p.startDrain()

	if err != nil && !isBenign(err, draining) {
		return n, err
	}
	return n, nil
}

// startDrain 设置两个连接的截止时间
func (p *pair) startDrain() {
	p.drainOnce.Do(func() {
		atomic.StoreInt32(&p.draining, 1)
		if p.drain <= 0 {
			_ = p.client.Close()
			_ = p.backend.Close()
			return
		}
		deadline := time.Now().Add(p.drain)
		_ = p.client.SetDeadline(deadline)
		_ = p.backend.SetDeadline(deadline)
	})
}

// close 关闭两个连接
func (p *pair) close() error {
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return nil
	}
	return multierr.Combine(
		ignoreClosed(p.client.Close()),
		ignoreClosed(p.backend.Close()),
	)
}

// closeWrite 半关闭写方向；不支持时整体关闭
func closeWrite(c net.Conn) {
	if cw, ok := c.(interface{ CloseWrite() error }); ok {
		if err := cw.CloseWrite(); err == nil {
			return
		}
	}
	_ = c.Close()
}

// isBenign 连接关闭或排空超时引起的错误
func isBenign(err error, draining bool) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	if draining && errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	return false
}

func ignoreClosed(err error) error {
	if err == nil || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
