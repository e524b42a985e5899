// Package gateway 监听客户端连接并逐个分派
//
// 每个连接在独立的 goroutine 中处理：路由决策 → 中继或代答 → 结束。
// 停止时只关闭监听套接字，不强制中断进行中的中继。
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	temperrcatcher "github.com/jbenet/go-temp-err-catcher"
	"golang.org/x/net/netutil"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-wakegate/internal/core/impersonator"
	"github.com/dep2p/go-wakegate/internal/core/metrics"
	"github.com/dep2p/go-wakegate/internal/core/relay"
	"github.com/dep2p/go-wakegate/internal/core/router"
	"github.com/dep2p/go-wakegate/internal/util/logger"
	"github.com/dep2p/go-wakegate/pkg/types"
)

var log = logger.Logger("gateway")

// 路由指标标签（除 relay/impersonate 外）
const (
	routeFallback = "fallback"
	routeRejected = "rejected"
)

// Config 网关配置
type Config struct {
	// ListenAddr 监听地址
	ListenAddr string

	// AcceptRate 每秒允许的新连接数；0 表示不限
	AcceptRate float64

	// AcceptBurst 突发上限
	AcceptBurst int

	// PerIPRate 单个来源 IP 每秒允许的新连接数；0 表示不限
	PerIPRate float64

	// PerIPBurst 单个来源 IP 的突发上限
	PerIPBurst int

	// MaxConnections 同时处理的最大连接数；0 表示不限
	MaxConnections int
}

// Gateway 入站连接网关
type Gateway struct {
	config       Config
	router       *router.Router
	relay        *relay.Relay
	impersonator *impersonator.Impersonator
	metrics      *metrics.Metrics
	limiter      *rate.Limiter
	perIP        *ipLimiter

	listener net.Listener
	wg       sync.WaitGroup
	inflight int64

	running int32
	closed  int32
	ctx     context.Context
	cancel  context.CancelFunc
	quit    chan struct{}
	done    chan struct{}
}

// New 创建网关
func New(cfg Config, r *router.Router, rl *relay.Relay, im *impersonator.Impersonator, m *metrics.Metrics) *Gateway {
	g := &Gateway{
		config:       cfg,
		router:       r,
		relay:        rl,
		impersonator: im,
		metrics:      m,
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	if cfg.AcceptRate > 0 {
		burst := cfg.AcceptBurst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), burst)
	}
	if cfg.PerIPRate > 0 {
		g.perIP = newIPLimiter(cfg.PerIPRate, cfg.PerIPBurst)
	}
	return g
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 开始监听
func (g *Gateway) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&g.running, 0, 1) {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&g.running, 0)
		return err
	}
	if g.config.MaxConnections > 0 {
		// 达到上限后 Accept 阻塞，新连接在内核队列中等待
		ln = netutil.LimitListener(ln, g.config.MaxConnections)
	}
	g.serve(ln)

	log.Info("网关已启动", "addr", ln.Addr().String(), "max_conns", g.config.MaxConnections)
	return nil
}

// serve 在给定的监听器上开始接入
func (g *Gateway) serve(ln net.Listener) {
	g.listener = ln

	// 不使用 OnStart 的 ctx：它在 OnStart 返回后即被取消
	g.ctx, g.cancel = context.WithCancel(context.Background())

	go g.acceptLoop()
}

// Addr 返回实际监听地址
func (g *Gateway) Addr() net.Addr {
	if g.listener == nil {
		return nil
	}
	return g.listener.Addr()
}

// InFlight 正在处理的连接数
func (g *Gateway) InFlight() int64 {
	return atomic.LoadInt64(&g.inflight)
}

// Stop 关闭监听并等待进行中的连接
//
// ctx 到期后不再等待，取消代答中的连接；中继连接继续运行直到自然结束。
func (g *Gateway) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&g.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&g.running) == 0 {
		return nil
	}

	log.Info("网关停止中", "inflight", g.InFlight(), "relays", g.relay.Active())

	close(g.quit)
	err := g.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	<-g.done

	waited := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		log.Info("网关已停止")
	case <-ctx.Done():
		log.Warn("等待连接结束超时", "inflight", g.InFlight())
	}
	g.cancel()

	atomic.StoreInt32(&g.running, 0)
	return err
}

// ============================================================================
//                              接入
// ============================================================================

func (g *Gateway) acceptLoop() {
	defer close(g.done)

	// 除监听器关闭外的接入错误（EMFILE、ECONNABORTED 等）都退避后重试
	catcher := temperrcatcher.TempErrCatcher{
		IsTemp: func(err error) bool {
			return !errors.Is(err, net.ErrClosed)
		},
		Wait:  g.wait,
		Start: acceptBackoffStart,
		Max:   acceptBackoffMax,
	}

	for {
		conn, err := g.listener.Accept()
		if err != nil {
			if catcher.IsTemporary(err) {
				log.Warn("接受连接失败，退避后重试",
					"err", err,
					"temporary", temperrcatcher.ErrIsTemporary(err))
				continue
			}
			return
		}

		if !g.admit(conn) {
			g.metrics.ConnectionRouted(routeRejected)
			_ = conn.Close()
			continue
		}

		g.wg.Add(1)
		atomic.AddInt64(&g.inflight, 1)
		go func() {
			defer func() {
				atomic.AddInt64(&g.inflight, -1)
				g.wg.Done()
			}()
			g.handle(conn)
		}()
	}
}

// 接入错误退避区间
const (
	acceptBackoffStart = 5 * time.Millisecond
	acceptBackoffMax   = time.Second
)

// wait 退避等待；网关停止时提前返回
func (g *Gateway) wait(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-g.quit:
	}
}

// admit 依次检查全局速率与来源 IP 速率
func (g *Gateway) admit(conn net.Conn) bool {
	if g.limiter != nil && !g.limiter.Allow() {
		log.Debug("超出接入速率，拒绝连接", "remote", conn.RemoteAddr().String())
		return false
	}
	if g.perIP != nil && !g.perIP.Allow(conn.RemoteAddr()) {
		log.Debug("来源连接过于频繁，拒绝连接", "remote", conn.RemoteAddr().String())
		return false
	}
	return true
}

// ============================================================================
//                              单连接处理
// ============================================================================

// handle 处理一个连接：Deciding → Relaying | Impersonating → Closed
func (g *Gateway) handle(conn net.Conn) {
	l := logger.With("gateway",
		"conn", uuid.NewString()[:8],
		"remote", conn.RemoteAddr().String())

	phase := router.PhaseDeciding
	decision := g.router.Decide(g.ctx)
	phase = phase.Next(decision.Route)

	l.Info("新连接",
		"backend", decision.Backend,
		"reachable", decision.Reachable,
		"route", decision.Route)

	switch phase {
	case router.PhaseRelaying:
		if g.relayConn(conn, l) {
			break
		}
		// 拨号失败：按 offline 代答
		g.metrics.ConnectionRouted(routeFallback)
		g.impersonate(conn, types.BackendOffline, l)
	case router.PhaseImpersonating:
		g.metrics.ConnectionRouted(decision.Route.String())
		g.impersonate(conn, decision.Effective, l)
	default:
		_ = conn.Close()
	}

	l.Debug("连接结束", "phase", phase.Next(decision.Route))
}

// relayConn 连接后端并中继；拨号失败时返回 false，客户端连接保持打开
func (g *Gateway) relayConn(conn net.Conn, l *slog.Logger) bool {
	backend, err := g.relay.DialBackend(g.ctx)
	if err != nil {
		l.Warn("连接后端失败，改为代答", "err", err)
		return false
	}
	g.metrics.ConnectionRouted(router.RouteRelay.String())

	if _, err := g.relay.Pipe(conn, backend, l); err != nil {
		l.Debug("中继异常结束", "err", err)
	}
	return true
}

func (g *Gateway) impersonate(conn net.Conn, effective types.BackendState, l *slog.Logger) {
	if err := g.impersonator.Serve(g.ctx, conn, effective, l); err != nil {
		l.Debug("代答连接异常结束", "err", err)
	}
}
