package wakegate

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/internal/core/gateway"
	"github.com/dep2p/go-wakegate/internal/core/idle"
	"github.com/dep2p/go-wakegate/internal/core/metrics"
	"github.com/dep2p/go-wakegate/internal/core/starter"
	"github.com/dep2p/go-wakegate/internal/util/logger"
)

var log = logger.Logger("wakegate")

// State 网关状态
type State int

const (
	// StateIdle 已创建未启动
	StateIdle State = iota
	// StateRunning 运行中
	StateRunning
	// StateStopped 已停止
	StateStopped
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Gateway 唤醒网关
type Gateway struct {
	app *fx.App

	gateway     *gateway.Gateway
	monitor     *idle.Monitor
	coordinator *starter.Coordinator
	metrics     *metrics.Metrics

	mu    sync.Mutex
	state State
}

// New 创建网关（不启动）
func New(opts ...Option) (*Gateway, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if o.config == nil {
		cfg, err := LoadConfig(LoadOptions{})
		if err != nil {
			return nil, err
		}
		o.config = cfg
	}

	gw := &Gateway{}
	app, err := buildFxApp(o, gw)
	if err != nil {
		return nil, err
	}
	gw.app = app
	return gw, nil
}

// Start 快捷启动函数，等价于 New() + Start()
func Start(ctx context.Context, opts ...Option) (*Gateway, error) {
	gw, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := gw.Start(ctx); err != nil {
		return nil, fmt.Errorf("start gateway: %w", err)
	}
	return gw, nil
}

// Start 开始监听并启动空闲监控
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateIdle {
		return ErrAlreadyStarted
	}

	if err := g.app.Start(ctx); err != nil {
		log.Error("网关启动失败", "err", err)
		return err
	}

	g.state = StateRunning
	log.Info("网关已启动", "version", Version, "addr", g.Addr())
	return nil
}

// Stop 停止网关
//
// 关闭监听套接字并停止空闲监控；进行中的中继不会被强制中断。
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateRunning {
		return ErrNotStarted
	}

	err := g.app.Stop(ctx)
	g.state = StateStopped
	if err != nil {
		log.Error("网关停止失败", "err", err)
		return fmt.Errorf("stop fx app: %w", err)
	}

	log.Info("网关已停止")
	return nil
}

// State 返回当前状态
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Addr 返回实际监听地址；未启动时为 nil
func (g *Gateway) Addr() net.Addr {
	if g.gateway == nil {
		return nil
	}
	return g.gateway.Addr()
}

// Metrics 返回指标集合
func (g *Gateway) Metrics() *metrics.Metrics {
	return g.metrics
}

// CheckIdle 立即执行一次空闲检查，返回结果名
func (g *Gateway) CheckIdle(ctx context.Context) string {
	return g.monitor.Tick(ctx).String()
}

// EnsureStarted 立即请求启动后端（受冷却约束）
func (g *Gateway) EnsureStarted(ctx context.Context) error {
	return g.coordinator.EnsureStarted(ctx)
}
