// Package idle 实现空闲关机监控
//
// Monitor 按固定周期执行一次 Tick：
//  1. 查询面板状态；非 running 时重置活动时钟
//  2. 探测在线玩家；失败时不改变任何状态
//  3. 有玩家在线时重置活动时钟
//  4. 空闲时长达到阈值时发出 stop，成功后重置活动时钟
//
// 任何失败都只记录日志，等待下一个周期。
package idle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-wakegate/internal/core/metrics"
	"github.com/dep2p/go-wakegate/internal/util/logger"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
	"github.com/dep2p/go-wakegate/pkg/types"
)

var log = logger.Logger("idle")

// Outcome 单次检查的结果
type Outcome int

const (
	// OutcomeQueryFailed 面板查询失败，无结论
	OutcomeQueryFailed Outcome = iota
	// OutcomeNotRunning 后端未运行，时钟已重置
	OutcomeNotRunning
	// OutcomeProbeFailed 状态探测失败，无结论
	OutcomeProbeFailed
	// OutcomeActive 有玩家在线，时钟已重置
	OutcomeActive
	// OutcomeIdle 无玩家，未达阈值
	OutcomeIdle
	// OutcomeStopped 已发出 stop 信号
	OutcomeStopped
	// OutcomeStopFailed 发出 stop 信号失败
	OutcomeStopFailed
)

// String 返回结果名
func (o Outcome) String() string {
	switch o {
	case OutcomeQueryFailed:
		return "query_failed"
	case OutcomeNotRunning:
		return "not_running"
	case OutcomeProbeFailed:
		return "probe_failed"
	case OutcomeActive:
		return "active"
	case OutcomeIdle:
		return "idle"
	case OutcomeStopped:
		return "stopped"
	case OutcomeStopFailed:
		return "stop_failed"
	default:
		return "unknown"
	}
}

// Config 监控配置
type Config struct {
	// Threshold 空闲阈值
	Threshold time.Duration

	// Interval 检查周期
	Interval time.Duration
}

// Monitor 空闲监控
type Monitor struct {
	config     Config
	controller interfaces.PowerController
	prober     interfaces.StatusProber
	activity   *ActivityClock
	clock      clock.Clock
	metrics    *metrics.Metrics

	// tickMu 保证 Tick 串行
	tickMu sync.Mutex

	running int32
	closed  int32
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewMonitor 创建空闲监控
func NewMonitor(cfg Config, controller interfaces.PowerController, prober interfaces.StatusProber,
	activity *ActivityClock, clk clock.Clock, m *metrics.Metrics) *Monitor {
	if clk == nil {
		clk = clock.New()
	}
	if activity == nil {
		activity = NewActivityClock(clk)
	}
	return &Monitor{
		config:     cfg,
		controller: controller,
		prober:     prober,
		activity:   activity,
		clock:      clk,
		metrics:    m,
		done:       make(chan struct{}),
	}
}

// Activity 返回活动时钟
func (m *Monitor) Activity() *ActivityClock {
	return m.activity
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动周期检查
func (m *Monitor) Start(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&m.running, 0, 1) {
		return nil
	}

	// 不使用 OnStart 的 ctx：它在 OnStart 返回后即被取消
	m.ctx, m.cancel = context.WithCancel(context.Background())

	go m.loop()

	log.Info("空闲监控已启动",
		"threshold", m.config.Threshold,
		"interval", m.config.Interval)
	return nil
}

// Stop 停止周期检查并等待当前 Tick 结束
func (m *Monitor) Stop() error {
	if !atomic.CompareAndSwapInt32(&m.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&m.running) == 0 {
		return nil
	}

	m.cancel()
	<-m.done

	atomic.StoreInt32(&m.running, 0)
	log.Info("空闲监控已停止")
	return nil
}

func (m *Monitor) loop() {
	defer close(m.done)

	ticker := m.clock.Ticker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.Tick(m.ctx)
		}
	}
}

// ============================================================================
//                              检查
// ============================================================================

// Tick 执行一次检查
func (m *Monitor) Tick(ctx context.Context) Outcome {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	outcome := m.tick(ctx)
	m.metrics.IdleTick(outcome.String())
	return outcome
}

func (m *Monitor) tick(ctx context.Context) Outcome {
	state, err := m.controller.QueryState(ctx)
	if err != nil {
		log.Debug("查询状态失败，跳过本次检查", "err", err)
		return OutcomeQueryFailed
	}

	if state != types.BackendRunning {
		m.activity.Reset()
		m.metrics.SetIdleSeconds(0)
		return OutcomeNotRunning
	}

	status, err := m.prober.ProbeStatus(ctx)
	if err != nil {
		log.Warn("状态探测失败，跳过本次检查", "err", err)
		return OutcomeProbeFailed
	}

	if status.OnlinePlayers > 0 {
		m.activity.Reset()
		m.metrics.SetIdleSeconds(0)
		log.Debug("有玩家在线", "online", status.OnlinePlayers)
		return OutcomeActive
	}

	idleFor := m.activity.IdleFor()
	m.metrics.SetIdleSeconds(idleFor.Seconds())
	if idleFor < m.config.Threshold {
		log.Debug("服务器空闲", "idle", idleFor, "threshold", m.config.Threshold)
		return OutcomeIdle
	}

	log.Info("空闲时间达到阈值，关闭服务器", "idle", idleFor)
	if err := m.controller.IssuePower(ctx, types.SignalStop); err != nil {
		log.Warn("关闭服务器失败", "err", err)
		return OutcomeStopFailed
	}

	m.activity.Reset()
	m.metrics.SetIdleSeconds(0)
	return OutcomeStopped
}
