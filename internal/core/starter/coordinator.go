// Package starter 对启动请求去抖
//
// 同一冷却窗口内最多发出一次 start 信号，无论有多少并发调用。
// lastStartIssuedAt 在发信号之前写入，失败也不回滚，避免面板抖动时形成重试风暴。
package starter

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-wakegate/internal/util/logger"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
	"github.com/dep2p/go-wakegate/pkg/types"
)

var log = logger.Logger("starter")

// Cooldown 两次 start 信号之间的最小间隔（不可配置）
const Cooldown = 15 * time.Second

// Outcome 一次 EnsureStarted 的结果
type Outcome int

const (
	// OutcomeCooldown 冷却期内，直接返回
	OutcomeCooldown Outcome = iota
	// OutcomeAlreadyUp 后端已在运行或启动中
	OutcomeAlreadyUp
	// OutcomeIssued 已发出 start 信号
	OutcomeIssued
	// OutcomeFailed 发出 start 信号失败（冷却仍被占用）
	OutcomeFailed
)

// String 返回结果名
func (o Outcome) String() string {
	switch o {
	case OutcomeCooldown:
		return "cooldown"
	case OutcomeAlreadyUp:
		return "already_up"
	case OutcomeIssued:
		return "issued"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var _ interfaces.Starter = (*Coordinator)(nil)

// Coordinator 启动协调器
type Coordinator struct {
	controller interfaces.PowerController
	clock      clock.Clock

	mu sync.Mutex
	// lastStartIssuedAt 零值表示从未发出
	lastStartIssuedAt time.Time
}

// NewCoordinator 创建启动协调器
func NewCoordinator(controller interfaces.PowerController, clk clock.Clock) *Coordinator {
	if clk == nil {
		clk = clock.New()
	}
	return &Coordinator{
		controller: controller,
		clock:      clk,
	}
}

// EnsureStarted 确保后端已启动或正在启动
//
// 只有发出 start 信号失败时返回错误（ErrControllerUnreachable）。
func (c *Coordinator) EnsureStarted(ctx context.Context) error {
	_, err := c.Attempt(ctx)
	return err
}

// Attempt 与 EnsureStarted 相同，额外返回结果类型
func (c *Coordinator) Attempt(ctx context.Context) (Outcome, error) {
	c.mu.Lock()

	now := c.clock.Now()
	if !c.lastStartIssuedAt.IsZero() && now.Sub(c.lastStartIssuedAt) < Cooldown {
		c.mu.Unlock()
		log.Debug("冷却期内，跳过启动", "since", now.Sub(c.lastStartIssuedAt))
		return OutcomeCooldown, nil
	}

	// 查询失败视为 Unknown，继续发信号
	state, err := c.controller.QueryState(ctx)
	if err != nil {
		log.Debug("启动前查询状态失败", "err", err)
	}
	if state.IsUp() {
		c.mu.Unlock()
		log.Debug("后端已在运行，跳过启动", "state", state)
		return OutcomeAlreadyUp, nil
	}

	c.lastStartIssuedAt = now
	c.mu.Unlock()

	log.Info("发出启动信号", "state", state)
	if err := c.controller.IssuePower(ctx, types.SignalStart); err != nil {
		log.Warn("启动信号失败", "err", err)
		return OutcomeFailed, err
	}
	return OutcomeIssued, nil
}

// SinceLastStart 距上次发出 start 信号的时长；从未发出时 ok 为 false
func (c *Coordinator) SinceLastStart() (time.Duration, bool) {
	c.mu.Lock()
	last := c.lastStartIssuedAt
	c.mu.Unlock()

	if last.IsZero() {
		return 0, false
	}
	return c.clock.Since(last), true
}
