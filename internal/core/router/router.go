// Package router 为每个入站连接决定转发还是代答
//
// 决策只在后端面板状态为 running 且端口可达时选择中继；
// 其余情况交给代答，并给出细化后的有效状态（EffectiveState）：
//
//	running 但不可达                → offline
//	offline/unknown 且处于启动宽限期 → starting
//	其他                            → 原样透传
package router

import (
	"context"
	"time"

	"github.com/dep2p/go-wakegate/internal/util/logger"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
	"github.com/dep2p/go-wakegate/pkg/types"
)

var log = logger.Logger("router")

// ============================================================================
//                              Route / Phase
// ============================================================================

// Route 路由结果
type Route int

const (
	// RouteImpersonate 由网关代答
	RouteImpersonate Route = iota
	// RouteRelay 中继到后端
	RouteRelay
)

// String 返回路由名
func (r Route) String() string {
	if r == RouteRelay {
		return "relay"
	}
	return "impersonate"
}

// Phase 单个连接的处理阶段
type Phase int

const (
	// PhaseDeciding 决策中（初始）
	PhaseDeciding Phase = iota
	// PhaseRelaying 中继中
	PhaseRelaying
	// PhaseImpersonating 代答中
	PhaseImpersonating
	// PhaseClosed 已结束
	PhaseClosed
)

// String 返回阶段名
func (p Phase) String() string {
	switch p {
	case PhaseDeciding:
		return "deciding"
	case PhaseRelaying:
		return "relaying"
	case PhaseImpersonating:
		return "impersonating"
	default:
		return "closed"
	}
}

// Next 返回路由结果对应的下一阶段；已结束的连接不再转移
func (p Phase) Next(r Route) Phase {
	if p != PhaseDeciding {
		return PhaseClosed
	}
	if r == RouteRelay {
		return PhaseRelaying
	}
	return PhaseImpersonating
}

// ============================================================================
//                              Decision
// ============================================================================

// Decision 路由决策
type Decision struct {
	Route Route

	// Backend 面板给出的原始状态（查询失败为 Unknown）
	Backend types.BackendState

	// Effective 细化后的有效状态，代答时使用
	Effective types.BackendState

	// Reachable 仅在 Backend 为 running 时探测
	Reachable bool
}

// EffectiveState 计算有效状态
//
// sinceStart/started 为距上次 start 信号的时长；started 为 false 表示从未发出。
func EffectiveState(backend types.BackendState, reachable bool, sinceStart time.Duration, started bool, grace time.Duration) types.BackendState {
	switch backend {
	case types.BackendRunning:
		if reachable {
			return types.BackendRunning
		}
		return types.BackendOffline
	case types.BackendOffline, types.BackendUnknown:
		if started && sinceStart < grace {
			return types.BackendStarting
		}
		return backend
	default:
		return backend
	}
}

// Router 连接路由器
type Router struct {
	controller interfaces.PowerController
	prober     interfaces.ReachabilityProber
	starter    interfaces.Starter
	grace      time.Duration
}

// NewRouter 创建路由器
func NewRouter(controller interfaces.PowerController, prober interfaces.ReachabilityProber,
	starter interfaces.Starter, grace time.Duration) *Router {
	return &Router{
		controller: controller,
		prober:     prober,
		starter:    starter,
		grace:      grace,
	}
}

// Decide 为一个连接做出路由决策
func (r *Router) Decide(ctx context.Context) Decision {
	backend, err := r.controller.QueryState(ctx)
	if err != nil {
		log.Debug("查询状态失败，按 unknown 处理", "err", err)
		backend = types.BackendUnknown
	}

	reachable := false
	if backend == types.BackendRunning {
		reachable = r.prober.Probe(ctx)
	}

	if backend == types.BackendRunning && reachable {
		return Decision{
			Route:     RouteRelay,
			Backend:   backend,
			Effective: types.BackendRunning,
			Reachable: true,
		}
	}

	var since time.Duration
	var started bool
	if r.starter != nil {
		since, started = r.starter.SinceLastStart()
	}

	return Decision{
		Route:     RouteImpersonate,
		Backend:   backend,
		Effective: EffectiveState(backend, reachable, since, started, r.grace),
		Reachable: reachable,
	}
}
