package wakegate

import (
	"errors"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/internal/core/controller"
	"github.com/dep2p/go-wakegate/internal/core/impersonator"
	"github.com/dep2p/go-wakegate/internal/core/liveness"
	"github.com/dep2p/go-wakegate/internal/core/reachability"
	"github.com/dep2p/go-wakegate/internal/core/relay"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 网关生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 网关未启动
	ErrNotStarted = errors.New("gateway not started")

	// ErrAlreadyStarted 网关已启动
	ErrAlreadyStarted = errors.New("gateway already started")

	// ────────────────────────────────────────────────────────────────────────
	// 组件错误（可用 errors.Is 匹配）
	// ────────────────────────────────────────────────────────────────────────

	// ErrConfigurationMissing 必填配置缺失
	ErrConfigurationMissing = config.ErrConfigurationMissing

	// ErrControllerUnreachable 面板不可达
	ErrControllerUnreachable = controller.ErrControllerUnreachable

	// ErrReachabilityProbeFailed 后端端口不可达
	ErrReachabilityProbeFailed = reachability.ErrProbeFailed

	// ErrStatusProbeFailed 后端状态查询失败
	ErrStatusProbeFailed = liveness.ErrProbeFailed

	// ErrRelayIO 中继读写错误
	ErrRelayIO = relay.ErrRelayIO

	// ErrProtocol 代答时客户端协议错误
	ErrProtocol = impersonator.ErrProtocol
)
