package gateway

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/internal/core/impersonator"
	"github.com/dep2p/go-wakegate/internal/core/metrics"
	"github.com/dep2p/go-wakegate/internal/core/relay"
	"github.com/dep2p/go-wakegate/internal/core/router"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config       *config.Config
	Router       *router.Router
	Relay        *relay.Relay
	Impersonator *impersonator.Impersonator
	Metrics      *metrics.Metrics `optional:"true"`
}

// ProvideGateway 提供网关
func ProvideGateway(input ModuleInput) *Gateway {
	l := input.Config.Listen
	return New(Config{
		ListenAddr:     l.Addr(),
		AcceptRate:     l.AcceptRate,
		AcceptBurst:    l.AcceptBurst,
		PerIPRate:      l.PerIPRate,
		PerIPBurst:     l.PerIPBurst,
		MaxConnections: l.MaxConnections,
	}, input.Router, input.Relay, input.Impersonator, input.Metrics)
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("gateway",
		fx.Provide(ProvideGateway),
		fx.Invoke(registerLifecycle),
	)
}

// registerLifecycle 注册生命周期
func registerLifecycle(lc fx.Lifecycle, g *Gateway) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return g.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return g.Stop(ctx)
		},
	})
}
