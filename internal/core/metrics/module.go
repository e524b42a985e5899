package metrics

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/internal/config"
)

// Params 依赖参数
type Params struct {
	fx.In

	Config *config.Config `optional:"true"`
	LC     fx.Lifecycle
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(New),
	fx.Invoke(registerServer),
)

// registerServer 配置了地址时启动 HTTP 服务
func registerServer(p Params, m *Metrics) {
	if p.Config == nil || p.Config.Metrics.Addr == "" {
		return
	}

	srv := NewServer(p.Config.Metrics.Addr, m)
	p.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return srv.Stop(ctx)
		},
	})
}
