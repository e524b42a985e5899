package relay

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/internal/core/metrics"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config  *config.Config
	Metrics *metrics.Metrics `optional:"true"`
}

// ProvideRelay 提供中继
func ProvideRelay(input ModuleInput) *Relay {
	b := input.Config.Backend
	return New(Config{
		BackendAddr:  b.Addr(),
		DialTimeout:  b.DialTimeout,
		DrainTimeout: b.DrainTimeout,
	}, input.Metrics)
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("relay",
		fx.Provide(ProvideRelay),
	)
}
