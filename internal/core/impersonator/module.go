package impersonator

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/internal/core/icon"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config  *config.Config
	Starter interfaces.Starter
	Icon    *icon.ServerIcon `optional:"true"`
}

// ProvideImpersonator 提供代答器
func ProvideImpersonator(input ModuleInput) *Impersonator {
	cfg := Config{
		HandshakeTimeout: input.Config.Impersonation.HandshakeTimeout,
		LingerDelay:      input.Config.Impersonation.LingerDelay,
	}
	return New(cfg, input.Starter, input.Icon)
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("impersonator",
		fx.Provide(ProvideImpersonator),
	)
}
