package reachability

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Prober interfaces.ReachabilityProber
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) ModuleOutput {
	b := input.Config.Backend
	return ModuleOutput{
		Prober: NewProber(b.Addr(), b.ReachabilityTimeout),
	}
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("reachability",
		fx.Provide(ProvideServices),
	)
}
