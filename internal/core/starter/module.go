package starter

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Controller interfaces.PowerController
	Clock      clock.Clock `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Starter     interfaces.Starter
	Coordinator *Coordinator
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) ModuleOutput {
	c := NewCoordinator(input.Controller, input.Clock)
	return ModuleOutput{
		Starter:     c,
		Coordinator: c,
	}
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("starter",
		fx.Provide(ProvideServices),
	)
}
