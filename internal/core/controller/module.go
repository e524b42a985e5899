package controller

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/internal/core/metrics"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config  *config.Config
	Metrics *metrics.Metrics `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Controller interfaces.PowerController
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) ModuleOutput {
	return ModuleOutput{
		Controller: NewClient(input.Config.Controller, WithMetrics(input.Metrics)),
	}
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("controller",
		fx.Provide(ProvideServices),
	)
}
