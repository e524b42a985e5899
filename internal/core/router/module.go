package router

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config     *config.Config
	Controller interfaces.PowerController
	Prober     interfaces.ReachabilityProber
	Starter    interfaces.Starter
}

// ProvideRouter 提供路由器
func ProvideRouter(input ModuleInput) *Router {
	return NewRouter(input.Controller, input.Prober, input.Starter, input.Config.Impersonation.GraceWindow)
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("router",
		fx.Provide(ProvideRouter),
	)
}
