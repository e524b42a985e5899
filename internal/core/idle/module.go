package idle

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/internal/core/metrics"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config     *config.Config
	Controller interfaces.PowerController
	Prober     interfaces.StatusProber
	Clock      clock.Clock      `optional:"true"`
	Metrics    *metrics.Metrics `optional:"true"`
}

// ProvideMonitor 提供空闲监控
func ProvideMonitor(input ModuleInput) *Monitor {
	cfg := Config{
		Threshold: input.Config.Idle.Threshold(),
		Interval:  input.Config.Idle.CheckInterval,
	}
	return NewMonitor(cfg, input.Controller, input.Prober, nil, input.Clock, input.Metrics)
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("idle",
		fx.Provide(ProvideMonitor),
		fx.Invoke(registerLifecycle),
	)
}

// registerLifecycle 注册生命周期
func registerLifecycle(lc fx.Lifecycle, m *Monitor) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return m.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return m.Stop()
		},
	})
}
