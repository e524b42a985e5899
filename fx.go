package wakegate

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/internal/core/controller"
	"github.com/dep2p/go-wakegate/internal/core/gateway"
	"github.com/dep2p/go-wakegate/internal/core/icon"
	"github.com/dep2p/go-wakegate/internal/core/idle"
	"github.com/dep2p/go-wakegate/internal/core/impersonator"
	"github.com/dep2p/go-wakegate/internal/core/liveness"
	"github.com/dep2p/go-wakegate/internal/core/metrics"
	"github.com/dep2p/go-wakegate/internal/core/reachability"
	"github.com/dep2p/go-wakegate/internal/core/relay"
	"github.com/dep2p/go-wakegate/internal/core/router"
	"github.com/dep2p/go-wakegate/internal/core/starter"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 基础：配置、时钟、指标、图标
//  2. 叶子组件：面板客户端、可达性探测、状态探测
//  3. 状态机：启动协调、空闲监控
//  4. 连接路径：路由、代答、中继、网关
func buildFxApp(o *options, gw *Gateway) (*fx.App, error) {
	if err := config.Validate(o.config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	clk := o.clock
	if clk == nil {
		clk = clock.New()
	}

	modules := []fx.Option{
		// 配置注入
		fx.Supply(o.config),
		fx.Provide(func() clock.Clock { return clk }),

		metrics.Module,
		icon.Module,
	}

	// 叶子组件（可替换）
	if o.controller != nil {
		pc := o.controller
		modules = append(modules, fx.Provide(func() interfaces.PowerController { return pc }))
	} else {
		modules = append(modules, controller.Module())
	}
	if o.status != nil {
		sp := o.status
		modules = append(modules, fx.Provide(func() interfaces.StatusProber { return sp }))
	} else {
		modules = append(modules, liveness.Module())
	}
	modules = append(modules, reachability.Module())

	modules = append(modules,
		starter.Module(),
		idle.Module(),
		router.Module(),
		impersonator.Module(),
		relay.Module(),
		gateway.Module(),
	)

	modules = append(modules, o.extra...)

	modules = append(modules,
		fx.Populate(&gw.gateway, &gw.monitor, &gw.coordinator, &gw.metrics),
		fx.WithLogger(func() fxevent.Logger {
			if o.fxEvents {
				l, err := zap.NewDevelopment()
				if err == nil {
					return &fxevent.ZapLogger{Logger: l}
				}
			}
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return app, nil
}
