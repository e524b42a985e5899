package icon

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/internal/config"
)

// Module 启动时加载图标；*ServerIcon 可能为 nil
var Module = fx.Module("icon",
	fx.Provide(func(cfg *config.Config) *ServerIcon {
		return Load(cfg.Impersonation.IconPath)
	}),
)
