package wakegate

import (
	"errors"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
)

// Config 网关配置
type Config = config.Config

// LoadOptions 配置加载选项
type LoadOptions = config.LoadOptions

// NewConfig 返回默认配置（不含面板凭证）
func NewConfig() *Config {
	return config.NewConfig()
}

// LoadConfig 从文件、dotenv 与环境变量加载配置
func LoadConfig(opts LoadOptions) (*Config, error) {
	return config.Load(opts)
}

// Option 网关选项
type Option func(*options) error

// options 内部选项结构
type options struct {
	config *config.Config

	// 测试或嵌入时替换的组件
	clock      clock.Clock
	controller interfaces.PowerController
	status     interfaces.StatusProber

	// fxEvents 输出 fx 容器事件
	fxEvents bool

	// extra 追加的 fx 选项
	extra []fx.Option
}

// WithConfig 使用给定配置（会被校验）
func WithConfig(cfg *Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("nil config")
		}
		o.config = cfg
		return nil
	}
}

// WithClock 替换时间源
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		o.clock = c
		return nil
	}
}

// WithPowerController 替换面板客户端
func WithPowerController(pc interfaces.PowerController) Option {
	return func(o *options) error {
		o.controller = pc
		return nil
	}
}

// WithStatusProber 替换后端状态探测器
func WithStatusProber(sp interfaces.StatusProber) Option {
	return func(o *options) error {
		o.status = sp
		return nil
	}
}

// WithFxEvents 输出 fx 容器事件日志
func WithFxEvents(enable bool) Option {
	return func(o *options) error {
		o.fxEvents = enable
		return nil
	}
}

// WithFxOptions 追加 fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.extra = append(o.extra, opts...)
		return nil
	}
}
