// Package config 提供 wakegate 配置管理层
//
// config 包负责：
// - 定义配置结构
// - 提供默认值
// - 配置校验
// - 从文件、dotenv 与环境变量加载（viper）
package config

import (
	"net"
	"strconv"
	"time"
)

// Config 网关配置
type Config struct {
	// Listen 对外监听配置
	Listen ListenConfig `mapstructure:"listen"`

	// Backend 后端游戏服务器配置
	Backend BackendConfig `mapstructure:"backend"`

	// Controller 远端电源控制器（面板）配置
	Controller ControllerConfig `mapstructure:"controller"`

	// Idle 空闲关机配置
	Idle IdleConfig `mapstructure:"idle"`

	// Impersonation 代答配置
	Impersonation ImpersonationConfig `mapstructure:"impersonation"`

	// Metrics 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Log 日志配置
	Log LogConfig `mapstructure:"log"`
}

// ListenConfig 监听配置
type ListenConfig struct {
	// Host 监听主机
	Host string `mapstructure:"host"`

	// Port 监听端口
	Port int `mapstructure:"port"`

	// AcceptRate 每秒允许接入的新连接数（0 = 不限制）
	AcceptRate float64 `mapstructure:"accept_rate"`

	// AcceptBurst 接入突发上限
	AcceptBurst int `mapstructure:"accept_burst"`

	// PerIPRate 单个来源 IP 每秒允许的新连接数（0 = 不限制）
	PerIPRate float64 `mapstructure:"per_ip_rate"`

	// PerIPBurst 单个来源 IP 的突发上限
	PerIPBurst int `mapstructure:"per_ip_burst"`

	// MaxConnections 同时处理的最大连接数（0 = 不限制）
	MaxConnections int `mapstructure:"max_connections"`
}

// Addr 返回 host:port
func (c ListenConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// BackendConfig 后端配置
type BackendConfig struct {
	// Host 后端主机
	Host string `mapstructure:"host"`

	// Port 后端端口
	Port int `mapstructure:"port"`

	// ReachabilityTimeout 可达性探测超时
	ReachabilityTimeout time.Duration `mapstructure:"reachability_timeout"`

	// StatusTimeout 存活（状态）探测超时
	StatusTimeout time.Duration `mapstructure:"status_timeout"`

	// DialTimeout 中继拨号超时
	DialTimeout time.Duration `mapstructure:"dial_timeout"`

	// DrainTimeout 中继一侧关闭后，另一侧最多继续排空的时长
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

// Addr 返回 host:port
func (c BackendConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ControllerConfig 电源控制器配置
type ControllerConfig struct {
	// PanelURL 面板根地址
	PanelURL string `mapstructure:"panel_url"`

	// ServerID 面板中的服务器标识
	ServerID string `mapstructure:"server_id"`

	// APIKey Bearer 凭证
	APIKey string `mapstructure:"api_key"`

	// Timeout 单次调用超时
	Timeout time.Duration `mapstructure:"timeout"`
}

// IdleConfig 空闲关机配置
type IdleConfig struct {
	// ShutdownMinutes 空闲多少分钟后关机
	ShutdownMinutes int `mapstructure:"shutdown_minutes"`

	// CheckInterval 检查周期
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// Threshold 返回空闲阈值
func (c IdleConfig) Threshold() time.Duration {
	return time.Duration(c.ShutdownMinutes) * time.Minute
}

// ImpersonationConfig 代答配置
type ImpersonationConfig struct {
	// IconPath 服务器图标路径（不存在不算错误）
	IconPath string `mapstructure:"icon_path"`

	// GraceWindow 发出启动信号后，把 offline 视为 starting 的窗口
	GraceWindow time.Duration `mapstructure:"grace_window"`

	// HandshakeTimeout 代答连接的读写截止时间
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`

	// LingerDelay 登录断开消息发出后保留连接的时长
	LingerDelay time.Duration `mapstructure:"linger_delay"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Addr /metrics 监听地址（空 = 不启动）
	Addr string `mapstructure:"addr"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 默认日志级别（可被 WAKEGATE_LOG_LEVEL 的子系统配置覆盖）
	Level string `mapstructure:"level"`

	// FxEvents 是否输出 fx 容器事件
	FxEvents bool `mapstructure:"fx_events"`
}
