package config

import "time"

// ============================================================================
//                              预设默认值
// ============================================================================

// 监听默认值
const (
	// DefaultListenHost 默认监听主机
	DefaultListenHost = "0.0.0.0"

	// DefaultListenPort 默认监听端口
	DefaultListenPort = 25565

	// DefaultAcceptBurst 默认接入突发上限
	DefaultAcceptBurst = 16

	// DefaultPerIPBurst 默认单 IP 突发上限
	DefaultPerIPBurst = 4
)

// 后端默认值
const (
	// DefaultBackendHost 默认后端主机
	DefaultBackendHost = "127.0.0.1"

	// DefaultBackendPort 默认后端端口
	DefaultBackendPort = 25566

	// DefaultReachabilityTimeout 默认可达性探测超时
	DefaultReachabilityTimeout = 2 * time.Second

	// DefaultStatusTimeout 默认状态探测超时
	DefaultStatusTimeout = 5 * time.Second

	// DefaultDialTimeout 默认中继拨号超时
	DefaultDialTimeout = 3 * time.Second

	// DefaultDrainTimeout 默认半关闭排空时长
	DefaultDrainTimeout = 5 * time.Second
)

// 控制器默认值
const (
	// DefaultControllerTimeout 默认面板调用超时
	DefaultControllerTimeout = 8 * time.Second
)

// 空闲关机默认值
const (
	// DefaultShutdownMinutes 默认空闲关机分钟数
	DefaultShutdownMinutes = 20

	// DefaultCheckInterval 默认空闲检查周期
	DefaultCheckInterval = 60 * time.Second
)

// 代答默认值
const (
	// DefaultIconPath 默认图标路径
	DefaultIconPath = "./server-icon.png"

	// DefaultGraceWindow 默认启动宽限窗口
	DefaultGraceWindow = 30 * time.Second

	// DefaultHandshakeTimeout 默认代答连接截止时间
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultLingerDelay 默认断开后保留时长
	DefaultLingerDelay = time.Second
)

// DefaultLogLevel 默认日志级别
const DefaultLogLevel = "info"

// NewConfig 返回填充了默认值的配置（不含必填的控制器凭证）
func NewConfig() *Config {
	return &Config{
		Listen: ListenConfig{
			Host:        DefaultListenHost,
			Port:        DefaultListenPort,
			AcceptBurst: DefaultAcceptBurst,
			PerIPBurst:  DefaultPerIPBurst,
		},
		Backend: BackendConfig{
			Host:                DefaultBackendHost,
			Port:                DefaultBackendPort,
			ReachabilityTimeout: DefaultReachabilityTimeout,
			StatusTimeout:       DefaultStatusTimeout,
			DialTimeout:         DefaultDialTimeout,
			DrainTimeout:        DefaultDrainTimeout,
		},
		Controller: ControllerConfig{
			Timeout: DefaultControllerTimeout,
		},
		Idle: IdleConfig{
			ShutdownMinutes: DefaultShutdownMinutes,
			CheckInterval:   DefaultCheckInterval,
		},
		Impersonation: ImpersonationConfig{
			IconPath:         DefaultIconPath,
			GraceWindow:      DefaultGraceWindow,
			HandshakeTimeout: DefaultHandshakeTimeout,
			LingerDelay:      DefaultLingerDelay,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}
