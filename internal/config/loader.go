package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix 扩展配置项的环境变量前缀
const EnvPrefix = "WAKEGATE"

// legacyEnv 与早期部署保持一致的环境变量名
var legacyEnv = map[string]string{
	"listen.host":           "LISTEN_HOST",
	"listen.port":           "LISTEN_PORT",
	"backend.host":          "BACKEND_HOST",
	"backend.port":          "BACKEND_PORT",
	"controller.panel_url":  "PTERO_PANEL",
	"controller.server_id":  "PTERO_SERVER_ID",
	"controller.api_key":    "PTERO_API_KEY",
	"idle.shutdown_minutes": "IDLE_SHUTDOWN_MINUTES",
}

// LoadOptions 加载选项
type LoadOptions struct {
	// File 可选 YAML 配置文件
	File string

	// EnvFile 可选 dotenv 文件；其中的变量不会覆盖已存在的环境变量
	EnvFile string
}

// Load 加载并校验配置
//
// 优先级（从高到低）：环境变量 → dotenv 文件 → 配置文件 → 默认值。
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := loadEnvFile(opts.EnvFile); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	setDefaults(v, NewConfig())
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults 注册所有键的默认值（AutomaticEnv 只对已知键生效）
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("listen.host", d.Listen.Host)
	v.SetDefault("listen.port", d.Listen.Port)
	v.SetDefault("listen.accept_rate", d.Listen.AcceptRate)
	v.SetDefault("listen.accept_burst", d.Listen.AcceptBurst)
	v.SetDefault("listen.per_ip_rate", d.Listen.PerIPRate)
	v.SetDefault("listen.per_ip_burst", d.Listen.PerIPBurst)
	v.SetDefault("listen.max_connections", d.Listen.MaxConnections)

	v.SetDefault("backend.host", d.Backend.Host)
	v.SetDefault("backend.port", d.Backend.Port)
	v.SetDefault("backend.reachability_timeout", d.Backend.ReachabilityTimeout)
	v.SetDefault("backend.status_timeout", d.Backend.StatusTimeout)
	v.SetDefault("backend.dial_timeout", d.Backend.DialTimeout)
	v.SetDefault("backend.drain_timeout", d.Backend.DrainTimeout)

	v.SetDefault("controller.panel_url", d.Controller.PanelURL)
	v.SetDefault("controller.server_id", d.Controller.ServerID)
	v.SetDefault("controller.api_key", d.Controller.APIKey)
	v.SetDefault("controller.timeout", d.Controller.Timeout)

	v.SetDefault("idle.shutdown_minutes", d.Idle.ShutdownMinutes)
	v.SetDefault("idle.check_interval", d.Idle.CheckInterval)

	v.SetDefault("impersonation.icon_path", d.Impersonation.IconPath)
	v.SetDefault("impersonation.grace_window", d.Impersonation.GraceWindow)
	v.SetDefault("impersonation.handshake_timeout", d.Impersonation.HandshakeTimeout)
	v.SetDefault("impersonation.linger_delay", d.Impersonation.LingerDelay)

	v.SetDefault("metrics.addr", d.Metrics.Addr)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.fx_events", d.Log.FxEvents)
}

// bindEnv 为每个键绑定 WAKEGATE_<SECTION>_<KEY>，并追加旧变量名
func bindEnv(v *viper.Viper) error {
	for _, key := range v.AllKeys() {
		names := []string{key, EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// loadEnvFile 读取 dotenv 文件并写入进程环境（不覆盖已有变量）
func loadEnvFile(path string) error {
	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file: %w", err)
	}

	for _, key := range ev.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, ev.GetString(key)); err != nil {
			return fmt.Errorf("set env %s: %w", name, err)
		}
	}
	return nil
}
