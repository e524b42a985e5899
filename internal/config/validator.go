package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrConfigurationMissing 必填配置缺失（启动期致命错误）
var ErrConfigurationMissing = errors.New("configuration missing")

// ValidationError 配置校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config [%s]: %s", e.Field, e.Message)
}

// ValidationErrors 多个配置校验错误
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for i := range e {
		msgs = append(msgs, e[i].Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors 是否有错误
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator 配置校验器
type Validator struct {
	errors  ValidationErrors
	missing []string
}

// NewValidator 创建校验器
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

func (v *Validator) require(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.missing = append(v.missing, field)
		return false
	}
	return true
}

// Errors 返回所有错误
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// Validate 校验配置
//
// 必填项缺失时返回的错误满足 errors.Is(err, ErrConfigurationMissing)。
func Validate(config *Config) error {
	v := NewValidator()

	v.validateController(&config.Controller)
	// 0 表示由系统分配端口
	if config.Listen.Port != 0 {
		v.validatePort("listen.port", config.Listen.Port)
	}
	v.validatePort("backend.port", config.Backend.Port)
	v.require("backend.host", config.Backend.Host)

	v.validatePositive("backend.reachability_timeout", config.Backend.ReachabilityTimeout)
	v.validatePositive("backend.status_timeout", config.Backend.StatusTimeout)
	v.validatePositive("backend.dial_timeout", config.Backend.DialTimeout)
	v.validatePositive("backend.drain_timeout", config.Backend.DrainTimeout)
	v.validatePositive("idle.check_interval", config.Idle.CheckInterval)
	v.validatePositive("impersonation.handshake_timeout", config.Impersonation.HandshakeTimeout)

	if config.Idle.ShutdownMinutes < 1 {
		v.addError("idle.shutdown_minutes", "must be at least 1")
	}
	if config.Impersonation.GraceWindow < 0 {
		v.addError("impersonation.grace_window", "must not be negative")
	}
	if config.Impersonation.LingerDelay < 0 {
		v.addError("impersonation.linger_delay", "must not be negative")
	}
	if config.Listen.AcceptRate < 0 {
		v.addError("listen.accept_rate", "must not be negative")
	}
	if config.Listen.AcceptRate > 0 && config.Listen.AcceptBurst < 1 {
		v.addError("listen.accept_burst", "must be at least 1 when accept_rate is set")
	}
	if config.Listen.PerIPRate < 0 {
		v.addError("listen.per_ip_rate", "must not be negative")
	}
	if config.Listen.PerIPRate > 0 && config.Listen.PerIPBurst < 1 {
		v.addError("listen.per_ip_burst", "must be at least 1 when per_ip_rate is set")
	}
	if config.Listen.MaxConnections < 0 {
		v.addError("listen.max_connections", "must not be negative")
	}

	if len(v.missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(v.missing, ", "))
	}
	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateController(c *ControllerConfig) {
	if v.require("controller.panel_url", c.PanelURL) {
		u, err := url.Parse(c.PanelURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			v.addError("controller.panel_url", "must be an absolute http(s) URL")
		}
	}
	v.require("controller.server_id", c.ServerID)
	v.require("controller.api_key", c.APIKey)
	v.validatePositive("controller.timeout", c.Timeout)
}

func (v *Validator) validatePort(field string, port int) {
	if port < 1 || port > 65535 {
		v.addError(field, fmt.Sprintf("port %d out of range", port))
	}
}

func (v *Validator) validatePositive(field string, d time.Duration) {
	if d <= 0 {
		v.addError(field, "must be positive")
	}
}
