package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace 指标命名空间
const Namespace = "wakegate"

// 结果标签
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics 网关指标集合
type Metrics struct {
	registry *prometheus.Registry

	connections        *prometheus.CounterVec
	activeRelays       prometheus.Gauge
	relayBytes         *prometheus.CounterVec
	powerSignals       *prometheus.CounterVec
	controllerRequests *prometheus.CounterVec
	idleTicks          *prometheus.CounterVec
	idleSeconds        prometheus.Gauge
}

// New 创建指标集合，并注册进程与 Go 运行时采集器
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		connections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_total",
			Help:      "Inbound connections by routing decision.",
		}, []string{"route"}),
		activeRelays: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_relays",
			Help:      "Relays currently piping bytes to the backend.",
		}),
		relayBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "relay_bytes_total",
			Help:      "Bytes relayed between clients and the backend.",
		}, []string{"direction"}),
		powerSignals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "power_signals_total",
			Help:      "Power signals sent to the panel.",
		}, []string{"signal", "result"}),
		controllerRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "controller_requests_total",
			Help:      "Requests made to the panel API.",
		}, []string{"op", "result"}),
		idleTicks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "idle_ticks_total",
			Help:      "Idle monitor ticks by outcome.",
		}, []string{"outcome"}),
		idleSeconds: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "idle_seconds",
			Help:      "Seconds since the last observed activity on a running backend.",
		}),
	}
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ConnectionRouted 记录一次路由决策
func (m *Metrics) ConnectionRouted(route string) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(route).Inc()
}

// RelayOpened 中继建立
func (m *Metrics) RelayOpened() {
	if m == nil {
		return
	}
	m.activeRelays.Inc()
}

// RelayClosed 中继结束
func (m *Metrics) RelayClosed() {
	if m == nil {
		return
	}
	m.activeRelays.Dec()
}

// AddRelayBytes 累加中继字节数
func (m *Metrics) AddRelayBytes(direction string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.relayBytes.WithLabelValues(direction).Add(float64(n))
}

// PowerSignal 记录电源信号结果
func (m *Metrics) PowerSignal(signal string, err error) {
	if m == nil {
		return
	}
	m.powerSignals.WithLabelValues(signal, result(err)).Inc()
}

// ControllerRequest 记录面板请求结果
func (m *Metrics) ControllerRequest(op string, err error) {
	if m == nil {
		return
	}
	m.controllerRequests.WithLabelValues(op, result(err)).Inc()
}

// IdleTick 记录空闲检查结果
func (m *Metrics) IdleTick(outcome string) {
	if m == nil {
		return
	}
	m.idleTicks.WithLabelValues(outcome).Inc()
}

// SetIdleSeconds 设置当前空闲时长
func (m *Metrics) SetIdleSeconds(seconds float64) {
	if m == nil {
		return
	}
	m.idleSeconds.Set(seconds)
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
