// Package metrics 提供网关的 Prometheus 指标
//
// 所有采集器注册在独立的 Registry 上，不污染全局 DefaultRegisterer。
// *Metrics 的方法对 nil 接收者安全，未启用指标时调用方无需判空。
//
// # 指标
//
//	wakegate_connections_total{route}          按路由结果计数（relay/impersonate/fallback/rejected）
//	wakegate_active_relays                     当前中继数
//	wakegate_relay_bytes_total{direction}      中继字节数（upstream/downstream）
//	wakegate_power_signals_total{signal,result} 电源信号
//	wakegate_controller_requests_total{op,result}
//	wakegate_idle_ticks_total{outcome}         空闲检查结果
//	wakegate_idle_seconds                      当前空闲时长
//
// 配置 metrics.addr 后，Server 在该地址提供 /metrics 与 /healthz。
package metrics
