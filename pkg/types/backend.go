package types

import "strings"

// ============================================================================
//                              BackendState - 后端生命周期状态
// ============================================================================

// BackendState 后端生命周期状态
//
// 由 Power Controller 给出；本地只在查询失败时构造 BackendUnknown。
// 不做持久化，每个决策点都重新查询。
type BackendState int

const (
	// BackendUnknown 未知（查询失败或无法识别的面板状态）
	BackendUnknown BackendState = iota
	// BackendStarting 启动中
	BackendStarting
	// BackendRunning 运行中
	BackendRunning
	// BackendOffline 已关机
	BackendOffline
)

// String 返回状态的字符串表示
func (s BackendState) String() string {
	switch s {
	case BackendStarting:
		return "starting"
	case BackendRunning:
		return "running"
	case BackendOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// IsUp 后端是否已运行或正在启动
func (s BackendState) IsUp() bool {
	return s == BackendRunning || s == BackendStarting
}

// ParseBackendState 解析面板返回的状态字符串
//
// "stopping" 以及无法识别的值都归为 BackendUnknown。
func ParseBackendState(s string) BackendState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running":
		return BackendRunning
	case "starting":
		return BackendStarting
	case "offline":
		return BackendOffline
	default:
		return BackendUnknown
	}
}

// ============================================================================
//                              PowerSignal - 电源信号
// ============================================================================

// PowerSignal 电源信号
type PowerSignal string

const (
	// SignalStart 启动
	SignalStart PowerSignal = "start"
	// SignalStop 停止
	SignalStop PowerSignal = "stop"
)

// Valid 是否为受支持的信号
func (p PowerSignal) Valid() bool {
	return p == SignalStart || p == SignalStop
}

// String 返回信号名
func (p PowerSignal) String() string {
	return string(p)
}
