package interfaces

import "context"

// ReachabilityProber 后端可达性探测
//
// 仅做一次短连接，成功或失败都是确定结果，没有中间态。
type ReachabilityProber interface {
	// Probe 返回后端地址当前是否接受连接
	Probe(ctx context.Context) bool
}

// ServerStatus 存活探测得到的后端状态
type ServerStatus struct {
	// OnlinePlayers 在线玩家数
	OnlinePlayers int

	// MaxPlayers 最大玩家数
	MaxPlayers int

	// Version 后端报告的版本名
	Version string
}

// StatusProber 应用层存活探测
//
// 只应在认为后端处于运行状态时调用。
type StatusProber interface {
	// ProbeStatus 发起一次状态查询
	ProbeStatus(ctx context.Context) (ServerStatus, error)
}
