package impersonator

import "github.com/dep2p/go-wakegate/pkg/types"

// 状态描述文本
const (
	MotdRunning  = "§aServer is Awake! §7Join now"
	MotdStarting = "§eWaking up..."
	MotdOffline  = "§6Server is Sleeping 💤\n§7Join to wake it up!"
	MotdUnknown  = "§7Checking server status..."
)

// 登录断开文本
const (
	DisconnectWaking = "§6Server is waking up! 💤➡️⚡\n§7Please reconnect in ~30-60 seconds."
	DisconnectFailed = "§cFailed to start server. Try again later."
)

// 玩家列表占位
const (
	SampleName = "Server is sleeping 💤"
	SampleID   = "00000000-0000-0000-0000-000000000000"
)

// VersionName 状态响应中的版本名（协议号回显客户端，不会显示）
const VersionName = "wakegate"

// Motd 返回有效状态对应的描述
func Motd(state types.BackendState) string {
	switch state {
	case types.BackendRunning:
		return MotdRunning
	case types.BackendStarting:
		return MotdStarting
	case types.BackendOffline:
		return MotdOffline
	default:
		return MotdUnknown
	}
}
