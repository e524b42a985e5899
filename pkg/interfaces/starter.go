package interfaces

import (
	"context"
	"time"
)

// Starter 启动协调器
//
// 把并发的启动请求去抖为每个冷却窗口至多一次电源信号。
type Starter interface {
	// EnsureStarted 确保后端已启动或正在启动
	//
	// 冷却期内或后端已在运行/启动中时直接返回 nil。
	EnsureStarted(ctx context.Context) error

	// SinceLastStart 距上次发出启动信号的时长；从未发出时 ok 为 false
	SinceLastStart() (elapsed time.Duration, ok bool)
}
