package impersonator

import "errors"

// 代答相关错误
var (
	// ErrProtocol 客户端发送了当前阶段不接受的数据包
	ErrProtocol = errors.New("impersonator: protocol error")

	// ErrSessionDone 会话已结束
	ErrSessionDone = errors.New("impersonator: session done")
)
