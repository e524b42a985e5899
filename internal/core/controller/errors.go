package controller

import "errors"

// 面板调用相关错误
var (
	// ErrControllerUnreachable 面板不可达：网络、鉴权、超时或非 2xx 响应
	ErrControllerUnreachable = errors.New("controller: unreachable")

	// ErrUnexpectedResponse 响应体无法解析（同时满足 ErrControllerUnreachable）
	ErrUnexpectedResponse = errors.New("controller: unexpected response")

	// ErrInvalidSignal 不支持的电源信号
	ErrInvalidSignal = errors.New("controller: invalid power signal")
)
