package interfaces

import (
	"context"

	"github.com/dep2p/go-wakegate/pkg/types"
)

// PowerController 远端电源控制器
//
// 实现内部不做重试；失败统一返回 ErrControllerUnreachable 语义的错误，
// 由调用方决定是否重试。
type PowerController interface {
	// QueryState 查询后端当前生命周期状态
	//
	// 调用方必须把失败视为 BackendUnknown，而不是 BackendOffline。
	QueryState(ctx context.Context) (types.BackendState, error)

	// IssuePower 发送电源信号
	IssuePower(ctx context.Context, signal types.PowerSignal) error
}
