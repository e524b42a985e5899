// Package impersonator 在后端未就绪时代替后端应答客户端
//
// 状态查询返回合成的描述与图标；登录尝试触发启动协调器，
// 然后以断开消息结束连接。连接从不升级为中继，玩家需在后端就绪后重连。
package impersonator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/dep2p/go-wakegate/internal/core/icon"
	"github.com/dep2p/go-wakegate/internal/core/mcproto"
	"github.com/dep2p/go-wakegate/internal/util/logger"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
	"github.com/dep2p/go-wakegate/pkg/types"
)

var log = logger.Logger("impersonator")

// Config 代答配置
type Config struct {
	// HandshakeTimeout 整个代答连接的截止时间
	HandshakeTimeout time.Duration

	// LingerDelay 发出登录断开消息后保留连接的时长
	LingerDelay time.Duration
}

// Impersonator 代答器
type Impersonator struct {
	config  Config
	starter interfaces.Starter
	icon    *icon.ServerIcon
}

// New 创建代答器
func New(cfg Config, starter interfaces.Starter, ic *icon.ServerIcon) *Impersonator {
	return &Impersonator{
		config:  cfg,
		starter: starter,
		icon:    ic,
	}
}

// Serve 代答一个连接，返回时连接已关闭
func (im *Impersonator) Serve(ctx context.Context, conn net.Conn, effective types.BackendState, l *slog.Logger) error {
	if l == nil {
		l = log
	}
	defer conn.Close()

	if im.config.HandshakeTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(im.config.HandshakeTimeout))
	}

	mc := mcproto.WrapConn(conn)
	session := NewSession(effective, im.icon.DataURI(), im.starter)

	for {
		p, err := mc.ReadPacket()
		if err != nil {
			if errors.Is(err, io.EOF) {
				l.Debug("客户端断开", "phase", session.State())
				return nil
			}
			l.Debug("读取数据包失败", "phase", session.State(), "err", err)
			return err
		}

		prev := session.State()
		res, err := session.Handle(ctx, p)
		if err != nil {
			l.Debug("代答协议错误", "phase", prev, "err", err)
			return err
		}

		// 登录时启动协调可能耗时，写回前刷新写截止时间
		if im.config.HandshakeTimeout > 0 && len(res.Replies) > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(im.config.HandshakeTimeout))
		}
		for _, reply := range res.Replies {
			if err := mc.WritePacket(reply); err != nil {
				l.Debug("写入响应失败", "phase", prev, "err", err)
				return err
			}
		}

		switch res.Action {
		case ActionClose:
			if prev == StateStatus {
				l.Debug("状态查询完成", "effective", effective)
			}
			return nil
		case ActionLinger:
			started, startErr := session.StartResult()
			l.Info("玩家在后端未就绪时尝试登录",
				"user", session.Username(),
				"effective", effective,
				"start_attempted", started,
				"start_err", startErr)
			im.linger(ctx)
			return nil
		}
	}
}

// linger 让客户端有时间读取断开消息
func (im *Impersonator) linger(ctx context.Context) {
	if im.config.LingerDelay <= 0 {
		return
	}
	t := time.NewTimer(im.config.LingerDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
