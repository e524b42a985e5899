// Package liveness 通过一次状态查询读取后端在线玩家数
//
// 仅在后端被认为正在运行时调用。失败统一返回 ErrProbeFailed，
// 空闲监控把它当作"无结论"，既不推进也不重置空闲计时。
package liveness

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/dep2p/go-wakegate/internal/core/mcproto"
	"github.com/dep2p/go-wakegate/internal/util/logger"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
)

var log = logger.Logger("liveness")

// ErrProbeFailed 状态探测失败
var ErrProbeFailed = errors.New("liveness: probe failed")

// probeProtocolVersion 探测时声明的协议版本；-1 表示仅查询状态
const probeProtocolVersion = -1

var _ interfaces.StatusProber = (*Prober)(nil)

// Prober 状态探测器
type Prober struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

// NewProber 创建状态探测器
func NewProber(addr string, timeout time.Duration) *Prober {
	return &Prober{
		addr:    addr,
		timeout: timeout,
	}
}

// ProbeStatus 查询后端状态
func (p *Prober) ProbeStatus(ctx context.Context) (interfaces.ServerStatus, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	raw, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return interfaces.ServerStatus{}, fmt.Errorf("%w: dial %s: %v", ErrProbeFailed, p.addr, err)
	}
	c := mcproto.WrapConn(raw)
	defer c.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.Raw().SetDeadline(deadline)
	}

	host, port := splitHostPort(p.addr)
	st, err := mcproto.QueryStatus(c, mcproto.Handshake{
		ProtocolVersion: probeProtocolVersion,
		ServerAddress:   host,
		ServerPort:      port,
	})
	if err != nil {
		return interfaces.ServerStatus{}, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	status := interfaces.ServerStatus{
		OnlinePlayers: st.Players.Online,
		MaxPlayers:    st.Players.Max,
		Version:       st.Version.Name,
	}
	log.Debug("后端状态",
		"online", status.OnlinePlayers,
		"max", status.MaxPlayers,
		"version", status.Version)
	return status, nil
}

func splitHostPort(addr string) (string, uint16) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return host, 0
	}
	return host, uint16(port)
}
