// Package reachability 判断后端端口是否真正在接受连接
//
// 面板报告 running 只代表进程已启动；Prober 在每次路由决策时
// 以短超时建立一次 TCP 连接来确认端口可用，随即关闭。
package reachability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/dep2p/go-wakegate/internal/util/logger"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
)

var log = logger.Logger("reachability")

// ErrProbeFailed 后端不可达
var ErrProbeFailed = errors.New("reachability: probe failed")

var _ interfaces.ReachabilityProber = (*Prober)(nil)

// Dialer 建立连接（便于测试替换）
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober TCP 可达性探测器
type Prober struct {
	addr    string
	timeout time.Duration
	dialer  Dialer
}

// NewProber 创建探测器
func NewProber(addr string, timeout time.Duration) *Prober {
	return &Prober{
		addr:    addr,
		timeout: timeout,
		dialer:  &net.Dialer{},
	}
}

// WithDialer 替换拨号器
func (p *Prober) WithDialer(d Dialer) *Prober {
	p.dialer = d
	return p
}

// Check 探测一次；失败返回包装了 ErrProbeFailed 的错误
func (p *Prober) Check(ctx context.Context) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrProbeFailed, p.addr, err)
	}
	_ = conn.Close()
	return nil
}

// Probe 后端是否可达
func (p *Prober) Probe(ctx context.Context) bool {
	if err := p.Check(ctx); err != nil {
		log.Debug("后端不可达", "addr", p.addr, "err", err)
		return false
	}
	return true
}
