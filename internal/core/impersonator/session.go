package impersonator

import (
	"context"
	"fmt"

	pk "github.com/Tnze/go-mc/net/packet"

	"github.com/dep2p/go-wakegate/internal/core/mcproto"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
	"github.com/dep2p/go-wakegate/pkg/types"
)

// ============================================================================
//                              会话状态
// ============================================================================

// State 会话阶段
type State int

const (
	// StateHandshake 等待握手
	StateHandshake State = iota
	// StateStatus 状态查询阶段
	StateStatus
	// StateLogin 等待登录开始
	StateLogin
	// StateDone 已结束
	StateDone
)

// String 返回阶段名
func (s State) String() string {
	switch s {
	case StateHandshake:
		return "handshake"
	case StateStatus:
		return "status"
	case StateLogin:
		return "login"
	default:
		return "done"
	}
}

// Action 处理数据包后连接应采取的动作
type Action int

const (
	// ActionContinue 继续读取
	ActionContinue Action = iota
	// ActionClose 写完响应后立即关闭
	ActionClose
	// ActionLinger 写完响应后等待片刻再关闭
	ActionLinger
)

// Result 单个数据包的处理结果
type Result struct {
	// Replies 需要按序写回的数据包
	Replies []pk.Packet
	Action  Action
}

// Session 单个被代答连接的状态机
//
// 只处理数据包，不触碰网络；每个会话只服务一个连接，不复用。
type Session struct {
	effective types.BackendState
	favicon   string
	starter   interfaces.Starter

	state    State
	protocol int32
	username string
	started  bool
	startErr error
}

// NewSession 创建会话
func NewSession(effective types.BackendState, favicon string, starter interfaces.Starter) *Session {
	return &Session{
		effective: effective,
		favicon:   favicon,
		starter:   starter,
		state:     StateHandshake,
	}
}

// State 当前阶段
func (s *Session) State() State {
	return s.state
}

// Username 登录尝试中的玩家名
func (s *Session) Username() string {
	return s.username
}

// StartResult 登录时是否触发了启动以及其错误
func (s *Session) StartResult() (bool, error) {
	return s.started, s.startErr
}

// Handle 处理一个客户端数据包
//
// 返回 ErrProtocol 时连接应直接关闭。
func (s *Session) Handle(ctx context.Context, p pk.Packet) (Result, error) {
	switch s.state {
	case StateHandshake:
		return s.onHandshake(p)
	case StateStatus:
		return s.onStatus(p)
	case StateLogin:
		return s.onLogin(ctx, p)
	default:
		return Result{Action: ActionClose}, ErrSessionDone
	}
}

func (s *Session) fail(err error) (Result, error) {
	s.state = StateDone
	return Result{Action: ActionClose}, fmt.Errorf("%w: %v", ErrProtocol, err)
}

func (s *Session) onHandshake(p pk.Packet) (Result, error) {
	hs, err := mcproto.ParseHandshake(p)
	if err != nil {
		return s.fail(err)
	}

	s.protocol = hs.ProtocolVersion
	switch {
	case hs.NextState == mcproto.NextStatus:
		s.state = StateStatus
	case hs.NextState.IsLogin():
		s.state = StateLogin
	default:
		return s.fail(fmt.Errorf("unsupported next state %d", hs.NextState))
	}
	return Result{Action: ActionContinue}, nil
}

func (s *Session) onStatus(p pk.Packet) (Result, error) {
	switch p.ID {
	case mcproto.PacketStatusRequest:
		resp, err := mcproto.StatusResponsePacket(s.Status())
		if err != nil {
			return s.fail(err)
		}
		return Result{Replies: []pk.Packet{resp}, Action: ActionContinue}, nil

	case mcproto.PacketPingRequest:
		payload, err := mcproto.ParsePing(p)
		if err != nil {
			return s.fail(err)
		}
		s.state = StateDone
		return Result{Replies: []pk.Packet{mcproto.PongPacket(payload)}, Action: ActionClose}, nil

	default:
		return s.fail(fmt.Errorf("unexpected status packet 0x%02x", p.ID))
	}
}

func (s *Session) onLogin(ctx context.Context, p pk.Packet) (Result, error) {
	name, err := mcproto.ParseLoginStart(p)
	if err != nil {
		return s.fail(err)
	}
	s.username = name
	s.state = StateDone

	text := DisconnectWaking
	if s.starter != nil {
		s.started = true
		if err := s.starter.EnsureStarted(ctx); err != nil {
			s.startErr = err
			text = DisconnectFailed
		}
	}

	disconnect, err := mcproto.DisconnectPacket(text)
	if err != nil {
		return Result{Action: ActionClose}, err
	}
	return Result{Replies: []pk.Packet{disconnect}, Action: ActionLinger}, nil
}

// Status 构造状态响应
func (s *Session) Status() mcproto.Status {
	return mcproto.Status{
		Version: mcproto.Version{
			Name:     VersionName,
			Protocol: s.protocol,
		},
		Players: mcproto.Players{
			Max:    0,
			Online: 0,
			Sample: []mcproto.PlayerSample{{Name: SampleName, ID: SampleID}},
		},
		Description: mcproto.Text(Motd(s.effective)),
		Favicon:     s.favicon,
	}
}
