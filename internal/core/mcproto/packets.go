package mcproto

import (
	"errors"
	"fmt"

	pk "github.com/Tnze/go-mc/net/packet"
)

// 数据包 ID
const (
	// PacketHandshake 握手（handshaking 阶段）
	PacketHandshake int32 = 0x00

	// PacketStatusRequest / PacketStatusResponse 状态请求与响应
	PacketStatusRequest  int32 = 0x00
	PacketStatusResponse int32 = 0x00

	// PacketPingRequest / PacketPongResponse 延迟探测
	PacketPingRequest  int32 = 0x01
	PacketPongResponse int32 = 0x01

	// PacketLoginStart 登录开始
	PacketLoginStart int32 = 0x00

	// PacketLoginDisconnect 登录阶段断开
	PacketLoginDisconnect int32 = 0x00
)

// NextState 握手后的目标阶段
type NextState int32

const (
	// NextStatus 状态查询
	NextStatus NextState = 1
	// NextLogin 登录
	NextLogin NextState = 2
	// NextTransfer 服务器转移（1.20.5+），按登录处理
	NextTransfer NextState = 3
)

// IsLogin 是否进入登录阶段
func (n NextState) IsLogin() bool {
	return n == NextLogin || n == NextTransfer
}

// ErrMalformedPacket 数据包格式错误
var ErrMalformedPacket = errors.New("mcproto: malformed packet")

// ============================================================================
//                              Handshake
// ============================================================================

// Handshake 握手包
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState
}

// ParseHandshake 解析握手包
func ParseHandshake(p pk.Packet) (Handshake, error) {
	if p.ID != PacketHandshake {
		return Handshake{}, fmt.Errorf("%w: handshake id 0x%02x", ErrMalformedPacket, p.ID)
	}

	var (
		protocol pk.VarInt
		addr     pk.String
		port     pk.UnsignedShort
		next     pk.VarInt
	)
	if err := p.Scan(&protocol, &addr, &port, &next); err != nil {
		return Handshake{}, fmt.Errorf("%w: handshake: %v", ErrMalformedPacket, err)
	}

	return Handshake{
		ProtocolVersion: int32(protocol),
		ServerAddress:   string(addr),
		ServerPort:      uint16(port),
		NextState:       NextState(next),
	}, nil
}

// Packet 编码握手包
func (h Handshake) Packet() pk.Packet {
	return pk.Marshal(
		PacketHandshake,
		pk.VarInt(h.ProtocolVersion),
		pk.String(h.ServerAddress),
		pk.UnsignedShort(h.ServerPort),
		pk.VarInt(h.NextState),
	)
}

// ============================================================================
//                              Status / Ping
// ============================================================================

// StatusRequestPacket 空状态请求
func StatusRequestPacket() pk.Packet {
	return pk.Marshal(PacketStatusRequest)
}

// StatusResponsePacket 编码状态响应
func StatusResponsePacket(s Status) (pk.Packet, error) {
	data, err := s.JSON()
	if err != nil {
		return pk.Packet{}, err
	}
	return pk.Marshal(PacketStatusResponse, pk.String(data)), nil
}

// ParseStatusResponse 解析状态响应
func ParseStatusResponse(p pk.Packet) (Status, error) {
	if p.ID != PacketStatusResponse {
		return Status{}, fmt.Errorf("%w: status response id 0x%02x", ErrMalformedPacket, p.ID)
	}

	var data pk.String
	if err := p.Scan(&data); err != nil {
		return Status{}, fmt.Errorf("%w: status response: %v", ErrMalformedPacket, err)
	}
	return ParseStatus([]byte(data))
}

// PingPacket 编码 Ping 请求
func PingPacket(payload int64) pk.Packet {
	return pk.Marshal(PacketPingRequest, pk.Long(payload))
}

// ParsePing 解析 Ping 请求（或 Pong 响应）的负载
func ParsePing(p pk.Packet) (int64, error) {
	if p.ID != PacketPingRequest {
		return 0, fmt.Errorf("%w: ping id 0x%02x", ErrMalformedPacket, p.ID)
	}

	var payload pk.Long
	if err := p.Scan(&payload); err != nil {
		return 0, fmt.Errorf("%w: ping: %v", ErrMalformedPacket, err)
	}
	return int64(payload), nil
}

// PongPacket 编码 Pong 响应
func PongPacket(payload int64) pk.Packet {
	return pk.Marshal(PacketPongResponse, pk.Long(payload))
}

// ============================================================================
//                              Login
// ============================================================================

// ParseLoginStart 解析登录开始包，返回玩家名
//
// 不同版本在玩家名之后附带签名或 UUID，这里只读取玩家名。
func ParseLoginStart(p pk.Packet) (string, error) {
	if p.ID != PacketLoginStart {
		return "", fmt.Errorf("%w: login start id 0x%02x", ErrMalformedPacket, p.ID)
	}

	var name pk.String
	if err := p.Scan(&name); err != nil {
		return "", fmt.Errorf("%w: login start: %v", ErrMalformedPacket, err)
	}
	return string(name), nil
}

// LoginStartPacket 编码登录开始包（仅玩家名）
func LoginStartPacket(name string) pk.Packet {
	return pk.Marshal(PacketLoginStart, pk.String(name))
}

// DisconnectPacket 编码登录阶段断开包
func DisconnectPacket(text string) (pk.Packet, error) {
	data, err := Text(text).JSON()
	if err != nil {
		return pk.Packet{}, err
	}
	return pk.Marshal(PacketLoginDisconnect, pk.String(data)), nil
}

// ParseDisconnect 解析断开包中的文本
func ParseDisconnect(p pk.Packet) (Chat, error) {
	if p.ID != PacketLoginDisconnect {
		return Chat{}, fmt.Errorf("%w: disconnect id 0x%02x", ErrMalformedPacket, p.ID)
	}

	var data pk.String
	if err := p.Scan(&data); err != nil {
		return Chat{}, fmt.Errorf("%w: disconnect: %v", ErrMalformedPacket, err)
	}

	var c Chat
	if err := c.UnmarshalJSON([]byte(data)); err != nil {
		return Chat{}, fmt.Errorf("%w: disconnect: %v", ErrMalformedPacket, err)
	}
	return c, nil
}
