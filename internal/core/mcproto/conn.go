package mcproto

import (
	"fmt"
	"net"

	mcnet "github.com/Tnze/go-mc/net"
	pk "github.com/Tnze/go-mc/net/packet"
)

// Conn 带分帧的协议连接
type Conn struct {
	raw net.Conn
	mc  *mcnet.Conn
}

// WrapConn 包装原始 TCP 连接
func WrapConn(c net.Conn) *Conn {
	return &Conn{raw: c, mc: mcnet.WrapConn(c)}
}

// ReadPacket 读取一个数据包
func (c *Conn) ReadPacket() (pk.Packet, error) {
	var p pk.Packet
	if err := c.mc.ReadPacket(&p); err != nil {
		return pk.Packet{}, err
	}
	return p, nil
}

// WritePacket 写入一个数据包
func (c *Conn) WritePacket(p pk.Packet) error {
	return c.mc.WritePacket(p)
}

// Raw 返回底层连接
func (c *Conn) Raw() net.Conn {
	return c.raw
}

// Close 关闭连接
func (c *Conn) Close() error {
	return c.raw.Close()
}

// QueryStatus 作为客户端在已建立的连接上完成一次状态查询
//
// 调用方负责设置截止时间与关闭连接。
func QueryStatus(c *Conn, hs Handshake) (Status, error) {
	hs.NextState = NextStatus
	if err := c.WritePacket(hs.Packet()); err != nil {
		return Status{}, fmt.Errorf("write handshake: %w", err)
	}
	if err := c.WritePacket(StatusRequestPacket()); err != nil {
		return Status{}, fmt.Errorf("write status request: %w", err)
	}

	p, err := c.ReadPacket()
	if err != nil {
		return Status{}, fmt.Errorf("read status response: %w", err)
	}
	return ParseStatusResponse(p)
}
