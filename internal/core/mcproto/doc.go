// Package mcproto 提供网关需要的最小 Minecraft Java 版协议编解码
//
// 只覆盖握手、状态（Server List Ping）和登录开始三个阶段的少量数据包，
// 底层分帧与 VarInt 编码使用 github.com/Tnze/go-mc。
//
// 编解码是对称的：服务端方向（网关代答）与客户端方向（状态探测 QueryStatus）
// 都在本包内。PingPacket、LoginStartPacket、ParseDisconnect 等客户端方向的
// 辅助函数目前只有测试在用，保留是为了让每种数据包都能双向编解码。
//
// # 状态阶段
//
//	C→S  0x00 Handshake(protocol, host, port, next=1)
//	C→S  0x00 StatusRequest
//	S→C  0x00 StatusResponse(json)
//	C→S  0x01 PingRequest(payload)
//	S→C  0x01 PongResponse(payload)
//
// # 登录阶段
//
//	C→S  0x00 Handshake(protocol, host, port, next=2)
//	C→S  0x00 LoginStart(name, ...)
//	S→C  0x00 Disconnect(chat json)
package mcproto
