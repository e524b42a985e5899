package impersonator

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-wakegate/internal/core/mcproto"
	"github.com/dep2p/go-wakegate/pkg/types"
)

func servePipe(t *testing.T, im *Impersonator, effective types.BackendState) (*mcproto.Conn, <-chan error) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })

	done := make(chan error, 1)
	go func() {
		done <- im.Serve(context.Background(), server, effective, nil)
	}()
	return mcproto.WrapConn(client), done
}

func TestImpersonator_StatusPing(t *testing.T) {
	im := New(Config{HandshakeTimeout: 2 * time.Second}, &mockStarter{}, nil)
	c, done := servePipe(t, im, types.BackendOffline)

	st, err := mcproto.QueryStatus(c, mcproto.Handshake{ProtocolVersion: 763, ServerAddress: "x", ServerPort: 25565})
	require.NoError(t, err)
	assert.Equal(t, MotdOffline, st.Description.Text)
	assert.Equal(t, int32(763), st.Version.Protocol)

	require.NoError(t, c.WritePacket(mcproto.PingPacket(42)))
	p, err := c.ReadPacket()
	require.NoError(t, err)
	payload, err := mcproto.ParsePing(p)
	require.NoError(t, err)
	assert.Equal(t, int64(42), payload)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("impersonator did not close after ping")
	}
}

func TestImpersonator_LoginLingersThenCloses(t *testing.T) {
	starter := &mockStarter{}
	im := New(Config{HandshakeTimeout: 2 * time.Second, LingerDelay: 50 * time.Millisecond}, starter, nil)
	c, done := servePipe(t, im, types.BackendOffline)

	require.NoError(t, c.WritePacket(mcproto.Handshake{ProtocolVersion: 764, NextState: mcproto.NextLogin}.Packet()))
	require.NoError(t, c.WritePacket(mcproto.LoginStartPacket("Steve")))

	p, err := c.ReadPacket()
	require.NoError(t, err)
	chat, err := mcproto.ParseDisconnect(p)
	require.NoError(t, err)
	assert.Equal(t, DisconnectWaking, chat.Text)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("impersonator did not close after login")
	}
	assert.Equal(t, 1, starter.calls)
}

func TestImpersonator_ClientDisconnectsDuringStatus(t *testing.T) {
	im := New(Config{HandshakeTimeout: 2 * time.Second}, nil, nil)
	c, done := servePipe(t, im, types.BackendUnknown)

	require.NoError(t, c.WritePacket(mcproto.Handshake{ProtocolVersion: 764, NextState: mcproto.NextStatus}.Packet()))
	require.NoError(t, c.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("impersonator did not return after client close")
	}
}

func TestImpersonator_HandshakeTimeout(t *testing.T) {
	im := New(Config{HandshakeTimeout: 50 * time.Millisecond}, nil, nil)
	_, done := servePipe(t, im, types.BackendOffline)

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handshake deadline not enforced")
	}
}
