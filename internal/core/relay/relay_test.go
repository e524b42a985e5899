package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-wakegate/internal/core/metrics"
)

// tcpPair 返回一对已连接的回环 TCP 连接
func tcpPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- c
	}()

	dialed, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	srv, ok := <-accepted
	require.True(t, ok)

	t.Cleanup(func() {
		_ = dialed.Close()
		_ = srv.Close()
	})
	return dialed, srv
}

type pipeResult struct {
	stats Stats
	err   error
}

// startPipe 建立 用户 <-> [client | relay | backend] <-> 后端
func startPipe(t *testing.T, r *Relay) (user, server net.Conn, done <-chan pipeResult) {
	t.Helper()
	user, clientSide := tcpPair(t)
	backendSide, server := tcpPair(t)

	ch := make(chan pipeResult, 1)
	go func() {
		st, err := r.Pipe(clientSide, backendSide, nil)
		ch <- pipeResult{st, err}
	}()
	return user, server, ch
}

func TestRelay_Bidirectional(t *testing.T) {
	r := New(Config{DrainTimeout: time.Second}, metrics.New())
	user, server, done := startPipe(t, r)

	_, err := user.Write([]byte("hello backend"))
	require.NoError(t, err)
	buf := make([]byte, 13)
	_, err = io.ReadFull(server, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello backend", string(buf))

	_, err = server.Write([]byte("hi"))
	require.NoError(t, err)
	buf = make([]byte, 2)
	_, err = io.ReadFull(user, buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf))

	require.NoError(t, user.Close())

	select {
	case res := <-done:
		assert.NoError(t, res.err)
		assert.Equal(t, int64(13), res.stats.Upstream)
		assert.Equal(t, int64(2), res.stats.Downstream)
	case <-time.After(3 * time.Second):
		t.Fatal("relay did not finish after client close")
	}
	assert.Zero(t, r.Active())
}

func TestRelay_ClientCloseClosesBackend(t *testing.T) {
	r := New(Config{DrainTimeout: 200 * time.Millisecond}, nil)
	user, server, done := startPipe(t, r)

	require.NoError(t, user.Close())

	// 后端应在有限时间内读到 EOF
	_ = server.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := server.Read(make([]byte, 1))
	assert.True(t, errors.Is(err, io.EOF), "got %v", err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay leaked after client close")
	}
}

func TestRelay_SilentBackendBoundedByDrain(t *testing.T) {
	r := New(Config{DrainTimeout: 100 * time.Millisecond}, nil)
	user, _, done := startPipe(t, r)

	// 后端既不关闭也不写数据；仅靠排空截止时间结束
	require.NoError(t, user.Close())

	select {
	case res := <-done:
		assert.NoError(t, res.err)
	case <-time.After(2 * time.Second):
		t.Fatal("drain deadline not applied")
	}
}

func TestRelay_BackendCloseClosesClient(t *testing.T) {
	r := New(Config{DrainTimeout: 200 * time.Millisecond}, nil)
	user, server, done := startPipe(t, r)

	require.NoError(t, server.Close())

	_ = user.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := user.Read(make([]byte, 1))
	assert.True(t, errors.Is(err, io.EOF), "got %v", err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay leaked after backend close")
	}
}

func TestRelay_DialBackend(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	r := New(Config{BackendAddr: ln.Addr().String(), DialTimeout: time.Second}, nil)
	conn, err := r.DialBackend(context.Background())
	require.NoError(t, err)
	_ = conn.Close()

	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	r = New(Config{BackendAddr: addr, DialTimeout: time.Second}, nil)
	_, err = r.DialBackend(context.Background())
	assert.True(t, errors.Is(err, ErrRelayIO))
}
