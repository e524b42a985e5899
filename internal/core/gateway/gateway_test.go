package gateway

import (
	"context"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-wakegate/internal/core/impersonator"
	"github.com/dep2p/go-wakegate/internal/core/mcproto"
	"github.com/dep2p/go-wakegate/internal/core/metrics"
	"github.com/dep2p/go-wakegate/internal/core/relay"
	"github.com/dep2p/go-wakegate/internal/core/router"
	"github.com/dep2p/go-wakegate/internal/core/starter"
	"github.com/dep2p/go-wakegate/pkg/types"
)

// ============================================================================
//                              Mock 实现
// ============================================================================

type mockController struct {
	mu     sync.Mutex
	state  types.BackendState
	starts int32
}

func (m *mockController) QueryState(context.Context) (types.BackendState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *mockController) IssuePower(_ context.Context, signal types.PowerSignal) error {
	if signal == types.SignalStart {
		atomic.AddInt32(&m.starts, 1)
		// 面板接受信号后状态不会立即变化
		time.Sleep(20 * time.Millisecond)
	}
	return nil
}

type staticProber bool

func (p staticProber) Probe(context.Context) bool { return bool(p) }

type fixture struct {
	gw   *Gateway
	ctrl *mockController
}

func newFixture(t *testing.T, state types.BackendState, reachable bool, backendAddr string) *fixture {
	t.Helper()
	ctrl := &mockController{state: state}
	st := starter.NewCoordinator(ctrl, clock.New())
	rt := router.NewRouter(ctrl, staticProber(reachable), st, 30*time.Second)
	rl := relay.New(relay.Config{BackendAddr: backendAddr, DialTimeout: time.Second, DrainTimeout: 200 * time.Millisecond}, nil)
	im := impersonator.New(impersonator.Config{HandshakeTimeout: 2 * time.Second, LingerDelay: 10 * time.Millisecond}, st, nil)

	gw := New(Config{ListenAddr: "127.0.0.1:0"}, rt, rl, im, metrics.New())
	require.NoError(t, gw.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = gw.Stop(ctx)
	})
	return &fixture{gw: gw, ctrl: ctrl}
}

func (f *fixture) dial(t *testing.T) *mcproto.Conn {
	t.Helper()
	raw, err := net.Dial("tcp", f.gw.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	_ = raw.SetDeadline(time.Now().Add(5 * time.Second))
	return mcproto.WrapConn(raw)
}

func login(t *testing.T, c *mcproto.Conn, name string) string {
	t.Helper()
	require.NoError(t, c.WritePacket(mcproto.Handshake{ProtocolVersion: 764, ServerAddress: "localhost", ServerPort: 25565, NextState: mcproto.NextLogin}.Packet()))
	require.NoError(t, c.WritePacket(mcproto.LoginStartPacket(name)))

	p, err := c.ReadPacket()
	require.NoError(t, err)
	chat, err := mcproto.ParseDisconnect(p)
	require.NoError(t, err)
	return chat.Text
}

// ============================================================================
//                              端到端
// ============================================================================

func TestGateway_TwoLoginsWhileOffline(t *testing.T) {
	f := newFixture(t, types.BackendOffline, false, "127.0.0.1:1")

	var wg sync.WaitGroup
	texts := make([]string, 2)
	for i := range texts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			texts[i] = login(t, f.dial(t), "player")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.ctrl.starts))
	for _, text := range texts {
		assert.Equal(t, impersonator.DisconnectWaking, text)
	}
}

func TestGateway_StatusAfterStartShowsStarting(t *testing.T) {
	f := newFixture(t, types.BackendOffline, false, "127.0.0.1:1")

	assert.Equal(t, impersonator.DisconnectWaking, login(t, f.dial(t), "Steve"))

	st, err := mcproto.QueryStatus(f.dial(t), mcproto.Handshake{ProtocolVersion: 764, ServerAddress: "localhost", ServerPort: 25565})
	require.NoError(t, err)
	assert.Equal(t, impersonator.MotdStarting, st.Description.Text)
	assert.Zero(t, st.Players.Max)
}

func TestGateway_RunningButUnreachableImpersonatesOffline(t *testing.T) {
	f := newFixture(t, types.BackendRunning, false, "127.0.0.1:1")

	st, err := mcproto.QueryStatus(f.dial(t), mcproto.Handshake{ProtocolVersion: 764})
	require.NoError(t, err)
	assert.Equal(t, impersonator.MotdOffline, st.Description.Text)
}

func TestGateway_RelaysWhenRunning(t *testing.T) {
	backend, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer backend.Close()

	// 回显服务器
	go func() {
		for {
			c, err := backend.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				_, _ = io.Copy(c, c)
			}(c)
		}
	}()

	f := newFixture(t, types.BackendRunning, true, backend.Addr().String())

	c := f.dial(t)
	_, err = c.Raw().Write([]byte("raw bytes"))
	require.NoError(t, err)

	buf := make([]byte, 9)
	_, err = io.ReadFull(c.Raw(), buf)
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", string(buf))
	assert.Zero(t, atomic.LoadInt32(&f.ctrl.starts))

	// 中继仍在进行时已计数
	expected := `
# HELP wakegate_connections_total Inbound connections by routing decision.
# TYPE wakegate_connections_total counter
wakegate_connections_total{route="relay"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.gw.metrics.Registry(),
		strings.NewReader(expected), "wakegate_connections_total"))
}

func TestGateway_DialFailureFallsBackToOffline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	// 探测报告可达，但实际拨号失败
	f := newFixture(t, types.BackendRunning, true, addr)

	st, err := mcproto.QueryStatus(f.dial(t), mcproto.Handshake{ProtocolVersion: 764})
	require.NoError(t, err)
	assert.Equal(t, impersonator.MotdOffline, st.Description.Text)
}

func TestGateway_StopDoesNotTearDownRelays(t *testing.T) {
	backend, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer backend.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := backend.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	f := newFixture(t, types.BackendRunning, true, backend.Addr().String())
	c := f.dial(t)

	var server net.Conn
	select {
	case server = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("relay never dialed backend")
	}
	defer server.Close()

	// 以很短的等待时间停止网关
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, f.gw.Stop(ctx))

	// 监听已关闭
	_, err = net.DialTimeout("tcp", f.gw.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err)

	// 中继仍在工作
	_, err = server.Write([]byte("still here"))
	require.NoError(t, err)
	buf := make([]byte, 10)
	_, err = io.ReadFull(c.Raw(), buf)
	require.NoError(t, err)
	assert.Equal(t, "still here", string(buf))
}

func TestGateway_AcceptRateLimit(t *testing.T) {
	ctrl := &mockController{state: types.BackendOffline}
	st := starter.NewCoordinator(ctrl, clock.New())
	rt := router.NewRouter(ctrl, staticProber(false), st, 30*time.Second)
	im := impersonator.New(impersonator.Config{HandshakeTimeout: time.Second}, st, nil)

	gw := New(Config{ListenAddr: "127.0.0.1:0", AcceptRate: 0.001, AcceptBurst: 1}, rt, relay.New(relay.Config{}, nil), im, nil)
	require.NoError(t, gw.Start(context.Background()))
	defer func() { _ = gw.Stop(context.Background()) }()

	first, err := net.Dial("tcp", gw.Addr().String())
	require.NoError(t, err)
	defer first.Close()

	second, err := net.Dial("tcp", gw.Addr().String())
	require.NoError(t, err)
	defer second.Close()

	// 第二个连接被立即关闭
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = second.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestGateway_PerIPRateLimit(t *testing.T) {
	ctrl := &mockController{state: types.BackendOffline}
	st := starter.NewCoordinator(ctrl, clock.New())
	rt := router.NewRouter(ctrl, staticProber(false), st, 30*time.Second)
	im := impersonator.New(impersonator.Config{HandshakeTimeout: time.Second}, st, nil)

	gw := New(Config{ListenAddr: "127.0.0.1:0", PerIPRate: 0.001, PerIPBurst: 1}, rt, relay.New(relay.Config{}, nil), im, nil)
	require.NoError(t, gw.Start(context.Background()))
	defer func() { _ = gw.Stop(context.Background()) }()

	first, err := net.Dial("tcp", gw.Addr().String())
	require.NoError(t, err)
	defer first.Close()

	second, err := net.Dial("tcp", gw.Addr().String())
	require.NoError(t, err)
	defer second.Close()

	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = second.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, gw.perIP.Len())
}

func TestGateway_MaxConnections(t *testing.T) {
	ctrl := &mockController{state: types.BackendOffline}
	st := starter.NewCoordinator(ctrl, clock.New())
	rt := router.NewRouter(ctrl, staticProber(false), st, 30*time.Second)
	im := impersonator.New(impersonator.Config{HandshakeTimeout: 5 * time.Second}, st, nil)

	gw := New(Config{ListenAddr: "127.0.0.1:0", MaxConnections: 1}, rt, relay.New(relay.Config{}, nil), im, nil)
	require.NoError(t, gw.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = gw.Stop(ctx)
	}()

	first, err := net.Dial("tcp", gw.Addr().String())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return gw.InFlight() == 1 }, 2*time.Second, 5*time.Millisecond)

	second, err := net.Dial("tcp", gw.Addr().String())
	require.NoError(t, err)
	defer second.Close()

	// 第一个连接未结束前，第二个不会被处理
	assert.Never(t, func() bool { return gw.InFlight() > 1 }, 100*time.Millisecond, 10*time.Millisecond)

	_ = first.Close()
	c := mcproto.WrapConn(second)
	_ = second.SetDeadline(time.Now().Add(5 * time.Second))
	assert.Equal(t, impersonator.DisconnectWaking, login(t, c, "Steve"))
}

// flakyListener 前 n 次 Accept 返回给定错误
type flakyListener struct {
	net.Listener
	mu    sync.Mutex
	fails int
	err   error
}

func (l *flakyListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if l.fails > 0 {
		l.fails--
		l.mu.Unlock()
		return nil, l.err
	}
	l.mu.Unlock()
	return l.Listener.Accept()
}

func TestGateway_AcceptSurvivesTransientErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"emfile", &net.OpError{Op: "accept", Net: "tcp", Err: os.NewSyscallError("accept4", syscall.EMFILE)}},
		{"econnaborted", &net.OpError{Op: "accept", Net: "tcp", Err: os.NewSyscallError("accept4", syscall.ECONNABORTED)}},
		{"opaque", io.ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &mockController{state: types.BackendOffline}
			st := starter.NewCoordinator(ctrl, clock.New())
			rt := router.NewRouter(ctrl, staticProber(false), st, 30*time.Second)
			im := impersonator.New(impersonator.Config{HandshakeTimeout: 2 * time.Second}, st, nil)
			gw := New(Config{}, rt, relay.New(relay.Config{}, nil), im, nil)

			inner, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)
			ln := &flakyListener{Listener: inner, fails: 3, err: tt.err}

			atomic.StoreInt32(&gw.running, 1)
			gw.serve(ln)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = gw.Stop(ctx)
			}()

			raw, err := net.Dial("tcp", inner.Addr().String())
			require.NoError(t, err)
			defer raw.Close()
			_ = raw.SetDeadline(time.Now().Add(5 * time.Second))

			assert.Equal(t, impersonator.DisconnectWaking, login(t, mcproto.WrapConn(raw), "Steve"))

			select {
			case <-gw.done:
				t.Fatal("accept loop exited")
			default:
			}
		})
	}
}

func TestGateway_StopInterruptsBackoff(t *testing.T) {
	ctrl := &mockController{state: types.BackendOffline}
	st := starter.NewCoordinator(ctrl, clock.New())
	rt := router.NewRouter(ctrl, staticProber(false), st, 30*time.Second)
	im := impersonator.New(impersonator.Config{}, st, nil)
	gw := New(Config{}, rt, relay.New(relay.Config{}, nil), im, nil)

	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ln := &flakyListener{Listener: inner, fails: 1 << 20, err: io.ErrUnexpectedEOF}

	atomic.StoreInt32(&gw.running, 1)
	gw.serve(ln)

	// 接入循环此时处于退避中
	time.Sleep(50 * time.Millisecond)

	ln.mu.Lock()
	ln.fails = 0
	ln.mu.Unlock()

	start := time.Now()
	require.NoError(t, gw.Stop(context.Background()))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
