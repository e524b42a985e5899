package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
	"github.com/dep2p/go-wakegate/pkg/types"
)

// ============================================================================
//                              测试面板
// ============================================================================

type fakePanel struct {
	state      string
	status     int
	rawBody    string
	delay      time.Duration
	queries    int32
	signals    []string
	mu         sync.Mutex
	lastAuth   string
	lastAccept string
}

func (p *fakePanel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.lastAuth = r.Header.Get("Authorization")
	p.lastAccept = r.Header.Get("Accept")
	p.mu.Unlock()

	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.status != 0 {
		w.WriteHeader(p.status)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/client/servers/srv-1/resources":
		atomic.AddInt32(&p.queries, 1)
		if p.rawBody != "" {
			_, _ = w.Write([]byte(p.rawBody))
			return
		}
		_, _ = w.Write([]byte(`{"object":"stats","attributes":{"current_state":"` + p.state + `"}}`))
	case r.Method == http.MethodPost && r.URL.Path == "/api/client/servers/srv-1/power":
		var req powerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.mu.Lock()
		p.signals = append(p.signals, req.Signal)
		p.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, panel *fakePanel) *Client {
	t.Helper()
	srv := httptest.NewServer(panel)
	t.Cleanup(srv.Close)

	return NewClient(config.ControllerConfig{
		PanelURL: srv.URL + "/",
		ServerID: "srv-1",
		APIKey:   "ptlc_secret",
		Timeout:  2 * time.Second,
	})
}

// ============================================================================
//                              QueryState
// ============================================================================

func TestClient_QueryState(t *testing.T) {
	tests := []struct {
		raw  string
		want types.BackendState
	}{
		{"running", types.BackendRunning},
		{"starting", types.BackendStarting},
		{"offline", types.BackendOffline},
		{"stopping", types.BackendUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			panel := &fakePanel{state: tt.raw}
			c := newTestClient(t, panel)

			got, err := c.QueryState(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			assert.Equal(t, "Bearer ptlc_secret", panel.lastAuth)
			assert.Equal(t, AcceptHeader, panel.lastAccept)
		})
	}
}

func TestClient_QueryState_Non2xx(t *testing.T) {
	c := newTestClient(t, &fakePanel{status: http.StatusUnauthorized})

	state, err := c.QueryState(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrControllerUnreachable))
	assert.Equal(t, types.BackendUnknown, state)
}

func TestClient_QueryState_BadBody(t *testing.T) {
	c := newTestClient(t, &fakePanel{rawBody: "<html>"})

	state, err := c.QueryState(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrControllerUnreachable))
	assert.True(t, errors.Is(err, ErrUnexpectedResponse))
	assert.Equal(t, types.BackendUnknown, state)
}

func TestClient_QueryState_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := NewClient(config.ControllerConfig{PanelURL: addr, ServerID: "srv-1", APIKey: "k", Timeout: time.Second})

	state, err := c.QueryState(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrControllerUnreachable))
	assert.Equal(t, types.BackendUnknown, state)
}

func TestClient_QueryState_Timeout(t *testing.T) {
	panel := &fakePanel{state: "running", delay: 300 * time.Millisecond}
	srv := httptest.NewServer(panel)
	t.Cleanup(srv.Close)

	c := NewClient(config.ControllerConfig{
		PanelURL: srv.URL,
		ServerID: "srv-1",
		APIKey:   "k",
		Timeout:  50 * time.Millisecond,
	})

	_, err := c.QueryState(context.Background())
	assert.True(t, errors.Is(err, ErrControllerUnreachable))
}

func TestClient_QueryState_CallerCancel(t *testing.T) {
	panel := &fakePanel{state: "running", delay: 300 * time.Millisecond}
	c := newTestClient(t, panel)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	state, err := c.QueryState(ctx)
	assert.True(t, errors.Is(err, ErrControllerUnreachable))
	assert.Equal(t, types.BackendUnknown, state)
}

func TestClient_QueryState_Collapsed(t *testing.T) {
	panel := &fakePanel{state: "running", delay: 100 * time.Millisecond}
	c := newTestClient(t, panel)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := c.QueryState(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, types.BackendRunning, state)
		}()
	}
	wg.Wait()

	assert.Less(t, atomic.LoadInt32(&panel.queries), int32(8))

	// 前一次结束后发起的查询总会重新请求
	before := atomic.LoadInt32(&panel.queries)
	_, err := c.QueryState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before+1, atomic.LoadInt32(&panel.queries))
}

// ============================================================================
//                              IssuePower
// ============================================================================

func TestClient_IssuePower(t *testing.T) {
	panel := &fakePanel{}
	c := newTestClient(t, panel)

	require.NoError(t, c.IssuePower(context.Background(), types.SignalStart))
	require.NoError(t, c.IssuePower(context.Background(), types.SignalStop))

	panel.mu.Lock()
	defer panel.mu.Unlock()
	assert.Equal(t, []string{"start", "stop"}, panel.signals)
}

func TestClient_IssuePower_Failure(t *testing.T) {
	c := newTestClient(t, &fakePanel{status: http.StatusBadGateway})

	err := c.IssuePower(context.Background(), types.SignalStart)
	assert.True(t, errors.Is(err, ErrControllerUnreachable))
}

func TestClient_IssuePower_InvalidSignal(t *testing.T) {
	panel := &fakePanel{}
	c := newTestClient(t, panel)

	err := c.IssuePower(context.Background(), types.PowerSignal("kill"))
	assert.True(t, errors.Is(err, ErrInvalidSignal))
	assert.Empty(t, panel.signals)
}

// ============================================================================
//                              Fx 模块
// ============================================================================

func TestModule_Provides(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Controller.PanelURL = "https://panel.example.com"
	cfg.Controller.ServerID = "srv-1"
	cfg.Controller.APIKey = "k"

	var pc interfaces.PowerController
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&pc),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, pc)
	assert.IsType(t, &Client{}, pc)
}
