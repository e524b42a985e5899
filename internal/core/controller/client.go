// Package controller 实现 Pterodactyl 客户端 API 的电源控制
//
// 只用到两个端点：
//
//	GET  /api/client/servers/{id}/resources   → attributes.current_state
//	POST /api/client/servers/{id}/power       ← {"signal":"start|stop"}
//
// 客户端内部不重试；所有失败都以 ErrControllerUnreachable 返回，由调用方决定降级方式。
package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dep2p/go-wakegate/internal/config"
	"github.com/dep2p/go-wakegate/internal/core/metrics"
	"github.com/dep2p/go-wakegate/internal/util/logger"
	"github.com/dep2p/go-wakegate/pkg/interfaces"
	"github.com/dep2p/go-wakegate/pkg/types"
)

var log = logger.Logger("controller")

// AcceptHeader 面板要求的 Accept 头
const AcceptHeader = "Application/vnd.pterodactyl.v1+json"

// maxBodySize 响应体读取上限
const maxBodySize = 1 << 20

var _ interfaces.PowerController = (*Client)(nil)

// Client 面板电源控制客户端
type Client struct {
	baseURL  string
	serverID string
	apiKey   string

	http    *http.Client
	metrics *metrics.Metrics

	// 重叠的状态查询共享一次请求
	queries singleflight.Group
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 替换底层 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient 创建客户端
func NewClient(cfg config.ControllerConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultControllerTimeout
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.PanelURL, "/") + "/api/client",
		serverID: cfg.ServerID,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resourcesResponse GET /resources 响应
type resourcesResponse struct {
	Attributes struct {
		CurrentState string `json:"current_state"`
	} `json:"attributes"`
}

// powerRequest POST /power 请求体
type powerRequest struct {
	Signal string `json:"signal"`
}

// QueryState 查询后端当前状态
//
// 失败时返回 (BackendUnknown, err)；调用方不得把失败当作 Offline。
func (c *Client) QueryState(ctx context.Context) (types.BackendState, error) {
	ch := c.queries.DoChan("state", func() (interface{}, error) {
		// 共享请求不受单个调用方取消影响，仍受 http.Client 超时约束
		return c.queryState(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return types.BackendUnknown, fmt.Errorf("%w: %v", ErrControllerUnreachable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return types.BackendUnknown, res.Err
		}
		return res.Val.(types.BackendState), nil
	}
}

func (c *Client) queryState(ctx context.Context) (state types.BackendState, err error) {
	defer func() { c.metrics.ControllerRequest("query", err) }()

	var body resourcesResponse
	if err := c.do(ctx, http.MethodGet, c.serverURL("resources"), nil, &body); err != nil {
		log.Debug("查询服务器状态失败", "err", err)
		return types.BackendUnknown, err
	}

	state = types.ParseBackendState(body.Attributes.CurrentState)
	log.Debug("服务器状态", "raw", body.Attributes.CurrentState, "state", state)
	return state, nil
}

// IssuePower 发送电源信号
func (c *Client) IssuePower(ctx context.Context, signal types.PowerSignal) (err error) {
	if !signal.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSignal, signal)
	}
	defer func() {
		c.metrics.ControllerRequest("power", err)
		c.metrics.PowerSignal(signal.String(), err)
	}()

	payload, err := json.Marshal(powerRequest{Signal: signal.String()})
	if err != nil {
		return err
	}

	if err := c.do(ctx, http.MethodPost, c.serverURL("power"), payload, nil); err != nil {
		log.Warn("发送电源信号失败", "signal", signal, "err", err)
		return err
	}

	log.Info("已发送电源信号", "signal", signal)
	return nil
}

func (c *Client) serverURL(endpoint string) string {
	return c.baseURL + "/servers/" + url.PathEscape(c.serverID) + "/" + endpoint
}

// do 执行请求；out 非 nil 时解析 JSON 响应体
func (c *Client) do(ctx context.Context, method, target string, payload []byte, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrControllerUnreachable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", AcceptHeader)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrControllerUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrControllerUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s returned %d", ErrControllerUnreachable, method, target, resp.StatusCode)
	}

	log.Debug("面板请求完成",
		"method", method,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w: %v", ErrControllerUnreachable, ErrUnexpectedResponse, err)
	}
	return nil
}
