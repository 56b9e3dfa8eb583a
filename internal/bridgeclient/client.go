// Package bridgeclient calls the bridge host the way a front-end does: it
// checks that a namespace is bound and then invokes capabilities through it.
package bridgeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"desktop-shell/go-backend/internal/domains/contracts"
	"desktop-shell/go-backend/pkg/models"
)

const (
	rpcTokenHeader = "X-Shell-RPC-Token"

	methodCapabilities = "rpc.capabilities"

	codeNotReady = -32010
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	namespace  string
	nextID     atomic.Int64
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithNamespace sets the namespace used by Bridge and WaitReady.
func WithNamespace(ns string) Option {
	return func(c *Client) {
		if ns = strings.TrimSpace(ns); ns != "" {
			c.namespace = ns
		}
	}
}

// New accepts either "host:port" or a full http URL.
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	c := &Client{
		baseURL:    base,
		httpClient: http.DefaultClient,
		namespace:  contracts.NamespaceFramework,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Capabilities struct {
	Namespaces map[string][]string `json:"namespaces"`
	Ready      bool                `json:"ready"`
}

func (c Capabilities) Has(ns string) bool {
	_, ok := c.Namespaces[ns]
	return ok
}

// Capabilities fetches the bound namespaces. Any failure is ErrBridgeUnavailable.
func (c *Client) Capabilities(ctx context.Context) (Capabilities, error) {
	var out Capabilities
	if err := c.call(ctx, methodCapabilities, nil, &out); err != nil {
		return Capabilities{}, contracts.NewBridgeError(contracts.ErrBridgeUnavailable, methodCapabilities, err)
	}
	return out, nil
}

// Detect fails with ErrBridgeUnavailable unless ns is bound on the host.
func (c *Client) Detect(ctx context.Context, ns string) error {
	caps, err := c.Capabilities(ctx)
	if err != nil {
		return err
	}
	if !caps.Has(ns) {
		return contracts.NewBridgeError(contracts.ErrBridgeUnavailable, ns, nil)
	}
	return nil
}

// Namespace returns a BridgeAPI that invokes capabilities under ns. It does not
// check that ns is bound; call Detect first.
func (c *Client) Namespace(ns string) contracts.BridgeAPI {
	return &namespaceBridge{client: c, namespace: ns}
}

// Bridge detects the configured namespace and returns it.
func (c *Client) Bridge(ctx context.Context) (contracts.BridgeAPI, error) {
	if err := c.Detect(ctx, c.namespace); err != nil {
		return nil, err
	}
	return c.Namespace(c.namespace), nil
}

// WaitReady polls GetSystemInfo until the host reports ready or ctx ends.
func (c *Client) WaitReady(ctx context.Context, interval time.Duration) (models.SystemInfo, error) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	bridge, err := c.Bridge(ctx)
	if err != nil {
		return models.SystemInfo{}, err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		info, err := bridge.GetSystemInfo(ctx)
		if err != nil {
			return models.SystemInfo{}, err
		}
		if info.Ready {
			return info, nil
		}
		select {
		case <-ctx.Done():
			return info, ctx.Err()
		case <-ticker.C:
		}
	}
}

type namespaceBridge struct {
	client    *Client
	namespace string
}

func (b *namespaceBridge) Greet(ctx context.Context, name string) (string, error) {
	var out string
	err := b.invoke(ctx, contracts.CapabilityGreet, []string{name}, &out)
	return out, err
}

func (b *namespaceBridge) GetApplicationInfo(ctx context.Context) (models.ApplicationInfo, error) {
	var out models.ApplicationInfo
	err := b.invoke(ctx, contracts.CapabilityGetAppInfo, nil, &out)
	return out, err
}

func (b *namespaceBridge) GetSystemInfo(ctx context.Context) (models.SystemInfo, error) {
	var out models.SystemInfo
	err := b.invoke(ctx, contracts.CapabilityGetSystemInfo, nil, &out)
	return out, err
}

func (b *namespaceBridge) invoke(ctx context.Context, capability string, params any, out any) error {
	method := contracts.QualifiedMethod(b.namespace, capability)
	err := b.client.call(ctx, method, params, out)
	if err == nil {
		return nil
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == codeNotReady {
		return contracts.NewBridgeError(contracts.ErrNotReady, method, err)
	}
	return contracts.NewBridgeError(contracts.ErrTransport, method, err)
}

// RPCError is a JSON-RPC error object returned by the host.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params any, out any) (retErr error) {
	if c.baseURL == "" {
		return errors.New("rpc address is empty")
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(rpcTokenHeader, c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc status %d", resp.StatusCode)
	}
	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode rpc response: %w", err)
	}
	if decoded.Error != nil {
		return decoded.Error
	}
	if out == nil || len(decoded.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("decode rpc result: %w", err)
	}
	return nil
}
