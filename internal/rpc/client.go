// Package rpc implements the command boundary to the opscinema backend:
// a JSON request/response protocol over a unix socket or TCP, plus the
// server-sent event channels the backend pushes out of band.
package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/opscinema/cinectl/internal/apperr"
)

// rpcDebugEnabled returns true if OPSC_DEBUG_RPC environment variable is set.
func rpcDebugEnabled() bool {
	val := os.Getenv("OPSC_DEBUG_RPC")
	return val == "1" || val == "true"
}

// rpcDebugLog logs to stderr if OPSC_DEBUG_RPC is enabled.
func rpcDebugLog(format string, args ...interface{}) {
	if rpcDebugEnabled() {
		fmt.Fprintf(os.Stderr, "[RPC DEBUG] "+format+"\n", args...)
	}
}

// ClientVersion is the version of this RPC client. It is set by main from
// the build version before any calls are made.
var ClientVersion = "0.0.0"

// Invoker is the uniform command boundary. Production code is parameterized
// over this interface so test doubles can substitute the transport without
// touching callers. On failure the returned error is always an
// *apperr.Error; the transport performs no retries and no caching.
type Invoker interface {
	Invoke(ctx context.Context, operation string, args any, out any) error
}

// Client is the production Invoker. It holds one connection to the daemon
// and serializes requests over it.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
	token   string
}

const defaultInvokeTimeout = 30 * time.Second

// Dial connects to the daemon over a unix socket and verifies it answers a
// build-info probe. Returns an error if no healthy daemon is listening.
func Dial(socketPath string, dialTimeout time.Duration) (*Client, error) {
	return dialNetwork("unix", socketPath, dialTimeout, "")
}

// DialTCP connects to a remote daemon. The token authenticates every
// request on the connection.
func DialTCP(addr, token string, dialTimeout time.Duration) (*Client, error) {
	return dialNetwork("tcp", addr, dialTimeout, token)
}

func dialNetwork(network, addr string, dialTimeout time.Duration, token string) (*Client, error) {
	if dialTimeout <= 0 {
		dialTimeout = 2 * time.Second
	}

	rpcDebugLog("dialing %s %s (timeout: %v)", network, addr, dialTimeout)
	dialStart := time.Now()
	conn, err := net.DialTimeout(network, addr, dialTimeout)
	if err != nil {
		rpcDebugLog("dial failed after %v: %v", time.Since(dialStart), err)
		return nil, fmt.Errorf("connect to daemon at %s: %w", addr, err)
	}
	rpcDebugLog("dial succeeded in %v", time.Since(dialStart))

	client := &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: defaultInvokeTimeout,
		token:   token,
	}

	// Probe before handing the client out; a daemon that cannot answer
	// build info is not worth talking to.
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	var info BuildInfo
	if err := client.Invoke(ctx, OpAppGetBuildInfo, struct{}{}, &info); err != nil {
		_ = conn.Close()
		rpcDebugLog("build info probe failed: %v", err)
		return nil, fmt.Errorf("daemon at %s failed build info probe: %w", addr, err)
	}
	rpcDebugLog("connected to %s %s (%s)", info.AppName, info.AppVersion, addr)

	return client, nil
}

// SetTimeout overrides the per-call deadline applied when the caller's
// context carries none.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// Invoke sends one operation and decodes the response value into out (out
// may be nil when the caller discards the value). Backend errors surface
// unchanged as *apperr.Error; transport and envelope surprises are
// normalized to INTERNAL.
func (c *Client) Invoke(ctx context.Context, operation string, args any, out any) error {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return apperr.Internalf("marshal %s args: %v", operation, err)
	}

	req := Request{
		Operation:     operation,
		Args:          argsJSON,
		ClientVersion: ClientVersion,
		Token:         c.token,
	}
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return apperr.Internalf("marshal %s request: %v", operation, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return apperr.Internalf("set deadline: %v", err)
	}

	rpcDebugLog("-> %s (%d bytes)", operation, len(reqJSON))
	start := time.Now()
	if _, err := c.conn.Write(append(reqJSON, '\n')); err != nil {
		return apperr.Internalf("write %s request: %v", operation, err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return apperr.Internalf("read %s response: %v", operation, err)
	}
	rpcDebugLog("<- %s (%d bytes in %v)", operation, len(line), time.Since(start))

	resp, appErr := DecodeResponse(line)
	if appErr != nil {
		return appErr
	}
	if !resp.OK {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Value, out); err != nil {
		return apperr.Internalf("decode %s response value: %v", operation, err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}
