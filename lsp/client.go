package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonmmease/jons-pyright-mcp/logger"
	"github.com/jonmmease/jons-pyright-mcp/lsp/capabilities"

	"github.com/myleshyson/lsprotocol-go/protocol"
)

// ClientStatus describes the lifecycle state of the pyright process handle.
type ClientStatus string

const (
	StatusIdle       ClientStatus = "idle"
	StatusStarting   ClientStatus = "starting"
	StatusReady      ClientStatus = "ready"
	StatusRestarting ClientStatus = "restarting"
	StatusClosed     ClientStatus = "closed"
)

// DefaultStartupTimeout bounds the spawn + initialize handshake.
const DefaultStartupTimeout = 30 * time.Second

// notificationQueueSize bounds how many undispatched server notifications may
// pile up before new ones are dropped. Dropping keeps the read loop draining
// even when a subscriber stalls.
const notificationQueueSize = 256

// NotificationHandler receives the params of a server notification.
type NotificationHandler func(params json.RawMessage)

// Options configures a Client.
type Options struct {
	// Command and Args launch the language server in stdio mode.
	Command string
	Args    []string

	// ProjectRoot is the working directory of the child process and the
	// workspace root reported during the initialize handshake.
	ProjectRoot string

	// PyrightConfig is the parsed pyrightconfig.json (may be empty). It
	// feeds initializationOptions and workspace/configuration replies.
	PyrightConfig map[string]any

	// CallTimeout is the default per-request timeout. Zero means
	// DefaultCallTimeout (overridable via PYRIGHT_TIMEOUT).
	CallTimeout time.Duration

	// StartupTimeout bounds Start. Zero means DefaultStartupTimeout.
	StartupTimeout time.Duration

	// OnExit, if set, is invoked from the read loop when the process dies
	// unexpectedly (not during Close or Restart teardown). It is the hook
	// an owner uses to implement restart-on-crash policy.
	OnExit func(err error)
}

type callOutcome struct {
	resp *Message
	err  error
}

type pendingCall struct {
	method string
	ch     chan callOutcome // buffered; resolved exactly once
}

// Client owns one pyright-langserver process and is the single point through
// which all requests and notifications pass. Any number of goroutines may
// Call concurrently; one background read loop drains the process's stdout.
type Client struct {
	opts Options

	callTimeout    time.Duration
	startupTimeout time.Duration

	// nextID is monotonically increasing and never reused, even across
	// restarts, so a late response from a previous process generation can
	// never be attributed to a new request.
	nextID atomic.Int64

	mu      sync.Mutex
	status  ClientStatus
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	closing bool          // intentional teardown in progress
	done    chan struct{} // closed when the current read loop exits

	writeMu sync.Mutex
	writer  *Writer

	pendingMu sync.Mutex
	pending   map[int64]*pendingCall

	handlersMu sync.RWMutex
	handlers   map[string][]NotificationHandler

	capsMu             sync.RWMutex
	serverCapabilities protocol.ServerCapabilities

	totalRequests  atomic.Int64
	failedRequests atomic.Int64
}

// NewClient creates a client for the given server command. The process is not
// started until Start is called.
func NewClient(opts Options) *Client {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout()
	}
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = DefaultStartupTimeout
	}

	return &Client{
		opts:           opts,
		callTimeout:    opts.CallTimeout,
		startupTimeout: opts.StartupTimeout,
		status:         StatusIdle,
		handlers:       make(map[string][]NotificationHandler),
	}
}

// Status returns the current lifecycle state.
func (c *Client) Status() ClientStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// Metrics returns the total and failed request counts since construction.
func (c *Client) Metrics() (total, failed int64) {
	return c.totalRequests.Load(), c.failedRequests.Load()
}

// ServerCapabilities returns the capabilities reported by pyright during the
// most recent initialize handshake.
func (c *Client) ServerCapabilities() protocol.ServerCapabilities {
	c.capsMu.RLock()
	defer c.capsMu.RUnlock()

	return c.serverCapabilities
}

// OnNotification registers a handler for a server notification method.
// Handlers are registered once at startup and persist across restarts;
// multiple handlers for one method are invoked in registration order.
func (c *Client) OnNotification(method string, handler NotificationHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.handlers[method] = append(c.handlers[method], handler)
}

// Start launches the pyright process and performs the initialize handshake.
// On return the client is ready to accept requests.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.status == StatusStarting || c.status == StatusReady {
		c.mu.Unlock()
		return &StartupError{Command: c.opts.Command, Err: errors.New("already started")}
	}
	c.status = StatusStarting
	c.mu.Unlock()

	logger.Info(fmt.Sprintf("Starting language server: %s %s (project: %s)",
		c.opts.Command, strings.Join(c.opts.Args, " "), c.opts.ProjectRoot))

	cmd := exec.Command(c.opts.Command, c.opts.Args...)
	cmd.Dir = c.opts.ProjectRoot
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.setStatus(StatusIdle)
		return &StartupError{Command: c.opts.Command, Err: err}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.setStatus(StatusIdle)
		return &StartupError{Command: c.opts.Command, Err: err}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		c.setStatus(StatusIdle)
		return &StartupError{Command: c.opts.Command, Err: err}
	}

	if err := cmd.Start(); err != nil {
		c.setStatus(StatusIdle)
		return &StartupError{Command: c.opts.Command, Err: err}
	}

	done := make(chan struct{})

	c.mu.Lock()
	c.cmd = cmd
	c.stdin = stdin
	c.closing = false
	c.done = done
	c.mu.Unlock()

	c.writeMu.Lock()
	c.writer = NewWriter(stdin)
	c.writeMu.Unlock()

	c.pendingMu.Lock()
	c.pending = make(map[int64]*pendingCall)
	c.pendingMu.Unlock()

	notifq := make(chan *Message, notificationQueueSize)
	go c.dispatchLoop(notifq)
	go c.readLoop(NewReader(stdout), notifq, done)
	go c.drainStderr(stderr)
	go func() {
		// Reap the process so it never lingers as a zombie.
		_ = cmd.Wait()
	}()

	if err := c.initialize(ctx); err != nil {
		c.teardown(false)
		c.setStatus(StatusIdle)
		return &StartupError{Command: c.opts.Command, Err: err}
	}

	c.setStatus(StatusReady)
	logger.Info("Language server initialized and ready")

	return nil
}

// initialize sends the initialize request and the initialized notification.
func (c *Client) initialize(ctx context.Context) error {
	pid := os.Getpid()
	if pid < 0 || pid > math.MaxInt32 {
		return fmt.Errorf("process ID out of range: %d", pid)
	}
	processID := int32(pid)

	absRoot, err := filepath.Abs(c.opts.ProjectRoot)
	if err != nil {
		return fmt.Errorf("invalid project root: %w", err)
	}
	rootURI := "file://" + absRoot

	workspaceFolders := []protocol.WorkspaceFolder{
		{
			Uri:  protocol.URI(rootURI),
			Name: filepath.Base(absRoot),
		},
	}

	params := protocol.InitializeParams{
		ProcessId: &processID,
		ClientInfo: &protocol.ClientInfo{
			Name:    "jons-pyright-mcp",
			Version: "0.1.0",
		},
		WorkspaceFolders: &workspaceFolders,
		// Capabilities are generated from the registered feature set,
		// see lsp/capabilities/features.go.
		Capabilities:          capabilities.Registry.Build(),
		InitializationOptions: BuildInitializationOptions(absRoot, c.opts.PyrightConfig),
	}

	var result protocol.InitializeResult
	if err := c.CallWithTimeout(ctx, "initialize", params, &result, c.startupTimeout); err != nil {
		return fmt.Errorf("initialize request failed: %w", err)
	}

	c.capsMu.Lock()
	c.serverCapabilities = result.Capabilities
	c.capsMu.Unlock()

	if result.ServerInfo != nil {
		logger.Debug(fmt.Sprintf("Server info: %+v", *result.ServerInfo))
	}

	if err := c.Notify("initialized", map[string]any{}); err != nil {
		return fmt.Errorf("failed to send initialized notification: %w", err)
	}

	return nil
}

// Call sends a request and blocks until its response arrives, the default
// per-call timeout elapses, the process dies, or ctx is cancelled. On success
// the response payload is unmarshalled into result (which may be nil, or a
// *json.RawMessage for verbatim passthrough).
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	return c.CallWithTimeout(ctx, method, params, result, c.callTimeout)
}

// CallWithTimeout is Call with an explicit timeout for this request only.
func (c *Client) CallWithTimeout(ctx context.Context, method string, params, result any, timeout time.Duration) error {
	c.totalRequests.Add(1)

	id := c.nextID.Add(1)

	msg, err := newRequest(id, method, params)
	if err != nil {
		c.failedRequests.Add(1)
		return err
	}

	pc := &pendingCall{method: method, ch: make(chan callOutcome, 1)}

	c.pendingMu.Lock()
	if c.pending == nil {
		c.pendingMu.Unlock()
		c.failedRequests.Add(1)
		return &ProcessTerminatedError{Method: method}
	}
	c.pending[id] = pc
	c.pendingMu.Unlock()

	if err := c.send(msg); err != nil {
		c.removePending(id)
		c.failedRequests.Add(1)
		return err
	}

	started := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case outcome := <-pc.ch:
		return c.finishCall(method, outcome, result)

	case <-timer.C:
		// The entry may have been resolved between the timer firing and
		// us taking the lock; prefer the real outcome in that case.
		if removed := c.removePending(id); !removed {
			outcome := <-pc.ch
			return c.finishCall(method, outcome, result)
		}
		c.failedRequests.Add(1)
		logger.Warn(fmt.Sprintf("Request %s (id=%d) timed out after %s", method, id, timeout))
		return &TimeoutError{Method: method, Timeout: timeout.String()}

	case <-ctx.Done():
		// The caller stops waiting but the protocol exchange stays in
		// flight: the entry remains until the response, the original
		// timeout, or process termination resolves it. A detached timer
		// takes over the timeout so the entry cannot outlive it; the
		// outcome channel is buffered so resolution never blocks.
		remaining := timeout - time.Since(started)
		if remaining < 0 {
			remaining = 0
		}
		time.AfterFunc(remaining, func() {
			if c.removePending(id) {
				logger.Debug(fmt.Sprintf("Removed abandoned request %s (id=%d) after timeout", method, id))
			}
		})
		c.failedRequests.Add(1)
		return ctx.Err()
	}
}

func (c *Client) finishCall(method string, outcome callOutcome, result any) error {
	if outcome.err != nil {
		c.failedRequests.Add(1)
		return outcome.err
	}

	resp := outcome.resp
	if resp.Error != nil {
		c.failedRequests.Add(1)
		return &RemoteError{
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
			Data:    resp.Error.Data,
		}
	}

	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			c.failedRequests.Add(1)
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}

	return nil
}

// removePending deletes an entry and reports whether it was still present.
func (c *Client) removePending(id int64) bool {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	if c.pending == nil {
		return false
	}
	if _, ok := c.pending[id]; !ok {
		return false
	}
	delete(c.pending, id)

	return true
}

// Notify sends a fire-and-forget notification to the server.
func (c *Client) Notify(method string, params any) error {
	msg, err := newNotification(method, params)
	if err != nil {
		return err
	}

	return c.send(msg)
}

// send frames and writes one message. Writes are serialized so concurrent
// callers can never interleave bytes inside a frame.
func (c *Client) send(msg *Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writer == nil {
		return &ProcessTerminatedError{Method: msg.Method}
	}

	return c.writer.WriteMessage(msg)
}

// readLoop drains the process's stdout until the stream closes. It is the
// only reader of the stream and never blocks on subscriber execution.
func (c *Client) readLoop(r *Reader, notifq chan<- *Message, done chan struct{}) {
	defer close(done)
	defer close(notifq)

	for {
		msg, err := r.Next()
		if err != nil {
			var fe *FramingError
			if errors.As(err, &fe) {
				logger.Warn("Dropping malformed message: " + fe.Error())
				continue
			}

			// Stream ended: the process is gone.
			c.handleStreamClosed()
			return
		}

		switch {
		case msg.IsResponse():
			c.resolveResponse(msg)
		case msg.IsServerRequest():
			c.handleServerRequest(msg)
		case msg.IsNotification():
			select {
			case notifq <- msg:
			default:
				logger.Warn("Notification queue full, dropping " + msg.Method)
			}
		default:
			logger.Warn("Dropping message that is neither request, response nor notification")
		}
	}
}

// resolveResponse routes a response to the pending entry with its ID. A
// response with no matching entry (already timed out, or left over from a
// previous process) is discarded without affecting other entries.
func (c *Client) resolveResponse(msg *Message) {
	if msg.ID.IsStr {
		logger.Debug("Discarding response with unknown string id " + msg.ID.String())
		return
	}

	id := msg.ID.Num

	c.pendingMu.Lock()
	pc := c.pending[id]
	if pc != nil {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	if pc == nil {
		logger.Debug(fmt.Sprintf("Discarding orphaned response id=%d", id))
		return
	}

	pc.ch <- callOutcome{resp: msg}
}

// failAllPending force-resolves every in-flight request. Called when the
// process terminates, so that no caller hangs waiting on a dead process.
func (c *Client) failAllPending() {
	c.pendingMu.Lock()
	pending := c.pending
	c.pending = nil
	c.pendingMu.Unlock()

	if len(pending) > 0 {
		logger.Warn(fmt.Sprintf("Failing %d pending request(s): process terminated", len(pending)))
	}

	for _, pc := range pending {
		pc.ch <- callOutcome{err: &ProcessTerminatedError{Method: pc.method}}
	}
}

func (c *Client) handleStreamClosed() {
	c.failAllPending()

	c.mu.Lock()
	intentional := c.closing
	if !intentional {
		c.status = StatusClosed
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	c.writer = nil
	c.writeMu.Unlock()

	if intentional {
		return
	}

	logger.Error("Language server stream closed unexpectedly")

	if c.opts.OnExit != nil {
		c.opts.OnExit(&ProcessTerminatedError{})
	}
}

// dispatchLoop delivers notifications to subscribers in arrival order.
// It runs on its own goroutine so subscriber execution time is decoupled
// from the read loop.
func (c *Client) dispatchLoop(notifq <-chan *Message) {
	for msg := range notifq {
		c.handlersMu.RLock()
		handlers := c.handlers[msg.Method]
		c.handlersMu.RUnlock()

		if len(handlers) == 0 {
			logger.Debug("Unhandled notification: " + msg.Method)
			continue
		}

		for _, handler := range handlers {
			handler(msg.Params)
		}
	}
}

// handleServerRequest answers a request initiated by pyright.
func (c *Client) handleServerRequest(msg *Message) {
	switch msg.Method {
	case "workspace/configuration":
		c.handleWorkspaceConfiguration(msg)

	case "client/registerCapability", "client/unregisterCapability", "window/workDoneProgress/create":
		// Acknowledge; the bridge has no dynamic registration or
		// progress UI to drive.
		resp, err := newResponse(*msg.ID, map[string]any{})
		if err == nil {
			err = c.send(resp)
		}
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to reply to %s: %v", msg.Method, err))
		}

	default:
		logger.Debug("Rejecting unsupported server request: " + msg.Method)
		if err := c.send(newErrorResponse(*msg.ID, CodeMethodNotFound, "Method not supported: "+msg.Method)); err != nil {
			logger.Error(fmt.Sprintf("Failed to reply to %s: %v", msg.Method, err))
		}
	}
}

type configurationItem struct {
	ScopeURI string `json:"scopeUri,omitempty"`
	Section  string `json:"section,omitempty"`
}

type configurationParams struct {
	Items []configurationItem `json:"items"`
}

// handleWorkspaceConfiguration answers workspace/configuration requests from
// pyright with sections derived from pyrightconfig.json.
func (c *Client) handleWorkspaceConfiguration(msg *Message) {
	var params configurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		logger.Error(fmt.Sprintf("Failed to parse configuration params: %v", err))
		resp, _ := newResponse(*msg.ID, []any{})
		if resp != nil {
			_ = c.send(resp)
		}
		return
	}

	absRoot, err := filepath.Abs(c.opts.ProjectRoot)
	if err != nil {
		absRoot = c.opts.ProjectRoot
	}

	responses := make([]any, len(params.Items))
	for i, item := range params.Items {
		responses[i] = ConfigurationSection(absRoot, c.opts.PyrightConfig, item.Section)
	}

	logger.Debug(fmt.Sprintf("Answering workspace/configuration for %d item(s)", len(params.Items)))

	resp, err := newResponse(*msg.ID, responses)
	if err == nil {
		err = c.send(resp)
	}
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to reply to workspace/configuration: %v", err))
	}
}

// drainStderr logs the process's stderr line by line.
func (c *Client) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") || strings.Contains(lower, "panic") {
			logger.Error("pyright stderr: " + line)
		} else {
			logger.Debug("pyright stderr: " + line)
		}
	}
}

// Restart tears down the current process, fails every pending request with
// ProcessTerminatedError, and starts a fresh instance. Notification
// subscribers persist across the restart.
func (c *Client) Restart(ctx context.Context) error {
	c.mu.Lock()
	if c.status == StatusRestarting {
		c.mu.Unlock()
		return errors.New("restart already in progress")
	}
	running := c.status == StatusReady || c.status == StatusStarting
	c.status = StatusRestarting
	c.mu.Unlock()

	logger.Info("Restarting language server")

	if running {
		c.teardown(true)
	}

	c.setStatus(StatusIdle)

	return c.Start(ctx)
}

// Close performs the graceful shutdown sequence (shutdown request, exit
// notification, bounded wait, then kill). It is idempotent: closing an
// already-terminated client is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.status == StatusClosed || c.status == StatusIdle {
		c.status = StatusClosed
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.teardown(true)
	c.setStatus(StatusClosed)

	logger.Info("Language server shut down")

	return nil
}

// teardown stops the current process. When graceful, the shutdown/exit
// sequence is attempted first; either way the process is dead and all
// pending requests are resolved by the time teardown returns.
func (c *Client) teardown(graceful bool) {
	c.mu.Lock()
	c.closing = true
	cmd := c.cmd
	done := c.done
	c.mu.Unlock()

	if cmd == nil {
		c.failAllPending()
		return
	}

	if graceful {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := c.CallWithTimeout(ctx, "shutdown", map[string]any{}, nil, 2*time.Second); err != nil {
			logger.Debug(fmt.Sprintf("Shutdown request failed (continuing with exit): %v", err))
		}
		cancel()

		if err := c.Notify("exit", map[string]any{}); err != nil {
			logger.Debug(fmt.Sprintf("Exit notification failed: %v", err))
		}
	}

	// Closing stdin signals EOF to servers that ignore the exit
	// notification; the read loop then observes the closed stream.
	c.writeMu.Lock()
	c.writer = nil
	c.writeMu.Unlock()

	c.mu.Lock()
	if c.stdin != nil {
		_ = c.stdin.Close()
		c.stdin = nil
	}
	c.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			logger.Warn("Language server did not exit in time, killing")
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
			select {
			case <-done:
			case <-time.After(2 * time.Second):
			}
		}
	}

	if cmd.Process != nil {
		// Harmless if the process already exited.
		_ = cmd.Process.Kill()
	}

	// The read loop resolves pending entries when it sees EOF; this covers
	// the case where it was already gone.
	c.failAllPending()

	c.mu.Lock()
	c.cmd = nil
	c.done = nil
	c.mu.Unlock()
}

func (c *Client) setStatus(status ClientStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}
