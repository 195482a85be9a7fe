package lsp

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer drives the server side of an in-memory protocol session so the
// client's correlation and dispatch logic can be exercised without spawning
// a real pyright process.
type fakeServer struct {
	t      *testing.T
	reader *Reader
	writer *Writer

	toClient *io.PipeWriter
}

// newTestClient wires a Client to a fakeServer over in-memory pipes, with the
// read and dispatch loops running as they would after Start.
func newTestClient(t *testing.T, opts Options) (*Client, *fakeServer) {
	t.Helper()

	if opts.Command == "" {
		opts.Command = "pyright-langserver"
	}
	if opts.ProjectRoot == "" {
		opts.ProjectRoot = t.TempDir()
	}
	if opts.CallTimeout == 0 {
		opts.CallTimeout = 2 * time.Second
	}

	c := NewClient(opts)

	toServerR, toServerW := io.Pipe()
	toClientR, toClientW := io.Pipe()

	c.writer = NewWriter(toServerW)
	c.pending = make(map[int64]*pendingCall)
	c.status = StatusReady

	done := make(chan struct{})
	c.done = done

	notifq := make(chan *Message, notificationQueueSize)
	go c.dispatchLoop(notifq)
	go c.readLoop(NewReader(toClientR), notifq, done)

	t.Cleanup(func() {
		_ = toServerW.Close()
		_ = toClientW.Close()
	})

	srv := &fakeServer{
		t:        t,
		reader:   NewReader(toServerR),
		writer:   NewWriter(toClientW),
		toClient: toClientW,
	}

	return c, srv
}

// next reads one message sent by the client.
func (s *fakeServer) next() *Message {
	msg, err := s.reader.Next()
	require.NoError(s.t, err)

	return msg
}

func (s *fakeServer) respond(id ID, result any) {
	msg, err := newResponse(id, result)
	require.NoError(s.t, err)
	require.NoError(s.t, s.writer.WriteMessage(msg))
}

func (s *fakeServer) respondError(id ID, code int64, message string) {
	require.NoError(s.t, s.writer.WriteMessage(newErrorResponse(id, code, message)))
}

func (s *fakeServer) notify(method string, params any) {
	msg, err := newNotification(method, params)
	require.NoError(s.t, err)
	require.NoError(s.t, s.writer.WriteMessage(msg))
}

func (s *fakeServer) request(id ID, method string, params any) {
	raw, err := json.Marshal(params)
	require.NoError(s.t, err)
	msg := &Message{JSONRPC: "2.0", ID: &id, Method: method, Params: raw}
	require.NoError(s.t, s.writer.WriteMessage(msg))
}

// crash closes the server-to-client stream, as if the process died.
func (s *fakeServer) crash() {
	_ = s.toClient.Close()
}

func pendingLen(c *Client) int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	return len(c.pending)
}

func TestCallRoundTrip(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	go func() {
		req := srv.next()
		srv.respond(*req.ID, map[string]string{"contents": "def f() -> int"})
	}()

	var result struct {
		Contents string `json:"contents"`
	}
	require.NoError(t, c.Call(context.Background(), "textDocument/hover", map[string]any{"line": 1}, &result))
	assert.Equal(t, "def f() -> int", result.Contents)
	assert.Zero(t, pendingLen(c))
}

func TestOutOfOrderResponses(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	// Read both requests first, then answer them in reverse order. Each
	// caller must still receive the result for its own request id.
	go func() {
		first := srv.next()
		second := srv.next()
		srv.respond(*second.ID, map[string]string{"for": second.Method})
		srv.respond(*first.ID, map[string]string{"for": first.Method})
	}()

	var wg sync.WaitGroup
	results := make(map[string]string)
	var mu sync.Mutex

	for _, method := range []string{"textDocument/definition", "textDocument/references"} {
		wg.Add(1)
		go func(method string) {
			defer wg.Done()
			var result struct {
				For string `json:"for"`
			}
			require.NoError(t, c.Call(context.Background(), method, nil, &result))
			mu.Lock()
			results[method] = result.For
			mu.Unlock()
		}(method)
	}
	wg.Wait()

	assert.Equal(t, "textDocument/definition", results["textDocument/definition"])
	assert.Equal(t, "textDocument/references", results["textDocument/references"])
}

func TestCallTimeout(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	go func() {
		srv.next() // swallow the request, never answer
	}()

	start := time.Now()
	err := c.CallWithTimeout(context.Background(), "textDocument/hover", nil, nil, 50*time.Millisecond)
	elapsed := time.Since(start)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "textDocument/hover", te.Method)
	assert.Less(t, elapsed, time.Second)

	// The timed-out entry is removed so the table cannot leak.
	assert.Zero(t, pendingLen(c))
}

func TestLateResponseAfterTimeoutDiscarded(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	ids := make(chan ID, 1)
	go func() {
		req := srv.next()
		ids <- *req.ID
	}()

	err := c.CallWithTimeout(context.Background(), "textDocument/hover", nil, nil, 50*time.Millisecond)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)

	// The response arrives after the caller gave up. It must be dropped
	// without disturbing anything else.
	srv.respond(<-ids, map[string]string{"stale": "yes"})

	go func() {
		req := srv.next()
		srv.respond(*req.ID, map[string]string{"fresh": "yes"})
	}()

	var result map[string]string
	require.NoError(t, c.Call(context.Background(), "textDocument/definition", nil, &result))
	assert.Equal(t, "yes", result["fresh"])
}

func TestOrphanResponseIgnored(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	srv.respond(NumberID(999), map[string]string{"orphan": "yes"})

	go func() {
		req := srv.next()
		srv.respond(*req.ID, map[string]string{"ok": "yes"})
	}()

	var result map[string]string
	require.NoError(t, c.Call(context.Background(), "textDocument/hover", nil, &result))
	assert.Equal(t, "yes", result["ok"])
}

func TestRemoteErrorSurfaced(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	go func() {
		req := srv.next()
		srv.respondError(*req.ID, CodeContentModified, "content modified")
	}()

	err := c.Call(context.Background(), "textDocument/rename", nil, nil)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, int64(CodeContentModified), re.Code)
	assert.Equal(t, "content modified", re.Message)
}

func TestAllPendingFailOnCrash(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	const calls = 5

	started := make(chan struct{}, calls)
	errs := make(chan error, calls)

	for i := 0; i < calls; i++ {
		go func() {
			started <- struct{}{}
			errs <- c.Call(context.Background(), "textDocument/hover", nil, nil)
		}()
	}

	// Consume every request so all five are in flight, then kill the
	// stream.
	for i := 0; i < calls; i++ {
		<-started
		srv.next()
	}
	srv.crash()

	for i := 0; i < calls; i++ {
		err := <-errs
		var pt *ProcessTerminatedError
		require.ErrorAs(t, err, &pt)
	}

	// New calls fail fast until the process is started again.
	err := c.Call(context.Background(), "textDocument/hover", nil, nil)
	var pt *ProcessTerminatedError
	require.ErrorAs(t, err, &pt)
}

func TestCrashInvokesExitCallback(t *testing.T) {
	exited := make(chan error, 1)
	c, srv := newTestClient(t, Options{
		OnExit: func(err error) { exited <- err },
	})

	srv.crash()

	select {
	case err := <-exited:
		var pt *ProcessTerminatedError
		require.ErrorAs(t, err, &pt)
	case <-time.After(2 * time.Second):
		t.Fatal("exit callback was not invoked")
	}

	assert.Equal(t, StatusClosed, c.Status())
}

func TestNotificationOrderPreserved(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	var mu sync.Mutex
	var seen []string
	c.OnNotification("textDocument/publishDiagnostics", func(params json.RawMessage) {
		var p struct {
			Uri string `json:"uri"`
		}
		require.NoError(t, json.Unmarshal(params, &p))
		mu.Lock()
		seen = append(seen, p.Uri)
		mu.Unlock()
	})

	uris := []string{"file:///a.py", "file:///b.py", "file:///c.py"}
	for _, uri := range uris {
		srv.notify("textDocument/publishDiagnostics", map[string]any{"uri": uri, "diagnostics": []any{}})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == len(uris)
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, uris, seen)
	mu.Unlock()
}

func TestSlowSubscriberDoesNotBlockResponses(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	release := make(chan struct{})
	c.OnNotification("textDocument/publishDiagnostics", func(json.RawMessage) {
		<-release
	})
	defer close(release)

	srv.notify("textDocument/publishDiagnostics", map[string]any{"uri": "file:///x.py"})

	// A response must still route to its caller while the subscriber is
	// stuck.
	go func() {
		req := srv.next()
		srv.respond(*req.ID, map[string]string{"ok": "yes"})
	}()

	done := make(chan error, 1)
	go func() {
		done <- c.Call(context.Background(), "textDocument/hover", nil, nil)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("read loop blocked behind a slow notification subscriber")
	}
}

func TestContextCancellationLeavesEntry(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	ids := make(chan ID, 1)
	go func() {
		req := srv.next()
		ids <- *req.ID
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := c.Call(ctx, "textDocument/hover", nil, nil)
	require.ErrorIs(t, err, context.Canceled)

	// The caller stopped waiting but the exchange is still in flight.
	assert.Equal(t, 1, pendingLen(c))

	// The eventual response resolves and removes the entry.
	srv.respond(<-ids, map[string]string{})
	require.Eventually(t, func() bool {
		return pendingLen(c) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCancelledCallEntryRemovedAtTimeout(t *testing.T) {
	c, srv := newTestClient(t, Options{CallTimeout: 100 * time.Millisecond})

	consumed := make(chan struct{})
	go func() {
		srv.next()
		close(consumed)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The server never responds, so only the timeout can reclaim the
	// abandoned entry.
	err := c.Call(ctx, "textDocument/hover", nil, nil)
	require.ErrorIs(t, err, context.Canceled)
	<-consumed

	require.Eventually(t, func() bool {
		return pendingLen(c) == 0
	}, time.Second, 10*time.Millisecond, "pending entry should be removed once its timeout elapses")
}

func TestNotifyHasNoID(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	go func() {
		require.NoError(t, c.Notify("initialized", map[string]any{}))
	}()

	msg := srv.next()
	assert.Nil(t, msg.ID)
	assert.Equal(t, "initialized", msg.Method)
}

func TestWorkspaceConfigurationAnswered(t *testing.T) {
	c, srv := newTestClient(t, Options{
		PyrightConfig: map[string]any{"typeCheckingMode": "strict"},
	})
	_ = c

	srv.request(ID{Str: "cfg-1", IsStr: true}, "workspace/configuration", map[string]any{
		"items": []map[string]any{
			{"section": "python.analysis"},
			{"section": "nosuchsection"},
		},
	})

	reply := srv.next()
	require.True(t, reply.IsResponse())
	require.NotNil(t, reply.ID)
	assert.Equal(t, "cfg-1", reply.ID.Str)

	var sections []map[string]any
	require.NoError(t, json.Unmarshal(reply.Result, &sections))
	require.Len(t, sections, 2)
	assert.Equal(t, "strict", sections[0]["typeCheckingMode"])
	assert.Empty(t, sections[1])
}

func TestUnsupportedServerRequestRejected(t *testing.T) {
	_, srv := newTestClient(t, Options{})

	srv.request(NumberID(12), "window/showMessageRequest", map[string]any{})

	reply := srv.next()
	require.True(t, reply.IsResponse())
	require.NotNil(t, reply.Error)
	assert.Equal(t, int64(CodeMethodNotFound), reply.Error.Code)
}

func TestMonotonicIDsNeverReused(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	var ids []int64
	for i := 0; i < 3; i++ {
		go func() {
			req := srv.next()
			ids = append(ids, req.ID.Num)
			srv.respond(*req.ID, map[string]any{})
		}()
		require.NoError(t, c.Call(context.Background(), "textDocument/hover", nil, nil))
	}

	require.Len(t, ids, 3)
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])
}

// rewire attaches a fresh transport to a crashed client, as Start does when
// spawning a new process generation.
func rewire(t *testing.T, c *Client) *fakeServer {
	t.Helper()

	toServerR, toServerW := io.Pipe()
	toClientR, toClientW := io.Pipe()

	c.writeMu.Lock()
	c.writer = NewWriter(toServerW)
	c.writeMu.Unlock()

	c.pendingMu.Lock()
	c.pending = make(map[int64]*pendingCall)
	c.pendingMu.Unlock()

	done := make(chan struct{})

	c.mu.Lock()
	c.closing = false
	c.status = StatusReady
	c.done = done
	c.mu.Unlock()

	notifq := make(chan *Message, notificationQueueSize)
	go c.dispatchLoop(notifq)
	go c.readLoop(NewReader(toClientR), notifq, done)

	t.Cleanup(func() {
		_ = toServerW.Close()
		_ = toClientW.Close()
	})

	return &fakeServer{
		t:        t,
		reader:   NewReader(toServerR),
		writer:   NewWriter(toClientW),
		toClient: toClientW,
	}
}

func TestRestartAfterCrashServesNewCalls(t *testing.T) {
	c, srv := newTestClient(t, Options{})

	const calls = 3

	started := make(chan struct{}, calls)
	errs := make(chan error, calls)

	for i := 0; i < calls; i++ {
		go func() {
			started <- struct{}{}
			errs <- c.Call(context.Background(), "textDocument/hover", nil, nil)
		}()
	}

	var lastID int64
	for i := 0; i < calls; i++ {
		<-started
		req := srv.next()
		if req.ID.Num > lastID {
			lastID = req.ID.Num
		}
	}
	srv.crash()

	for i := 0; i < calls; i++ {
		var pt *ProcessTerminatedError
		require.ErrorAs(t, <-errs, &pt)
	}

	srv2 := rewire(t, c)

	go func() {
		req := srv2.next()
		assert.Greater(t, req.ID.Num, lastID)
		srv2.respond(*req.ID, map[string]string{"status": "ok"})
	}()

	var result map[string]string
	require.NoError(t, c.Call(context.Background(), "textDocument/hover", nil, &result))
	assert.Equal(t, "ok", result["status"])
}
