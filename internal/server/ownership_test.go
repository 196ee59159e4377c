package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notekit/notebook-mcp/internal/config"
	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/logging"
)

// stubWorkspace is a minimal host.Workspace for driving the ownership
// protocol from tests.
type stubWorkspace struct {
	mu      sync.Mutex
	focused bool
	focusCh chan bool
}

func newStubWorkspace() *stubWorkspace {
	return &stubWorkspace{focusCh: make(chan bool, 16)}
}

func (w *stubWorkspace) Documents() []host.Document               { return nil }
func (w *stubWorkspace) Document(string) (host.Document, bool)    { return nil, false }
func (w *stubWorkspace) ActiveDocument() (host.Document, bool)    { return nil, false }
func (w *stubWorkspace) Kernel(string) (host.Kernel, bool)        { return nil, false }
func (w *stubWorkspace) FocusEvents() <-chan bool                 { return w.focusCh }

func (w *stubWorkspace) Focused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

func (w *stubWorkspace) setFocused(focused bool) {
	w.mu.Lock()
	w.focused = focused
	w.mu.Unlock()
	w.focusCh <- focused
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func testConfig(port int) config.Config {
	cfg := config.Default()
	cfg.Port = port
	cfg.BindHost = "127.0.0.1"
	cfg.FocusDebounce = config.Duration{Duration: 20 * time.Millisecond}
	cfg.TakeoverInterval = config.Duration{Duration: 20 * time.Millisecond}
	cfg.TakeoverBudget = config.Duration{Duration: 3 * time.Second}
	return cfg
}

func newTestInstance(t *testing.T, cfg config.Config) (*Ownership, *stubWorkspace) {
	t.Helper()
	ws := newStubWorkspace()
	srv, err := New(&Options{
		Config:    cfg,
		Logger:    logging.NewLogger("error"),
		Workspace: ws,
	})
	require.NoError(t, err)
	return srv.NewOwnership(), ws
}

func waitForState(t *testing.T, own *Ownership, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if own.State() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("instance never reached state %s (currently %s)", want, own.State())
}

func TestFirstInstanceBecomesOwner(t *testing.T) {
	cfg := testConfig(freePort(t))
	ctx := context.Background()

	a, _ := newTestInstance(t, cfg)
	require.NoError(t, a.Start(ctx))
	defer a.shutdown()
	assert.Equal(t, StateOwner, a.State())

	resp, err := http.Get(fmt.Sprintf("http://%s/health", a.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info healthInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, ServerName, info.Name)
	assert.Equal(t, "owner", info.State)
	assert.NotEmpty(t, info.Instance)
}

func TestSecondInstanceDefers(t *testing.T) {
	cfg := testConfig(freePort(t))
	ctx := context.Background()

	a, _ := newTestInstance(t, cfg)
	require.NoError(t, a.Start(ctx))
	defer a.shutdown()

	b, _ := newTestInstance(t, cfg)
	require.NoError(t, b.Start(ctx))
	defer b.shutdown()
	assert.Equal(t, StateDeferred, b.State())
}

func TestStartFailsOnForeignPortHolder(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	cfg := testConfig(ln.Addr().(*net.TCPAddr).Port)

	a, _ := newTestInstance(t, cfg)
	err = a.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateUnbound, a.State())
}

func TestReleaseRequiresOwnership(t *testing.T) {
	cfg := testConfig(freePort(t))
	ctx := context.Background()

	a, _ := newTestInstance(t, cfg)
	require.NoError(t, a.Start(ctx))
	defer a.shutdown()

	b, _ := newTestInstance(t, cfg)
	require.NoError(t, b.Start(ctx))
	require.Error(t, b.Release())
}

// Focus gain on a deferred instance must transfer the port: the owner
// frees the listener before answering the release request, and the bind
// decides the new owner.
func TestFocusGainTransfersOwnership(t *testing.T) {
	cfg := testConfig(freePort(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, _ := newTestInstance(t, cfg)
	require.NoError(t, a.Start(ctx))
	defer a.shutdown()

	b, bws := newTestInstance(t, cfg)
	require.NoError(t, b.Start(ctx))
	defer b.shutdown()
	require.Equal(t, StateDeferred, b.State())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	bws.setFocused(true)

	waitForState(t, b, StateOwner)
	waitForState(t, a, StateDeferred)

	// The new owner answers on the shared port.
	resp, err := http.Get(fmt.Sprintf("http://%s/health", b.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	var info healthInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "owner", info.State)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

// A focus loss inside the debounce window must cancel the takeover.
func TestFocusFlickerDoesNotTakeOver(t *testing.T) {
	cfg := testConfig(freePort(t))
	cfg.FocusDebounce = config.Duration{Duration: 200 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, _ := newTestInstance(t, cfg)
	require.NoError(t, a.Start(ctx))
	defer a.shutdown()

	b, bws := newTestInstance(t, cfg)
	require.NoError(t, b.Start(ctx))
	defer b.shutdown()

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	bws.setFocused(true)
	time.Sleep(50 * time.Millisecond)
	bws.setFocused(false)

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, StateDeferred, b.State())
	assert.Equal(t, StateOwner, a.State())

	cancel()
	<-done
}
