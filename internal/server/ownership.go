package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/notekit/notebook-mcp/internal/config"
	"github.com/notekit/notebook-mcp/internal/errors"
	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/logging"
)

// State is the ownership state of this process with respect to the shared
// well-known port.
type State int

const (
	// StateUnbound means the process has not yet contended for the port.
	StateUnbound State = iota
	// StateOwner means this process holds the listener and serves requests.
	StateOwner
	// StateDeferred means a sibling instance holds the port; this process
	// waits for a focus gain to take over.
	StateDeferred
)

// String returns the state name used in logs and health responses.
func (s State) String() string {
	switch s {
	case StateOwner:
		return "owner"
	case StateDeferred:
		return "deferred"
	default:
		return "unbound"
	}
}

// Ownership implements the single-owner port protocol. All editor-window
// processes contend for one well-known port; the OS bind is the final
// arbiter of who owns it. A deferred process asks the current owner to
// release via POST /release when its own window gains focus.
type Ownership struct {
	cfg     config.Config
	log     *logging.Logger
	ws      host.Workspace
	handler http.Handler
	client  *http.Client

	mu    sync.Mutex
	state State
	ln    net.Listener
	srv   *http.Server

	serveErr chan error
}

func newOwnership(cfg config.Config, log *logging.Logger, ws host.Workspace) *Ownership {
	return &Ownership{
		cfg:      cfg,
		log:      log,
		ws:       ws,
		client:   &http.Client{Timeout: 2 * time.Second},
		serveErr: make(chan error, 4),
	}
}

// State returns the current ownership state.
func (o *Ownership) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Addr returns the address this instance serves on when it is the owner.
func (o *Ownership) Addr() string {
	return o.cfg.Addr()
}

// Start contends for the port once. On a successful bind this instance
// becomes the owner and starts serving; if a sibling already holds the port
// it enters the deferred state. A port held by anything that does not answer
// the health probe as a sibling is an error.
func (o *Ownership) Start(ctx context.Context) error {
	if err := o.bind(); err == nil {
		o.log.Info("Bound shared port, serving as owner", "addr", o.Addr())
		return nil
	}

	if err := o.probePeer(ctx); err != nil {
		return errors.Ownershipf("port %d is held but not by a sibling instance: %v", o.cfg.Port, err)
	}

	o.mu.Lock()
	o.state = StateDeferred
	o.mu.Unlock()
	o.log.Info("Sibling instance owns the port, deferring", "addr", o.Addr())
	return nil
}

// Run drives the protocol until the context is cancelled: it watches window
// focus events to trigger takeovers and surfaces serve failures. On return
// the listener, if held, has been shut down.
func (o *Ownership) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return o.watchFocus(gctx)
	})
	g.Go(func() error {
		return o.collectServeErrors(gctx)
	})

	err := g.Wait()
	o.shutdown()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Release closes the listener and steps down to the deferred state. The
// listener is closed before this returns, so the caller can promise the
// requesting peer that the port is free. In-flight connections, including
// the one carrying the release request, stay open and are drained in the
// background.
func (o *Ownership) Release() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateOwner {
		return errors.Ownershipf("not the port owner (state %s)", o.state)
	}

	err := o.ln.Close()
	srv := o.srv
	o.ln = nil
	o.srv = nil
	o.state = StateDeferred

	go func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			o.log.Warn("Draining connections after release failed", "error", err)
		}
	}()

	return err
}

// bind attempts to take the port and, on success, starts serving on it.
func (o *Ownership) bind() error {
	ln, err := net.Listen("tcp", o.cfg.Addr())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           o.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	o.mu.Lock()
	o.ln = ln
	o.srv = srv
	o.state = StateOwner
	o.mu.Unlock()

	go func() {
		err := srv.Serve(ln)
		select {
		case o.serveErr <- err:
		default:
		}
	}()

	return nil
}

// probePeer checks that whatever holds the port is a sibling instance.
func (o *Ownership) probePeer(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("http://%s/health", o.cfg.Addr()), nil)
	if err != nil {
		return err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health probe returned status %d", resp.StatusCode)
	}
	var info healthInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("health probe returned invalid body: %w", err)
	}
	if info.Name != ServerName {
		return fmt.Errorf("port holder identifies as %q", info.Name)
	}
	return nil
}

// watchFocus waits for focus gains while deferred and triggers a debounced
// takeover. A focus loss inside the debounce window cancels the attempt.
func (o *Ownership) watchFocus(ctx context.Context) error {
	var debounce *time.Timer
	var fire <-chan time.Time

	stopTimer := func() {
		if debounce != nil {
			debounce.Stop()
			debounce = nil
			fire = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return ctx.Err()

		case focused, ok := <-o.ws.FocusEvents():
			if !ok {
				stopTimer()
				return nil
			}
			if !focused {
				stopTimer()
				continue
			}
			if o.State() != StateDeferred {
				continue
			}
			stopTimer()
			debounce = time.NewTimer(o.cfg.FocusDebounce.Duration)
			fire = debounce.C

		case <-fire:
			debounce = nil
			fire = nil
			if o.State() != StateDeferred || !o.ws.Focused() {
				continue
			}
			o.takeover(ctx)
		}
	}
}

// takeover asks the current owner to release and then retries the bind
// within the configured budget. The bind is the final arbiter: failure to
// acquire within the budget leaves this instance deferred.
func (o *Ownership) takeover(ctx context.Context) {
	o.log.Info("Window focused, attempting port takeover", "addr", o.Addr())

	if err := o.requestRelease(ctx); err != nil {
		// The owner may already be gone; the bind loop below settles it.
		o.log.Debug("Release request failed", "error", err)
	}

	deadline := time.Now().Add(o.cfg.TakeoverBudget.Duration)
	for {
		if err := o.bind(); err == nil {
			o.log.Info("Takeover succeeded, serving as owner", "addr", o.Addr())
			return
		}
		if time.Now().After(deadline) {
			o.log.Warn("Takeover budget exhausted, staying deferred", "addr", o.Addr())
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.cfg.TakeoverInterval.Duration):
		}
	}
}

func (o *Ownership) requestRelease(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("http://%s/release", o.cfg.Addr()), nil)
	if err != nil {
		return err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("release request returned status %d", resp.StatusCode)
	}
	return nil
}

// collectServeErrors filters the benign errors serving emits when the
// listener is closed by a release or shutdown.
func (o *Ownership) collectServeErrors(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-o.serveErr:
			if err == nil || err == http.ErrServerClosed || errors.Is(err, net.ErrClosed) {
				continue
			}
			return fmt.Errorf("http serve failed: %w", err)
		}
	}
}

// shutdown stops serving if this instance still owns the port.
func (o *Ownership) shutdown() {
	o.mu.Lock()
	srv := o.srv
	o.srv = nil
	o.ln = nil
	if srv != nil {
		o.state = StateUnbound
	}
	o.mu.Unlock()

	if srv == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		o.log.Warn("Graceful shutdown failed", "error", err)
	}
}
