package notebook

import (
	"context"
	"time"

	"github.com/notekit/notebook-mcp/internal/host"
)

// WaitState is the terminal state of an execution wait.
type WaitState int

const (
	// WaitCompleted: the kernel reported a concrete success value.
	WaitCompleted WaitState = iota
	// WaitTimedOut: no completion within budget. The execution may still
	// finish later; the waiter never cancels the underlying run.
	WaitTimedOut
	// WaitCellMissing: the tracked cell disappeared mid-poll.
	WaitCellMissing
)

// String returns a short name for logging.
func (s WaitState) String() string {
	switch s {
	case WaitCompleted:
		return "completed"
	case WaitTimedOut:
		return "timed-out"
	case WaitCellMissing:
		return "cell-missing"
	default:
		return "unknown"
	}
}

// WaitResult reports how a wait ended. Success and Cell are only
// meaningful when State is WaitCompleted.
type WaitResult struct {
	State   WaitState
	Success bool
	Cell    host.CellSnapshot
}

// Waiter polls a cell's execution summary until the kernel reports
// completion. It is purely observational: it never mutates the document
// and never assumes exclusivity, since the kernel and the editor UI update
// the cell concurrently with the polling.
type Waiter struct {
	// Interval between polls. Zero means 100ms.
	Interval time.Duration
	// Timeout bounds the whole wait. Zero means 60s.
	Timeout time.Duration
}

// Wait blocks until the cell identified by trackingID finishes executing,
// the timeout elapses, the cell disappears, or ctx is cancelled. Cancelled
// contexts are the only case that returns a non-nil error.
//
// Completion is signaled only by ExecutionSummary.Success holding a concrete
// boolean. The summary container itself appears the moment execution is
// requested, so its mere presence must be treated as "still running";
// resolving on it would return stale or empty outputs.
func (w Waiter) Wait(ctx context.Context, doc host.Document, trackingID string) (WaitResult, error) {
	interval := w.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		cell, err := Resolve(doc, trackingID)
		if err != nil {
			return WaitResult{State: WaitCellMissing}, nil
		}
		if summary := cell.ExecutionSummary; summary != nil && summary.Success != nil {
			return WaitResult{State: WaitCompleted, Success: *summary.Success, Cell: cell}, nil
		}

		select {
		case <-ctx.Done():
			return WaitResult{}, ctx.Err()
		case <-deadline.C:
			return WaitResult{State: WaitTimedOut}, nil
		case <-ticker.C:
		}
	}
}
