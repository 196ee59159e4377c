package notebook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notekit/notebook-mcp/internal/host"
)

func trackedDoc(t *testing.T, text string) (*fakeDocument, string) {
	t.Helper()
	doc := newFakeDocument("file:///nb.ipynb", codeCell(text))
	id := GenerateID()
	require.NoError(t, doc.SetCellMetadata(context.Background(), 0, TrackingMetadataKey, id))
	return doc, id
}

func TestWaitCompletes(t *testing.T) {
	doc, id := trackedDoc(t, "print(1)")
	w := Waiter{Interval: 5 * time.Millisecond, Timeout: time.Second}

	go func() {
		time.Sleep(20 * time.Millisecond)
		success := true
		doc.setSummary(0, &host.ExecutionSummary{ExecutionOrder: 1, Success: &success})
	}()

	result, err := w.Wait(context.Background(), doc, id)
	require.NoError(t, err)
	assert.Equal(t, WaitCompleted, result.State)
	assert.True(t, result.Success)
	assert.Equal(t, "print(1)", result.Cell.Text)
}

func TestWaitReportsFailure(t *testing.T) {
	doc, id := trackedDoc(t, "raise ValueError")
	success := false
	doc.setSummary(0, &host.ExecutionSummary{ExecutionOrder: 1, Success: &success})

	w := Waiter{Interval: 5 * time.Millisecond, Timeout: time.Second}
	result, err := w.Wait(context.Background(), doc, id)
	require.NoError(t, err)
	assert.Equal(t, WaitCompleted, result.State)
	assert.False(t, result.Success)
}

// A summary whose Success is still nil means the run was requested but has
// not finished. Its mere presence must never complete the wait.
func TestWaitIgnoresPendingSummary(t *testing.T) {
	doc, id := trackedDoc(t, "time.sleep(60)")
	doc.setSummary(0, &host.ExecutionSummary{ExecutionOrder: 1})

	w := Waiter{Interval: 5 * time.Millisecond, Timeout: 50 * time.Millisecond}
	result, err := w.Wait(context.Background(), doc, id)
	require.NoError(t, err)
	assert.Equal(t, WaitTimedOut, result.State)
}

func TestWaitTimesOutWithoutSummary(t *testing.T) {
	doc, id := trackedDoc(t, "pass")

	w := Waiter{Interval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond}
	result, err := w.Wait(context.Background(), doc, id)
	require.NoError(t, err)
	assert.Equal(t, WaitTimedOut, result.State)
}

func TestWaitCellMissing(t *testing.T) {
	doc, _ := trackedDoc(t, "pass")

	w := Waiter{Interval: 5 * time.Millisecond, Timeout: time.Second}
	result, err := w.Wait(context.Background(), doc, "no-such-id")
	require.NoError(t, err)
	assert.Equal(t, WaitCellMissing, result.State)
}

func TestWaitCellDeletedMidPoll(t *testing.T) {
	doc, id := trackedDoc(t, "pass")
	w := Waiter{Interval: 5 * time.Millisecond, Timeout: time.Second}

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = doc.ApplyEdits(context.Background(), host.CellRangeEdit{Start: 0, End: 1})
	}()

	result, err := w.Wait(context.Background(), doc, id)
	require.NoError(t, err)
	assert.Equal(t, WaitCellMissing, result.State)
}

func TestWaitContextCancelled(t *testing.T) {
	doc, id := trackedDoc(t, "pass")
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	w := Waiter{Interval: 5 * time.Millisecond, Timeout: time.Minute}
	_, err := w.Wait(ctx, doc, id)
	require.ErrorIs(t, err, context.Canceled)
}
