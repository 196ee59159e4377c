package fshost

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/logging"
)

// runCap bounds a single subprocess run. This is an internal safety net,
// independent of the tool-level execution wait timeout: a tool call that
// gives up waiting does not cancel the run.
const runCap = 5 * time.Minute

// pythonKernel executes code cells by spawning python3. Execution is
// asynchronous: Execute returns once the subprocess is started, and the
// result is written back to the document when it exits. Completion is
// observed through the cell's execution summary, never through Execute.
type pythonKernel struct {
	doc *Document
	log *logging.Logger

	mu    sync.Mutex
	order int
	busy  int
}

func newPythonKernel(doc *Document, log *logging.Logger) *pythonKernel {
	return &pythonKernel{doc: doc, log: log.WithDocument(doc.URI())}
}

// Info reports kernel identity and status.
func (k *pythonKernel) Info() host.KernelInfo {
	k.mu.Lock()
	defer k.mu.Unlock()
	status := "idle"
	if k.busy > 0 {
		status = "busy"
	}
	return host.KernelInfo{Name: "python3", Language: "python", Status: status}
}

// Execute triggers a run of the code cell at index. The ctx only covers
// the trigger; the subprocess continues under its own cap even if the
// caller stops waiting.
func (k *pythonKernel) Execute(ctx context.Context, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	k.order++
	order := k.order
	k.busy++
	k.mu.Unlock()

	iid, code, err := k.doc.beginExecution(index, order)
	if err != nil {
		k.mu.Lock()
		k.busy--
		k.mu.Unlock()
		return err
	}

	go k.run(iid, order, code)
	return nil
}

func (k *pythonKernel) run(iid int64, order int, code string) {
	defer func() {
		k.mu.Lock()
		k.busy--
		k.mu.Unlock()
	}()

	runCtx, cancel := context.WithTimeout(context.Background(), runCap)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "python3", "-c", code)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	var outputs []host.Output
	if text := stdout.String(); text != "" {
		outputs = append(outputs, host.Output{Kind: host.OutputText, Text: text})
	}
	if err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = err.Error()
		}
		outputs = append(outputs, host.Output{Kind: host.OutputError, Text: "ExecutionError: " + message})
	} else if text := strings.TrimSpace(stderr.String()); text != "" {
		outputs = append(outputs, host.Output{Kind: host.OutputText, Text: text})
	}

	k.doc.finishExecution(iid, outputs, order, err == nil)
	k.log.Debug("execution finished", "order", order, "success", err == nil)
}
