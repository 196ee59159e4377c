package fshost

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/notekit/notebook-mcp/internal/collections"
	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/logging"
)

// iidCounter hands out process-internal cell identities. They are never
// serialized; the kernel uses them to write results back to a cell whose
// index may have shifted while the subprocess was running.
var iidCounter atomic.Int64

type cellState struct {
	iid      int64
	kind     host.CellKind
	text     string
	language string
	outputs  []host.Output
	summary  *host.ExecutionSummary
	metadata map[string]any
}

func (c *cellState) snapshot(index int) host.CellSnapshot {
	snap := host.CellSnapshot{
		Index:    index,
		Kind:     c.kind,
		Text:     c.text,
		Language: c.language,
		Outputs:  append([]host.Output(nil), c.outputs...),
		Metadata: collections.CloneMap(c.metadata),
	}
	if c.summary != nil {
		s := *c.summary
		snap.ExecutionSummary = &s
	}
	return snap
}

func cellFromData(data host.CellData, language string) *cellState {
	if data.Language != "" {
		language = data.Language
	}
	return &cellState{
		iid:      iidCounter.Add(1),
		kind:     data.Kind,
		text:     data.Text,
		language: language,
		metadata: collections.CloneMap(data.Metadata),
	}
}

// Document is a file-backed notebook document. Every mutating method is
// applied under the document lock, persisted as one write, and pushed onto
// the undo stack as one entry.
type Document struct {
	uri  string
	path string
	log  *logging.Logger

	mu            sync.Mutex
	cells         []*cellState
	meta          map[string]any
	nbformat      int
	nbformatMinor int
	language      string
	undo          [][]*cellState
	savedDigest   [sha256.Size]byte // content we last read from or wrote to disk
}

func loadDocument(path string, log *logging.Logger) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading notebook: %w", err)
	}
	nb, err := decodeNotebook(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	d := &Document{
		uri:  "file://" + path,
		path: path,
		log:  log.WithDocument("file://" + path),
	}
	d.applyFile(nb)
	d.savedDigest = sha256.Sum256(data)
	return d, nil
}

// applyFile replaces in-memory state from decoded file content.
func (d *Document) applyFile(nb *ipynbFile) {
	d.meta = nb.Metadata
	d.nbformat = nb.NBFormat
	d.nbformatMinor = nb.NBFormatMinor
	d.language = notebookLanguage(nb.Metadata)

	cells := make([]*cellState, 0, len(nb.Cells))
	for _, raw := range nb.Cells {
		cell := &cellState{
			iid:      iidCounter.Add(1),
			kind:     kindFromCellType(raw.CellType),
			text:     sourceText(raw.Source),
			language: d.language,
			outputs:  decodeOutputs(raw.Outputs),
			metadata: collections.CloneMap(raw.Metadata),
		}
		if raw.CellType == "markdown" || raw.CellType == "raw" {
			cell.language = "markdown"
		}
		if cell.kind == host.CellKindCode && raw.ExecutionCount != nil {
			// A serialized execution_count means the run completed; whether
			// it succeeded is recoverable from the presence of an error
			// output. Without this a reload would erase finished runs.
			success := true
			for _, out := range cell.outputs {
				if out.Kind == host.OutputError {
					success = false
					break
				}
			}
			cell.summary = &host.ExecutionSummary{ExecutionOrder: *raw.ExecutionCount, Success: &success}
		}
		cells = append(cells, cell)
	}
	d.cells = cells
}

func notebookLanguage(meta map[string]any) string {
	if spec, ok := meta["kernelspec"].(map[string]any); ok {
		if lang, ok := spec["language"].(string); ok && lang != "" {
			return lang
		}
	}
	return "python"
}

// URI returns the document's file URI.
func (d *Document) URI() string {
	return d.uri
}

// Path returns the on-disk path backing this document.
func (d *Document) Path() string {
	return d.path
}

// CellCount returns a live count of cells.
func (d *Document) CellCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cells)
}

// Cells returns fresh snapshots of all cells.
func (d *Document) Cells() []host.CellSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snaps := make([]host.CellSnapshot, len(d.cells))
	for i, c := range d.cells {
		snaps[i] = c.snapshot(i)
	}
	return snaps
}

// ApplyEdits applies range edits sequentially as one undoable operation.
func (d *Document) ApplyEdits(ctx context.Context, edits ...host.CellRangeEdit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	// Validate the whole batch against a simulated application before
	// touching real state, so a bad second edit cannot half-apply.
	length := len(d.cells)
	for _, e := range edits {
		if e.Start < 0 || e.End < e.Start || e.End > length {
			return fmt.Errorf("edit range [%d, %d) out of bounds for %d cells", e.Start, e.End, length)
		}
		length += len(e.Cells) - (e.End - e.Start)
	}

	d.pushUndoLocked()
	for _, e := range edits {
		inserted := make([]*cellState, len(e.Cells))
		for i, data := range e.Cells {
			inserted[i] = cellFromData(data, d.language)
		}
		tail := append(inserted, d.cells[e.End:]...)
		d.cells = append(d.cells[:e.Start:e.Start], tail...)
	}
	return d.saveLocked()
}

// SetCellText replaces one cell's source text.
func (d *Document) SetCellText(ctx context.Context, index int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.cells) {
		return fmt.Errorf("cell index %d out of bounds for %d cells", index, len(d.cells))
	}
	d.pushUndoLocked()
	cell := d.cells[index]
	cell.text = text
	// Stale outputs would misrepresent the new source.
	if cell.kind == host.CellKindCode {
		cell.outputs = nil
		cell.summary = nil
	}
	return d.saveLocked()
}

// SetCellMetadata sets one metadata key on one cell.
func (d *Document) SetCellMetadata(ctx context.Context, index int, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.cells) {
		return fmt.Errorf("cell index %d out of bounds for %d cells", index, len(d.cells))
	}
	d.pushUndoLocked()
	cell := d.cells[index]
	cell.metadata = collections.CloneMap(cell.metadata)
	cell.metadata[key] = value
	return d.saveLocked()
}

// ClearOutputs clears outputs and execution state of the given cells, or of
// every cell when no indices are passed.
func (d *Document) ClearOutputs(ctx context.Context, indices ...int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(indices) == 0 {
		indices = make([]int, len(d.cells))
		for i := range d.cells {
			indices[i] = i
		}
	}
	for _, i := range indices {
		if i < 0 || i >= len(d.cells) {
			return fmt.Errorf("cell index %d out of bounds for %d cells", i, len(d.cells))
		}
	}
	d.pushUndoLocked()
	for _, i := range indices {
		d.cells[i].outputs = nil
		d.cells[i].summary = nil
	}
	return d.saveLocked()
}

// Undo reverts the most recent logical edit. It returns false when there is
// nothing to undo.
func (d *Document) Undo(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.undo) == 0 {
		return false, nil
	}
	d.cells = d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]
	return true, d.saveLocked()
}

// pushUndoLocked snapshots the current cell list as one undo entry. The
// cellState values are copied so later in-place mutation cannot leak into
// history.
func (d *Document) pushUndoLocked() {
	entry := make([]*cellState, len(d.cells))
	for i, c := range d.cells {
		copied := *c
		copied.outputs = append([]host.Output(nil), c.outputs...)
		copied.metadata = collections.CloneMap(c.metadata)
		if c.summary != nil {
			s := *c.summary
			copied.summary = &s
		}
		entry[i] = &copied
	}
	const maxUndoDepth = 64
	if len(d.undo) >= maxUndoDepth {
		d.undo = d.undo[1:]
	}
	d.undo = append(d.undo, entry)
}

// saveLocked persists current state to disk as a single write.
func (d *Document) saveLocked() error {
	nb := &ipynbFile{
		Metadata:      d.meta,
		NBFormat:      d.nbformat,
		NBFormatMinor: d.nbformatMinor,
	}
	nb.Cells = make([]ipynbCell, len(d.cells))
	for i, c := range d.cells {
		raw := ipynbCell{
			CellType: cellTypeFromKind(c.kind),
			Source:   sourceLines(c.text),
			Metadata: c.metadata,
		}
		if c.kind == host.CellKindCode {
			raw.Outputs = encodeOutputs(c.outputs)
			if raw.Outputs == nil {
				raw.Outputs = []map[string]any{}
			}
			if c.summary != nil && c.summary.Success != nil {
				order := c.summary.ExecutionOrder
				raw.ExecutionCount = &order
			}
		}
		nb.Cells[i] = raw
	}

	data, err := encodeNotebook(nb)
	if err != nil {
		return err
	}
	if err := os.WriteFile(d.path, data, 0o644); err != nil {
		return fmt.Errorf("writing notebook: %w", err)
	}
	d.savedDigest = sha256.Sum256(data)
	return nil
}

// reloadIfChanged re-reads the backing file and replaces in-memory state
// when the content differs from what this process last wrote or read.
// Self-write suppression is content-based because one save can surface as
// several fsnotify events, and event counting would misattribute the
// surplus to an external writer. Returns whether a reload happened.
func (d *Document) reloadIfChanged() (bool, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return false, fmt.Errorf("reloading notebook: %w", err)
	}
	digest := sha256.Sum256(data)

	d.mu.Lock()
	defer d.mu.Unlock()
	if digest == d.savedDigest {
		return false, nil
	}
	nb, err := decodeNotebook(data)
	if err != nil {
		return false, err
	}
	d.applyFile(nb)
	d.savedDigest = digest
	d.undo = nil
	return true, nil
}

// beginExecution marks the cell at index as requested: the execution
// summary appears immediately with Success unset, exactly the window in
// which a naive completion check would false-positive. Returns the cell's
// internal identity and source for the kernel.
func (d *Document) beginExecution(index, order int) (int64, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.cells) {
		return 0, "", fmt.Errorf("cell index %d out of bounds for %d cells", index, len(d.cells))
	}
	cell := d.cells[index]
	if cell.kind != host.CellKindCode {
		return 0, "", fmt.Errorf("cell %d is a %s cell, not code", index, cell.kind)
	}
	cell.outputs = nil
	cell.summary = &host.ExecutionSummary{ExecutionOrder: order}
	return cell.iid, cell.text, nil
}

// finishExecution writes a kernel result back to the cell, located by its
// internal identity so a concurrent move does not misdirect the outputs.
// Results for cells deleted mid-run are dropped.
func (d *Document) finishExecution(iid int64, outputs []host.Output, order int, success bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, cell := range d.cells {
		if cell.iid != iid {
			continue
		}
		cell.outputs = outputs
		cell.summary = &host.ExecutionSummary{ExecutionOrder: order, Success: &success}
		if err := d.saveLocked(); err != nil {
			d.log.Warn("persisting execution result failed", "error", err)
		}
		return
	}
	d.log.Debug("dropping execution result for deleted cell", "iid", iid)
}
