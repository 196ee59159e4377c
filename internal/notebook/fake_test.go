package notebook

import (
	"context"
	"sync"

	"github.com/notekit/notebook-mcp/internal/errors"
	"github.com/notekit/notebook-mcp/internal/host"
)

// fakeDocument is an in-memory host.Document for exercising the cell core
// without an editor.
type fakeDocument struct {
	mu    sync.Mutex
	uri   string
	cells []host.CellSnapshot
}

func newFakeDocument(uri string, cells ...host.CellSnapshot) *fakeDocument {
	d := &fakeDocument{uri: uri}
	d.cells = append(d.cells, cells...)
	d.renumber()
	return d
}

func codeCell(text string) host.CellSnapshot {
	return host.CellSnapshot{Kind: host.CellKindCode, Text: text, Language: "python", Metadata: map[string]any{}}
}

func markupCell(text string) host.CellSnapshot {
	return host.CellSnapshot{Kind: host.CellKindMarkup, Text: text, Metadata: map[string]any{}}
}

func (d *fakeDocument) renumber() {
	for i := range d.cells {
		d.cells[i].Index = i
	}
}

func (d *fakeDocument) URI() string { return d.uri }

func (d *fakeDocument) CellCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cells)
}

func (d *fakeDocument) Cells() []host.CellSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]host.CellSnapshot, len(d.cells))
	copy(out, d.cells)
	return out
}

func (d *fakeDocument) ApplyEdits(ctx context.Context, edits ...host.CellRangeEdit) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, edit := range edits {
		if edit.Start < 0 || edit.End < edit.Start || edit.End > len(d.cells) {
			return errors.Validationf("edit range [%d, %d) out of bounds", edit.Start, edit.End)
		}
		inserted := make([]host.CellSnapshot, len(edit.Cells))
		for i, data := range edit.Cells {
			inserted[i] = host.CellSnapshot{
				Kind:     data.Kind,
				Text:     data.Text,
				Language: data.Language,
				Metadata: data.Metadata,
			}
		}
		rest := append(inserted, d.cells[edit.End:]...)
		d.cells = append(d.cells[:edit.Start], rest...)
	}
	d.renumber()
	return nil
}

func (d *fakeDocument) SetCellText(ctx context.Context, index int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.cells) {
		return errors.Validationf("index %d out of bounds", index)
	}
	d.cells[index].Text = text
	return nil
}

func (d *fakeDocument) SetCellMetadata(ctx context.Context, index int, key string, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.cells) {
		return errors.Validationf("index %d out of bounds", index)
	}
	if d.cells[index].Metadata == nil {
		d.cells[index].Metadata = map[string]any{}
	}
	d.cells[index].Metadata[key] = value
	return nil
}

func (d *fakeDocument) ClearOutputs(ctx context.Context, indices ...int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(indices) == 0 {
		for i := range d.cells {
			d.cells[i].Outputs = nil
			d.cells[i].ExecutionSummary = nil
		}
		return nil
	}
	for _, i := range indices {
		if i < 0 || i >= len(d.cells) {
			return errors.Validationf("index %d out of bounds", i)
		}
		d.cells[i].Outputs = nil
		d.cells[i].ExecutionSummary = nil
	}
	return nil
}

// setSummary mimics the kernel updating a cell's execution state.
func (d *fakeDocument) setSummary(index int, summary *host.ExecutionSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cells[index].ExecutionSummary = summary
}

// fakeWorkspace is an in-memory host.Workspace.
type fakeWorkspace struct {
	mu      sync.Mutex
	docs    []*fakeDocument
	active  *fakeDocument
	focused bool
	focusCh chan bool
}

func newFakeWorkspace(docs ...*fakeDocument) *fakeWorkspace {
	ws := &fakeWorkspace{docs: docs, focusCh: make(chan bool, 16)}
	if len(docs) > 0 {
		ws.active = docs[0]
	}
	return ws
}

func (w *fakeWorkspace) Documents() []host.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]host.Document, len(w.docs))
	for i, d := range w.docs {
		out[i] = d
	}
	return out
}

func (w *fakeWorkspace) Document(uri string) (host.Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, d := range w.docs {
		if d.uri == uri {
			return d, true
		}
	}
	return nil, false
}

func (w *fakeWorkspace) ActiveDocument() (host.Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return nil, false
	}
	return w.active, true
}

func (w *fakeWorkspace) Focused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

func (w *fakeWorkspace) setFocused(focused bool) {
	w.mu.Lock()
	w.focused = focused
	w.mu.Unlock()
	w.focusCh <- focused
}

func (w *fakeWorkspace) FocusEvents() <-chan bool { return w.focusCh }

func (w *fakeWorkspace) Kernel(uri string) (host.Kernel, bool) { return nil, false }
