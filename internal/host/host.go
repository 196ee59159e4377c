// Package host defines the interfaces of the editor this server adapts:
// the live notebook document model, the kernel runtime, and the workspace
// (open documents, active document, window focus).
//
// The document is shared with the user and the editor UI and may change
// between any two calls. Implementations hand out value snapshots, never
// live references, so callers cannot accidentally cache stale state across
// a suspension point.
package host

import "context"

// CellKind distinguishes executable code cells from static markup cells.
type CellKind int

const (
	// CellKindCode is an executable code cell.
	CellKindCode CellKind = iota
	// CellKindMarkup is a static markup (markdown) cell.
	CellKindMarkup
)

// String returns the wire name of the cell kind.
func (k CellKind) String() string {
	if k == CellKindMarkup {
		return "markup"
	}
	return "code"
}

// ExecutionSummary is the host-reported state of a cell's most recent run.
//
// The host creates the summary the instant execution is requested, before
// the kernel has produced anything. Success stays nil until the kernel
// finishes; only a concrete boolean means the run is complete.
type ExecutionSummary struct {
	ExecutionOrder int
	Success        *bool
}

// OutputKind classifies a cell output for the tool surface.
type OutputKind string

const (
	OutputText  OutputKind = "text"
	OutputError OutputKind = "error"
	OutputImage OutputKind = "image"
)

// Output is one output item of a code cell.
type Output struct {
	Kind OutputKind
	// Text carries stream text or the rendered error (name: message).
	Text string
	// MIME and Data are set for image outputs; Data is base64-encoded.
	MIME string
	Data string
}

// CellData describes a cell to be created by an edit.
type CellData struct {
	Kind     CellKind
	Text     string
	Language string
	Metadata map[string]any
}

// CellSnapshot is a point-in-time copy of one cell. Index is only valid
// until the next structural edit of the document.
type CellSnapshot struct {
	Index            int
	Kind             CellKind
	Text             string
	Language         string
	Outputs          []Output
	ExecutionSummary *ExecutionSummary
	Metadata         map[string]any
}

// Data converts the snapshot into CellData suitable for re-insertion,
// carrying the metadata (and with it any tracking identifier) along.
func (s CellSnapshot) Data() CellData {
	meta := make(map[string]any, len(s.Metadata))
	for k, v := range s.Metadata {
		meta[k] = v
	}
	return CellData{
		Kind:     s.Kind,
		Text:     s.Text,
		Language: s.Language,
		Metadata: meta,
	}
}

// CellRangeEdit replaces the cell range [Start, End) with Cells. An insert
// has Start == End; a delete has empty Cells.
type CellRangeEdit struct {
	Start int
	End   int
	Cells []CellData
}

// Document is a live notebook document owned by the host. All reads are
// fresh; all mutations are applied by the host as atomic, undoable edits.
type Document interface {
	URI() string

	// CellCount is a live read-through count.
	CellCount() int

	// Cells returns fresh snapshots of all cells in order.
	Cells() []CellSnapshot

	// ApplyEdits applies the given range edits sequentially as one logical,
	// undoable operation: a later edit in the batch addresses the document
	// state left by the earlier ones, and a single undo reverses the whole
	// batch. Returns an error if any edit is out of bounds; no partial
	// application occurs.
	ApplyEdits(ctx context.Context, edits ...CellRangeEdit) error

	// SetCellText replaces the source text of the cell at index as one
	// undoable edit.
	SetCellText(ctx context.Context, index int, text string) error

	// SetCellMetadata sets one metadata key of the cell at index. Metadata
	// edits do not disturb outputs or execution state.
	SetCellMetadata(ctx context.Context, index int, key string, value any) error

	// ClearOutputs clears the outputs and execution summary of the given
	// cells as one undoable edit. With no indices, all cells are cleared.
	ClearOutputs(ctx context.Context, indices ...int) error
}

// KernelInfo identifies the kernel serving a document.
type KernelInfo struct {
	Name     string
	Language string
	Status   string
}

// Kernel triggers code execution. Execute returns once the run has been
// handed to the kernel; completion is observed by polling the cell's
// execution summary, never by this call returning.
type Kernel interface {
	Info() KernelInfo
	Execute(ctx context.Context, index int) error
}

// Workspace is the per-window view of the editor: which documents are open,
// which one is active, and whether the window holds OS input focus.
type Workspace interface {
	Documents() []Document
	Document(uri string) (Document, bool)
	ActiveDocument() (Document, bool)

	// Focused reports whether this window currently has OS input focus.
	Focused() bool

	// FocusEvents delivers focus gain/loss notifications. The channel is
	// never closed while the workspace is alive.
	FocusEvents() <-chan bool

	// Kernel returns the kernel attached to the given document, if any.
	Kernel(uri string) (Kernel, bool)
}
