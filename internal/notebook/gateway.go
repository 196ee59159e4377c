package notebook

import (
	"context"

	"github.com/notekit/notebook-mcp/internal/errors"
	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/logging"
)

// Gateway is the sole path through which this server issues structural
// edits against the shared document. Every operation re-reads whatever it
// needs from the document immediately before acting: indices cached across
// a suspension point are worthless, because the user or the editor UI may
// have mutated the document in between.
type Gateway struct {
	log *logging.Logger
}

// NewGateway creates a mutation gateway.
func NewGateway(log *logging.Logger) *Gateway {
	return &Gateway{log: log}
}

// Insert inserts cells at index as one atomic host edit, clamping index to
// [0, cellCount]. It returns the index actually used. Multi-cell batches
// are all-or-nothing; the host applies the whole range edit as one unit.
func (g *Gateway) Insert(ctx context.Context, doc host.Document, index int, cells []host.CellData) (int, error) {
	if len(cells) == 0 {
		return 0, errors.Validationf("insert requires at least one cell")
	}
	count := doc.CellCount()
	if index < 0 {
		index = 0
	}
	if index > count {
		index = count
	}
	if err := doc.ApplyEdits(ctx, host.CellRangeEdit{Start: index, End: index, Cells: cells}); err != nil {
		return 0, errors.Hostf(err, "inserting %d cell(s) at index %d in %s", len(cells), index, doc.URI())
	}
	g.log.Debug("inserted cells", "document", doc.URI(), "index", index, "count", len(cells))
	return index, nil
}

// Delete removes count cells starting at index. Bounds are validated
// against a freshly read cell count immediately before the edit.
func (g *Gateway) Delete(ctx context.Context, doc host.Document, index, count int) error {
	if count < 1 {
		return errors.Validationf("delete count must be at least 1, got %d", count)
	}
	total := doc.CellCount()
	if index < 0 || index >= total {
		return errors.Validationf("cell index %d out of range (document has %d cells)", index, total)
	}
	if index+count > total {
		return errors.Validationf("cannot delete %d cell(s) at index %d: document has %d cells", count, index, total)
	}
	if err := doc.ApplyEdits(ctx, host.CellRangeEdit{Start: index, End: index + count}); err != nil {
		return errors.Hostf(err, "deleting %d cell(s) at index %d in %s", count, index, doc.URI())
	}
	g.log.Debug("deleted cells", "document", doc.URI(), "index", index, "count", count)
	return nil
}

// Move relocates the cell at from so it ends up at position to, carrying
// its content and metadata (and therefore its tracking identifier). It is
// a snapshot-copy, delete, insert sequence applied as one undoable batch.
//
// When from < to, deleting the source shifts everything after it left by
// one, so the effective insertion point is to-1. When from > to, no
// adjustment is needed. Equal indices are a no-op.
//
// Returns the index the cell occupies after the move.
func (g *Gateway) Move(ctx context.Context, doc host.Document, from, to int) (int, error) {
	cells := doc.Cells()
	total := len(cells)
	if from < 0 || from >= total {
		return 0, errors.Validationf("source index %d out of range (document has %d cells)", from, total)
	}
	if to < 0 || to >= total {
		return 0, errors.Validationf("target index %d out of range (document has %d cells)", to, total)
	}
	if from == to {
		return from, nil
	}

	target := to
	if from < to {
		target = to - 1
	}

	copied := cells[from].Data()
	err := doc.ApplyEdits(ctx,
		host.CellRangeEdit{Start: from, End: from + 1},
		host.CellRangeEdit{Start: target, End: target, Cells: []host.CellData{copied}},
	)
	if err != nil {
		return 0, errors.Hostf(err, "moving cell %d to %d in %s", from, to, doc.URI())
	}
	g.log.Debug("moved cell", "document", doc.URI(), "from", from, "to", to, "landed", target)
	return target, nil
}

// Replace sets the source text of the cell at index, validated against a
// fresh count.
func (g *Gateway) Replace(ctx context.Context, doc host.Document, index int, text string) error {
	total := doc.CellCount()
	if index < 0 || index >= total {
		return errors.Validationf("cell index %d out of range (document has %d cells)", index, total)
	}
	if err := doc.SetCellText(ctx, index, text); err != nil {
		return errors.Hostf(err, "replacing text of cell %d in %s", index, doc.URI())
	}
	g.log.Debug("replaced cell text", "document", doc.URI(), "index", index)
	return nil
}

// ClearOutputs clears one cell's outputs, or every cell's when index is
// negative, as one undoable edit.
func (g *Gateway) ClearOutputs(ctx context.Context, doc host.Document, index int) error {
	if index < 0 {
		if err := doc.ClearOutputs(ctx); err != nil {
			return errors.Hostf(err, "clearing all outputs in %s", doc.URI())
		}
		return nil
	}
	total := doc.CellCount()
	if index >= total {
		return errors.Validationf("cell index %d out of range (document has %d cells)", index, total)
	}
	if err := doc.ClearOutputs(ctx, index); err != nil {
		return errors.Hostf(err, "clearing outputs of cell %d in %s", index, doc.URI())
	}
	return nil
}
