package cells

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/notebook"
	"github.com/notekit/notebook-mcp/internal/prompts"
	"github.com/notekit/notebook-mcp/internal/tools"
)

func parseCellType(cellType string) (host.CellKind, error) {
	switch cellType {
	case "code":
		return host.CellKindCode, nil
	case "markdown":
		return host.CellKindMarkup, nil
	default:
		return 0, fmt.Errorf("cell_type must be either 'code' or 'markdown', got %q", cellType)
	}
}

// insertResult is the structured response of InsertCell.
type insertResult struct {
	URI       string           `json:"uri"`
	Index     int              `json:"index"`
	CellCount int              `json:"cell_count"`
	Execution *executionReport `json:"execution,omitempty"`
}

func insertCellHandler(ctx *tools.Context) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[InsertCellArgs]) (*mcp.CallToolResultFor[any], error) {
	return func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[InsertCellArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		kind, err := parseCellType(args.CellType)
		if err != nil {
			return tools.ErrorResponse(err.Error()), nil
		}
		if args.Execute && kind != host.CellKindCode {
			return tools.ErrorResponse("only code cells can be executed"), nil
		}
		doc, denied := ctx.Resolve(notebook.OpWrite, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		// The tracking identifier is the only address for the new cell
		// that survives concurrent edits between here and the wait below.
		trackingID := notebook.GenerateID()
		data := notebook.Tag(host.CellData{Kind: kind, Text: args.Source}, trackingID)

		if _, err := ctx.Gateway.Insert(ctxReq, doc, args.Index, []host.CellData{data}); err != nil {
			return tools.ErrorFrom(err), nil
		}

		cell, err := notebook.Resolve(doc, trackingID)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		result := insertResult{URI: doc.URI(), Index: cell.Index, CellCount: doc.CellCount()}

		if args.Execute {
			report := executeTracked(ctxReq, ctx, doc, trackingID, 0)
			result.Execution = &report
			if cell, err := notebook.Resolve(doc, trackingID); err == nil {
				result.Index = cell.Index
			}
		}

		markdown := fmt.Sprintf("Inserted %s cell at index %d (document now has %d cells).", args.CellType, result.Index, result.CellCount)
		if result.Execution != nil {
			markdown += "\n\n" + result.Execution.markdown(result.Index)
		}
		return tools.Render(format, markdown, result), nil
	}
}

// CreateInsertCellTool creates the InsertCell tool.
func CreateInsertCellTool(ctx *tools.Context) *tools.ServerTool {
	handler := insertCellHandler(ctx)

	tool := &mcp.Tool{
		Name:        "InsertCell",
		Description: prompts.InsertCellToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

// bulkInsertResult is the structured response of InsertCells.
type bulkInsertResult struct {
	URI       string `json:"uri"`
	Index     int    `json:"index"`
	Inserted  int    `json:"inserted"`
	CellCount int    `json:"cell_count"`
}

func insertCellsHandler(ctx *tools.Context) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[InsertCellsArgs]) (*mcp.CallToolResultFor[any], error) {
	return func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[InsertCellsArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		if len(args.Cells) == 0 {
			return tools.ErrorResponse("cells must contain at least one cell spec"), nil
		}
		batch := make([]host.CellData, len(args.Cells))
		for i, spec := range args.Cells {
			kind, err := parseCellType(spec.CellType)
			if err != nil {
				return tools.ErrorResponsef("cells[%d]: %v", i, err), nil
			}
			batch[i] = notebook.Tag(host.CellData{Kind: kind, Text: spec.Source}, notebook.GenerateID())
		}
		doc, denied := ctx.Resolve(notebook.OpWrite, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		index, err := ctx.Gateway.Insert(ctxReq, doc, args.Index, batch)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}

		result := bulkInsertResult{
			URI:       doc.URI(),
			Index:     index,
			Inserted:  len(batch),
			CellCount: doc.CellCount(),
		}
		markdown := fmt.Sprintf("Inserted %d cells at index %d as one edit (document now has %d cells).", result.Inserted, result.Index, result.CellCount)
		return tools.Render(format, markdown, result), nil
	}
}

// CreateInsertCellsTool creates the InsertCells bulk-insertion tool.
func CreateInsertCellsTool(ctx *tools.Context) *tools.ServerTool {
	handler := insertCellsHandler(ctx)

	tool := &mcp.Tool{
		Name:        "InsertCells",
		Description: prompts.InsertCellsToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

// editResult is the structured response of EditCell.
type editResult struct {
	URI    string `json:"uri"`
	Index  int    `json:"index"`
	Source string `json:"source"`
}

func editCellHandler(ctx *tools.Context) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[EditCellArgs]) (*mcp.CallToolResultFor[any], error) {
	return func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[EditCellArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		doc, denied := ctx.Resolve(notebook.OpWrite, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		if err := ctx.Gateway.Replace(ctxReq, doc, args.Index, args.NewSource); err != nil {
			return tools.ErrorFrom(err), nil
		}

		result := editResult{URI: doc.URI(), Index: args.Index, Source: args.NewSource}
		markdown := fmt.Sprintf("Replaced source of cell %d.", args.Index)
		return tools.Render(format, markdown, result), nil
	}
}

// CreateEditCellTool creates the EditCell tool.
func CreateEditCellTool(ctx *tools.Context) *tools.ServerTool {
	handler := editCellHandler(ctx)

	tool := &mcp.Tool{
		Name:        "EditCell",
		Description: prompts.EditCellToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

// deleteResult is the structured response of DeleteCell.
type deleteResult struct {
	URI       string `json:"uri"`
	Index     int    `json:"index"`
	CellCount int    `json:"cell_count"`
}

func deleteCellHandler(ctx *tools.Context) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[DeleteCellArgs]) (*mcp.CallToolResultFor[any], error) {
	return func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[DeleteCellArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		doc, denied := ctx.Resolve(notebook.OpWrite, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		if err := ctx.Gateway.Delete(ctxReq, doc, args.Index, 1); err != nil {
			return tools.ErrorFrom(err), nil
		}

		result := deleteResult{URI: doc.URI(), Index: args.Index, CellCount: doc.CellCount()}
		markdown := fmt.Sprintf("Deleted cell %d (document now has %d cells).", args.Index, result.CellCount)
		return tools.Render(format, markdown, result), nil
	}
}

// CreateDeleteCellTool creates the DeleteCell tool.
func CreateDeleteCellTool(ctx *tools.Context) *tools.ServerTool {
	handler := deleteCellHandler(ctx)

	tool := &mcp.Tool{
		Name:        "DeleteCell",
		Description: prompts.DeleteCellToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

// moveResult is the structured response of MoveCell.
type moveResult struct {
	URI        string `json:"uri"`
	FromIndex  int    `json:"from_index"`
	ToIndex    int    `json:"to_index"`
	FinalIndex int    `json:"final_index"`
}

func moveCellHandler(ctx *tools.Context) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[MoveCellArgs]) (*mcp.CallToolResultFor[any], error) {
	return func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[MoveCellArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		doc, denied := ctx.Resolve(notebook.OpWrite, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		final, err := ctx.Gateway.Move(ctxReq, doc, args.FromIndex, args.ToIndex)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}

		result := moveResult{URI: doc.URI(), FromIndex: args.FromIndex, ToIndex: args.ToIndex, FinalIndex: final}
		markdown := fmt.Sprintf("Moved cell %d; it now sits at index %d.", args.FromIndex, final)
		if args.FromIndex == final {
			markdown = fmt.Sprintf("Cell %d is already at the requested position; nothing to do.", args.FromIndex)
		}
		return tools.Render(format, markdown, result), nil
	}
}

// CreateMoveCellTool creates the MoveCell tool.
func CreateMoveCellTool(ctx *tools.Context) *tools.ServerTool {
	handler := moveCellHandler(ctx)

	tool := &mcp.Tool{
		Name:        "MoveCell",
		Description: prompts.MoveCellToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}
