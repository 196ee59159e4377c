package cells

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notekit/notebook-mcp/internal/notebook"
	"github.com/notekit/notebook-mcp/internal/prompts"
	"github.com/notekit/notebook-mcp/internal/tools"
)

// cellListResult is the structured response of ListCells.
type cellListResult struct {
	URI       string           `json:"uri"`
	CellCount int              `json:"cell_count"`
	Cells     []tools.CellInfo `json:"cells"`
}

func listCellsHandler(ctx *tools.Context) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[ListCellsArgs]) (*mcp.CallToolResultFor[any], error) {
	return func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ListCellsArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		doc, denied := ctx.Resolve(notebook.OpRead, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		snapshots := doc.Cells()
		result := cellListResult{
			URI:       doc.URI(),
			CellCount: len(snapshots),
			Cells:     make([]tools.CellInfo, len(snapshots)),
		}
		for i, cell := range snapshots {
			result.Cells[i] = tools.CellInfoFrom(cell)
		}

		return tools.Render(format, tools.MarkdownCellList(result.URI, result.Cells), result), nil
	}
}

// CreateListCellsTool creates the ListCells tool.
func CreateListCellsTool(ctx *tools.Context) *tools.ServerTool {
	handler := listCellsHandler(ctx)

	tool := &mcp.Tool{
		Name:        "ListCells",
		Description: prompts.ListCellsToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

// cellSourceResult is the structured response of GetCell.
type cellSourceResult struct {
	URI    string `json:"uri"`
	Index  int    `json:"index"`
	Type   string `json:"type"`
	Source string `json:"source"`
}

func getCellHandler(ctx *tools.Context) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[GetCellArgs]) (*mcp.CallToolResultFor[any], error) {
	return func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[GetCellArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		doc, denied := ctx.Resolve(notebook.OpRead, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		snapshots := doc.Cells()
		if args.Index < 0 || args.Index >= len(snapshots) {
			return tools.ErrorResponsef("cell index %d out of range (document has %d cells)", args.Index, len(snapshots)), nil
		}
		cell := snapshots[args.Index]

		result := cellSourceResult{
			URI:    doc.URI(),
			Index:  cell.Index,
			Type:   cell.Kind.String(),
			Source: cell.Text,
		}
		return tools.Render(format, tools.MarkdownCellSource(cell), result), nil
	}
}

// CreateGetCellTool creates the GetCell tool.
func CreateGetCellTool(ctx *tools.Context) *tools.ServerTool {
	handler := getCellHandler(ctx)

	tool := &mcp.Tool{
		Name:        "GetCell",
		Description: prompts.GetCellToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

// cellOutputResult is the structured response of GetCellOutput.
type cellOutputResult struct {
	URI            string             `json:"uri"`
	Index          int                `json:"index"`
	ExecutionOrder *int               `json:"execution_order,omitempty"`
	Success        *bool              `json:"success,omitempty"`
	Running        bool               `json:"running,omitempty"`
	Outputs        []tools.OutputInfo `json:"outputs"`
}

func getCellOutputHandler(ctx *tools.Context) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[GetCellOutputArgs]) (*mcp.CallToolResultFor[any], error) {
	return func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[GetCellOutputArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		doc, denied := ctx.Resolve(notebook.OpRead, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		snapshots := doc.Cells()
		if args.Index < 0 || args.Index >= len(snapshots) {
			return tools.ErrorResponsef("cell index %d out of range (document has %d cells)", args.Index, len(snapshots)), nil
		}
		cell := snapshots[args.Index]

		info := tools.CellInfoFrom(cell)
		result := cellOutputResult{
			URI:            doc.URI(),
			Index:          cell.Index,
			ExecutionOrder: info.ExecutionOrder,
			Success:        info.Success,
			Running:        info.Running,
			Outputs:        make([]tools.OutputInfo, 0, len(cell.Outputs)),
		}
		for _, out := range cell.Outputs {
			result.Outputs = append(result.Outputs, tools.OutputInfoFrom(out))
		}

		return tools.Render(format, tools.MarkdownOutputs(cell.Index, result.Outputs), result), nil
	}
}

// CreateGetCellOutputTool creates the GetCellOutput tool.
func CreateGetCellOutputTool(ctx *tools.Context) *tools.ServerTool {
	handler := getCellOutputHandler(ctx)

	tool := &mcp.Tool{
		Name:        "GetCellOutput",
		Description: prompts.GetCellOutputToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}
