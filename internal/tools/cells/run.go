package cells

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/notebook"
	"github.com/notekit/notebook-mcp/internal/prompts"
	"github.com/notekit/notebook-mcp/internal/tools"
)

// executionReport is the structured execution portion of tool responses.
type executionReport struct {
	State   string             `json:"state"` // completed | timed_out | cell_missing | error
	Success *bool              `json:"success,omitempty"`
	Error   string             `json:"error,omitempty"`
	Outputs []tools.OutputInfo `json:"outputs,omitempty"`
}

func (r executionReport) markdown(index int) string {
	switch r.State {
	case "completed":
		verdict := "failed"
		if r.Success != nil && *r.Success {
			verdict = "succeeded"
		}
		text := fmt.Sprintf("Execution %s.\n\n%s", verdict, tools.MarkdownOutputs(index, r.Outputs))
		return text
	case "timed_out":
		return "Execution did not report completion within the wait budget. The kernel may still be running; fetch outputs later with GetCellOutput."
	case "cell_missing":
		return "The cell disappeared while waiting for execution; it was likely deleted concurrently."
	default:
		return "Execution failed to start: " + r.Error
	}
}

// executeTracked runs the cell identified by trackingID and waits for
// completion. The index is re-resolved from the identifier immediately
// before triggering, because the document may have been mutated since the
// caller last looked.
func executeTracked(ctxReq context.Context, ctx *tools.Context, doc host.Document, trackingID string, timeout time.Duration) executionReport {
	cell, err := notebook.Resolve(doc, trackingID)
	if err != nil {
		return executionReport{State: "cell_missing"}
	}

	kernel, ok := ctx.Workspace.Kernel(doc.URI())
	if !ok {
		return executionReport{State: "error", Error: "no kernel is available for " + doc.URI()}
	}
	if err := kernel.Execute(ctxReq, cell.Index); err != nil {
		return executionReport{State: "error", Error: err.Error()}
	}

	waiter := ctx.Waiter
	if timeout > 0 {
		waiter.Timeout = timeout
	}
	result, err := waiter.Wait(ctxReq, doc, trackingID)
	if err != nil {
		return executionReport{State: "error", Error: err.Error()}
	}

	switch result.State {
	case notebook.WaitCompleted:
		report := executionReport{State: "completed", Success: &result.Success}
		for _, out := range result.Cell.Outputs {
			report.Outputs = append(report.Outputs, tools.OutputInfoFrom(out))
		}
		return report
	case notebook.WaitCellMissing:
		return executionReport{State: "cell_missing"}
	default:
		return executionReport{State: "timed_out"}
	}
}

// runResult is the structured response of RunCell.
type runResult struct {
	URI       string          `json:"uri"`
	Index     int             `json:"index"`
	Execution executionReport `json:"execution"`
}

func runCellHandler(ctx *tools.Context) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[RunCellArgs]) (*mcp.CallToolResultFor[any], error) {
	return func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[RunCellArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		if args.TimeoutSeconds < 0 {
			return tools.ErrorResponse("timeout_seconds must not be negative"), nil
		}
		doc, denied := ctx.Resolve(notebook.OpWrite, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		snapshots := doc.Cells()
		if args.Index < 0 || args.Index >= len(snapshots) {
			return tools.ErrorResponsef("cell index %d out of range (document has %d cells)", args.Index, len(snapshots)), nil
		}
		cell := snapshots[args.Index]
		if cell.Kind != host.CellKindCode {
			return tools.ErrorResponsef("cell %d is a %s cell, not code", args.Index, cell.Kind), nil
		}

		// Cells created before this session have no tracking identifier;
		// tag them now so completion is observed by identity rather than
		// by an index that may shift mid-wait.
		trackingID, ok := notebook.TrackingID(cell)
		if !ok {
			trackingID = notebook.GenerateID()
			if err := doc.SetCellMetadata(ctxReq, cell.Index, notebook.TrackingMetadataKey, trackingID); err != nil {
				return tools.ErrorResponsef("tagging cell %d for tracking: %v", cell.Index, err), nil
			}
		}

		report := executeTracked(ctxReq, ctx, doc, trackingID, time.Duration(args.TimeoutSeconds)*time.Second)
		result := runResult{URI: doc.URI(), Index: args.Index, Execution: report}
		if resolved, err := notebook.Resolve(doc, trackingID); err == nil {
			result.Index = resolved.Index
		}

		return tools.Render(format, report.markdown(result.Index), result), nil
	}
}

// CreateRunCellTool creates the RunCell tool.
func CreateRunCellTool(ctx *tools.Context) *tools.ServerTool {
	handler := runCellHandler(ctx)

	tool := &mcp.Tool{
		Name:        "RunCell",
		Description: prompts.RunCellToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

// clearResult is the structured response of ClearOutputs.
type clearResult struct {
	URI     string `json:"uri"`
	Index   *int   `json:"index,omitempty"`
	Cleared string `json:"cleared"`
}

func clearOutputsHandler(ctx *tools.Context) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[ClearOutputsArgs]) (*mcp.CallToolResultFor[any], error) {
	return func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ClearOutputsArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		doc, denied := ctx.Resolve(notebook.OpWrite, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		index := -1
		if args.Index != nil {
			index = *args.Index
			if index < 0 {
				return tools.ErrorResponse("index must not be negative; omit it to clear all cells"), nil
			}
		}
		if err := ctx.Gateway.ClearOutputs(ctxReq, doc, index); err != nil {
			return tools.ErrorFrom(err), nil
		}

		result := clearResult{URI: doc.URI(), Index: args.Index, Cleared: "all"}
		markdown := "Cleared outputs of all cells."
		if args.Index != nil {
			result.Cleared = fmt.Sprintf("cell %d", *args.Index)
			markdown = fmt.Sprintf("Cleared outputs of cell %d.", *args.Index)
		}
		return tools.Render(format, markdown, result), nil
	}
}

// CreateClearOutputsTool creates the ClearOutputs tool.
func CreateClearOutputsTool(ctx *tools.Context) *tools.ServerTool {
	handler := clearOutputsHandler(ctx)

	tool := &mcp.Tool{
		Name:        "ClearOutputs",
		Description: prompts.ClearOutputsToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}
