// Package kernel provides the kernel status tool.
package kernel

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notekit/notebook-mcp/internal/notebook"
	"github.com/notekit/notebook-mcp/internal/prompts"
	"github.com/notekit/notebook-mcp/internal/tools"
)

// KernelStatusArgs are the arguments for the KernelStatus tool.
type KernelStatusArgs struct {
	DocumentURI    string `json:"document_uri,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type kernelStatusResult struct {
	URI      string `json:"uri"`
	Attached bool   `json:"attached"`
	Name     string `json:"name,omitempty"`
	Language string `json:"language,omitempty"`
	Status   string `json:"status,omitempty"`
}

// CreateKernelStatusTool creates the KernelStatus tool.
func CreateKernelStatusTool(ctx *tools.Context) *tools.ServerTool {
	handler := func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[KernelStatusArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		doc, denied := ctx.Resolve(notebook.OpRead, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		result := kernelStatusResult{URI: doc.URI()}
		k, ok := ctx.Workspace.Kernel(doc.URI())
		if ok {
			info := k.Info()
			result.Attached = true
			result.Name = info.Name
			result.Language = info.Language
			result.Status = info.Status
		}

		var markdown string
		if result.Attached {
			markdown = fmt.Sprintf("Kernel for %s: %s (%s), status %s\n",
				result.URI, result.Name, result.Language, result.Status)
		} else {
			markdown = fmt.Sprintf("No kernel attached to %s\n", result.URI)
		}

		return tools.Render(format, markdown, result), nil
	}

	tool := &mcp.Tool{
		Name:        "KernelStatus",
		Description: prompts.KernelStatusToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

// CreateKernelTools creates all kernel tools.
func CreateKernelTools(ctx *tools.Context) []*tools.ServerTool {
	return []*tools.ServerTool{
		CreateKernelStatusTool(ctx),
	}
}
