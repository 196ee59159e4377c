// Package docs provides the document listing tool.
package docs

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notekit/notebook-mcp/internal/prompts"
	"github.com/notekit/notebook-mcp/internal/tools"
)

// ListDocumentsArgs are the arguments for the ListDocuments tool.
type ListDocumentsArgs struct {
	ResponseFormat string `json:"response_format,omitempty"`
}

type documentInfo struct {
	URI       string `json:"uri"`
	CellCount int    `json:"cell_count"`
	Active    bool   `json:"active"`
}

type documentListResult struct {
	Documents []documentInfo `json:"documents"`
}

// CreateListDocumentsTool creates the ListDocuments tool.
func CreateListDocumentsTool(ctx *tools.Context) *tools.ServerTool {
	handler := func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ListDocumentsArgs]) (*mcp.CallToolResultFor[any], error) {
		format, err := tools.NormalizeFormat(params.Arguments.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}

		activeURI := ""
		if active, ok := ctx.Workspace.ActiveDocument(); ok {
			activeURI = active.URI()
		}

		result := documentListResult{Documents: []documentInfo{}}
		for _, doc := range ctx.Workspace.Documents() {
			result.Documents = append(result.Documents, documentInfo{
				URI:       doc.URI(),
				CellCount: doc.CellCount(),
				Active:    doc.URI() == activeURI,
			})
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Open notebooks: %d\n\n", len(result.Documents))
		if len(result.Documents) == 0 {
			b.WriteString("(none)\n")
		}
		for _, info := range result.Documents {
			marker := ""
			if info.Active {
				marker = " (active)"
			}
			fmt.Fprintf(&b, "- %s: %d cells%s\n", info.URI, info.CellCount, marker)
		}

		return tools.Render(format, b.String(), result), nil
	}

	tool := &mcp.Tool{
		Name:        "ListDocuments",
		Description: prompts.ListDocumentsToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

// CreateDocTools creates all document-level tools.
func CreateDocTools(ctx *tools.Context) []*tools.ServerTool {
	return []*tools.ServerTool{
		CreateListDocumentsTool(ctx),
	}
}
