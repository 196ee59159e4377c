package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/notebook"
	"github.com/notekit/notebook-mcp/internal/prompts"
	"github.com/notekit/notebook-mcp/internal/tools"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	// Signature lines in the common notebook languages. Matching is
	// line-based; decorated or wrapped definitions only surface the line
	// that carries the keyword.
	defRe      = regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	classRe    = regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)`)
	functionRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][\w$]*)\s*\(`)
)

// NotebookOutlineArgs are the arguments for the NotebookOutline tool.
type NotebookOutlineArgs struct {
	DocumentURI    string `json:"document_uri,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type outlineEntry struct {
	CellIndex int    `json:"cell_index"`
	Line      int    `json:"line"`
	Kind      string `json:"kind"`
	// Level is the heading depth (1-6) for headings, 0 otherwise.
	Level int    `json:"level,omitempty"`
	Name  string `json:"name"`
}

type outlineResult struct {
	URI     string         `json:"uri"`
	Entries []outlineEntry `json:"entries"`
}

// CreateNotebookOutlineTool creates the NotebookOutline tool.
func CreateNotebookOutlineTool(ctx *tools.Context) *tools.ServerTool {
	handler := func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[NotebookOutlineArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		doc, denied := ctx.Resolve(notebook.OpRead, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		result := outlineResult{
			URI:     doc.URI(),
			Entries: []outlineEntry{},
		}
		for _, cell := range doc.Cells() {
			for li, line := range strings.Split(cell.Text, "\n") {
				entry, ok := classify(cell, line)
				if !ok {
					continue
				}
				entry.CellIndex = cell.Index
				entry.Line = li + 1
				result.Entries = append(result.Entries, entry)
			}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Outline of %s: %d entries\n\n", result.URI, len(result.Entries))
		for _, e := range result.Entries {
			switch e.Kind {
			case "heading":
				fmt.Fprintf(&b, "%s%s (cell %d)\n", strings.Repeat("  ", e.Level-1), e.Name, e.CellIndex)
			default:
				fmt.Fprintf(&b, "  [%s] %s (cell %d, line %d)\n", e.Kind, e.Name, e.CellIndex, e.Line)
			}
		}

		return tools.Render(format, b.String(), result), nil
	}

	tool := &mcp.Tool{
		Name:        "NotebookOutline",
		Description: prompts.NotebookOutlineToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

func classify(cell host.CellSnapshot, line string) (outlineEntry, bool) {
	if cell.Kind == host.CellKindMarkup {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			return outlineEntry{Kind: "heading", Level: len(m[1]), Name: m[2]}, true
		}
		return outlineEntry{}, false
	}
	if m := classRe.FindStringSubmatch(line); m != nil {
		return outlineEntry{Kind: "class", Name: m[1]}, true
	}
	if m := defRe.FindStringSubmatch(line); m != nil {
		return outlineEntry{Kind: "function", Name: m[1]}, true
	}
	if m := functionRe.FindStringSubmatch(line); m != nil {
		return outlineEntry{Kind: "function", Name: m[1]}, true
	}
	return outlineEntry{}, false
}

// CreateSearchTools creates all search and outline tools.
func CreateSearchTools(ctx *tools.Context) []*tools.ServerTool {
	return []*tools.ServerTool{
		CreateSearchCellsTool(ctx),
		CreateNotebookOutlineTool(ctx),
	}
}
