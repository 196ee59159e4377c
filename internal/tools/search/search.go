// Package search provides line-based search and outline tools over notebook
// cell sources. Matching is textual, not semantic.
package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notekit/notebook-mcp/internal/notebook"
	"github.com/notekit/notebook-mcp/internal/prompts"
	"github.com/notekit/notebook-mcp/internal/tools"
)

const maxMatches = 200

// SearchCellsArgs are the arguments for the SearchCells tool.
type SearchCellsArgs struct {
	DocumentURI    string `json:"document_uri,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
	// Query is the search string, literal unless Regex is set.
	Query string `json:"query"`
	Regex bool   `json:"regex,omitempty"`
	// ContextLines is the number of lines to include around each match.
	ContextLines int `json:"context_lines,omitempty"`
	// CaseSensitive defaults to false for literal queries.
	CaseSensitive bool `json:"case_sensitive,omitempty"`
}

type searchMatch struct {
	CellIndex int      `json:"cell_index"`
	CellType  string   `json:"cell_type"`
	Line      int      `json:"line"`
	Text      string   `json:"text"`
	Context   []string `json:"context,omitempty"`
}

type searchResult struct {
	URI       string        `json:"uri"`
	Query     string        `json:"query"`
	Matches   []searchMatch `json:"matches"`
	Truncated bool          `json:"truncated,omitempty"`
}

// CreateSearchCellsTool creates the SearchCells tool.
func CreateSearchCellsTool(ctx *tools.Context) *tools.ServerTool {
	handler := func(ctxReq context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[SearchCellsArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format, err := tools.NormalizeFormat(args.ResponseFormat)
		if err != nil {
			return tools.ErrorFrom(err), nil
		}
		if args.Query == "" {
			return tools.ErrorResponse("query must not be empty"), nil
		}
		if args.ContextLines < 0 {
			return tools.ErrorResponsef("context_lines must not be negative, got %d", args.ContextLines), nil
		}

		matcher, err := buildMatcher(args)
		if err != nil {
			return tools.ErrorResponsef("invalid regex %q: %v", args.Query, err), nil
		}

		doc, denied := ctx.Resolve(notebook.OpRead, args.DocumentURI)
		if denied != nil {
			return denied, nil
		}

		result := searchResult{
			URI:     doc.URI(),
			Query:   args.Query,
			Matches: []searchMatch{},
		}
	scan:
		for _, cell := range doc.Cells() {
			lines := strings.Split(cell.Text, "\n")
			for li, line := range lines {
				if !matcher(line) {
					continue
				}
				if len(result.Matches) >= maxMatches {
					result.Truncated = true
					break scan
				}
				result.Matches = append(result.Matches, searchMatch{
					CellIndex: cell.Index,
					CellType:  cell.Kind.String(),
					Line:      li + 1,
					Text:      line,
					Context:   contextLines(lines, li, args.ContextLines),
				})
			}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Search %q in %s: %d match(es)\n\n", args.Query, result.URI, len(result.Matches))
		for _, m := range result.Matches {
			fmt.Fprintf(&b, "cell %d (%s), line %d: %s\n", m.CellIndex, m.CellType, m.Line, m.Text)
			for _, c := range m.Context {
				fmt.Fprintf(&b, "    %s\n", c)
			}
		}
		if result.Truncated {
			fmt.Fprintf(&b, "\n(truncated at %d matches)\n", maxMatches)
		}

		return tools.Render(format, b.String(), result), nil
	}

	tool := &mcp.Tool{
		Name:        "SearchCells",
		Description: prompts.SearchCellsToolDoc,
	}

	return &tools.ServerTool{
		Tool: tool,
		RegisterFunc: func(server *mcp.Server) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

// buildMatcher compiles the query into a per-line predicate.
func buildMatcher(args SearchCellsArgs) (func(string) bool, error) {
	if args.Regex {
		pattern := args.Query
		if !args.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		return re.MatchString, nil
	}
	if args.CaseSensitive {
		query := args.Query
		return func(line string) bool { return strings.Contains(line, query) }, nil
	}
	query := strings.ToLower(args.Query)
	return func(line string) bool {
		return strings.Contains(strings.ToLower(line), query)
	}, nil
}

// contextLines returns up to n lines on each side of index i, excluding the
// matched line itself.
func contextLines(lines []string, i, n int) []string {
	if n <= 0 {
		return nil
	}
	start := i - n
	if start < 0 {
		start = 0
	}
	end := i + n + 1
	if end > len(lines) {
		end = len(lines)
	}
	out := make([]string, 0, end-start-1)
	for j := start; j < end; j++ {
		if j == i {
			continue
		}
		out = append(out, lines[j])
	}
	return out
}
