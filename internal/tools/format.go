package tools

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/notekit/notebook-mcp/internal/host"
)

// maxInlineOutput caps output text carried in a tool response so one noisy
// cell cannot blow up the context of the calling agent.
const maxInlineOutput = 4000

// truncate shortens s to at most limit bytes, backing up to a rune
// boundary so the cut never produces invalid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// CellInfo is the structured form of one cell in listings.
type CellInfo struct {
	Index          int    `json:"index"`
	Type           string `json:"type"`
	Language       string `json:"language"`
	Preview        string `json:"preview"`
	Lines          int    `json:"lines"`
	OutputCount    int    `json:"output_count"`
	ExecutionOrder *int   `json:"execution_order,omitempty"`
	Success        *bool  `json:"success,omitempty"`
	Running        bool   `json:"running,omitempty"`
}

// CellInfoFrom summarizes a cell snapshot.
func CellInfoFrom(cell host.CellSnapshot) CellInfo {
	lines := strings.Split(cell.Text, "\n")
	preview := strings.TrimSpace(lines[0])
	if len(preview) > 80 {
		preview = truncate(preview, 77) + "..."
	}
	info := CellInfo{
		Index:       cell.Index,
		Type:        cell.Kind.String(),
		Language:    cell.Language,
		Preview:     preview,
		Lines:       len(lines),
		OutputCount: len(cell.Outputs),
	}
	if summary := cell.ExecutionSummary; summary != nil {
		order := summary.ExecutionOrder
		info.ExecutionOrder = &order
		info.Success = summary.Success
		info.Running = summary.Success == nil
	}
	return info
}

// ExecutionState renders a short human-readable execution status.
func ExecutionState(info CellInfo) string {
	switch {
	case info.ExecutionOrder == nil:
		return "not run"
	case info.Running:
		return fmt.Sprintf("[%d] running", *info.ExecutionOrder)
	case info.Success != nil && *info.Success:
		return fmt.Sprintf("[%d] ok", *info.ExecutionOrder)
	default:
		return fmt.Sprintf("[%d] failed", *info.ExecutionOrder)
	}
}

// MarkdownCellList renders a cell listing.
func MarkdownCellList(uri string, cells []CellInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Notebook: %s (%d cells)\n\n", uri, len(cells))
	if len(cells) == 0 {
		b.WriteString("(no cells)\n")
		return b.String()
	}
	for _, c := range cells {
		fmt.Fprintf(&b, "- cell %d [%s", c.Index, c.Type)
		if c.Type == "code" {
			fmt.Fprintf(&b, ", %s, %s", c.Language, ExecutionState(c))
		}
		b.WriteString("]")
		if c.Preview != "" {
			fmt.Fprintf(&b, " %s", c.Preview)
		}
		if c.Lines > 1 {
			fmt.Fprintf(&b, " (+%d lines)", c.Lines-1)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// OutputInfo is the structured form of one cell output.
type OutputInfo struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	MIME      string `json:"mime,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Bytes     int    `json:"bytes,omitempty"`
}

// OutputInfoFrom converts a host output, truncating oversized text and
// replacing image payloads with a size summary.
func OutputInfoFrom(out host.Output) OutputInfo {
	info := OutputInfo{Type: string(out.Kind)}
	switch out.Kind {
	case host.OutputImage:
		info.MIME = out.MIME
		info.Bytes = len(out.Data)
	default:
		info.Text = out.Text
		if len(info.Text) > maxInlineOutput {
			info.Text = truncate(info.Text, maxInlineOutput)
			info.Truncated = true
		}
	}
	return info
}

// MarkdownOutputs renders a cell's outputs.
func MarkdownOutputs(index int, outputs []OutputInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Outputs of cell %d:\n\n", index)
	if len(outputs) == 0 {
		b.WriteString("(no outputs)\n")
		return b.String()
	}
	for i, out := range outputs {
		switch out.Type {
		case string(host.OutputImage):
			fmt.Fprintf(&b, "%d. image (%s, %d bytes base64)\n", i+1, out.MIME, out.Bytes)
		case string(host.OutputError):
			fmt.Fprintf(&b, "%d. error:\n```\n%s\n```\n", i+1, out.Text)
		default:
			fmt.Fprintf(&b, "%d. text:\n```\n%s\n```\n", i+1, out.Text)
		}
		if out.Truncated {
			b.WriteString("   (truncated)\n")
		}
	}
	return b.String()
}

// MarkdownCellSource renders a full cell with numbered source lines, the
// way a human would want to read a single cell.
func MarkdownCellSource(cell host.CellSnapshot) string {
	var b strings.Builder
	info := CellInfoFrom(cell)
	fmt.Fprintf(&b, "Cell %d [%s]", cell.Index, info.Type)
	if info.Type == "code" {
		fmt.Fprintf(&b, " [%s]", ExecutionState(info))
	}
	b.WriteString(":\n\n")
	if cell.Text == "" {
		b.WriteString("(empty)\n")
		return b.String()
	}
	for i, line := range strings.Split(cell.Text, "\n") {
		fmt.Fprintf(&b, "%3d: %s\n", i+1, line)
	}
	return b.String()
}
