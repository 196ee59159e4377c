// Package fshost implements the host interfaces over a directory of
// .ipynb files: documents are loaded from disk, every edit is persisted as
// one atomic write, external rewrites are picked up via fsnotify, and code
// cells execute through a python subprocess kernel.
package fshost

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/notekit/notebook-mcp/internal/host"
)

// ipynbFile mirrors the on-disk Jupyter notebook format (nbformat 4).
type ipynbFile struct {
	Cells         []ipynbCell    `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

type ipynbCell struct {
	ID             string           `json:"id,omitempty"`
	CellType       string           `json:"cell_type"`
	Source         any              `json:"source"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
	Outputs        []map[string]any `json:"outputs,omitempty"`
	ExecutionCount *int             `json:"execution_count,omitempty"`
}

func decodeNotebook(data []byte) (*ipynbFile, error) {
	var nb ipynbFile
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("parsing notebook JSON: %w", err)
	}
	if nb.Metadata == nil {
		nb.Metadata = map[string]any{}
	}
	if nb.NBFormat == 0 {
		nb.NBFormat = 4
		nb.NBFormatMinor = 5
	}
	return &nb, nil
}

func encodeNotebook(nb *ipynbFile) ([]byte, error) {
	data, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return nil, fmt.Errorf("marshaling notebook JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// sourceText joins the notebook "source" field, which may be a single
// string or a list of line strings.
func sourceText(source any) string {
	switch s := source.(type) {
	case string:
		return s
	case []any:
		var b strings.Builder
		for _, line := range s {
			if str, ok := line.(string); ok {
				b.WriteString(str)
			}
		}
		return b.String()
	case []string:
		return strings.Join(s, "")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", source)
	}
}

// sourceLines splits text into the line-list form nbformat favors, keeping
// the trailing newline on every line but the last.
func sourceLines(text string) []string {
	if text == "" {
		return []string{}
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func kindFromCellType(cellType string) host.CellKind {
	if cellType == "markdown" || cellType == "raw" {
		return host.CellKindMarkup
	}
	return host.CellKindCode
}

func cellTypeFromKind(kind host.CellKind) string {
	if kind == host.CellKindMarkup {
		return "markdown"
	}
	return "code"
}

// decodeOutputs converts raw notebook output maps to host outputs.
func decodeOutputs(raw []map[string]any) []host.Output {
	var outputs []host.Output
	for _, m := range raw {
		switch m["output_type"] {
		case "stream":
			outputs = append(outputs, host.Output{
				Kind: host.OutputText,
				Text: sourceText(m["text"]),
			})
		case "error":
			ename, _ := m["ename"].(string)
			evalue, _ := m["evalue"].(string)
			outputs = append(outputs, host.Output{
				Kind: host.OutputError,
				Text: fmt.Sprintf("%s: %s", ename, evalue),
			})
		case "execute_result", "display_data":
			data, _ := m["data"].(map[string]any)
			if out, ok := decodeRichOutput(data); ok {
				outputs = append(outputs, out)
			}
		}
	}
	return outputs
}

func decodeRichOutput(data map[string]any) (host.Output, bool) {
	for mime, payload := range data {
		if strings.HasPrefix(mime, "image/") {
			b64, _ := payload.(string)
			return host.Output{Kind: host.OutputImage, MIME: mime, Data: strings.TrimSpace(b64)}, true
		}
	}
	if text, ok := data["text/plain"]; ok {
		return host.Output{Kind: host.OutputText, Text: sourceText(text)}, true
	}
	return host.Output{}, false
}

// encodeOutputs converts host outputs back to notebook output maps.
func encodeOutputs(outputs []host.Output) []map[string]any {
	var raw []map[string]any
	for _, out := range outputs {
		switch out.Kind {
		case host.OutputText:
			raw = append(raw, map[string]any{
				"output_type": "stream",
				"name":        "stdout",
				"text":        sourceLines(out.Text),
			})
		case host.OutputError:
			ename, evalue, _ := strings.Cut(out.Text, ": ")
			raw = append(raw, map[string]any{
				"output_type": "error",
				"ename":       ename,
				"evalue":      evalue,
				"traceback":   []string{},
			})
		case host.OutputImage:
			raw = append(raw, map[string]any{
				"output_type": "display_data",
				"data":        map[string]any{out.MIME: out.Data},
				"metadata":    map[string]any{},
			})
		}
	}
	return raw
}
