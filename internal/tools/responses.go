package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notekit/notebook-mcp/internal/errors"
)

// Response formats selectable via the response_format argument.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// NormalizeFormat validates a response_format value, defaulting empty to
// markdown.
func NormalizeFormat(format string) (string, error) {
	switch format {
	case "", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", errors.Validationf("response_format must be %q or %q, got %q", FormatMarkdown, FormatJSON, format)
	}
}

// ErrorResponse creates a standardized error result.
func ErrorResponse(message string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + message}},
		IsError: true,
	}
}

// ErrorResponsef creates a standardized error result with a formatted message.
func ErrorResponsef(format string, args ...any) *mcp.CallToolResultFor[any] {
	return ErrorResponse(fmt.Sprintf(format, args...))
}

// ErrorFrom converts a classified error (internal/errors taxonomy) into a
// tool error result. Every failure becomes a structured tool result; no
// error from a handler is allowed to crash the hosting process.
func ErrorFrom(err error) *mcp.CallToolResultFor[any] {
	return ErrorResponse(err.Error())
}

// TextResponse creates a success result with plain text content.
func TextResponse(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// Render produces the final result in the requested response format:
// the markdown rendering as-is, or the data value as indented JSON.
func Render(format string, markdown string, data any) *mcp.CallToolResultFor[any] {
	if format == FormatJSON {
		encoded, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return ErrorResponsef("encoding JSON response: %v", err)
		}
		return TextResponse(string(encoded))
	}
	return TextResponse(markdown)
}
