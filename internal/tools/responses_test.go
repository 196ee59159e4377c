package tools

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notekit/notebook-mcp/internal/errors"
)

func resultText(t *testing.T, result *mcp.CallToolResultFor[any]) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"yaml", "", true},
		{"JSON", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeFormat(tt.in)
		if tt.wantErr {
			require.Error(t, err, "input %q", tt.in)
			assert.True(t, errors.Is(err, errors.ErrValidation))
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestErrorResponse(t *testing.T) {
	result := ErrorResponse("something broke")
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: something broke", resultText(t, result))

	result = ErrorResponsef("cell %d missing", 3)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: cell 3 missing", resultText(t, result))

	result = ErrorFrom(errors.Validationf("bad index"))
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "bad index")
}

func TestRenderMarkdown(t *testing.T) {
	result := Render(FormatMarkdown, "# hello", map[string]int{"n": 1})
	assert.False(t, result.IsError)
	assert.Equal(t, "# hello", resultText(t, result))
}

func TestRenderJSON(t *testing.T) {
	result := Render(FormatJSON, "ignored", map[string]int{"n": 1})
	assert.False(t, result.IsError)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, 1, decoded["n"])
	assert.False(t, strings.Contains(resultText(t, result), "ignored"))
}
