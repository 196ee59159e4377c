package notebook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notekit/notebook-mcp/internal/errors"
	"github.com/notekit/notebook-mcp/internal/host"
)

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateID()
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestTagDoesNotMutateInput(t *testing.T) {
	data := host.CellData{Kind: host.CellKindCode, Text: "x = 1", Metadata: map[string]any{"existing": "value"}}

	tagged := Tag(data, "abc123")

	assert.Equal(t, "abc123", tagged.Metadata[TrackingMetadataKey])
	assert.Equal(t, "value", tagged.Metadata["existing"])
	_, present := data.Metadata[TrackingMetadataKey]
	assert.False(t, present, "input metadata must stay untouched")
}

func TestTagNilMetadata(t *testing.T) {
	tagged := Tag(host.CellData{Kind: host.CellKindCode, Text: "x"}, "id1")
	assert.Equal(t, "id1", tagged.Metadata[TrackingMetadataKey])
}

func TestTrackingID(t *testing.T) {
	cell := codeCell("print(1)")
	_, ok := TrackingID(cell)
	assert.False(t, ok)

	cell.Metadata[TrackingMetadataKey] = "id42"
	id, ok := TrackingID(cell)
	assert.True(t, ok)
	assert.Equal(t, "id42", id)

	cell.Metadata[TrackingMetadataKey] = 99
	_, ok = TrackingID(cell)
	assert.False(t, ok, "non-string metadata value must not resolve")

	cell.Metadata[TrackingMetadataKey] = ""
	_, ok = TrackingID(cell)
	assert.False(t, ok, "empty id must not resolve")
}

func TestResolveSurvivesIndexShift(t *testing.T) {
	ctx := context.Background()
	doc := newFakeDocument("file:///nb.ipynb", codeCell("a"), codeCell("b"), codeCell("c"))

	id := GenerateID()
	require.NoError(t, doc.SetCellMetadata(ctx, 1, TrackingMetadataKey, id))

	cell, err := Resolve(doc, id)
	require.NoError(t, err)
	assert.Equal(t, 1, cell.Index)

	// Prepend two cells; the tracked cell's index shifts from 1 to 3.
	require.NoError(t, doc.ApplyEdits(ctx, host.CellRangeEdit{
		Start: 0, End: 0,
		Cells: []host.CellData{{Kind: host.CellKindCode}, {Kind: host.CellKindCode}},
	}))

	cell, err = Resolve(doc, id)
	require.NoError(t, err)
	assert.Equal(t, 3, cell.Index)
	assert.Equal(t, "b", cell.Text)
}

func TestResolveDeletedCell(t *testing.T) {
	ctx := context.Background()
	doc := newFakeDocument("file:///nb.ipynb", codeCell("a"), codeCell("b"))

	id := GenerateID()
	require.NoError(t, doc.SetCellMetadata(ctx, 0, TrackingMetadataKey, id))
	require.NoError(t, doc.ApplyEdits(ctx, host.CellRangeEdit{Start: 0, End: 1}))

	_, err := Resolve(doc, id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
