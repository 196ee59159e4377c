package notebook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notekit/notebook-mcp/internal/errors"
	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/logging"
)

func testGateway() *Gateway {
	return NewGateway(logging.NewLogger("error"))
}

func sixCellDoc() *fakeDocument {
	return newFakeDocument("file:///nb.ipynb",
		codeCell("c0"), codeCell("c1"), codeCell("c2"),
		codeCell("c3"), codeCell("c4"), codeCell("c5"))
}

func cellTexts(doc *fakeDocument) []string {
	cells := doc.Cells()
	texts := make([]string, len(cells))
	for i, c := range cells {
		texts[i] = c.Text
	}
	return texts
}

func TestInsertClampsIndex(t *testing.T) {
	ctx := context.Background()
	g := testGateway()

	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"negative clamps to front", -5, 0},
		{"past end clamps to count", 99, 2},
		{"in range used as-is", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newFakeDocument("file:///nb.ipynb", codeCell("a"), codeCell("b"))
			used, err := g.Insert(ctx, doc, tt.index, []host.CellData{{Kind: host.CellKindCode, Text: "new"}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, used)
			assert.Equal(t, "new", doc.Cells()[used].Text)
		})
	}
}

func TestInsertEmptyBatch(t *testing.T) {
	g := testGateway()
	doc := newFakeDocument("file:///nb.ipynb", codeCell("a"))
	_, err := g.Insert(context.Background(), doc, 0, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestInsertBatchIsOneEdit(t *testing.T) {
	g := testGateway()
	doc := newFakeDocument("file:///nb.ipynb", codeCell("a"), codeCell("b"))

	used, err := g.Insert(context.Background(), doc, 1, []host.CellData{
		{Kind: host.CellKindCode, Text: "x"},
		{Kind: host.CellKindMarkup, Text: "y"},
		{Kind: host.CellKindCode, Text: "z"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, used)
	assert.Equal(t, []string{"a", "x", "y", "z", "b"}, cellTexts(doc))
}

func TestDeleteValidatesBounds(t *testing.T) {
	g := testGateway()
	ctx := context.Background()

	tests := []struct {
		name  string
		index int
		count int
	}{
		{"negative index", -1, 1},
		{"index past end", 2, 1},
		{"count overruns", 1, 5},
		{"zero count", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newFakeDocument("file:///nb.ipynb", codeCell("a"), codeCell("b"))
			err := g.Delete(ctx, doc, tt.index, tt.count)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrValidation))
			assert.Equal(t, 2, doc.CellCount(), "failed delete must not mutate")
		})
	}
}

func TestDeleteRange(t *testing.T) {
	g := testGateway()
	doc := sixCellDoc()
	require.NoError(t, g.Delete(context.Background(), doc, 1, 3))
	assert.Equal(t, []string{"c0", "c4", "c5"}, cellTexts(doc))
}

func TestMoveLandingIndex(t *testing.T) {
	ctx := context.Background()
	g := testGateway()

	tests := []struct {
		from, to, landed int
	}{
		{2, 5, 4},
		{5, 2, 2},
		{3, 4, 3},
		{0, 5, 4},
		{5, 0, 0},
		{3, 3, 3},
	}
	for _, tt := range tests {
		doc := sixCellDoc()
		moved := doc.Cells()[tt.from].Text

		landed, err := g.Move(ctx, doc, tt.from, tt.to)
		require.NoError(t, err)
		assert.Equal(t, tt.landed, landed, "move %d -> %d", tt.from, tt.to)
		assert.Equal(t, moved, doc.Cells()[landed].Text, "move %d -> %d", tt.from, tt.to)
		assert.Equal(t, 6, doc.CellCount())
	}
}

func TestMovePreservesTrackingID(t *testing.T) {
	ctx := context.Background()
	g := testGateway()
	doc := sixCellDoc()

	id := GenerateID()
	require.NoError(t, doc.SetCellMetadata(ctx, 2, TrackingMetadataKey, id))

	landed, err := g.Move(ctx, doc, 2, 5)
	require.NoError(t, err)

	cell, err := Resolve(doc, id)
	require.NoError(t, err)
	assert.Equal(t, landed, cell.Index)
}

func TestMoveValidatesBounds(t *testing.T) {
	g := testGateway()
	doc := sixCellDoc()

	for _, pair := range [][2]int{{-1, 0}, {0, -1}, {6, 0}, {0, 6}} {
		_, err := g.Move(context.Background(), doc, pair[0], pair[1])
		require.Error(t, err, "move %d -> %d", pair[0], pair[1])
		assert.True(t, errors.Is(err, errors.ErrValidation))
	}
}

func TestReplaceText(t *testing.T) {
	g := testGateway()
	doc := newFakeDocument("file:///nb.ipynb", codeCell("old"))

	require.NoError(t, g.Replace(context.Background(), doc, 0, "new"))
	assert.Equal(t, "new", doc.Cells()[0].Text)

	err := g.Replace(context.Background(), doc, 3, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestClearOutputs(t *testing.T) {
	ctx := context.Background()
	g := testGateway()
	doc := newFakeDocument("file:///nb.ipynb", codeCell("a"), codeCell("b"))
	success := true
	doc.setSummary(0, &host.ExecutionSummary{ExecutionOrder: 1, Success: &success})
	doc.setSummary(1, &host.ExecutionSummary{ExecutionOrder: 2, Success: &success})

	require.NoError(t, g.ClearOutputs(ctx, doc, 0))
	assert.Nil(t, doc.Cells()[0].ExecutionSummary)
	assert.NotNil(t, doc.Cells()[1].ExecutionSummary)

	require.NoError(t, g.ClearOutputs(ctx, doc, -1))
	assert.Nil(t, doc.Cells()[1].ExecutionSummary)

	err := g.ClearOutputs(ctx, doc, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
