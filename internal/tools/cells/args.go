// Package cells provides the cell manipulation tools: listing, reading,
// inserting, editing, deleting, moving, running, and clearing cells.
package cells

// Target is embedded by every argument struct: optional explicit document
// and response format selection.
type Target struct {
	DocumentURI    string `json:"document_uri,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// ListCellsArgs are the arguments for the ListCells tool.
type ListCellsArgs struct {
	Target
}

// GetCellArgs are the arguments for the GetCell tool.
type GetCellArgs struct {
	Index int `json:"index"`
	Target
}

// GetCellOutputArgs are the arguments for the GetCellOutput tool.
type GetCellOutputArgs struct {
	Index int `json:"index"`
	Target
}

// InsertCellArgs are the arguments for the InsertCell tool.
type InsertCellArgs struct {
	Index    int    `json:"index"`
	CellType string `json:"cell_type"`
	Source   string `json:"source"`
	Execute  bool   `json:"execute,omitempty"`
	Target
}

// CellSpec describes one cell for bulk insertion.
type CellSpec struct {
	CellType string `json:"cell_type"`
	Source   string `json:"source"`
}

// InsertCellsArgs are the arguments for the InsertCells tool.
type InsertCellsArgs struct {
	Index int        `json:"index"`
	Cells []CellSpec `json:"cells"`
	Target
}

// EditCellArgs are the arguments for the EditCell tool.
type EditCellArgs struct {
	Index     int    `json:"index"`
	NewSource string `json:"new_source"`
	Target
}

// DeleteCellArgs are the arguments for the DeleteCell tool.
type DeleteCellArgs struct {
	Index int `json:"index"`
	Target
}

// MoveCellArgs are the arguments for the MoveCell tool.
type MoveCellArgs struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
	Target
}

// RunCellArgs are the arguments for the RunCell tool.
type RunCellArgs struct {
	Index int `json:"index"`
	// TimeoutSeconds overrides the configured execution wait budget.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	Target
}

// ClearOutputsArgs are the arguments for the ClearOutputs tool. A nil
// Index clears every cell.
type ClearOutputsArgs struct {
	Index *int `json:"index,omitempty"`
	Target
}
