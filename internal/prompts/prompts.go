// Package prompts centralizes the descriptions exposed for every MCP tool.
package prompts

// Shared fragments for argument semantics repeated across tools.
const (
	responseFormatNote = `The optional response_format argument selects "markdown" (default, human-readable) or "json" (structured data).`

	documentTargetNote = `By default a tool targets the active notebook of this editor window. Pass document_uri to target a specific open notebook instead; explicit targeting also works when the window is unfocused.`

	indexNote = `Cell indices are 0-based positions in the current document and shift whenever cells are inserted, deleted, or moved. Always re-list cells before addressing by index if the document may have changed.`
)

const ListDocumentsToolDoc = `Lists the notebook documents currently open in this editor window, with their URIs and cell counts. The active document is marked.

` + responseFormatNote

const ListCellsToolDoc = `Lists the cells of a notebook with index, type, language, a first-line preview, and execution state (execution order and success of the most recent run).

` + documentTargetNote + `

` + indexNote + `

` + responseFormatNote

const GetCellToolDoc = `Returns the full source of one cell, addressed by index.

` + documentTargetNote + `

` + responseFormatNote

const GetCellOutputToolDoc = `Returns the outputs of one code cell: stream text, errors, and image summaries, plus the execution state of the most recent run.

` + documentTargetNote + `

` + responseFormatNote

const InsertCellToolDoc = `Inserts one cell at the given index (clamped to the document bounds). cell_type is "code" or "markdown". With execute=true a code cell is run after insertion and the call waits for the kernel to finish (or a timeout), returning the outputs.

This is a write operation: it requires the window to be focused unless document_uri is passed explicitly.

` + documentTargetNote + `

` + responseFormatNote

const InsertCellsToolDoc = `Inserts multiple cells at the given index as one atomic edit (one undo reverses all of them). Each cell spec carries cell_type and source.

This is a write operation: it requires the window to be focused unless document_uri is passed explicitly.

` + responseFormatNote

const EditCellToolDoc = `Replaces the source of the cell at the given index. Outputs of an edited code cell are cleared, since they no longer correspond to the source.

This is a write operation: it requires the window to be focused unless document_uri is passed explicitly.

` + indexNote + `

` + responseFormatNote

const DeleteCellToolDoc = `Deletes the cell at the given index.

This is a write operation: it requires the window to be focused unless document_uri is passed explicitly.

` + indexNote + `

` + responseFormatNote

const MoveCellToolDoc = `Moves the cell at from_index so that it ends up at to_index, carrying content, metadata, and outputs. Indices refer to positions before the move.

This is a write operation: it requires the window to be focused unless document_uri is passed explicitly.

` + indexNote + `

` + responseFormatNote

const RunCellToolDoc = `Executes the code cell at the given index and waits for the kernel to report completion, returning the outputs, or a timeout condition if the kernel does not finish within budget (the execution itself keeps running).

This is a write operation: it requires the window to be focused unless document_uri is passed explicitly.

` + responseFormatNote

const ClearOutputsToolDoc = `Clears the outputs and execution state of one cell (pass index) or of every cell (omit index) as a single undoable edit.

This is a write operation: it requires the window to be focused unless document_uri is passed explicitly.

` + responseFormatNote

const SearchCellsToolDoc = `Searches cell sources for a query string (literal by default, regex with regex=true) and returns matches with cell index, line number, and optional surrounding context lines.

` + documentTargetNote + `

` + responseFormatNote

const NotebookOutlineToolDoc = `Produces a structural outline of a notebook: markdown headings plus function and class signatures found by line-based pattern matching (not semantic parsing).

` + documentTargetNote + `

` + responseFormatNote

const KernelStatusToolDoc = `Reports the identity and status of the kernel attached to a notebook: name, language, and whether it is idle or busy.

` + documentTargetNote + `

` + responseFormatNote
