package cells

import (
	"github.com/notekit/notebook-mcp/internal/tools"
)

// CreateCellTools creates all cell manipulation tools.
func CreateCellTools(ctx *tools.Context) []*tools.ServerTool {
	return []*tools.ServerTool{
		CreateListCellsTool(ctx),
		CreateGetCellTool(ctx),
		CreateGetCellOutputTool(ctx),
		CreateInsertCellTool(ctx),
		CreateInsertCellsTool(ctx),
		CreateEditCellTool(ctx),
		CreateDeleteCellTool(ctx),
		CreateMoveCellTool(ctx),
		CreateRunCellTool(ctx),
		CreateClearOutputsTool(ctx),
	}
}
