// Package notebook implements the cell-manipulation core: identity
// tracking, execution waiting, the mutation gateway, and the access guard.
package notebook

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/notekit/notebook-mcp/internal/collections"
	"github.com/notekit/notebook-mcp/internal/errors"
	"github.com/notekit/notebook-mcp/internal/host"
)

// TrackingMetadataKey is the cell metadata key carrying the tracking
// identifier. The identifier is process-generated and never part of the
// tool contract; it only exists to re-locate a cell after concurrent
// structural edits shift its index.
const TrackingMetadataKey = "notebookMcpTrackingId"

// GenerateID produces a short identifier with negligible collision
// probability over a single editing session.
func GenerateID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a timestamp-based ID if random generation fails.
		return fmt.Sprintf("cell-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

// Tag returns a copy of data with the tracking identifier stashed in its
// metadata. The input is not modified.
func Tag(data host.CellData, id string) host.CellData {
	data.Metadata = collections.CloneMap(data.Metadata)
	data.Metadata[TrackingMetadataKey] = id
	return data
}

// TrackingID extracts the tracking identifier from a cell snapshot.
func TrackingID(cell host.CellSnapshot) (string, bool) {
	v, ok := cell.Metadata[TrackingMetadataKey]
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// Resolve re-locates a cell by its tracking identifier with a linear scan
// over fresh snapshots. A missing cell is a reportable errors.ErrNotFound,
// not a system fault: the user may legitimately have deleted it while an
// operation was suspended.
func Resolve(doc host.Document, id string) (host.CellSnapshot, error) {
	for _, cell := range doc.Cells() {
		if got, ok := TrackingID(cell); ok && got == id {
			return cell, nil
		}
	}
	return host.CellSnapshot{}, errors.NotFoundf("cell with tracking id %s not found in %s (it may have been deleted concurrently)", id, doc.URI())
}
