package notebook

import (
	"fmt"

	"github.com/notekit/notebook-mcp/internal/host"
)

// Op classifies an operation for access control.
type Op int

const (
	// OpRead never requires window focus.
	OpRead Op = iota
	// OpWrite requires this window to hold OS input focus, unless the
	// caller targets a document explicitly by URI.
	OpWrite
)

// Decision is the guard's verdict. Denials carry an actionable reason and
// are surfaced as tool errors, never as Go errors or panics.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// Guard gates every operation before it touches a document.
//
// Multiple editor windows may each run this server against different
// documents. Requiring focus for writes against the implicit "active"
// document keeps a tool call from silently mutating a notebook the user is
// not looking at. An explicit URI bypasses the focus check: the caller has
// deliberately targeted a background document and accepted responsibility.
type Guard struct {
	ws host.Workspace
}

// NewGuard creates an access guard over the given workspace.
func NewGuard(ws host.Workspace) *Guard {
	return &Guard{ws: ws}
}

// Check resolves the target document and decides whether op may proceed.
// The returned document is nil whenever the decision is a denial.
func (g *Guard) Check(op Op, explicitURI string) (host.Document, Decision) {
	if explicitURI != "" {
		doc, ok := g.ws.Document(explicitURI)
		if !ok {
			return nil, deny("no open notebook with URI %q; use ListDocuments to see what is open", explicitURI)
		}
		// Explicit targeting bypasses the focus requirement.
		return doc, allow()
	}

	doc, ok := g.ws.ActiveDocument()
	if !ok {
		return nil, deny("no active notebook document; open a notebook in this window or pass document_uri explicitly")
	}

	if op == OpWrite && !g.ws.Focused() {
		return nil, deny("this window is not focused, so writes to its active document are blocked; focus the window (which also transfers the server here) or pass document_uri to target the notebook explicitly")
	}

	return doc, allow()
}
