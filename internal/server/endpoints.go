package server

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/notekit/notebook-mcp/pkg/version"
)

// healthInfo is the body of the /health endpoint. Peers probing the shared
// port use the Name field to recognize a sibling instance.
type healthInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	PID            int    `json:"pid"`
	Instance       string `json:"instance"`
	State          string `json:"state"`
	ActiveDocument string `json:"active_document,omitempty"`
	DocumentCount  int    `json:"document_count"`
}

// routes builds the HTTP mux served by the port owner.
func (s *Server) routes(own *Ownership) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", s.MCPHandler())
	mux.HandleFunc("/health", s.handleHealth(own))
	mux.HandleFunc("/release", s.handleRelease(own))
	return mux
}

func (s *Server) handleHealth(own *Ownership) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		info := healthInfo{
			Name:          ServerName,
			Version:       version.GetVersion().Version,
			PID:           os.Getpid(),
			Instance:      s.instanceID,
			State:         own.State().String(),
			DocumentCount: len(s.workspace.Documents()),
		}
		if active, ok := s.workspace.ActiveDocument(); ok {
			info.ActiveDocument = active.URI()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(info); err != nil {
			s.logger.Warn("Failed to write health response", "error", err)
		}
	}
}

// handleRelease hands the port to a requesting peer. The listener is closed
// before the response is written, so a 200 guarantees the port is already
// free for the caller to bind.
func (s *Server) handleRelease(own *Ownership) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := own.Release(); err != nil {
			s.logger.Warn("Release request refused", "error", err)
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		s.logger.Info("Released port ownership on request",
			"remote", r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("released\n"))
	}
}
