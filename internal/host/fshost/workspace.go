package fshost

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/notekit/notebook-mcp/internal/collections"
	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/logging"
	"github.com/notekit/notebook-mcp/internal/security"
)

// Workspace is a file-backed host workspace: every .ipynb under the root
// directory is an open document. Files rewritten by other processes are
// reloaded via fsnotify, so external concurrent mutation is a real behavior
// of this host, not just a test fixture.
type Workspace struct {
	root      string
	validator security.Validator
	log       *logging.Logger

	docs    *collections.SyncMap[string, *Document]
	kernels *collections.SyncMap[string, host.Kernel]

	mu      sync.Mutex
	active  string
	focused bool

	focusCh chan bool
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWorkspace opens every notebook under root and starts the file
// watcher. The first document in path order becomes the active one.
func NewWorkspace(root string, validator security.Validator, log *logging.Logger) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	ws := &Workspace{
		root:      absRoot,
		validator: validator,
		log:       log,
		docs:      collections.NewSyncMap[string, *Document](),
		kernels:   collections.NewSyncMap[string, host.Kernel](),
		focused:   true,
		focusCh:   make(chan bool, 16),
		done:      make(chan struct{}),
	}

	var paths []string
	err = filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() {
			if path != absRoot && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(name), ".ipynb") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning workspace root: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if _, err := ws.Open(path); err != nil {
			// A malformed notebook keeps the rest of the workspace usable.
			log.Warn("skipping unreadable notebook", "path", path, "error", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("starting file watcher: %w", err)
	}
	ws.watcher = watcher
	if err := watcher.Add(absRoot); err != nil {
		log.Warn("watching workspace root failed", "path", absRoot, "error", err)
	}
	go ws.watch()

	return ws, nil
}

// Open loads a notebook file and registers it as an open document. The
// path is validated against the workspace root first.
func (ws *Workspace) Open(path string) (*Document, error) {
	sanitized, err := ws.validator.SanitizePath(path)
	if err != nil {
		return nil, err
	}
	if err := ws.validator.ValidateNotebookPath(sanitized); err != nil {
		return nil, err
	}
	doc, err := loadDocument(sanitized, ws.log)
	if err != nil {
		return nil, err
	}
	ws.docs.Set(doc.URI(), doc)

	ws.mu.Lock()
	if ws.active == "" {
		ws.active = doc.URI()
	}
	ws.mu.Unlock()

	return doc, nil
}

// Close stops the watcher.
func (ws *Workspace) Close() error {
	close(ws.done)
	return ws.watcher.Close()
}

// Documents returns the open documents sorted by URI.
func (ws *Workspace) Documents() []host.Document {
	uris := ws.docs.Keys()
	sort.Strings(uris)
	docs := make([]host.Document, 0, len(uris))
	for _, uri := range uris {
		if doc, ok := ws.docs.Get(uri); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// Document resolves an open document by URI or plain path.
func (ws *Workspace) Document(uri string) (host.Document, bool) {
	doc, ok := ws.docs.Get(normalizeURI(uri))
	if !ok {
		return nil, false
	}
	return doc, true
}

// ActiveDocument returns the document currently considered active.
func (ws *Workspace) ActiveDocument() (host.Document, bool) {
	ws.mu.Lock()
	active := ws.active
	ws.mu.Unlock()
	if active == "" {
		return nil, false
	}
	return ws.Document(active)
}

// SetActive changes the active document.
func (ws *Workspace) SetActive(uri string) error {
	normalized := normalizeURI(uri)
	if _, ok := ws.docs.Get(normalized); !ok {
		return fmt.Errorf("no open notebook with URI %q", uri)
	}
	ws.mu.Lock()
	ws.active = normalized
	ws.mu.Unlock()
	return nil
}

// Focused reports whether this window has OS input focus.
func (ws *Workspace) Focused() bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.focused
}

// SetFocused records a focus change and notifies listeners.
func (ws *Workspace) SetFocused(focused bool) {
	ws.mu.Lock()
	changed := ws.focused != focused
	ws.focused = focused
	ws.mu.Unlock()
	if !changed {
		return
	}
	select {
	case ws.focusCh <- focused:
	default:
		// A slow listener only loses intermediate transitions; the latest
		// state is always re-readable via Focused.
	}
}

// FocusEvents returns the focus notification channel.
func (ws *Workspace) FocusEvents() <-chan bool {
	return ws.focusCh
}

// Kernel returns the kernel for a document, creating the python subprocess
// kernel on first use.
func (ws *Workspace) Kernel(uri string) (host.Kernel, bool) {
	normalized := normalizeURI(uri)
	if k, ok := ws.kernels.Get(normalized); ok {
		return k, true
	}
	doc, ok := ws.docs.Get(normalized)
	if !ok {
		return nil, false
	}
	k := newPythonKernel(doc, ws.log)
	ws.kernels.Set(normalized, k)
	return k, true
}

func (ws *Workspace) watch() {
	for {
		select {
		case <-ws.done:
			return
		case event, ok := <-ws.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			uri := normalizeURI(event.Name)
			doc, ok := ws.docs.Get(uri)
			if !ok {
				continue
			}
			changed, err := doc.reloadIfChanged()
			if err != nil {
				ws.log.Warn("reloading externally modified notebook failed", "path", event.Name, "error", err)
				continue
			}
			if changed {
				ws.log.Info("reloaded externally modified notebook", "path", event.Name)
			}
		case err, ok := <-ws.watcher.Errors:
			if !ok {
				return
			}
			ws.log.Warn("file watcher error", "error", err)
		}
	}
}

func normalizeURI(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		return uri
	}
	abs, err := filepath.Abs(uri)
	if err != nil {
		return "file://" + uri
	}
	return "file://" + abs
}
