// Package httpstatic serves the small static HTTP surface described in the
// specification's HTTP Static Fallback component: a document root, a
// handful of shadowed legacy paths, and a byte-identical cache for both
// hits and misses so repeated requests for the same path never re-touch
// disk.
package httpstatic

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/misaka00251/sherpa/api"
)

const shadowStubFormat = `<!DOCTYPE html>
<html><head><title>Moved</title></head>
<body>This server offers only the streaming UI. See <a href="/streaming_record.html">/streaming_record.html</a>.</body>
</html>`

var shadowedPaths = map[string]struct{}{
	"/upload.html":         {},
	"/offline_record.html": {},
}

type cachedResponse struct {
	status int
	body   []byte
}

// Handler serves GET requests from docRoot, rewriting "/" to "/index.html",
// shadowing legacy upload pages with a redirect stub, and caching each
// distinct path's response (hit or miss) after first read.
type Handler struct {
	docRoot string
	log     *zap.Logger

	mu    sync.RWMutex
	cache map[string]cachedResponse
}

// New validates that docRoot/index.html exists and returns a Handler ready
// to serve it. Per the specification, a missing index.html is a fatal
// startup condition, not a runtime 404.
func New(docRoot string, log *zap.Logger) (*Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if docRoot == "" {
		return nil, api.ErrDocRootMissing
	}
	if _, err := os.Stat(filepath.Join(docRoot, "index.html")); err != nil {
		return nil, api.ErrDocRootMissing
	}
	return &Handler{
		docRoot: docRoot,
		log:     log,
		cache:   make(map[string]cachedResponse),
	}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	if _, shadowed := shadowedPaths[path]; shadowed {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(shadowStubFormat))
		return
	}

	resp := h.lookup(path)
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}

func (h *Handler) lookup(path string) cachedResponse {
	h.mu.RLock()
	cached, ok := h.cache[path]
	h.mu.RUnlock()
	if ok {
		return cached
	}

	body, err := os.ReadFile(filepath.Join(h.docRoot, filepath.Clean("/"+path)))
	var resp cachedResponse
	if err != nil {
		resp = cachedResponse{status: http.StatusNotFound, body: []byte("not found")}
	} else {
		resp = cachedResponse{status: http.StatusOK, body: body}
	}

	h.mu.Lock()
	h.cache[path] = resp
	h.mu.Unlock()
	return resp
}
