// Package inject serves static files from a root directory, rewriting
// HTML responses to embed the live-reload client script.
//
// HTML files (and directory requests resolving to an index.html) are read,
// validated as UTF-8 and served with the reload script spliced in; every
// other request is delegated untouched to a standard file server.
package inject

import (
	"bytes"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/0xmhha/liveserve/pkg/logger"
)

var (
	bodyClose = []byte("</body>")
	headClose = []byte("</head>")
)

// Handler is an http.Handler that injects the reload script into HTML
// responses and passes everything else through to static file serving.
type Handler struct {
	root   string
	script []byte
	logger logger.Logger
	static http.Handler
}

// New creates a handler serving root, with the injected script pointing
// at the notification channel on the given port.
func New(root string, notifyPort int, log logger.Logger) *Handler {
	script := strings.ReplaceAll(reloadScript, portPlaceholder, strconv.Itoa(notifyPort))

	return &Handler{
		root:   root,
		script: []byte(script),
		logger: log,
		static: http.FileServer(http.Dir(root)),
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("request", "method", r.Method, "path", r.URL.Path)

	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		if filePath, ok := h.resolveHTML(r.URL.Path); ok {
			h.serveHTML(w, r, filePath)
			return
		}
	}

	// Everything else: conventional static serving (content types,
	// ranges, 404s).
	h.static.ServeHTTP(w, r)
}

// resolveHTML maps a request path to an HTML file under the root.
//
// The path is rooted and cleaned before joining so requests cannot escape
// the served directory. Directory paths resolve to their index.html.
// Returns false for anything that is not an existing .html/.htm file;
// those requests fall through to the static file server.
func (h *Handler) resolveHTML(urlPath string) (string, bool) {
	cleaned := path.Clean("/" + urlPath)
	filePath := filepath.Join(h.root, filepath.FromSlash(cleaned))

	info, err := os.Stat(filePath)
	if err != nil {
		return "", false
	}

	if info.IsDir() {
		filePath = filepath.Join(filePath, "index.html")
		info, err = os.Stat(filePath)
		if err != nil || info.IsDir() {
			return "", false
		}
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".html", ".htm":
		return filePath, true
	default:
		return "", false
	}
}

// serveHTML reads an HTML file, splices in the reload script and writes
// the rewritten document.
//
// Read or encoding failures degrade to a 500 for this request only.
func (h *Handler) serveHTML(w http.ResponseWriter, r *http.Request, filePath string) {
	content, err := os.ReadFile(filePath) // nolint:gosec
	if err != nil {
		h.logger.Error("failed to read html file", "path", filePath, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !utf8.Valid(content) {
		h.logger.Error("html file is not valid UTF-8", "path", filePath)
		http.Error(w, "file content is not valid UTF-8", http.StatusInternalServerError)
		return
	}

	rewritten := h.rewrite(content)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(rewritten)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}

	if _, err := w.Write(rewritten); err != nil {
		h.logger.Debug("failed to write response", "path", filePath, "error", err)
	}
}

// rewrite splices the reload script into the document. Exactly one
// insertion happens: before the first </body>, else before the first
// </head>, else appended at the end.
func (h *Handler) rewrite(content []byte) []byte {
	if i := bytes.Index(content, bodyClose); i >= 0 {
		return h.splice(content, i)
	}
	if i := bytes.Index(content, headClose); i >= 0 {
		return h.splice(content, i)
	}

	out := make([]byte, 0, len(content)+len(h.script))
	out = append(out, content...)
	return append(out, h.script...)
}

// splice inserts the script at the given offset.
func (h *Handler) splice(content []byte, at int) []byte {
	out := make([]byte, 0, len(content)+len(h.script))
	out = append(out, content[:at]...)
	out = append(out, h.script...)
	return append(out, content[at:]...)
}
