package inject

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/liveserve/pkg/logger"
)

const notifyPort = 8001

// newTestHandler builds a handler over a temp root populated with files.
func newTestHandler(t *testing.T, files map[string][]byte) *Handler {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, content, 0600))
	}

	return New(root, notifyPort, logger.Noop())
}

// get performs a GET against the handler and returns the response.
func get(t *testing.T, h *Handler, path string) *http.Response {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestInjectsBeforeBodyClose(t *testing.T) {
	doc := "<html><head><title>t</title></head><body><p>hi</p></body></html>"
	h := newTestHandler(t, map[string][]byte{"page.html": []byte(doc)})

	resp := get(t, h, "/page.html")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Equal(t, 1, strings.Count(text, "new WebSocket"), "script must be injected exactly once")
	assert.Less(t, strings.Index(text, "new WebSocket"), strings.Index(text, "</body>"),
		"script must precede </body>")
	assert.Greater(t, strings.Index(text, "new WebSocket"), strings.Index(text, "</head>"),
		"with both tags present, </body> wins over </head>")
}

func TestInjectsBeforeHeadCloseWithoutBody(t *testing.T) {
	doc := "<html><head><title>t</title></head></html>"
	h := newTestHandler(t, map[string][]byte{"page.html": []byte(doc)})

	resp := get(t, h, "/page.html")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Equal(t, 1, strings.Count(text, "new WebSocket"))
	assert.Less(t, strings.Index(text, "new WebSocket"), strings.Index(text, "</head>"))
}

func TestAppendsWithoutClosingTags(t *testing.T) {
	doc := "<p>bare fragment</p>"
	h := newTestHandler(t, map[string][]byte{"page.html": []byte(doc)})

	resp := get(t, h, "/page.html")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Equal(t, 1, strings.Count(text, "new WebSocket"))
	assert.True(t, strings.HasPrefix(text, doc), "original content must lead the response")
}

func TestContentLengthMatchesRewrittenBytes(t *testing.T) {
	// Multi-byte characters: the length must count UTF-8 bytes, not runes.
	doc := "<html><body>héllo wörld — ünïcode</body></html>"
	h := newTestHandler(t, map[string][]byte{"page.html": []byte(doc)})

	resp := get(t, h, "/page.html")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	declared, err := strconv.Atoi(resp.Header.Get("Content-Length"))
	require.NoError(t, err)
	assert.Equal(t, len(body), declared, "Content-Length must equal the rewritten byte length")
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestScriptCarriesNotifyPort(t *testing.T) {
	doc := "<html><body></body></html>"
	h := newTestHandler(t, map[string][]byte{"page.html": []byte(doc)})

	resp := get(t, h, "/page.html")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "ws://localhost:"+strconv.Itoa(notifyPort))
	assert.NotContains(t, string(body), portPlaceholder, "placeholder must be substituted")
}

func TestDirectoryResolvesToIndex(t *testing.T) {
	doc := "<html><body>index</body></html>"
	h := newTestHandler(t, map[string][]byte{"index.html": []byte(doc)})

	resp := get(t, h, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "new WebSocket", "index.html served for '/' must get the script")
}

func TestHtmExtensionInjected(t *testing.T) {
	doc := "<html><body></body></html>"
	h := newTestHandler(t, map[string][]byte{"old.htm": []byte(doc)})

	resp := get(t, h, "/old.htm")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "new WebSocket")
}

func TestNonHTMLPassthroughByteForByte(t *testing.T) {
	css := []byte("body { margin: 0; }\n/* </body> inside a comment changes nothing */\n")
	h := newTestHandler(t, map[string][]byte{"style.css": css})

	resp := get(t, h, "/style.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, css, body, "non-HTML files must be served unmodified")
}

func TestMissingFileIs404(t *testing.T) {
	h := newTestHandler(t, map[string][]byte{})

	resp := get(t, h, "/nope.html")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvalidUTF8Is500(t *testing.T) {
	h := newTestHandler(t, map[string][]byte{
		"broken.html": {0x3c, 0x68, 0x74, 0x6d, 0x6c, 0x3e, 0xff, 0xfe, 0x3c, 0x2f, 0x68, 0x74, 0x6d, 0x6c, 0x3e},
	})

	resp := get(t, h, "/broken.html")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "UTF-8")
}

func TestServerSurvivesBadRequest(t *testing.T) {
	h := newTestHandler(t, map[string][]byte{
		"broken.html": {0xff, 0xfe},
		"good.html":   []byte("<html><body></body></html>"),
	})

	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/broken.html")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// The failure is per-request; the next request is unaffected.
	resp, err = http.Get(ts.URL + "/good.html")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPathTraversalDenied(t *testing.T) {
	h := newTestHandler(t, map[string][]byte{"page.html": []byte("<html></html>")})

	ts := httptest.NewServer(h)
	defer ts.Close()

	// The cleaned path cannot escape the root; secret.html outside the
	// tree must not resolve.
	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)
	req.URL.Path = "/../secret.html"
	req.URL.RawPath = "/../secret.html"

	resp, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestHeadRequest(t *testing.T) {
	doc := "<html><body></body></html>"
	h := newTestHandler(t, map[string][]byte{"page.html": []byte(doc)})

	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := http.Head(ts.URL + "/page.html")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	declared, err := strconv.Atoi(resp.Header.Get("Content-Length"))
	require.NoError(t, err)
	assert.Greater(t, declared, len(doc), "declared length covers the rewritten document")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, body, "HEAD response has no body")
}

func TestRewritePrecedence(t *testing.T) {
	h := New(t.TempDir(), notifyPort, logger.Noop())

	tests := []struct {
		name    string
		in      string
		markPos func(out string) bool
	}{
		{
			name: "body close wins",
			in:   "<head></head><body></body>",
			markPos: func(out string) bool {
				i := strings.Index(out, "new WebSocket")
				return i > strings.Index(out, "</head>") && i < strings.Index(out, "</body>")
			},
		},
		{
			name: "head close fallback",
			in:   "<head></head>",
			markPos: func(out string) bool {
				return strings.Index(out, "new WebSocket") < strings.Index(out, "</head>")
			},
		},
		{
			name: "append fallback",
			in:   "plain",
			markPos: func(out string) bool {
				return strings.HasPrefix(out, "plain")
			},
		},
		{
			name: "empty document",
			in:   "",
			markPos: func(out string) bool {
				return strings.Contains(out, "new WebSocket")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := string(h.rewrite([]byte(tt.in)))
			assert.Equal(t, 1, strings.Count(out, "new WebSocket"), "exactly one insertion")
			assert.True(t, tt.markPos(out), "insertion point wrong: %q", out)
		})
	}
}
