package manifest

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_JSONFile(t *testing.T) {
	p := writeManifest(t, "videos.json", `["http://x/a.mp4", " ", "http://x/b.mp4"]`)
	links, err := Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/a.mp4", "http://x/b.mp4"}, links)
}

func TestLoad_YAMLList(t *testing.T) {
	p := writeManifest(t, "videos.yaml", "- http://x/a.mp4\n- http://x/b.mp4\n")
	links, err := Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/a.mp4", "http://x/b.mp4"}, links)
}

func TestLoad_YAMLMap(t *testing.T) {
	p := writeManifest(t, "videos.yml", "videos:\n  - http://x/a.mp4\n")
	links, err := Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/a.mp4"}, links)
}

func TestLoad_YAMLScalarRejected(t *testing.T) {
	p := writeManifest(t, "videos.yaml", "just a string\n")
	_, err := Load(context.Background(), p)
	assert.Error(t, err)
}

func TestLoad_TextFile(t *testing.T) {
	p := writeManifest(t, "videos.txt", "http://x/a.mp4\r\n\nhttp://x/b.mp4\n")
	links, err := Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/a.mp4", "http://x/b.mp4"}, links)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_EmptySource(t *testing.T) {
	_, err := Load(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestLoad_HTTPJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["http://x/a.mp4"]`))
	}))
	defer srv.Close()

	links, err := Load(context.Background(), srv.URL+"/manifest")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/a.mp4"}, links)
}

func TestLoad_HTTPIndexPage(t *testing.T) {
	page := `<html><body>
<a href="../">Parent</a>
<a href="clip1.mp4">clip1.mp4</a>
<a href="notes.txt">notes</a>
<a href="https://cdn.example.com/clip2.WEBM">clip2</a>
<video src="clip1.mp4"></video>
<video><source src="/media/clip3.mov" type="video/quicktime"></video>
</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	links, err := Load(context.Background(), srv.URL+"/videos/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		srv.URL + "/videos/clip1.mp4",
		"https://cdn.example.com/clip2.WEBM",
		srv.URL + "/media/clip3.mov",
	}, links)
}

func TestLoad_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL+"/videos.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestPreload_FailureIsEmpty(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := writeManifest(t, "videos.json", `{not json`)
	assert.Empty(t, Preload(context.Background(), p, logger))
	assert.Contains(t, buf.String(), "manifest preload skipped")

	assert.Empty(t, Preload(context.Background(), "", logger))
}

func TestPreload_Success(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	p := writeManifest(t, "videos.json", `["http://x/a.mp4"]`)
	assert.Equal(t, []string{"http://x/a.mp4"}, Preload(context.Background(), p, logger))
}

func TestDetect(t *testing.T) {
	assert.Equal(t, FormatJSON, detect("/a/videos.json", "", nil))
	assert.Equal(t, FormatYAML, detect("/a/videos.YML", "", nil))
	assert.Equal(t, FormatHTML, detect("/a/", "text/html; charset=utf-8", nil))
	assert.Equal(t, FormatYAML, detect("/a", "application/yaml", nil))
	assert.Equal(t, FormatJSON, detect("/a", "", []byte("  [\"x\"]")))
	assert.Equal(t, FormatHTML, detect("/a", "", []byte("<!doctype html>")))
	assert.Equal(t, FormatText, detect("/a", "text/plain", []byte("http://x/a.mp4")))
}

func TestParse_HTMLWithoutBase(t *testing.T) {
	links, err := Parse([]byte(`<a href="x.mp4">x</a><a href="y.html">y</a>`), FormatHTML, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x.mp4"}, links)
}

func TestParse_HTMLBase(t *testing.T) {
	base, _ := url.Parse("http://host/dir/page.html")
	links, err := Parse([]byte(`<a href="x.mp4">x</a>`), FormatHTML, base)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://host/dir/x.mp4"}, links)
}
