package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"github.com/joescharf/adreview/internal/queue"
)

// Format identifies how a manifest body is encoded.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

const (
	fetchTimeout = 15 * time.Second
	maxBodySize  = 8 << 20
)

// ErrNoSource is returned by Load when source is empty.
var ErrNoSource = errors.New("no manifest source")

var videoExts = map[string]bool{
	".mp4": true, ".m4v": true, ".webm": true, ".mov": true, ".mkv": true,
	".ogv": true, ".ogg": true, ".avi": true, ".m3u8": true,
}

// HTTPClient is used for remote manifests. Tests may replace it.
var HTTPClient = &http.Client{Timeout: fetchTimeout}

// Preload loads the startup manifest. A missing source or any failure is
// treated as "nothing to preload" and only logged at debug level.
func Preload(ctx context.Context, source string, logger *slog.Logger) []string {
	links, err := Load(ctx, source)
	if err != nil {
		if !errors.Is(err, ErrNoSource) {
			logger.Debug("manifest preload skipped", "source", source, "error", err)
		}
		return nil
	}
	logger.Info("manifest loaded", "source", source, "videos", len(links))
	return links
}

// Load reads a list of video URLs from a file path or an http(s) URL.
func Load(ctx context.Context, source string) ([]string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrNoSource
	}

	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		body, contentType, err := fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		return Parse(body, detect(u.Path, contentType, body), u)
	}

	body, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(body, detect(filepath.ToSlash(source), "", body), nil)
}

func fetch(ctx context.Context, source string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch manifest: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("read manifest body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// detect picks a format from the file extension, then the content type,
// then the first non-space byte of the body.
func detect(p, contentType string, body []byte) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".html", ".htm":
		return FormatHTML
	case ".txt", ".list":
		return FormatText
	}

	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case strings.HasSuffix(mt, "json"):
			return FormatJSON
		case strings.HasSuffix(mt, "yaml"):
			return FormatYAML
		case mt == "text/html" || mt == "application/xhtml+xml":
			return FormatHTML
		}
	}

	trimmed := bytes.TrimSpace(body)
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		return FormatJSON
	case bytes.HasPrefix(trimmed, []byte("<")):
		return FormatHTML
	default:
		return FormatText
	}
}

// Parse decodes body in the given format. base resolves relative links in
// HTML pages and may be nil.
func Parse(body []byte, format Format, base *url.URL) ([]string, error) {
	switch format {
	case FormatJSON:
		var links []string
		if err := json.Unmarshal(body, &links); err != nil {
			return nil, fmt.Errorf("decode json manifest: %w", err)
		}
		return clean(links), nil
	case FormatYAML:
		return parseYAML(body)
	case FormatHTML:
		return parseHTML(body, base)
	case FormatText:
		return queue.SplitURLList(string(body)), nil
	default:
		return nil, fmt.Errorf("unknown manifest format: %s", format)
	}
}

func parseYAML(body []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(body, &node); err != nil {
		return nil, fmt.Errorf("decode yaml manifest: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	var links []string
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&links); err != nil {
			return nil, fmt.Errorf("decode yaml manifest: %w", err)
		}
	case yaml.MappingNode:
		var doc struct {
			Videos []string `yaml:"videos"`
		}
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml manifest: %w", err)
		}
		links = doc.Videos
	default:
		return nil, fmt.Errorf("decode yaml manifest: expected a list or a videos: key")
	}
	return clean(links), nil
}

// parseHTML collects video links from anchors and media elements, in
// document order and without duplicates.
func parseHTML(body []byte, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html manifest: %w", err)
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href], video[src], source[src]").Each(func(_ int, s *goquery.Selection) {
		raw, ok := s.Attr("href")
		if !ok {
			raw, _ = s.Attr("src")
		}
		link, ok := resolveVideo(raw, base)
		if !ok || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})
	return links, nil
}

func resolveVideo(raw string, base *url.URL) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !videoExts[strings.ToLower(path.Ext(u.Path))] {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String(), true
}

func clean(links []string) []string {
	var out []string
	for _, l := range links {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
