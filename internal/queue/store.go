package queue

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/joescharf/adreview/internal/ids"
	"github.com/joescharf/adreview/internal/models"
)

// MediaPrefix is the URL path under which session-scoped locators are served.
const MediaPrefix = "/media/"

// fallbackName is used when a URL has no final path segment.
const fallbackName = "video"

// ErrUnknownLocator is returned when a media token is not registered.
var ErrUnknownLocator = errors.New("unknown locator")

var lineSplit = regexp.MustCompile(`\r?\n`)

// LocalFile is a video on the reviewer's machine.
// Spooled files are private copies (e.g. browser uploads) owned by the store
// and removed from disk when their locator is released.
type LocalFile struct {
	Name    string
	Path    string
	Spooled bool
}

// Store is the ordered list of queued videos plus the registry of
// session-scoped locators for local files.
type Store struct {
	mu       sync.RWMutex
	items    []models.QueueItem
	locators map[string]LocalFile
}

// NewStore creates an empty queue.
func NewStore() *Store {
	return &Store{locators: make(map[string]LocalFile)}
}

// SplitURLList splits pasted text into trimmed, non-empty lines.
func SplitURLList(text string) []string {
	var out []string
	for _, line := range lineSplit.Split(text, -1) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// NameFromURL returns the final path segment of link, or "video" if it is empty.
func NameFromURL(link string) string {
	name := link[strings.LastIndex(link, "/")+1:]
	if name == "" {
		return fallbackName
	}
	return name
}

// AddFromURLList appends one item per non-empty line of text.
func (s *Store) AddFromURLList(text string) []models.QueueItem {
	return s.AddURLs(SplitURLList(text))
}

// AddURLs appends one network item per non-blank link.
func (s *Store) AddURLs(links []string) []models.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []models.QueueItem
	for _, link := range links {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		item := models.QueueItem{
			ID:      ids.New(),
			Name:    NameFromURL(link),
			Locator: link,
		}
		s.items = append(s.items, item)
		added = append(added, item)
	}
	return added
}

// AddFromLocalFiles appends one item per file and registers a locator for each.
func (s *Store) AddFromLocalFiles(files []LocalFile) []models.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []models.QueueItem
	for _, f := range files {
		token := ids.New()
		s.locators[token] = f
		item := models.QueueItem{
			ID:          ids.New(),
			Name:        f.Name,
			Locator:     MediaPrefix + token,
			IsLocalFile: true,
		}
		s.items = append(s.items, item)
		added = append(added, item)
	}
	return added
}

// Resolve returns the local file registered under token.
func (s *Store) Resolve(token string) (LocalFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.locators[token]
	if !ok {
		return LocalFile{}, fmt.Errorf("%w: %s", ErrUnknownLocator, token)
	}
	return f, nil
}

// Clear releases every locator and empties the queue. It returns the number
// of locators released; failures to remove spooled copies are joined.
func (s *Store) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	released := 0
	for token, f := range s.locators {
		if f.Spooled {
			if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("remove spooled file %s: %w", f.Path, err))
			}
		}
		delete(s.locators, token)
		released++
	}
	s.items = nil
	return released, errors.Join(errs...)
}

// Len returns the number of queued items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Item returns the item at index i.
func (s *Store) Item(i int) (models.QueueItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.items) {
		return models.QueueItem{}, false
	}
	return s.items[i], true
}

// Items returns a copy of the queue.
func (s *Store) Items() []models.QueueItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.QueueItem, len(s.items))
	copy(out, s.items)
	return out
}

// Locators returns the number of live session-scoped locators.
func (s *Store) Locators() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.locators)
}
