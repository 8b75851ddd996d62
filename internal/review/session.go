package review

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/joescharf/adreview/internal/criteria"
	"github.com/joescharf/adreview/internal/ids"
	"github.com/joescharf/adreview/internal/models"
	"github.com/joescharf/adreview/internal/queue"
	"github.com/joescharf/adreview/internal/timer"
)

// FinishedMessage is shown once the cursor moves past the last item.
const FinishedMessage = "Queue finished"

var (
	ErrNoCurrentItem    = errors.New("no item under review")
	ErrUnknownCriterion = errors.New("unknown criterion")
	ErrInvalidRating    = errors.New("invalid rating")
)

// Session is the review state machine. It owns the queue, cursor, results,
// criteria panel, timer and player; every mutation goes through its methods.
//
// Phases:
//
//	empty      cursor == -1
//	reviewing  0 <= cursor < len(queue)
//	finished   cursor == len(queue) > 0
type Session struct {
	mu sync.Mutex

	queue    *queue.Store
	timer    *timer.Timer
	criteria criteria.Provider
	player   Player
	logger   *slog.Logger
	now      func() time.Time

	cursor      int
	results     []models.ResultRecord
	panel       []models.CriterionEntry
	startOfItem float64
	message     string
}

// Option configures a Session.
type Option func(*Session)

// WithTimer sets the review timer.
func WithTimer(t *timer.Timer) Option { return func(s *Session) { s.timer = t } }

// WithCriteria sets the criteria provider.
func WithCriteria(p criteria.Provider) Option { return func(s *Session) { s.criteria = p } }

// WithPlayer sets the player the session drives.
func WithPlayer(p Player) Option { return func(s *Session) { s.player = p } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// WithQueue sets the queue store.
func WithQueue(q *queue.Store) Option { return func(s *Session) { s.queue = q } }

// NewSession creates an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		cursor: -1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.queue == nil {
		s.queue = queue.NewStore()
	}
	if s.timer == nil {
		s.timer = timer.New()
	}
	if s.criteria == nil {
		s.criteria = criteria.Default()
	}
	if s.player == nil {
		s.player = NewMirrorPlayer()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// --- Queue ---

// AddURLList adds one item per non-empty line of text and returns how many
// were added.
func (s *Session) AddURLList(text string) int {
	return s.AddURLs(queue.SplitURLList(text))
}

// AddURLs adds network items.
func (s *Session) AddURLs(links []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.queue.Len()
	added := s.queue.AddURLs(links)
	s.afterAdd(prev)
	s.logger.Info("queued urls", "added", len(added), "queue", s.queue.Len())
	return len(added)
}

// AddLocalFiles adds local files, each with its own session-scoped locator.
func (s *Session) AddLocalFiles(files []queue.LocalFile) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.queue.Len()
	added := s.queue.AddFromLocalFiles(files)
	s.afterAdd(prev)
	s.logger.Info("queued local files", "added", len(added), "queue", s.queue.Len())
	return len(added)
}

// afterAdd selects the first item of a previously empty queue, or resumes at
// the first new item when the queue had been finished.
func (s *Session) afterAdd(prevLen int) {
	n := s.queue.Len()
	switch {
	case n == prevLen:
		return
	case s.cursor < 0:
		s.cursor = 0
		s.load()
	case s.cursor == prevLen:
		s.message = ""
		s.load()
	}
}

// Clear releases local-file locators, empties the queue and results and
// returns the session to the empty phase. The timer is left alone.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	released, err := s.queue.Clear()
	s.cursor = -1
	s.results = nil
	s.panel = nil
	s.message = ""
	s.player.Clear()
	s.logger.Info("queue cleared", "released_locators", released)
	if err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}

// Resolve returns the local file behind a media token.
func (s *Session) Resolve(token string) (queue.LocalFile, error) {
	return s.queue.Resolve(token)
}

// --- Review ---

// load makes the item at the cursor current. Must be called with mu held and
// a valid cursor.
func (s *Session) load() {
	item, ok := s.queue.Item(s.cursor)
	if !ok {
		return
	}
	s.player.Load(item.Locator)
	if err := s.player.Play(); err != nil {
		s.logger.Debug("playback did not start", "item", item.Name, "error", err)
	}
	s.resetPanel()
	s.startOfItem = s.timer.Elapsed()
	s.logger.Debug("item loaded", "index", s.cursor, "item", item.Name)
}

func (s *Session) resetPanel() {
	defs := s.criteria.Criteria()
	s.panel = make([]models.CriterionEntry, len(defs))
	for i, d := range defs {
		s.panel[i] = models.CriterionEntry{Label: d.Label}
	}
}

// Decide records decision for the current item and advances the cursor.
// It reports false, recording nothing, when no item is under review.
func (s *Session) Decide(decision models.Decision) (models.ResultRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase() != models.PhaseReviewing {
		return models.ResultRecord{}, false
	}

	item, _ := s.queue.Item(s.cursor)
	rec := models.ResultRecord{
		ID:               ids.New(),
		ItemName:         item.Name,
		Decision:         decision,
		TimeSpentSeconds: timeSpent(s.timer.Elapsed(), s.startOfItem),
		Criteria:         slices.Clone(s.panel),
		DecidedAt:        s.now().UTC(),
	}
	s.results = append(s.results, rec)
	s.cursor++

	s.logger.Info("decision recorded",
		"item", rec.ItemName,
		"decision", rec.Decision,
		"time_spent", rec.TimeSpentSeconds,
		"remaining", s.queue.Len()-s.cursor,
	)

	if s.cursor < s.queue.Len() {
		s.load()
	} else {
		s.player.Pause()
		s.player.Clear()
		s.panel = nil
		s.message = FinishedMessage
		s.logger.Info("queue finished", "results", len(s.results))
	}
	return cloneRecord(rec), true
}

// timeSpent returns the non-negative difference rounded to one decimal place.
func timeSpent(elapsed, start float64) float64 {
	d := elapsed - start
	if d < 0 || math.IsNaN(d) {
		return 0
	}
	return math.Round(d*10) / 10
}

// SetCriterion fills in one row of the current criteria panel.
func (s *Session) SetCriterion(index int, rating, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase() != models.PhaseReviewing {
		return ErrNoCurrentItem
	}
	if index < 0 || index >= len(s.panel) {
		return fmt.Errorf("%w: %d", ErrUnknownCriterion, index)
	}
	if !criteria.ValidRating(s.criteria, rating) {
		return fmt.Errorf("%w: %q", ErrInvalidRating, rating)
	}
	s.panel[index].Rating = rating
	s.panel[index].Note = note
	return nil
}

// HandleKey performs the shortcut bound to key and returns it.
func (s *Session) HandleKey(key string) KeyAction {
	action := ActionForKey(key)
	switch action {
	case KeyAccept:
		s.Decide(models.DecisionAccept)
	case KeyReject:
		s.Decide(models.DecisionReject)
	case KeyTogglePlayback:
		s.TogglePlayback()
	}
	return action
}

// --- Player ---

// TogglePlayback flips play/pause and returns whether the player is playing.
func (s *Session) TogglePlayback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Toggle()
}

// ReportPlaybackFailed records that the renderer could not start playback
// (e.g. an autoplay restriction). The player stays paused until toggled.
func (s *Session) ReportPlaybackFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Pause()
}

// ReportPaused records that the renderer's player stopped on its own: the
// reviewer used the native controls or the clip ended.
func (s *Session) ReportPaused() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Pause()
}

// ReportPlaying records that the renderer's player started from its native
// controls. It has no effect when nothing is loaded.
func (s *Session) ReportPlaying() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.player.Play(); err != nil {
		s.logger.Debug("playback report ignored", "error", err)
	}
}

// --- Timer ---

func (s *Session) StartTimer() { s.timer.Start() }
func (s *Session) StopTimer()  { s.timer.Stop() }
func (s *Session) ResetTimer() { s.timer.Reset() }

// --- Snapshots ---

// Phase returns the current phase.
func (s *Session) Phase() models.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase()
}

func (s *Session) phase() models.Phase {
	switch {
	case s.cursor < 0:
		return models.PhaseEmpty
	case s.cursor >= s.queue.Len():
		return models.PhaseFinished
	default:
		return models.PhaseReviewing
	}
}

// Cursor returns the queue cursor, -1 when empty.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Results returns a copy of the recorded results.
func (s *Session) Results() []models.ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneResults()
}

func (s *Session) cloneResults() []models.ResultRecord {
	out := make([]models.ResultRecord, len(s.results))
	for i, r := range s.results {
		out[i] = cloneRecord(r)
	}
	return out
}

func cloneRecord(r models.ResultRecord) models.ResultRecord {
	r.Criteria = slices.Clone(r.Criteria)
	return r
}

// State returns a deep-copied snapshot of the whole session.
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := s.timer.Elapsed()
	st := models.SessionState{
		Phase:    s.phase(),
		Queue:    s.queue.Items(),
		Cursor:   s.cursor,
		Criteria: slices.Clone(s.panel),
		Ratings:  s.criteria.Ratings(),
		Results:  s.cloneResults(),
		Player:   s.player.State(),
		Elapsed:  elapsed,
		Timer:    timer.Format(elapsed),
		Running:  s.timer.Running(),
		Message:  s.message,
	}
	if st.Phase == models.PhaseReviewing {
		item := st.Queue[s.cursor]
		st.Current = &item
	}
	if st.Criteria == nil {
		st.Criteria = []models.CriterionEntry{}
	}
	return st
}
