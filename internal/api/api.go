package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joescharf/adreview/internal/export"
	"github.com/joescharf/adreview/internal/models"
	"github.com/joescharf/adreview/internal/queue"
	"github.com/joescharf/adreview/internal/review"
)

// maxUploadMemory is how much of a multipart upload is buffered in memory
// before spilling to temporary files.
const maxUploadMemory = 32 << 20

// noResultsMessage is shown to the reviewer when export has nothing to write.
const noResultsMessage = "No results yet."

// Server provides the REST API handlers for a review session.
type Server struct {
	session   *review.Session
	uploadDir string
	logger    *slog.Logger
}

// NewServer creates a new API server. Uploaded files are spooled into uploadDir.
func NewServer(s *review.Session, uploadDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{session: s, uploadDir: uploadDir, logger: logger}
}

// Router returns an http.Handler for the API and media routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return corsMiddleware(mux)
}

// Handler mounts the API alongside a static UI handler served at "/".
func (s *Server) Handler(ui http.Handler) http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	if ui != nil {
		mux.Handle("/", ui)
	}
	return LogRequests(s.logger, corsMiddleware(mux))
}

// Register adds the API and media routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/session", s.getSession)

	mux.HandleFunc("POST /api/v1/queue/urls", s.addURLs)
	mux.HandleFunc("POST /api/v1/queue/files", s.addFiles)
	mux.HandleFunc("DELETE /api/v1/queue", s.clearQueue)

	mux.HandleFunc("POST /api/v1/decide", s.decide)
	mux.HandleFunc("PUT /api/v1/criteria/{index}", s.setCriterion)
	mux.HandleFunc("POST /api/v1/keys", s.key)

	mux.HandleFunc("POST /api/v1/timer/{action}", s.timerAction)
	mux.HandleFunc("POST /api/v1/player/toggle", s.togglePlayer)
	mux.HandleFunc("POST /api/v1/player/failed", s.playbackFailed)
	mux.HandleFunc("POST /api/v1/player/paused", s.playerPaused)
	mux.HandleFunc("POST /api/v1/player/playing", s.playerPlaying)

	mux.HandleFunc("GET /api/v1/export", s.exportResults)

	mux.HandleFunc("GET "+queue.MediaPrefix+"{token}", s.serveMedia)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LogRequests logs one line per request at debug level.
func LogRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Session ---

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State())
}

// --- Queue ---

func (s *Server) addURLs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string   `json:"text"`
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s.session.AddURLList(req.Text)
	if len(req.URLs) > 0 {
		s.session.AddURLs(req.URLs)
	}
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) addFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	files := make([]queue.LocalFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("open upload %s: %v", fh.Filename, err))
			return
		}
		lf, err := queue.Spool(s.uploadDir, fh.Filename, f)
		f.Close()
		if err != nil {
			for _, done := range files {
				_ = os.Remove(done.Path)
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		files = append(files, lf)
	}
	s.session.AddLocalFiles(files)
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) clearQueue(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Clear(); err != nil {
		s.logger.Warn("clear left files behind", "error", err)
	}
	writeJSON(w, http.StatusOK, s.session.State())
}

// --- Review ---

type decideResponse struct {
	Recorded bool                 `json:"recorded"`
	Record   *models.ResultRecord `json:"record,omitempty"`
	State    models.SessionState  `json:"state"`
}

func (s *Server) decide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	d, err := models.ParseDecision(req.Decision)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := decideResponse{}
	if rec, ok := s.session.Decide(d); ok {
		resp.Recorded = true
		resp.Record = &rec
	}
	resp.State = s.session.State()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) setCriterion(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be a number")
		return
	}
	var req struct {
		Rating string `json:"rating"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := s.session.SetCriterion(index, req.Rating, req.Note); err != nil {
		switch {
		case errors.Is(err, review.ErrNoCurrentItem):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, review.ErrUnknownCriterion):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) key(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	action := s.session.HandleKey(req.Key)
	writeJSON(w, http.StatusOK, map[string]any{
		"action": action,
		"state":  s.session.State(),
	})
}

// --- Timer and player ---

func (s *Server) timerAction(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("action") {
	case "start":
		s.session.StartTimer()
	case "stop":
		s.session.StopTimer()
	case "reset":
		s.session.ResetTimer()
	default:
		writeError(w, http.StatusNotFound, "unknown timer action (use start, stop, reset)")
		return
	}
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) togglePlayer(w http.ResponseWriter, r *http.Request) {
	s.session.TogglePlayback()
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) playbackFailed(w http.ResponseWriter, r *http.Request) {
	s.session.ReportPlaybackFailed()
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) playerPaused(w http.ResponseWriter, r *http.Request) {
	s.session.ReportPaused()
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) playerPlaying(w http.ResponseWriter, r *http.Request) {
	s.session.ReportPlaying()
	writeJSON(w, http.StatusOK, s.session.State())
}

// --- Export ---

func (s *Server) exportResults(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, s.session.Results()); err != nil {
		if errors.Is(err, export.ErrNoResults) {
			writeError(w, http.StatusConflict, noResultsMessage)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultFilename))
	case "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	}
	_, _ = w.Write(buf.Bytes())
}

// --- Media ---

func (s *Server) serveMedia(w http.ResponseWriter, r *http.Request) {
	lf, err := s.session.Resolve(r.PathValue("token"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(lf.Path)
	if err != nil {
		s.logger.Warn("media file unavailable", "name", lf.Name, "error", err)
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	http.ServeContent(w, r, lf.Name, fi.ModTime(), f)
}
