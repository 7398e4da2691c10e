package handler

import (
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/CageChen/dirscope/internal/config"
	"github.com/CageChen/dirscope/internal/entry"
	"github.com/CageChen/dirscope/internal/explorer"
	mfs "github.com/CageChen/dirscope/internal/fs"
	"github.com/CageChen/dirscope/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DirWatcher is notified which directories sessions are viewing.
type DirWatcher interface {
	Watch(dir string) error
	Unwatch(dir string)
}

// SessionView is the JSON form of an explorer session
type SessionView struct {
	ID      string         `json:"id"`
	Path    string         `json:"path"`
	Entries []entry.Record `json:"entries"`
	Skipped int            `json:"skipped"`
}

// session owns one Explorer; mu serialises navigation on it. Sessions over
// a git ref are never watched.
type session struct {
	mu       sync.Mutex
	explorer *explorer.Explorer
	ref      string
}

// SessionHandler handles explorer session API requests
type SessionHandler struct {
	cfg     *config.Config
	log     *zap.Logger
	watcher DirWatcher

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionHandler creates a new session handler. w may be nil.
func NewSessionHandler(cfg *config.Config, log *zap.Logger, w DirWatcher) *SessionHandler {
	return &SessionHandler{
		cfg:      cfg,
		log:      log,
		watcher:  w,
		sessions: make(map[string]*session),
	}
}

func viewOf(id string, x *explorer.Explorer) SessionView {
	return SessionView{
		ID:      id,
		Path:    x.Path(),
		Entries: entry.Records(x.Entries()),
		Skipped: x.Skipped(),
	}
}

// CreateSessionRequest represents a request to open an explorer session
type CreateSessionRequest struct {
	Path string `json:"path"`
	// Ref, if set, browses the tree of a git ref in the repository containing Path
	Ref string `json:"ref"`
}

// CreateSession opens a new explorer session at the requested path or the configured root
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request",
		})
		return
	}

	path := req.Path
	if path == "" {
		path = h.cfg.Root
	}

	opts := []explorer.Option{explorer.WithLogger(h.log)}
	if req.Ref != "" {
		g, err := mfs.NewGitFS(path, req.Ref)
		if err != nil {
			metrics.RecordNavigation("open", false)
			respondError(c, entry.WrapPathError("explore", path, err), nil)
			return
		}
		opts = append(opts, explorer.WithFileSystem(g))
	}

	x, err := explorer.New(path, opts...)
	metrics.RecordNavigation("open", err == nil)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	metrics.RecordSkipped("explorer", x.Skipped())

	id := uuid.NewString()
	h.mu.Lock()
	s := &session{explorer: x, ref: req.Ref}
	h.sessions[id] = s
	h.mu.Unlock()
	metrics.SessionOpened()
	h.watch(s, x.Path())

	h.log.Debug("session opened", zap.String("session", id), zap.String("path", x.Path()))
	c.JSON(http.StatusCreated, viewOf(id, x))
}

// GetSession returns the current view of a session
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := c.Param("id")
	s, ok := h.lookup(c, id)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, viewOf(id, s.explorer))
}

// CloseSession removes a session
func (h *SessionHandler) CloseSession(c *gin.Context) {
	id := c.Param("id")

	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "session not found",
		})
		return
	}

	s.mu.Lock()
	h.unwatch(s, s.explorer.Path())
	s.mu.Unlock()
	metrics.SessionClosed()

	c.JSON(http.StatusOK, gin.H{
		"message": "session closed",
	})
}

// SetPathRequest represents a request to jump to a typed path
type SetPathRequest struct {
	Path string `json:"path" binding:"required"`
}

// SetPath moves a session to an arbitrary path
func (h *SessionHandler) SetPath(c *gin.Context) {
	var req SetPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is required",
		})
		return
	}
	h.navigate(c, "set_path", func(x *explorer.Explorer) error {
		return x.SetPath(req.Path)
	})
}

// OpenRequest represents a request to descend into a listed entry
type OpenRequest struct {
	Name string `json:"name" binding:"required"`
}

// Open descends into a child of the session's current directory
func (h *SessionHandler) Open(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "name is required",
		})
		return
	}
	h.navigate(c, "add_path", func(x *explorer.Explorer) error {
		// Links are followed by the explorer, so only plain entries are checked
		for _, e := range x.Entries() {
			if e.RelativePath() == req.Name && e.Type() != entry.Link {
				if err := e.Require(entry.Directory); err != nil {
					return err
				}
				break
			}
		}
		return x.AddPath(req.Name)
	})
}

// Parent moves a session to its parent directory
func (h *SessionHandler) Parent(c *gin.Context) {
	h.navigate(c, "parent", func(x *explorer.Explorer) error {
		return x.SetToParent()
	})
}

// Refresh re-lists a session's current directory
func (h *SessionHandler) Refresh(c *gin.Context) {
	h.navigate(c, "refresh", func(x *explorer.Explorer) error {
		return x.Refresh()
	})
}

// Close releases every session's watch. Navigations still in flight
// finish first.
func (h *SessionHandler) Close() {
	h.mu.Lock()
	closing := h.sessions
	h.sessions = make(map[string]*session)
	h.mu.Unlock()

	for _, s := range closing {
		s.mu.Lock()
		h.unwatch(s, s.explorer.Path())
		s.mu.Unlock()
		metrics.SessionClosed()
	}
}

func (h *SessionHandler) navigate(c *gin.Context, op string, fn func(*explorer.Explorer) error) {
	id := c.Param("id")
	s, ok := h.lookup(c, id)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The session may have been closed while we waited for it; its watch
	// is already released.
	if !h.live(id, s) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "session not found",
		})
		return
	}

	before := s.explorer.Path()
	err := fn(s.explorer)
	metrics.RecordNavigation(op, err == nil)
	if err != nil {
		h.log.Info("navigation failed",
			zap.String("session", id),
			zap.String("op", op),
			zap.String("path", before),
			zap.Error(err),
		)
		// The explorer keeps its previous view on failure.
		respondError(c, err, gin.H{"path": before})
		return
	}
	metrics.RecordSkipped("explorer", s.explorer.Skipped())

	if after := s.explorer.Path(); after != before {
		h.unwatch(s, before)
		h.watch(s, after)
	}
	c.JSON(http.StatusOK, viewOf(id, s.explorer))
}

func (h *SessionHandler) lookup(c *gin.Context, id string) (*session, bool) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "session not found",
		})
	}
	return s, ok
}

func (h *SessionHandler) live(id string, s *session) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[id] == s
}

func (h *SessionHandler) watch(s *session, dir string) {
	if h.watcher == nil || s.ref != "" {
		return
	}
	if err := h.watcher.Watch(dir); err != nil {
		h.log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
	}
}

func (h *SessionHandler) unwatch(s *session, dir string) {
	if h.watcher == nil || s.ref != "" {
		return
	}
	h.watcher.Unwatch(dir)
}
