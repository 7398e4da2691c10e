package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/CageChen/dirscope/internal/config"
	"github.com/CageChen/dirscope/internal/entry"
	"github.com/CageChen/dirscope/internal/export"
	mfs "github.com/CageChen/dirscope/internal/fs"
	"github.com/CageChen/dirscope/internal/indexer"
	"github.com/CageChen/dirscope/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IndexResponse represents the response for an index request
type IndexResponse struct {
	Root        string         `json:"root"`
	Directories []entry.Record `json:"directories"`
	Files       []entry.Record `json:"files"`
	Links       []entry.Record `json:"links"`
	Unknown     []entry.Record `json:"unknown"`
	Skipped     int            `json:"skipped"`
	ElapsedMs   int64          `json:"elapsedMs"`
}

// IndexHandler handles indexing and export API requests
type IndexHandler struct {
	cfg *config.Config
	log *zap.Logger
}

// NewIndexHandler creates a new index handler
func NewIndexHandler(cfg *config.Config, log *zap.Logger) *IndexHandler {
	return &IndexHandler{cfg: cfg, log: log}
}

// run indexes root, reading the tree of a git ref instead of the working
// copy when ref is set.
func (h *IndexHandler) run(root, ref string) (*indexer.Index, time.Duration, error) {
	if root == "" {
		root = h.cfg.Root
	}

	opts := []indexer.Option{
		indexer.WithWorkers(h.cfg.Workers),
		indexer.WithLogger(h.log),
	}
	if ref != "" {
		g, err := mfs.NewGitFS(root, ref)
		if err != nil {
			return nil, 0, entry.WrapPathError("index", root, err)
		}
		opts = append(opts, indexer.WithFileSystem(g))
	}

	start := time.Now()
	idx, err := indexer.New(root, opts...).Index()
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordIndex(elapsed, false, 0, 0, 0, 0, 0)
		h.log.Warn("index failed", zap.String("root", root), zap.Error(err))
		return nil, elapsed, err
	}
	metrics.RecordIndex(elapsed, true,
		len(idx.Directories), len(idx.Files), len(idx.Links), len(idx.Unknown), idx.Skipped)
	h.log.Info("indexed tree",
		zap.String("root", idx.Root),
		zap.String("ref", ref),
		zap.Int("entries", idx.Len()),
		zap.Int("skipped", idx.Skipped),
		zap.Duration("elapsed", elapsed),
	)
	return idx, elapsed, nil
}

// GetIndex walks a tree and returns all entries partitioned by type
func (h *IndexHandler) GetIndex(c *gin.Context) {
	idx, elapsed, err := h.run(c.Query("root"), c.Query("ref"))
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, IndexResponse{
		Root:        idx.Root,
		Directories: entry.Records(idx.Directories),
		Files:       entry.Records(idx.Files),
		Links:       entry.Records(idx.Links),
		Unknown:     entry.Records(idx.Unknown),
		Skipped:     idx.Skipped,
		ElapsedMs:   elapsed.Milliseconds(),
	})
}

// ExportRequest represents a request to index and export a tree
type ExportRequest struct {
	Root string `json:"root"`
	Ref  string `json:"ref"`
}

// Export indexes a tree and writes the partitions to the configured export directory
func (h *IndexHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request",
		})
		return
	}

	idx, _, err := h.run(req.Root, req.Ref)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	w := &export.Writer{
		Dir:    h.cfg.Export.Dir,
		Format: h.cfg.Export.Format,
		Pretty: h.cfg.Export.Pretty,
	}
	files, err := w.WriteIndex(idx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to export index: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "index exported",
		"root":    idx.Root,
		"count":   idx.Len(),
		"files":   files,
	})
}
