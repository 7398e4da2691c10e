package main

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/CageChen/dirscope/internal/handler"
	"github.com/CageChen/dirscope/internal/watcher"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//go:embed web/*
var webFS embed.FS

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var (
		path  string
		port  int
		watch bool
		open  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser UI and REST API",
		Long: `Start an HTTP server exposing explorer sessions, indexing and export over a
REST API, plus a small browser UI. With --watch, directories open in a
session are watched and changes are pushed to WebSocket clients.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("path") {
				cfg.SetRoot(path)
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch = watch
			}
			if cmd.Flags().Changed("open") {
				cfg.Open = open
			}
			return runServe()
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Directory new sessions start in")
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	cmd.Flags().BoolVar(&watch, "watch", true, "Push directory changes to WebSocket clients")
	cmd.Flags().BoolVar(&open, "open", false, "Open the UI in a browser")

	return cmd
}

func runServe() error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Info("dirscope server starting",
		zap.String("root", cfg.Root),
		zap.Int("port", cfg.Port),
		zap.String("config", cfg.GetConfigFilePath()),
	)

	wsHandler := handler.NewWSHandler(logger)

	// Nil interface rather than a typed nil so the session handler skips watching
	var dirWatcher handler.DirWatcher
	if cfg.Watch {
		w, err := watcher.New(logger)
		if err != nil {
			logger.Warn("failed to create directory watcher", zap.Error(err))
		} else {
			w.OnChange(wsHandler.OnDirChange)
			w.Start()
			defer func() { _ = w.Stop() }()
			dirWatcher = w
			logger.Info("directory watcher enabled")
		}
	}

	sessions := handler.NewSessionHandler(cfg, logger, dirWatcher)
	defer sessions.Close()

	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		return fmt.Errorf("load web assets: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(logger, handler.Handlers{
		Sessions: sessions,
		Index:    handler.NewIndexHandler(cfg, logger),
		WS:       wsHandler,
	}, http.FS(webContent))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", zap.String("signal", sig.String()))
		_ = srv.Close()
	}()

	if cfg.Open {
		go openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
	}

	logger.Info("listening", zap.String("url", fmt.Sprintf("http://localhost:%d", cfg.Port)))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logger.Debug("failed to open browser", zap.Error(err))
	}
}
