package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/iconreg/internal/ctxlog"
	"github.com/vk/iconreg/internal/icons"
	"github.com/vk/iconreg/internal/livereload"
)

// healthHandler reports that the dev server is up.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// artifactHandler serves the current contents of the generated file.
func (a *App) artifactHandler(w http.ResponseWriter, r *http.Request) {
	dst, ok := a.registry.ResolveAlias(icons.Alias)
	if !ok {
		http.Error(w, "icon module disabled", http.StatusNotFound)
		return
	}

	ctx := ctxlog.WithLogger(r.Context(), a.logger)
	contents, err := a.registry.Contents(ctx, dst)
	if err != nil {
		a.logger.Error("Unable to render artifact.", "dst", dst, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/x-go; charset=utf-8")
	fmt.Fprint(w, contents)
}

// startDevServer binds the configured port and serves health, artifact and
// live reload endpoints in the background.
func (a *App) startDevServer(ctx context.Context, hub *livereload.Hub) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring dev server.")

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/artifact", a.artifactHandler)
	mux.Handle(livereload.Path, hub.Handler())

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.model.Dev.Port))
	if err != nil {
		return fmt.Errorf("dev server: %w", err)
	}
	a.addr = ln.Addr().String()
	a.httpServer = &http.Server{Handler: mux}

	go func() {
		logger.Info("🩺 Dev server starting", "address", fmt.Sprintf("http://%s", a.addr))
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Dev server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeDevServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Closing dev server...")

	if a.httpServer == nil {
		logger.Debug("Dev server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down dev server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Dev server shutdown failed", "error", err)
		return err
	}

	logger.Debug("Dev server shut down gracefully.")
	return nil
}

// Addr returns the dev server's listen address once Ready is closed.
func (a *App) Addr() string {
	return a.addr
}

// Ready is closed when Dev has generated the registry and is serving.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}
