package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/iconreg/internal/ctxlog"
	"github.com/vk/iconreg/internal/icons"
	"github.com/vk/iconreg/internal/livereload"
	"github.com/vk/iconreg/internal/watch"
)

// Build generates every registered template once and writes it to disk.
// Per-file problems are logged as warnings and never fail the build.
func (a *App) Build(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Build method started.")

	if !a.icons.Enabled() {
		a.logger.Warn("Icon module disabled, nothing to generate.")
		return nil
	}

	if err := a.registry.WriteTemplates(ctx); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	stats := a.icons.Stats()
	a.logger.Info("🏁 Build finished.",
		"dst", a.icons.Destination(),
		"entries", stats.Entries,
		"failures", stats.Failures,
		"state", a.icons.State().String(),
	)
	return nil
}

// Dev builds once, then serves the dev endpoints and regenerates on source
// changes until ctx is cancelled.
func (a *App) Dev(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Dev method started.")

	if err := a.Build(ctx); err != nil {
		return err
	}

	hub := livereload.NewHub(ctx)
	defer hub.Close()
	a.registry.OnUpdate(func(ctx context.Context, dst, contents string) {
		hub.Broadcast(ctx, livereload.Update{Dst: dst, Bytes: len(contents)})
	})

	if err := a.startDevServer(ctx, hub); err != nil {
		return err
	}
	defer func() { _ = a.closeDevServer(ctx) }()

	if !a.icons.Enabled() {
		close(a.ready)
		<-ctx.Done()
		return nil
	}

	src, err := watch.NewFSSource(a.resolver.Root(), a.registry.BuildDir())
	if err != nil {
		return fmt.Errorf("watch %s: %w", a.resolver.Root(), err)
	}
	defer src.Close()

	if srcDir := filepath.Clean(a.icons.SourceDir()); !src.Covers(srcDir) {
		if err := src.AddRoot(srcDir); err != nil {
			return fmt.Errorf("watch %s: %w", srcDir, err)
		}
		a.logger.Info("Icons directory is outside the project root, watching it separately.", "src", srcDir)
		if _, err := os.Stat(srcDir); err != nil {
			a.logger.Warn("Icons directory outside the project root does not exist, restart once it is created.", "src", srcDir)
		}
	}

	a.logger.Info("🚀 Watching for icon changes...", "prefix", a.icons.WatchPrefix(), "debounce", a.model.Dev.Debounce)
	close(a.ready)

	controller := watch.NewController(src, a.registry, icons.WatchHook, a.model.Dev.Debounce)
	if err := controller.Run(ctx); err != nil {
		return err
	}
	a.logger.Debug("App.Dev method finished.")
	return nil
}
