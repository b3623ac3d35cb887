package watch

import (
	"context"
	"sort"
	"time"

	"github.com/vk/iconreg/internal/ctxlog"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// Hooker runs named lifecycle hooks. *registry.Registry satisfies it.
type Hooker interface {
	CallHook(ctx context.Context, name string, args ...any) error
}

// Controller feeds changed paths from a Source into a hook.
type Controller struct {
	source   Source
	hooks    Hooker
	hook     string
	debounce time.Duration
}

// NewController fires hook on hooks with the distinct changed paths of
// every burst of events separated by at least debounce.
func NewController(source Source, hooks Hooker, hook string, debounce time.Duration) *Controller {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Controller{source: source, hooks: hooks, hook: hook, debounce: debounce}
}

// Run processes events until ctx is cancelled or the source is closed.
// Pending paths are flushed before returning when the source closes.
func (c *Controller) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	pending := make(map[string]struct{})
	timer := time.NewTimer(c.debounce)
	timer.Stop()
	defer timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		clear(pending)

		args := make([]any, len(paths))
		for i, p := range paths {
			args[i] = p
		}
		logger.Debug("Dispatching file changes.", "hook", c.hook, "paths", len(paths))
		if err := c.hooks.CallHook(ctx, c.hook, args...); err != nil {
			logger.Error("Watch hook failed.", "hook", c.hook, "error", err)
		}
	}

	errs := c.source.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-c.source.Events():
			if !ok {
				flush()
				return nil
			}
			pending[ev.Path] = struct{}{}
			timer.Reset(c.debounce)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("File watcher error.", "error", err)
		case <-timer.C:
			flush()
		}
	}
}
