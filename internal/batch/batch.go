// Package batch fans a processing function out over a set of source paths
// and gathers every outcome. A failing path never cancels the others: the
// batch settles all tasks, logs each failure and keeps the successes in
// input order.
package batch

import (
	"context"

	"github.com/vk/iconreg/internal/ctxlog"
	"github.com/vk/iconreg/internal/fragment"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the fan-out when the caller passes a non-positive
// worker count.
const DefaultWorkers = 8

// ProcessFunc compiles the file at path.
type ProcessFunc func(path string) (fragment.ProcessedIcon, error)

// Failure records one path that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Result is the settled outcome of one batch.
type Result struct {
	Icons    []fragment.ProcessedIcon
	Failures []Failure
}

type outcome struct {
	icon fragment.ProcessedIcon
	err  error
}

// Run processes every path concurrently and waits for all of them.
func Run(ctx context.Context, paths []string, process ProcessFunc, workers int) Result {
	logger := ctxlog.FromContext(ctx)
	if workers <= 0 {
		workers = DefaultWorkers
	}

	outcomes := make([]outcome, len(paths))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			icon, err := process(path)
			outcomes[i] = outcome{icon: icon, err: err}
			// Outcomes are reported per item, never through the group.
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for i, o := range outcomes {
		if o.err != nil {
			logger.Warn("Unable to process icon.", "path", paths[i], "error", o.err)
			res.Failures = append(res.Failures, Failure{Path: paths[i], Err: o.err})
			continue
		}
		res.Icons = append(res.Icons, o.icon)
	}

	logger.Debug("Icon batch settled.", "paths", len(paths), "processed", len(res.Icons), "failed", len(res.Failures))
	return res
}
