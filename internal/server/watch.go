package server

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/stepgraph/stepgraph/pkg/cache"
	"github.com/stepgraph/stepgraph/pkg/observability"
)

// watchInput starts a background goroutine that reloads the input graph
// whenever the file changes. Call the returned stop function to clean up.
//
// Editors and CI pipelines often write files in multiple syscalls, so a
// write event can catch the file half-written. Reloads run through the
// retry helper and treat every failure as retryable; if all attempts fail
// the server keeps serving the previous layout.
func (s *Server) watchInput(ctx context.Context) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(s.cfg.Input); err != nil {
		w.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				err := cache.RetryWithBackoff(ctx, func() error {
					return cache.Retryable(s.loadGraphFile(ctx, s.cfg.Input))
				})
				observability.Server().OnGraphReload(ctx, s.cfg.Input, err)
				if err != nil {
					s.logger.Error("graph reload failed", "path", s.cfg.Input, "err", err)
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("watcher error", "err", werr)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	s.logger.Info("watching for changes", "path", s.cfg.Input)
	return func() { close(done) }, nil
}
