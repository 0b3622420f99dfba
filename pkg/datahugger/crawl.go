// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

const (
	defaultCrawlConcurrency = 8
	defaultStreamBuffer     = 64
)

// crawl implements the Crawl Engine: a bounded-concurrency, breadth-first
// traversal of a dataset's directory tree. The semaphore caps only the
// number of in-flight Backend.List calls; it is released as soon as a
// listing returns, before its entries are emitted. Backpressure on a full
// output channel is therefore bounded by defaultStreamBuffer, not by the
// concurrency limit: a listDir goroutine blocked on a full channel holds no
// semaphore slot, so new List calls keep dispatching until the channel
// itself drains.
func crawl(ctx context.Context, c *Client, backend Backend, root DirHandle, settings Settings) *Stream {
	concurrency := settings.Concurrency
	if concurrency <= 0 {
		concurrency = defaultCrawlConcurrency
	}
	logger := settings.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := defaultRetryPolicy()
	if settings.Retries > 0 {
		policy.maxAttempts = settings.Retries
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan streamItem, defaultStreamBuffer)
	sem := semaphore.NewWeighted(int64(concurrency))

	var wg sync.WaitGroup

	var listDir func(dir DirHandle)
	listDir = func(dir DirHandle) {
		defer wg.Done()

		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}

		var entries []Entry
		err := withRetry(ctx, policy, func(attempt int, rerr error) {
			logger.Warn("crawl: retrying directory listing", "dir", dir.Path, "attempt", attempt, "error", rerr)
		}, func() error {
			es, lerr := backend.List(ctx, c, dir)
			if lerr != nil {
				return lerr
			}
			entries = es
			return nil
		})
		sem.Release(1)

		if err != nil {
			select {
			case out <- streamItem{err: err}:
			case <-ctx.Done():
			}
			cancel()
			return
		}

		// A backend that returns colliding paths within one listing has the
		// later entry win; the collision is logged but does not fail the
		// crawl.
		byPath := make(map[CrawlPath]Entry, len(entries))
		order := make([]CrawlPath, 0, len(entries))
		for _, e := range entries {
			p := e.PathCrawlRel()
			if _, dup := byPath[p]; dup {
				logger.Warn("crawl: duplicate path in directory listing", "path", p)
			} else {
				order = append(order, p)
			}
			byPath[p] = e
		}

		for _, p := range order {
			e := byPath[p]
			select {
			case out <- streamItem{entry: e}:
			case <-ctx.Done():
				return
			}
			if sub, isDir := e.(DirEntry); isDir {
				wg.Add(1)
				go listDir(sub)
			}
		}
	}

	wg.Add(1)
	go listDir(root)

	go func() {
		wg.Wait()
		close(out)
		cancel()
	}()

	return newStream(out, cancel)
}
