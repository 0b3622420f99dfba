// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"
)

const defaultDownloadConcurrency = 4

// ProgressEvent reports one step of DownloadWithValidation.
type ProgressEvent struct {
	Event   string // "file_start", "file_progress", "file_done", "retry", "error", "done"
	Path    string
	Bytes   int64
	Total   int64
	Message string
}

// downloadWithValidation implements the Download Engine: it drives the
// Crawl Engine, fans file entries out to a bounded worker pool, and streams
// each file through the Hashing Pipe directly into a ".part" sibling that is
// renamed into place only once size and checksum both verify.
func downloadWithValidation(ctx context.Context, c *Client, backend Backend, root DirHandle, settings Settings, dstDir string, limit int) error {
	fs := settings.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := settings.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := limit
	if concurrency <= 0 {
		concurrency = settings.Concurrency
	}
	if concurrency <= 0 {
		concurrency = defaultDownloadConcurrency
	}
	policy := defaultRetryPolicy()
	if settings.Retries > 0 {
		policy.maxAttempts = settings.Retries
	}
	emit := func(ev ProgressEvent) {
		if settings.Progress != nil {
			settings.Progress(ev)
		}
	}

	if err := fs.MkdirAll(dstDir, 0o755); err != nil {
		return newError(KindIO, "create destination directory", err)
	}

	stream := crawl(ctx, c, backend, root, settings)
	defer stream.Close()

	sem := semaphore.NewWeighted(int64(concurrency))

	var wg sync.WaitGroup
	var firstErrOnce sync.Once
	var firstErr error
	fail := func(err error) {
		if err == nil {
			return
		}
		firstErrOnce.Do(func() { firstErr = err })
		stream.Close()
	}

dispatch:
	for {
		entry, err, ok := stream.Next(ctx)
		if !ok {
			if err != nil && !errors.Is(err, context.Canceled) {
				fail(err)
			}
			break
		}
		fe, isFile := entry.(FileEntry)
		if !isFile {
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			break dispatch
		}

		wg.Add(1)
		go func(fe FileEntry) {
			defer wg.Done()
			defer sem.Release(1)
			if derr := downloadOneFile(ctx, c, fs, dstDir, fe, settings, policy, emit, logger); derr != nil {
				fail(derr)
			}
		}(fe)
	}

	wg.Wait()

	if firstErr != nil {
		var result error = firstErr
		if cerr := cleanupPartials(fs, dstDir); cerr != nil {
			result = multierror.Append(new(multierror.Error), firstErr, cerr).ErrorOrNil()
		}
		emit(ProgressEvent{Event: "error", Message: firstErr.Error()})
		return result
	}

	emit(ProgressEvent{Event: "done"})
	return nil
}

func downloadOneFile(ctx context.Context, c *Client, fs afero.Fs, dstDir string, fe FileEntry, settings Settings, policy retryPolicy, emit func(ProgressEvent), logger *slog.Logger) error {
	rel := filepath.FromSlash(string(fe.Path))
	target := filepath.Join(dstDir, rel)

	absDst, err := filepath.Abs(dstDir)
	if err != nil {
		return newError(KindIO, "resolve destination directory", err)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return newError(KindIO, "resolve target path", err)
	}
	if !pathWithin(absDst, absTarget) {
		return SecurityError(fmt.Sprintf("path %q escapes destination directory", fe.Path))
	}

	if skip, serr := shouldSkip(fs, target, fe, settings); serr != nil {
		return serr
	} else if skip {
		emit(ProgressEvent{Event: "file_done", Path: string(fe.Path), Message: "skip (already present)"})
		return nil
	}

	if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return newError(KindIO, "create parent directory", err)
	}

	emit(ProgressEvent{Event: "file_start", Path: string(fe.Path), Total: sizeOrZero(fe.Size)})

	tmp := target + ".part"
	algorithms := checksumAlgorithms(fe.Checksums)

	var digests map[string]string
	var gotSize int64
	var lastErr error
	for attempt := 0; attempt <= policy.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		digests, gotSize, lastErr = streamFileOnce(ctx, c, fs, tmp, fe, algorithms, emit)
		if lastErr == nil {
			break
		}
		_ = fs.Remove(tmp)
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == policy.maxAttempts {
			return lastErr
		}
		emit(ProgressEvent{Event: "retry", Path: string(fe.Path), Message: lastErr.Error()})
		logger.Warn("download: retrying file", "path", fe.Path, "attempt", attempt+1, "error", lastErr)
		if serr := sleepCtx(ctx, policy.delay(attempt)); serr != nil {
			return serr
		}
	}

	if err := verifyDownload(fe, digests, gotSize); err != nil {
		_ = fs.Remove(tmp)
		return err
	}

	if err := fs.Rename(tmp, target); err != nil {
		return newError(KindIO, "rename temp file to final path", err)
	}
	emit(ProgressEvent{Event: "file_done", Path: string(fe.Path)})
	return nil
}

// streamFileOnce issues the GET and pipes the body through the Hashing Pipe
// directly into tmp. A failed attempt leaves no reusable state: single-pass
// hashing means a partial download cannot be resumed, only restarted.
func streamFileOnce(ctx context.Context, c *Client, fs afero.Fs, tmp string, fe FileEntry, algorithms []string, emit func(ProgressEvent)) (map[string]string, int64, error) {
	resp, err := c.Get(ctx, fe.DownloadURL, fe.Headers)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	out, err := fs.Create(tmp)
	if err != nil {
		return nil, 0, newError(KindIO, "create temp file", err)
	}
	defer out.Close()

	hp := newHashPipe(resp.Body, algorithms)
	pr := newProgressReader(hp, sizeOrZero(fe.Size), string(fe.Path), emit)

	written, err := io.Copy(out, pr)
	if err != nil {
		return nil, written, classifyCopyError(err)
	}
	if err := out.Close(); err != nil {
		return nil, written, newError(KindIO, "close temp file", err)
	}
	return hp.Finalize(), written, nil
}

func checksumAlgorithms(checksums []Checksum) []string {
	out := make([]string, 0, len(checksums))
	for _, cs := range checksums {
		out = append(out, cs.Algorithm)
	}
	return out
}

func verifyDownload(fe FileEntry, digests map[string]string, gotSize int64) error {
	if fe.Size != nil && gotSize != *fe.Size {
		return newError(KindIO, fmt.Sprintf("size mismatch for %s: expected %d, got %d", fe.Path, *fe.Size, gotSize), nil)
	}
	for _, cs := range fe.Checksums {
		actual, ok := digests[cs.Algorithm]
		if !ok {
			continue
		}
		if !strings.EqualFold(actual, cs.Hex) {
			return ChecksumMismatchError(string(fe.Path), cs.Algorithm, cs.Hex, actual)
		}
	}
	return nil
}

// shouldSkip implements the Download Engine's idempotence check: a file
// already at target whose size matches fe.Size is considered downloaded
// unless settings.VerifyOnSizeMatch demands a checksum recheck too. A file
// of unknown size (fe.Size == nil) is never trusted from a prior run.
func shouldSkip(fs afero.Fs, target string, fe FileEntry, settings Settings) (bool, error) {
	info, err := fs.Stat(target)
	if err != nil {
		return false, nil
	}
	if fe.Size == nil || info.Size() != *fe.Size {
		return false, nil
	}
	if !settings.VerifyOnSizeMatch || len(fe.Checksums) == 0 {
		return true, nil
	}

	f, err := fs.Open(target)
	if err != nil {
		return false, nil
	}
	defer f.Close()

	hp := newHashPipe(f, checksumAlgorithms(fe.Checksums))
	if _, err := io.Copy(io.Discard, hp); err != nil {
		return false, nil
	}
	if err := verifyDownload(fe, hp.Finalize(), info.Size()); err != nil {
		return false, nil
	}
	return true, nil
}

func pathWithin(base, target string) bool {
	base = filepath.Clean(base)
	target = filepath.Clean(target)
	if target == base {
		return true
	}
	return strings.HasPrefix(target, base+string(filepath.Separator))
}

// cleanupPartials removes every ".part" file left under dstDir after a
// download run has failed, aggregating per-file removal errors.
func cleanupPartials(fs afero.Fs, dstDir string) error {
	var errs *multierror.Error
	_ = afero.Walk(fs, dstDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".part") {
			if rerr := fs.Remove(path); rerr != nil {
				errs = multierror.Append(errs, rerr)
			}
		}
		return nil
	})
	return errs.ErrorOrNil()
}

func classifyCopyError(err error) error {
	var derr *Error
	if errors.As(err, &derr) {
		return derr
	}
	return NetworkError(true, "response body read failed", err)
}

type progressReader struct {
	r          io.Reader
	total      int64
	downloaded int64
	path       string
	emit       func(ProgressEvent)
	lastEmit   time.Time
	interval   time.Duration
}

func newProgressReader(r io.Reader, total int64, path string, emit func(ProgressEvent)) *progressReader {
	return &progressReader{r: r, total: total, path: path, emit: emit, lastEmit: time.Now(), interval: 200 * time.Millisecond}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		if pr.emit != nil && (time.Since(pr.lastEmit) >= pr.interval || errors.Is(err, io.EOF)) {
			pr.emit(ProgressEvent{Event: "file_progress", Path: pr.path, Bytes: pr.downloaded, Total: pr.total})
			pr.lastEmit = time.Now()
		}
	}
	return n, err
}
