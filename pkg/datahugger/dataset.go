// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"log/slog"

	"github.com/spf13/afero"
)

// Settings tunes a Dataset's Crawl and Download Engines. The zero value is
// usable: every field falls back to a documented default.
type Settings struct {
	// Concurrency bounds in-flight List calls during a crawl and in-flight
	// file downloads during DownloadWithValidation (when its own limit
	// argument is 0). Defaults to 8 for crawling, 4 for downloading.
	Concurrency int

	// Retries is the number of retry attempts (beyond the first try) for a
	// retryable error. Defaults to 3.
	Retries int

	// FS is the filesystem DownloadWithValidation writes to. Defaults to
	// the real OS filesystem; tests inject afero.NewMemMapFs().
	FS afero.Fs

	// Logger receives crawl/download diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Progress, if non-nil, receives a ProgressEvent for every significant
	// step of DownloadWithValidation.
	Progress func(ProgressEvent)

	// VerifyOnSizeMatch controls the idempotence check the Download Engine
	// runs on a file that already exists at the destination. When false
	// (the default), a size match alone is treated as "already downloaded"
	// and the checksum is not recomputed. When true, a size match is
	// re-verified against every checksum the backend advertised before the
	// file is skipped.
	VerifyOnSizeMatch bool
}

// Dataset is a resolved handle on one repository record: a Backend plus the
// platform-specific id and root URL Resolve derived for it.
type Dataset struct {
	backend  Backend
	id       string
	rootURL  string
	client   *Client
	settings Settings
}

// RootURL returns the dataset's canonical root URL.
func (d *Dataset) RootURL() string { return d.rootURL }

// ID returns the platform-specific identifier Resolve extracted from the
// dataset's URL.
func (d *Dataset) ID() string { return d.id }

// WithSettings returns a copy of d configured with s. The receiver is left
// unmodified.
func (d *Dataset) WithSettings(s Settings) *Dataset {
	cp := *d
	cp.settings = s
	return &cp
}

// Crawl streams every Entry (directories and files) reachable from the
// dataset root.
func (d *Dataset) Crawl(ctx context.Context) *Stream {
	root := d.backend.InitialListing(d.id)
	return crawl(ctx, d.client, d.backend, root, d.settings)
}

// CrawlFiles streams only the FileEntry values reachable from the dataset
// root, skipping directories transparently.
func (d *Dataset) CrawlFiles(ctx context.Context) *FileStream {
	return &FileStream{s: d.Crawl(ctx)}
}

// DownloadWithValidation crawls the dataset and downloads every file under
// dstDir, verifying size and checksum as each file completes. limit bounds
// concurrent downloads; 0 uses d.settings.Concurrency, itself defaulting to
// 4. It returns the first terminal error encountered, after every in-flight
// download has finished and any leftover ".part" files have been removed.
func (d *Dataset) DownloadWithValidation(ctx context.Context, dstDir string, limit int) error {
	root := d.backend.InitialListing(d.id)
	return downloadWithValidation(ctx, d.client, d.backend, root, d.settings, dstDir, limit)
}
