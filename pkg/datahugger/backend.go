// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import "context"

// Backend implements the Backend Protocol for one repository platform. A
// Backend is stateless beyond whatever a single InitialListing/List round
// trip needs: any continuation state a List call produces travels on the
// DirEntry it returns, not inside the Backend value itself.
type Backend interface {
	// InitialListing returns the DirHandle for the dataset root given the
	// platform-specific id DeriveRootURL also consumes (a DOI, an
	// owner/repo pair's resolved ref, a numeric record id).
	InitialListing(id string) DirHandle

	// List fetches one directory's children. It may issue more than one
	// HTTP request (pagination, a two-hop lookup) but must not recurse
	// into child directories itself — that is the Crawl Engine's job.
	List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error)

	// DeriveRootURL returns the dataset's canonical root URL for id. It is
	// copied onto every Entry the dataset produces and must not perform
	// network I/O.
	DeriveRootURL(id string) string
}

// FileHeaderer is implemented by backends whose file downloads require
// per-request authentication headers that FileEntry.Headers alone cannot
// express statically (e.g. a token read from the environment at crawl time
// that must be refreshed per download rather than cached on the entry).
// None of the nine backends in this package need it today; it documents the
// capability for a future backend whose auth token can expire mid-crawl.
type FileHeaderer interface {
	FileHeaders(ctx context.Context, c *Client, fileURL string) (map[string]string, error)
}
