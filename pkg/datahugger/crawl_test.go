// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// treeBackend serves a fixed, in-memory directory tree keyed by CrawlPath,
// letting crawl_test exercise recursion without any network I/O.
type treeBackend struct {
	children map[CrawlPath][]Entry
	fail     map[CrawlPath]error
}

func (b *treeBackend) InitialListing(id string) DirHandle {
	return DirHandle{Path: "", Root: "https://tree.example", APIURL: id}
}

func (b *treeBackend) List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error) {
	if err, ok := b.fail[dir.Path]; ok {
		return nil, err
	}
	return b.children[dir.Path], nil
}

func (b *treeBackend) DeriveRootURL(id string) string { return "https://tree.example" }

func mustFile(t *testing.T, path CrawlPath) FileEntry {
	t.Helper()
	fe, err := NewFileEntry(path, "https://tree.example", "https://tree.example/"+string(path), nil, nil)
	require.NoError(t, err)
	return fe
}

func mustDir(t *testing.T, path CrawlPath) DirEntry {
	t.Helper()
	de, err := NewDirEntry(path, "https://tree.example", "https://tree.example/"+string(path), nil)
	require.NoError(t, err)
	return de
}

func collectPaths(t *testing.T, s *Stream) []string {
	t.Helper()
	var out []string
	for e, err := range s.All() {
		require.NoError(t, err)
		out = append(out, string(e.PathCrawlRel()))
	}
	sort.Strings(out)
	return out
}

func TestCrawl_RecursesIntoDirectories(t *testing.T) {
	sub := mustDir(t, "sub")
	backend := &treeBackend{
		children: map[CrawlPath][]Entry{
			"":    {mustFile(t, "top.txt"), sub},
			"sub": {mustFile(t, "sub/nested.txt")},
		},
	}

	s := crawl(context.Background(), NewClient(), backend, backend.InitialListing(""), Settings{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer s.Close()

	got := collectPaths(t, s)
	require.Equal(t, []string{"sub", "sub/nested.txt", "top.txt"}, got)
}

func TestCrawl_DuplicatePathLastWins(t *testing.T) {
	first := mustFile(t, "dup.txt")
	second, err := NewFileEntry("dup.txt", "https://tree.example", "https://tree.example/dup2.txt", nil, nil)
	require.NoError(t, err)

	backend := &treeBackend{
		children: map[CrawlPath][]Entry{
			"": {first, second},
		},
	}

	s := crawl(context.Background(), NewClient(), backend, backend.InitialListing(""), Settings{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer s.Close()

	var got []Entry
	for e, err := range s.All() {
		require.NoError(t, err)
		got = append(got, e)
	}
	require.Len(t, got, 1)
	fe := got[0].(FileEntry)
	require.Equal(t, "https://tree.example/dup2.txt", fe.DownloadURL)
}

func TestCrawl_PropagatesListError(t *testing.T) {
	sentinel := errors.New("listing exploded")
	backend := &treeBackend{
		fail: map[CrawlPath]error{"": sentinel},
	}

	s := crawl(context.Background(), NewClient(), backend, backend.InitialListing(""), Settings{
		Retries: 0,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer s.Close()

	_, err, ok := s.Next(context.Background())
	require.False(t, ok)
	require.ErrorIs(t, err, sentinel)
}

func TestCrawl_EmptyDataset(t *testing.T) {
	backend := &treeBackend{children: map[CrawlPath][]Entry{"": nil}}

	s := crawl(context.Background(), NewClient(), backend, backend.InitialListing(""), Settings{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer s.Close()

	_, _, ok := s.Next(context.Background())
	require.False(t, ok)
}
