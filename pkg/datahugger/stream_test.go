// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStream(items ...streamItem) (*Stream, context.CancelFunc) {
	_, cancel := context.WithCancel(context.Background())
	ch := make(chan streamItem, len(items))
	for _, it := range items {
		ch <- it
	}
	close(ch)
	return newStream(ch, cancel), cancel
}

func TestStream_Next_DrainsThenEnds(t *testing.T) {
	fe1, _ := NewFileEntry("a.txt", "https://x", "https://x/a.txt", nil, nil)
	fe2, _ := NewFileEntry("b.txt", "https://x", "https://x/b.txt", nil, nil)
	s, cancel := newTestStream(streamItem{entry: fe1}, streamItem{entry: fe2})
	defer cancel()

	e1, err, ok := s.Next(context.Background())
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, fe1, e1)

	e2, err, ok := s.Next(context.Background())
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, fe2, e2)

	_, err, ok = s.Next(context.Background())
	require.False(t, ok)
	require.NoError(t, err)

	// End-of-stream is sticky.
	_, err, ok = s.Next(context.Background())
	require.False(t, ok)
	require.NoError(t, err)
}

func TestStream_Next_PropagatesError(t *testing.T) {
	sentinel := errors.New("listing failed")
	s, cancel := newTestStream(streamItem{err: sentinel})
	defer cancel()

	_, err, ok := s.Next(context.Background())
	require.False(t, ok)
	require.ErrorIs(t, err, sentinel)
}

func TestStream_Next_ContextCancelled(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	ch := make(chan streamItem)
	s := newStream(ch, func() {})
	cancelCtx()

	_, err, ok := s.Next(ctx)
	require.False(t, ok)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStream_All_YieldsEveryEntry(t *testing.T) {
	fe1, _ := NewFileEntry("a.txt", "https://x", "https://x/a.txt", nil, nil)
	fe2, _ := NewFileEntry("b.txt", "https://x", "https://x/b.txt", nil, nil)
	s, cancel := newTestStream(streamItem{entry: fe1}, streamItem{entry: fe2})
	defer cancel()

	var got []Entry
	for e, err := range s.All() {
		require.NoError(t, err)
		got = append(got, e)
	}
	require.Equal(t, []Entry{fe1, fe2}, got)
}

func TestStream_All_StopsOnBreak(t *testing.T) {
	fe1, _ := NewFileEntry("a.txt", "https://x", "https://x/a.txt", nil, nil)
	fe2, _ := NewFileEntry("b.txt", "https://x", "https://x/b.txt", nil, nil)
	s, cancel := newTestStream(streamItem{entry: fe1}, streamItem{entry: fe2})
	defer cancel()

	count := 0
	for range s.All() {
		count++
		break
	}
	require.Equal(t, 1, count)
}

func TestFileStream_SkipsDirEntries(t *testing.T) {
	de, _ := NewDirEntry("dir", "https://x", "https://x/dir", nil)
	fe, _ := NewFileEntry("dir/a.txt", "https://x", "https://x/a.txt", nil, nil)
	s, cancel := newTestStream(streamItem{entry: de}, streamItem{entry: fe})
	defer cancel()

	fs := &FileStream{s: s}
	got, err, ok := fs.Next(context.Background())
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, fe, got)

	_, _, ok = fs.Next(context.Background())
	require.False(t, ok)
}

func TestStream_Close_IsIdempotent(t *testing.T) {
	s, _ := newTestStream()
	s.Close()
	s.Close()
}
