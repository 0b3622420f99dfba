// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"iter"
	"sync"
)

type streamItem struct {
	entry Entry
	err   error
}

// Stream is the single entry-stream the Crawl Engine produces. It exposes
// two consumer surfaces over one underlying channel: Next for a blocking
// pull loop, and All for a Go 1.23 range-over-func iterator, grounded on the
// teacher pack's DownloadCounterIterator pattern. Pick one surface per
// Stream; interleaving Next and All on the same Stream is undefined.
type Stream struct {
	ch     <-chan streamItem
	cancel context.CancelFunc

	doneMu sync.Mutex
	done   bool

	closeOnce sync.Once
}

func newStream(ch <-chan streamItem, cancel context.CancelFunc) *Stream {
	return &Stream{ch: ch, cancel: cancel}
}

// Next blocks until an entry is available, the stream ends, or ctx is done.
// ok is false when the stream has ended (err then holds the terminal error,
// or nil on a clean end) or when ctx is done first (err is ctx.Err()).
// End-of-stream is sticky: once Next has reported the stream's end, every
// subsequent call reports ok=false too. A done ctx does not end the stream.
func (s *Stream) Next(ctx context.Context) (entry Entry, err error, ok bool) {
	s.doneMu.Lock()
	done := s.done
	s.doneMu.Unlock()
	if done {
		return nil, nil, false
	}

	select {
	case item, chOK := <-s.ch:
		if !chOK {
			s.markDone()
			return nil, nil, false
		}
		if item.err != nil {
			s.markDone()
			return nil, item.err, false
		}
		return item.entry, nil, true
	case <-ctx.Done():
		return nil, ctx.Err(), false
	}
}

func (s *Stream) markDone() {
	s.doneMu.Lock()
	s.done = true
	s.doneMu.Unlock()
}

// All adapts the stream to a cooperative, range-over-func consumer:
//
//	for entry, err := range stream.All() {
//	    if err != nil { ... ; break }
//	}
//
// Breaking out of the range loop closes the stream, cancelling any in-flight
// listings feeding it.
func (s *Stream) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for {
			entry, err, ok := s.Next(context.Background())
			if !ok {
				if err != nil {
					yield(nil, err)
				}
				return
			}
			if !yield(entry, nil) {
				s.Close()
				return
			}
		}
	}
}

// Close cancels every in-flight listing feeding this stream. It is safe to
// call more than once and safe to call after the stream has already ended.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// FileStream is Stream filtered down to FileEntry values; directories are
// consumed internally and never surfaced.
type FileStream struct {
	s *Stream
}

// Next behaves like Stream.Next but skips DirEntry values transparently.
func (fs *FileStream) Next(ctx context.Context) (FileEntry, error, bool) {
	for {
		e, err, ok := fs.s.Next(ctx)
		if !ok {
			return FileEntry{}, err, false
		}
		if fe, isFile := e.(FileEntry); isFile {
			return fe, nil, true
		}
	}
}

// All behaves like Stream.All but yields only FileEntry values.
func (fs *FileStream) All() iter.Seq2[FileEntry, error] {
	return func(yield func(FileEntry, error) bool) {
		for entry, err := range fs.s.All() {
			if err != nil {
				yield(FileEntry{}, err)
				return
			}
			fe, isFile := entry.(FileEntry)
			if !isFile {
				continue
			}
			if !yield(fe, nil) {
				fs.s.Close()
				return
			}
		}
	}
}

// Close cancels every in-flight listing feeding this stream.
func (fs *FileStream) Close() { fs.s.Close() }
