// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCrawlPath_Join(t *testing.T) {
	testCases := []struct {
		name    string
		base    CrawlPath
		add     string
		want    CrawlPath
		wantErr bool
	}{
		{name: "root join simple name", base: "", add: "file.txt", want: "file.txt"},
		{name: "nested join", base: "a/b", add: "c.txt", want: "a/b/c.txt"},
		{name: "trims surrounding slashes", base: "a", add: "/b/", want: "a/b"},
		{name: "rejects empty component", base: "a", add: "", wantErr: true},
		{name: "rejects dot-dot", base: "a", add: "../escape", wantErr: true},
		{name: "rejects embedded empty segment", base: "a", add: "b//c", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.base.Join(tc.add)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCrawlPath_IsRoot(t *testing.T) {
	require.True(t, CrawlPath("").IsRoot())
	require.False(t, CrawlPath("a").IsRoot())
}

func TestValidateCrawlPath(t *testing.T) {
	require.NoError(t, validateCrawlPath(""))
	require.NoError(t, validateCrawlPath("a/b/c"))
	require.ErrorIs(t, validateCrawlPath("/a"), ErrInvalidPath)
	require.ErrorIs(t, validateCrawlPath("a/"), ErrInvalidPath)
	require.ErrorIs(t, validateCrawlPath("a//b"), ErrInvalidPath)
	require.ErrorIs(t, validateCrawlPath("a/../b"), ErrInvalidPath)
}

func TestNewChecksum(t *testing.T) {
	t.Run("normalizes algorithm name", func(t *testing.T) {
		hex64 := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
		cs, err := NewChecksum("SHA-256", hex64)
		require.NoError(t, err)
		require.Equal(t, "sha256", cs.Algorithm)
	})

	t.Run("lowercases hex", func(t *testing.T) {
		cs, err := NewChecksum("md5", "ABCDEF0123456789ABCDEF0123456789")
		require.NoError(t, err)
		require.Equal(t, "abcdef0123456789abcdef0123456789", cs.Hex)
	})

	t.Run("rejects unsupported algorithm", func(t *testing.T) {
		_, err := NewChecksum("blake3", "00")
		require.ErrorIs(t, err, ErrInvalidChecksum)
	})

	t.Run("rejects wrong-length hex", func(t *testing.T) {
		_, err := NewChecksum("sha1", "abc")
		require.ErrorIs(t, err, ErrInvalidChecksum)
	})
}

func TestNewDirEntry_ValidatesPath(t *testing.T) {
	_, err := NewDirEntry("/bad", "https://example.org", "https://api.example.org", nil)
	require.True(t, errors.Is(err, ErrInvalidPath))

	de, err := NewDirEntry("a/b", "https://example.org", "https://api.example.org", "token")
	require.NoError(t, err)
	require.Equal(t, CrawlPath("a/b"), de.PathCrawlRel())
	require.Equal(t, "https://example.org", de.RootURL())
}

func TestNewFileEntry_ValidatesPath(t *testing.T) {
	size := int64(42)
	_, err := NewFileEntry("a//b", "https://example.org", "https://example.org/f", &size, nil)
	require.True(t, errors.Is(err, ErrInvalidPath))

	fe, err := NewFileEntry("a/b.txt", "https://example.org", "https://example.org/f", &size, nil)
	require.NoError(t, err)
	require.Equal(t, int64(42), *fe.Size)
}

func TestEntry_Sealed(t *testing.T) {
	var _ Entry = DirEntry{}
	var _ Entry = FileEntry{}
}
