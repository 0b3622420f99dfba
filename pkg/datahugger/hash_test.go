// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPipe_SingleAlgorithm(t *testing.T) {
	content := []byte("the quick brown fox jumps over the lazy dog")
	hp := newHashPipe(bytes.NewReader(content), []string{"sha256"})

	_, err := io.Copy(io.Discard, hp)
	require.NoError(t, err)

	want := sha256.Sum256(content)
	digests := hp.Finalize()
	require.Equal(t, hex.EncodeToString(want[:]), digests["sha256"])
}

func TestHashPipe_MultipleAlgorithms(t *testing.T) {
	content := []byte("datahugger fixture content")
	hp := newHashPipe(bytes.NewReader(content), []string{"md5", "sha256", "sha256"})

	_, err := io.Copy(io.Discard, hp)
	require.NoError(t, err)

	digests := hp.Finalize()
	require.Len(t, digests, 2, "duplicate algorithm names must be deduplicated")

	wantMD5 := md5.Sum(content)
	wantSHA256 := sha256.Sum256(content)
	require.Equal(t, hex.EncodeToString(wantMD5[:]), digests["md5"])
	require.Equal(t, hex.EncodeToString(wantSHA256[:]), digests["sha256"])
}

func TestHashPipe_UnknownAlgorithmSkipped(t *testing.T) {
	hp := newHashPipe(bytes.NewReader([]byte("x")), []string{"blake3", "md5"})
	_, err := io.Copy(io.Discard, hp)
	require.NoError(t, err)

	digests := hp.Finalize()
	_, hasBlake3 := digests["blake3"]
	require.False(t, hasBlake3)
	require.Contains(t, digests, "md5")
}

func TestHashPipe_NoAlgorithmsDiscardsSilently(t *testing.T) {
	hp := newHashPipe(bytes.NewReader([]byte("irrelevant")), nil)
	n, err := io.Copy(io.Discard, hp)
	require.NoError(t, err)
	require.Equal(t, int64(10), n)
	require.Empty(t, hp.Finalize())
}

func TestHashPipe_PassesThroughWriterContent(t *testing.T) {
	content := []byte("pipe this through untouched")
	hp := newHashPipe(bytes.NewReader(content), []string{"crc32"})

	var out bytes.Buffer
	_, err := io.Copy(&out, hp)
	require.NoError(t, err)
	require.Equal(t, content, out.Bytes())
}
