// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Retryable(t *testing.T) {
	testCases := []struct {
		name string
		err  *Error
		want bool
	}{
		{name: "network transient", err: NetworkError(true, "reset", nil), want: true},
		{name: "network fatal", err: NetworkError(false, "dns failure", nil), want: false},
		{name: "timeout", err: newError(KindTimeout, "timed out", nil), want: true},
		{name: "http 429", err: HTTPError(429, "", nil), want: true},
		{name: "http 500", err: HTTPError(500, "", nil), want: true},
		{name: "http 404", err: HTTPError(404, "", nil), want: false},
		{name: "checksum mismatch", err: ChecksumMismatchError("f", "md5", "a", "b"), want: false},
		{name: "security", err: SecurityError("escape"), want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.err.Retryable())
			require.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

func TestIsRetryable_NonDataHuggerError(t *testing.T) {
	require.False(t, IsRetryable(errors.New("plain error")))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := newError(KindIO, "write failed", cause)
	require.ErrorIs(t, err, cause)
}

func TestError_MessageFormatting(t *testing.T) {
	withCause := newError(KindIO, "write failed", errors.New("disk full"))
	require.Contains(t, withCause.Error(), "write failed")
	require.Contains(t, withCause.Error(), "disk full")

	noCause := SecurityError("path escapes destination")
	require.Contains(t, noCause.Error(), "path escapes destination")
}

func TestErrorKind_String(t *testing.T) {
	require.Equal(t, "http", KindHTTP.String())
	require.Equal(t, "checksum_mismatch", KindChecksumMismatch.String())
	require.Equal(t, "unknown", ErrorKind(99).String())
}
