// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_Get_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := NewClient()
	resp, err := c.Get(context.Background(), srv.URL, map[string]string{"Authorization": "Bearer tok"})
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_Get_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer srv.Close()

	c := NewClient()
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindHTTP, derr.Kind)
	require.Equal(t, http.StatusNotFound, derr.Status)
	require.False(t, derr.Retryable())
}

func TestClient_Get_RetryableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient()
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.True(t, IsRetryable(err))
}

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"key": "value"})
	}))
	defer srv.Close()

	c := NewClient()
	var out map[string]string
	err := c.GetJSON(context.Background(), srv.URL, nil, &out)
	require.NoError(t, err)
	require.Equal(t, "value", out["key"])
}

func TestClient_GetJSON_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient()
	var out map[string]string
	err := c.GetJSON(context.Background(), srv.URL, nil, &out)
	require.Error(t, err)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindParse, derr.Kind)
}

func TestClient_Head_NoRedirectFollowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://example.org/target")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	c := NewClient()
	resp, err := c.Head(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "https://example.org/target", resp.Header.Get("Location"))
}
