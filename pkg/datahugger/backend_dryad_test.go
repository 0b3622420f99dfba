// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDryadFactory_MatchesStashDatasetPath(t *testing.T) {
	u, err := url.Parse("https://datadryad.org/stash/dataset/doi:10.5061/dryad.abc123")
	require.NoError(t, err)
	backend, id, ok := lookupFactory(t, "dryad", u)
	require.True(t, ok)
	require.Equal(t, "doi:10.5061/dryad.abc123", id)
	require.IsType(t, dryadBackend{}, backend)
}

func TestDryadFactory_RejectsOtherHosts(t *testing.T) {
	u, err := url.Parse("https://example.org/stash/dataset/doi:1")
	require.NoError(t, err)
	_, _, ok := lookupFactory(t, "dryad", u)
	require.False(t, ok)
}

func TestDryadBackend_List_MissingVersionLinkFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"_links":{}}`))
	}))
	defer srv.Close()

	b := dryadBackend{}
	dir := DirHandle{Path: "", Root: srv.URL, APIURL: srv.URL}

	_, err := b.List(context.Background(), NewClient(), dir)
	require.Error(t, err)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindParse, derr.Kind)
}

func TestDryadBackend_DeriveRootURL(t *testing.T) {
	b := dryadBackend{}
	require.Equal(t, "https://datadryad.org/api/v2/datasets/doi:10.5061%2Fdryad.abc", b.DeriveRootURL("doi:10.5061/dryad.abc"))
}
