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

func TestDataverseFactory_DatasetAndFileTypes(t *testing.T) {
	u, err := url.Parse("https://dataverse.harvard.edu/dataset.xhtml?persistentId=doi:10.7910/DVN/X")
	require.NoError(t, err)
	backend, id, ok := lookupFactory(t, "dataverse", u)
	require.True(t, ok)
	require.Equal(t, "doi:10.7910/DVN/X", id)
	require.IsType(t, dataverseDatasetBackend{}, backend)

	u2, err := url.Parse("https://dataverse.harvard.edu/file.xhtml?persistentId=doi:10.7910/DVN/Y")
	require.NoError(t, err)
	backend2, _, ok2 := lookupFactory(t, "dataverse", u2)
	require.True(t, ok2)
	require.IsType(t, dataverseFileBackend{}, backend2)
}

func TestDataverseFactory_RejectsUnknownDomain(t *testing.T) {
	u, err := url.Parse("https://example.org/dataset.xhtml?persistentId=doi:1")
	require.NoError(t, err)
	_, _, ok := lookupFactory(t, "dataverse", u)
	require.False(t, ok)
}

func TestDataverseFactory_RejectsMissingPersistentID(t *testing.T) {
	u, err := url.Parse("https://dataverse.harvard.edu/dataset.xhtml")
	require.NoError(t, err)
	_, _, ok := lookupFactory(t, "dataverse", u)
	require.False(t, ok)
}

func TestDataverseDatasetBackend_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"files":[
			{"dataFile":{"filename":"a.tab","id":99,"filesize":1024,"md5":"abcdef0123456789abcdef0123456789"}}
		]}}`))
	}))
	defer srv.Close()

	b := dataverseDatasetBackend{baseURL: srv.URL}
	dir := DirHandle{Path: "", Root: srv.URL, APIURL: srv.URL}

	entries, err := b.List(context.Background(), NewClient(), dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	fe := entries[0].(FileEntry)
	require.Equal(t, CrawlPath("a.tab"), fe.PathCrawlRel())
	require.Equal(t, srv.URL+"/api/access/datafile/99", fe.DownloadURL)
	require.Equal(t, int64(1024), *fe.Size)
}

func TestDataverseFileBackend_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"dataFile":{"filename":"single.csv","id":5,"filesize":2,"md5":""}}}`))
	}))
	defer srv.Close()

	b := dataverseFileBackend{baseURL: srv.URL}
	dir := DirHandle{Path: "", Root: srv.URL, APIURL: srv.URL}

	entries, err := b.List(context.Background(), NewClient(), dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	fe := entries[0].(FileEntry)
	require.Equal(t, CrawlPath("single.csv"), fe.PathCrawlRel())
	require.Empty(t, fe.Checksums)
}
