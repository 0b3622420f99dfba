// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
)

func init() {
	Register("hal", func(u *url.URL) (Backend, string, bool) {
		if !strings.EqualFold(u.Hostname(), "hal.science") && !strings.EqualFold(u.Hostname(), "hal.archives-ouvertes.fr") {
			return nil, "", false
		}
		segs := pathSegments(u)
		if len(segs) == 0 {
			return nil, "", false
		}
		return halBackend{}, segs[0], true
	})
}

// halBackend queries the HAL Search API for a record's attached files. HAL
// exposes no checksums or sizes; each filename is the basename of its
// files_s download URL, since the API reports no filename field of its own.
type halBackend struct{}

func (halBackend) DeriveRootURL(id string) string {
	q := url.Values{}
	q.Set("q", "halId_s:"+id)
	q.Set("wt", "json")
	q.Set("fl", "halId_s,fileMain_s,files_s,fileType_s")
	return "https://api.archives-ouvertes.fr/search/?" + q.Encode()
}

func (b halBackend) InitialListing(id string) DirHandle {
	root := b.DeriveRootURL(id)
	return DirHandle{Path: "", Root: root, APIURL: root}
}

type halSearchResponse struct {
	Response struct {
		Docs []struct {
			FilesS []string `json:"files_s"`
		} `json:"docs"`
	} `json:"response"`
}

func (b halBackend) List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error) {
	var page halSearchResponse
	if err := c.GetJSON(ctx, dir.APIURL, nil, &page); err != nil {
		return nil, err
	}
	if len(page.Response.Docs) == 0 {
		return nil, newError(KindParse, "hal search returned no docs", nil)
	}

	files := page.Response.Docs[0].FilesS
	entries := make([]Entry, 0, len(files))
	for _, downloadURL := range files {
		name := path.Base(downloadURL)
		if name == "" || name == "." || name == "/" {
			return nil, newError(KindParse, fmt.Sprintf("could not derive filename from %q", downloadURL), nil)
		}
		p, err := dir.Path.Join(name)
		if err != nil {
			return nil, newError(KindParse, "invalid hal file name", err)
		}
		fe, err := NewFileEntry(p, dir.Root, downloadURL, nil, nil)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fe)
	}
	return entries, nil
}
