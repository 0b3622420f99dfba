// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"net/url"
	"strings"
)

func init() {
	Register("arxiv", func(u *url.URL) (Backend, string, bool) {
		if !strings.EqualFold(u.Hostname(), "arxiv.org") {
			return nil, "", false
		}
		segs := pathSegments(u)
		if len(segs) == 0 {
			return nil, "", false
		}
		// Accept both "/abs/<id>" and "/pdf/<id>" landing pages, and a bare "/<id>".
		id := segs[len(segs)-1]
		id = strings.TrimSuffix(id, ".pdf")
		if id == "" {
			return nil, "", false
		}
		return arxivBackend{}, id, true
	})
}

// arxivBackend always yields exactly one file: the preprint PDF itself.
// arXiv reports neither size nor checksum for it.
type arxivBackend struct{}

func (arxivBackend) DeriveRootURL(id string) string {
	return "https://arxiv.org/pdf/" + id
}

func (b arxivBackend) InitialListing(id string) DirHandle {
	root := b.DeriveRootURL(id)
	return DirHandle{Path: "", Root: root, APIURL: root, Handle: id}
}

func (b arxivBackend) List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error) {
	id, _ := dir.Handle.(string)
	path, err := dir.Path.Join(id + ".pdf")
	if err != nil {
		return nil, newError(KindParse, "invalid arxiv id", err)
	}
	fe, err := NewFileEntry(path, dir.Root, dir.Root, nil, nil)
	if err != nil {
		return nil, err
	}
	return []Entry{fe}, nil
}
