// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

func init() {
	Register("zenodo", func(u *url.URL) (Backend, string, bool) {
		if !strings.EqualFold(u.Hostname(), "zenodo.org") {
			return nil, "", false
		}
		segs := pathSegments(u)
		if len(segs) < 2 || (segs[0] != "record" && segs[0] != "records") {
			return nil, "", false
		}
		return zenodoBackend{}, segs[1], true
	})
}

// zenodoBackend lists the files attached to one Zenodo record in a single
// request. Records are flat: List never returns a DirEntry.
type zenodoBackend struct{}

func (zenodoBackend) DeriveRootURL(id string) string {
	return fmt.Sprintf("https://zenodo.org/api/records/%s/files", id)
}

func (b zenodoBackend) InitialListing(id string) DirHandle {
	root := b.DeriveRootURL(id)
	return DirHandle{Path: "", Root: root, APIURL: root}
}

type zenodoFileRecord struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
	Links    struct {
		Content string `json:"content"`
	} `json:"links"`
}

func (b zenodoBackend) List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error) {
	var page struct {
		Entries []zenodoFileRecord `json:"entries"`
	}
	if err := c.GetJSON(ctx, dir.APIURL, nil, &page); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(page.Entries))
	for _, rec := range page.Entries {
		path, err := dir.Path.Join(rec.Key)
		if err != nil {
			return nil, newError(KindParse, "invalid zenodo file key", err)
		}
		var checksums []Checksum
		if rec.Checksum != "" {
			// Zenodo encodes checksums as "<algorithm>:<hex>", e.g. "md5:abcdef...".
			if alg, hex, ok := strings.Cut(rec.Checksum, ":"); ok {
				if cs, cerr := NewChecksum(alg, hex); cerr == nil {
					checksums = append(checksums, cs)
				}
			}
		}
		size := rec.Size
		fe, err := NewFileEntry(path, dir.Root, rec.Links.Content, &size, checksums)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fe)
	}
	return entries, nil
}
