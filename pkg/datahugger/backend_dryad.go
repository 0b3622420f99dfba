// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
)

func init() {
	Register("dryad", func(u *url.URL) (Backend, string, bool) {
		if !strings.EqualFold(u.Hostname(), "datadryad.org") {
			return nil, "", false
		}
		segs := pathSegments(u)
		if len(segs) == 0 {
			return nil, "", false
		}
		switch {
		case segs[0] == "stash" && len(segs) >= 3 && segs[1] == "dataset":
			return dryadBackend{}, strings.Join(segs[2:], "/"), true
		case strings.HasPrefix(segs[len(segs)-1], "doi"):
			return dryadBackend{}, segs[len(segs)-1], true
		default:
			return nil, "", false
		}
	})
}

// dryadBackend implements the Dryad two-hop listing: the dataset record
// names its current version via "_links.stash:version.href", and the
// version's files live at a second endpoint derived from that link.
type dryadBackend struct{}

func (dryadBackend) DeriveRootURL(id string) string {
	return fmt.Sprintf("https://datadryad.org/api/v2/datasets/%s", url.PathEscape(id))
}

func (b dryadBackend) InitialListing(id string) DirHandle {
	root := b.DeriveRootURL(id)
	return DirHandle{Path: "", Root: root, APIURL: root}
}

type dryadFileRecord struct {
	Path       string `json:"path"`
	Size       int64  `json:"size"`
	DigestType string `json:"digestType"`
	Digest     string `json:"digest"`
	Links      struct {
		Download struct {
			Href string `json:"href"`
		} `json:"stash:download"`
	} `json:"_links"`
}

func (b dryadBackend) List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error) {
	headers := dryadAuthHeaders()

	var record struct {
		Links struct {
			Version struct {
				Href string `json:"href"`
			} `json:"stash:version"`
		} `json:"_links"`
	}
	if err := c.GetJSON(ctx, dir.APIURL, headers, &record); err != nil {
		return nil, err
	}
	versionHref := record.Links.Version.Href
	if versionHref == "" {
		return nil, newError(KindParse, "dryad dataset missing current-version link", nil)
	}

	var page struct {
		Embedded struct {
			Files []dryadFileRecord `json:"stash:files"`
		} `json:"_embedded"`
	}
	filesURL := "https://datadryad.org" + versionHref + "/files"
	if err := c.GetJSON(ctx, filesURL, headers, &page); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(page.Embedded.Files))
	for _, rec := range page.Embedded.Files {
		path, err := dir.Path.Join(rec.Path)
		if err != nil {
			return nil, newError(KindParse, "invalid dryad file path", err)
		}
		var checksums []Checksum
		if strings.EqualFold(rec.DigestType, "md5") && rec.Digest != "" {
			if cs, cerr := NewChecksum("md5", rec.Digest); cerr == nil {
				checksums = append(checksums, cs)
			}
		}
		size := rec.Size
		downloadURL := "https://datadryad.org" + rec.Links.Download.Href
		fe, err := NewFileEntry(path, dir.Root, downloadURL, &size, checksums)
		if err != nil {
			return nil, err
		}
		fe.Headers = headers
		entries = append(entries, fe)
	}
	return entries, nil
}

func dryadAuthHeaders() map[string]string {
	if key := strings.TrimSpace(os.Getenv("DRYAD_API_KEY")); key != "" {
		return map[string]string{"Authorization": "Bearer " + key}
	}
	return nil
}
