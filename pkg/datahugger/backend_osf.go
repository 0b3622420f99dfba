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
	Register("osf", func(u *url.URL) (Backend, string, bool) {
		if !strings.EqualFold(u.Hostname(), "osf.io") {
			return nil, "", false
		}
		segs := pathSegments(u)
		if len(segs) == 0 {
			return nil, "", false
		}
		return osfBackend{}, segs[0], true
	})
}

// osfBackend walks the Open Science Framework's paginated files API,
// recursing into folders as DirEntry values.
type osfBackend struct{}

func (osfBackend) DeriveRootURL(id string) string {
	return fmt.Sprintf("https://api.osf.io/v2/nodes/%s/files", id)
}

func (b osfBackend) InitialListing(id string) DirHandle {
	root := b.DeriveRootURL(id)
	return DirHandle{Path: "", Root: root, APIURL: root}
}

type osfPage struct {
	Data  []osfFileRecord `json:"data"`
	Links struct {
		Next *string `json:"next"`
	} `json:"links"`
}

type osfFileRecord struct {
	Attributes struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
		Size int64  `json:"size"`
		Extra struct {
			Hashes struct {
				SHA256 string `json:"sha256"`
				MD5    string `json:"md5"`
			} `json:"hashes"`
		} `json:"extra"`
	} `json:"attributes"`
	Links struct {
		Download *string `json:"download"`
	} `json:"links"`
	Relationships struct {
		Files struct {
			Links struct {
				Related struct {
					Href string `json:"href"`
				} `json:"related"`
			} `json:"links"`
		} `json:"files"`
	} `json:"relationships"`
}

func (b osfBackend) List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error) {
	var entries []Entry
	next := dir.APIURL
	for next != "" {
		var page osfPage
		if err := c.GetJSON(ctx, next, nil, &page); err != nil {
			return nil, err
		}
		for _, rec := range page.Data {
			name := rec.Attributes.Name
			if name == "" {
				continue
			}
			path, err := dir.Path.Join(name)
			if err != nil {
				return nil, newError(KindParse, "invalid osf entry name", err)
			}
			switch rec.Attributes.Kind {
			case "file":
				if rec.Links.Download == nil {
					return nil, newError(KindParse, "osf file missing download link", nil)
				}
				var checksums []Checksum
				if h := rec.Attributes.Extra.Hashes.SHA256; h != "" {
					if cs, cerr := NewChecksum("sha256", h); cerr == nil {
						checksums = append(checksums, cs)
					}
				}
				if h := rec.Attributes.Extra.Hashes.MD5; h != "" {
					if cs, cerr := NewChecksum("md5", h); cerr == nil {
						checksums = append(checksums, cs)
					}
				}
				size := rec.Attributes.Size
				fe, err := NewFileEntry(path, dir.Root, *rec.Links.Download, &size, checksums)
				if err != nil {
					return nil, err
				}
				entries = append(entries, fe)
			case "folder":
				sub := rec.Relationships.Files.Links.Related.Href
				if sub == "" {
					return nil, newError(KindParse, "osf folder missing listing link", nil)
				}
				de, err := NewDirEntry(path, dir.Root, sub, nil)
				if err != nil {
					return nil, err
				}
				entries = append(entries, de)
			default:
				return nil, newError(KindParse, fmt.Sprintf("unknown osf entry kind %q", rec.Attributes.Kind), nil)
			}
		}
		if page.Links.Next != nil {
			next = *page.Links.Next
		} else {
			next = ""
		}
	}
	return entries, nil
}
