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
	Register("huggingface", func(u *url.URL) (Backend, string, bool) {
		if !strings.EqualFold(u.Hostname(), "huggingface.co") {
			return nil, "", false
		}
		segs := pathSegments(u)
		if len(segs) == 0 {
			return nil, "", false
		}
		isDataset := segs[0] == "datasets"
		if isDataset {
			segs = segs[1:]
		}
		if len(segs) < 2 {
			return nil, "", false
		}
		owner, repo := segs[0], segs[1]
		revision := "main"
		if len(segs) >= 4 && segs[2] == "tree" {
			revision = segs[3]
		}
		return huggingfaceBackend{owner: owner, repo: repo, isDataset: isDataset}, revision, true
	})
}

// huggingfaceBackend walks a model or dataset repository's LFS-aware tree
// API, grounded on the teacher's hfNode shape: a file's checksum lives under
// "lfs.oid" for large, LFS-tracked files and under the top-level "oid" for
// small files committed directly to git, but either way it is a sha256 hex
// digest.
type huggingfaceBackend struct {
	owner, repo string
	isDataset   bool
}

func (b huggingfaceBackend) kindSegment() string {
	if b.isDataset {
		return "datasets"
	}
	return "models"
}

func (b huggingfaceBackend) DeriveRootURL(revision string) string {
	return fmt.Sprintf("https://huggingface.co/api/%s/%s/%s/tree/%s", b.kindSegment(), b.owner, b.repo, url.PathEscape(revision))
}

func (b huggingfaceBackend) InitialListing(revision string) DirHandle {
	root := b.DeriveRootURL(revision)
	return DirHandle{Path: "", Root: root, APIURL: root, Handle: revision}
}

type hfNode struct {
	Type string     `json:"type"` // "file" | "directory"
	Path string     `json:"path"` // root-relative, not parent-relative
	Size int64      `json:"size,omitempty"`
	LFS  *hfLFSInfo `json:"lfs,omitempty"`
	OID  string     `json:"oid,omitempty"`
}

type hfLFSInfo struct {
	OID  string `json:"oid,omitempty"`
	Size int64  `json:"size,omitempty"`
}

func (b huggingfaceBackend) List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error) {
	revision, _ := dir.Handle.(string)

	var nodes []hfNode
	if err := c.GetJSON(ctx, dir.APIURL, huggingfaceAuthHeaders(), &nodes); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(nodes))
	for _, n := range nodes {
		// HF's "path" field is root-relative rather than relative to dir,
		// so the crawl path is rebuilt from the repo root rather than
		// joined onto dir.Path.
		path, err := rootRelativeCrawlPath(n.Path)
		if err != nil {
			return nil, newError(KindParse, "invalid huggingface tree path", err)
		}
		switch n.Type {
		case "file":
			downloadURL := fmt.Sprintf("https://huggingface.co/%s/%s/%s/resolve/%s/%s", b.kindSegment(), b.owner, b.repo, url.PathEscape(revision), pathEscapeSegments(n.Path))
			var checksums []Checksum
			oid := n.OID
			size := n.Size
			if n.LFS != nil {
				oid = n.LFS.OID
				size = n.LFS.Size
			}
			if oid != "" {
				if cs, cerr := NewChecksum("sha256", oid); cerr == nil {
					checksums = append(checksums, cs)
				}
			}
			fe, err := NewFileEntry(path, dir.Root, downloadURL, &size, checksums)
			if err != nil {
				return nil, err
			}
			entries = append(entries, fe)
		case "directory":
			childAPIURL := fmt.Sprintf("https://huggingface.co/api/%s/%s/%s/tree/%s/%s", b.kindSegment(), b.owner, b.repo, url.PathEscape(revision), pathEscapeSegments(n.Path))
			de, err := NewDirEntry(path, dir.Root, childAPIURL, revision)
			if err != nil {
				return nil, err
			}
			entries = append(entries, de)
		default:
			return nil, newError(KindParse, fmt.Sprintf("unknown huggingface tree entry type %q", n.Type), nil)
		}
	}
	return entries, nil
}

func rootRelativeCrawlPath(p string) (CrawlPath, error) {
	root := CrawlPath("")
	var out CrawlPath
	for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
		var err error
		out, err = root.Join(seg)
		if err != nil {
			return "", err
		}
		root = out
	}
	return out, nil
}

func huggingfaceAuthHeaders() map[string]string {
	if tok := strings.TrimSpace(os.Getenv("HF_TOKEN")); tok != "" {
		return map[string]string{"Authorization": "Bearer " + tok}
	}
	return nil
}
