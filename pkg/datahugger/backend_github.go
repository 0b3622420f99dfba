// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
)

func init() {
	Register("github", func(u *url.URL) (Backend, string, bool) {
		if !strings.EqualFold(u.Hostname(), "github.com") {
			return nil, "", false
		}
		segs := pathSegments(u)
		if len(segs) < 2 {
			return nil, "", false
		}
		owner, repo := segs[0], segs[1]
		ref := ""
		if len(segs) >= 4 && segs[2] == "tree" {
			ref = segs[3]
		}
		if ref == "" {
			resolved, err := githubDefaultBranchCommit(owner, repo)
			if err != nil {
				return nil, "", false
			}
			ref = resolved
		}
		return githubBackend{owner: owner, repo: repo}, ref, true
	})
}

// githubBackend walks a repository's git tree non-recursively, one level
// per List call, following "tree" entries as DirEntry values. id is the
// commit SHA or ref the tree was resolved against.
type githubBackend struct{ owner, repo string }

func (b githubBackend) DeriveRootURL(id string) string {
	return fmt.Sprintf("https://api.github.com/repos/%s/%s/git/trees/%s", b.owner, b.repo, id)
}

func (b githubBackend) InitialListing(id string) DirHandle {
	root := b.DeriveRootURL(id)
	return DirHandle{Path: "", Root: root, APIURL: root, Handle: id}
}

type githubTreeResponse struct {
	Tree []githubTreeEntry `json:"tree"`
}

type githubTreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

func (b githubBackend) List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error) {
	resp, err := c.Get(ctx, dir.APIURL, githubAuthHeaders())
	if err != nil {
		if herr, ok := err.(*Error); ok && herr.Kind == KindHTTP && herr.Status == 403 {
			return nil, newError(KindHTTP, "GitHub API rate limit exceeded; set GITHUB_TOKEN", herr)
		}
		return nil, err
	}
	defer resp.Body.Close()

	var tree githubTreeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		return nil, newError(KindParse, "decode github tree json", err)
	}

	ref, _ := dir.Handle.(string)
	entries := make([]Entry, 0, len(tree.Tree))
	for _, item := range tree.Tree {
		path, err := dir.Path.Join(item.Path)
		if err != nil {
			return nil, newError(KindParse, "invalid github tree path", err)
		}
		switch item.Type {
		case "blob":
			downloadURL := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", b.owner, b.repo, ref, pathEscapeSegments(string(path)))
			size := item.Size
			fe, err := NewFileEntry(path, dir.Root, downloadURL, &size, nil)
			if err != nil {
				return nil, err
			}
			entries = append(entries, fe)
		case "tree":
			de, err := NewDirEntry(path, dir.Root, item.URL, ref)
			if err != nil {
				return nil, err
			}
			entries = append(entries, de)
		default:
			return nil, newError(KindParse, fmt.Sprintf("unknown github tree entry type %q", item.Type), nil)
		}
	}
	return entries, nil
}

func pathEscapeSegments(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func githubAuthHeaders() map[string]string {
	if tok := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); tok != "" {
		return map[string]string{"Authorization": "Bearer " + tok}
	}
	return nil
}

// githubDefaultBranchCommit resolves owner/repo's default branch to its
// current commit SHA, the id a landing-page URL without an explicit ref
// resolves to. It uses a throwaway Client since the registry's factory
// functions receive only a *url.URL, not the caller's shared Client.
func githubDefaultBranchCommit(owner, repo string) (string, error) {
	c := NewClient()
	ctx := context.Background()

	var repoInfo struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := c.GetJSON(ctx, fmt.Sprintf("https://api.github.com/repos/%s/%s", owner, repo), githubAuthHeaders(), &repoInfo); err != nil {
		return "", err
	}

	var commit struct {
		SHA string `json:"sha"`
	}
	commitURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/commits/%s", owner, repo, repoInfo.DefaultBranch)
	if err := c.GetJSON(ctx, commitURL, githubAuthHeaders(), &commit); err != nil {
		return "", err
	}
	return commit.SHA, nil
}
