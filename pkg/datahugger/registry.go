// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// BackendFactory inspects u and, if it recognizes the host/path shape,
// returns a ready-to-use Backend plus the platform-specific id that
// Backend.InitialListing and Backend.DeriveRootURL expect. ok is false when
// the factory does not recognize u.
type BackendFactory func(u *url.URL) (backend Backend, id string, ok bool)

type registryEntry struct {
	name    string
	factory BackendFactory
}

var (
	registryMu      sync.Mutex
	registryEntries []registryEntry
)

// Register adds a backend factory under name. Factories are tried in
// registration order; the first to return ok=true wins. Each backend file in
// this package calls Register from its own init().
func Register(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registryEntries = append(registryEntries, registryEntry{name: name, factory: factory})
}

func snapshotRegistry() []registryEntry {
	registryMu.Lock()
	defer registryMu.Unlock()
	return append([]registryEntry(nil), registryEntries...)
}

// Resolve turns a repository landing-page URL (or a doi.org / dx.doi.org
// link, followed one redirect hop) into a Dataset backed by whichever
// registered Backend recognizes it.
func Resolve(ctx context.Context, c *Client, rawURL string) (*Dataset, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, newError(KindUnsupported, fmt.Sprintf("invalid url %q", rawURL), err)
	}

	if isDOILink(u) {
		resolved, rerr := followDOIRedirect(ctx, c, u)
		if rerr != nil {
			return nil, rerr
		}
		u = resolved
	}

	for _, e := range snapshotRegistry() {
		backend, id, ok := e.factory(u)
		if !ok {
			continue
		}
		return &Dataset{
			backend: backend,
			id:      id,
			rootURL: backend.DeriveRootURL(id),
			client:  c,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, rawURL)
}

func isDOILink(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "doi.org" || host == "dx.doi.org"
}

// followDOIRedirect issues one HEAD request against u and, if the response
// is a redirect, resolves its Location header against u. It never follows a
// second hop: a chain of redirects past the first is left for the matched
// Backend (or the caller) to deal with.
func followDOIRedirect(ctx context.Context, c *Client, u *url.URL) (*url.URL, error) {
	resp, err := c.Head(ctx, u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return u, nil
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return u, nil
	}
	resolved, err := u.Parse(loc)
	if err != nil {
		return nil, newError(KindParse, "invalid doi redirect location "+loc, err)
	}
	return resolved, nil
}
