// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package doi resolves DOI identifiers to the landing-page URL doi.org
// redirects them to, without pulling in the full datahugger backend
// registry.
package doi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Resolver follows doi.org redirects with its own short-lived HTTP client,
// independent of any datahugger.Client a caller may also be using.
type Resolver struct {
	hc *http.Client
}

// New builds a Resolver whose requests time out after timeout. A zero
// timeout means no timeout.
func New(timeout time.Duration) *Resolver {
	return &Resolver{hc: &http.Client{Timeout: timeout}}
}

// Resolve follows doi (a bare "10.xxxx/yyyy" identifier or a full doi.org
// URL) to its target landing-page URL. When followRedirects is false, only
// the immediate Location header is returned; when true, redirects are
// followed to completion using the client's default redirect policy.
func (r *Resolver) Resolve(ctx context.Context, doi string, followRedirects bool) (string, error) {
	target := normalizeDOI(doi)

	client := r.hc
	if !followRedirects {
		cp := *r.hc
		cp.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		client = &cp
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return "", fmt.Errorf("doi: build request for %q: %w", doi, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("doi: resolve %q: %w", doi, err)
	}
	defer resp.Body.Close()

	if !followRedirects && resp.StatusCode >= 300 && resp.StatusCode < 400 {
		loc := resp.Header.Get("Location")
		if loc == "" {
			return target, nil
		}
		return loc, nil
	}
	return resp.Request.URL.String(), nil
}

// ResolveMany resolves every DOI in dois, stopping at the first error.
func (r *Resolver) ResolveMany(ctx context.Context, dois []string, followRedirects bool) ([]string, error) {
	out := make([]string, 0, len(dois))
	for _, d := range dois {
		resolved, err := r.Resolve(ctx, d, followRedirects)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

func normalizeDOI(doi string) string {
	if strings.HasPrefix(doi, "http://") || strings.HasPrefix(doi, "https://") {
		return doi
	}
	doi = strings.TrimPrefix(doi, "doi:")
	return "https://doi.org/" + doi
}
