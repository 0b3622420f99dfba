// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

const defaultUserAgent = "datahugger-go/1"

// Client is the HTTP Client Pool shared by every backend a Dataset uses. It
// owns one transport with connection reuse across every request, mirroring
// the teacher's buildHTTPClient but generalized to arbitrary repository
// hosts instead of a single one.
type Client struct {
	hc        *http.Client
	userAgent string
}

// NewClient builds a Client with a pooled, keep-alive transport. Callers
// typically construct a single Client per process and share it across every
// Dataset.
func NewClient() *Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &Client{hc: &http.Client{Transport: tr}, userAgent: defaultUserAgent}
}

// Response is the subset of *http.Response the rest of this package needs.
// Callers must close Body.
type Response struct {
	Body          io.ReadCloser
	StatusCode    int
	Header        http.Header
	ContentLength int64
}

// Get issues a GET request, classifying any transport failure or non-2xx
// status into an *Error so callers never need to inspect net/http types.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newError(KindNetworkFatal, "build request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := readExcerpt(resp.Body)
		resp.Body.Close()
		return nil, HTTPError(resp.StatusCode, excerpt, nil)
	}
	return &Response{Body: resp.Body, StatusCode: resp.StatusCode, Header: resp.Header, ContentLength: resp.ContentLength}, nil
}

// GetJSON issues a GET request and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	resp, err := c.Get(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newError(KindParse, "decode json response from "+rawURL, err)
	}
	return nil
}

// Head issues a HEAD request without following redirects, returning the
// final status and Location header. It underlies DOI-link resolution, which
// follows a single redirect hop.
func (c *Client) Head(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, newError(KindNetworkFatal, "build request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	noRedirect := &http.Client{
		Transport: c.hc.Transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := noRedirect.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	return resp, nil
}

func readExcerpt(r io.Reader) string {
	buf := make([]byte, 512)
	n, _ := io.ReadFull(r, buf)
	return string(buf[:n])
}

func classifyTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, "request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return newError(KindCancelled, "request cancelled", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return newError(KindTimeout, "request timed out", err)
		}
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return NetworkError(false, "dns resolution failed", err)
		}
		var certErr x509.UnknownAuthorityError
		if errors.As(err, &certErr) {
			return NetworkError(false, "tls verification failed", err)
		}
		var hostErr x509.HostnameError
		if errors.As(err, &hostErr) {
			return NetworkError(false, "tls hostname verification failed", err)
		}
	}
	return NetworkError(true, "network error", err)
}
