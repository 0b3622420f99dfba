// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"net/url"
	"strings"
)

// pathSegments splits u's path into non-empty segments, trimming any
// leading/trailing slash.
func pathSegments(u *url.URL) []string {
	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func sizeOrZero(sz *int64) int64 {
	if sz == nil {
		return 0
	}
	return *sz
}
