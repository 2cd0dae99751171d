package filesystem

import (
	"net/url"
	"strings"
)

// ResolveLocation converts a file:// URI into a local path so it can be
// used as a location string. Bare paths and archive member locations pass
// through unchanged.
func ResolveLocation(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	path := strings.TrimPrefix(uri, "file://")
	if unescaped, err := url.PathUnescape(path); err == nil {
		return unescaped
	}
	return path
}
