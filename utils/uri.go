package utils

import (
	"path/filepath"
	"strings"
)

// NormalizeURI converts a file path or URI into a file:// URI with an
// absolute path. Inputs that are already file URIs pass through unchanged.
func NormalizeURI(pathOrURI string) string {
	if strings.HasPrefix(pathOrURI, "file://") {
		return pathOrURI
	}

	abs, err := filepath.Abs(pathOrURI)
	if err != nil {
		abs = pathOrURI
	}

	return "file://" + filepath.ToSlash(abs)
}

// URIToPath converts a file:// URI back to a filesystem path. Non-file URIs
// are returned unchanged.
func URIToPath(uri string) string {
	path, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return uri
	}

	return filepath.FromSlash(path)
}
