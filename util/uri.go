package util

import (
	"path/filepath"
	"strings"
)

const fileScheme = "file://"

// PathToURI returns the file:// URI of path, made absolute when possible.
func PathToURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileScheme + filepath.ToSlash(path)
	}
	return fileScheme + filepath.ToSlash(abs)
}

// URIToPath strips the file:// scheme. Anything else is returned unchanged.
func URIToPath(uri string) string {
	if rest, ok := strings.CutPrefix(uri, fileScheme); ok {
		return filepath.FromSlash(rest)
	}
	return uri
}
