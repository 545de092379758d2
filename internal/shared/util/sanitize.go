package util

import (
	"errors"
	"path/filepath"
	"strings"
)

// SanitizeName turns a file path into a single safe key segment: the
// directory is dropped, separators and spaces become underscores and
// traversal patterns are rejected.
func SanitizeName(name string) (string, error) {
	s := strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if s == "" || s == "." || s == "/" || strings.Contains(s, "..") {
		return "", errors.New("invalid file name")
	}
	s = strings.ReplaceAll(s, " ", "_")
	return s, nil
}
