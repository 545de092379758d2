package object

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"mturk-tools/internal/shared/util"
)

// Store saves and retrieves batch artifacts (results tables, descriptors, plots).
type Store interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

const stampLayout = "20060102T150405Z"

// ArtifactKey places fileName under the batch directory with a UTC time stamp,
// e.g. "pilot.success.yaml/20240301T120000Z_pilot.results".
func ArtifactKey(batch, fileName string, at time.Time) (string, error) {
	dir, err := util.SanitizeName(batch)
	if err != nil {
		return "", fmt.Errorf("batch name: %w", err)
	}
	name, err := util.SanitizeName(fileName)
	if err != nil {
		return "", fmt.Errorf("file name: %w", err)
	}
	return path.Join(dir, at.UTC().Format(stampLayout)+"_"+name), nil
}

// ContentType guesses the media type of an artifact from its extension.
func ContentType(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".yaml", ".yml":
		return "application/yaml"
	case ".png":
		return "image/png"
	case ".csv":
		return "text/csv"
	default:
		return "text/tab-separated-values"
	}
}
