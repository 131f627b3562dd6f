// Package format classifies objects by container format using their name.
package format

import (
	"path"
	"strings"

	"obfuscator/internal/obfuscation/models"
)

// Kind is a supported container format.
type Kind string

const (
	CSV     Kind = "csv"
	JSON    Kind = "json"
	Parquet Kind = "parquet"
)

// Detect maps the lowercased extension of the final path element to a
// Kind. Content is never inspected.
func Detect(p string) (Kind, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	switch Kind(ext) {
	case CSV:
		return CSV, nil
	case JSON:
		return JSON, nil
	case Parquet:
		return Parquet, nil
	}
	if ext == "" {
		return "", models.NewError(models.KindUnsupportedFormat, "object %q has no file extension", p)
	}
	return "", models.NewError(models.KindUnsupportedFormat, "extension %q is not csv, json or parquet", ext)
}

// ContentType returns the media type used when serving the format.
func (k Kind) ContentType() string {
	switch k {
	case CSV:
		return "text/csv; charset=utf-8"
	case JSON:
		return "application/json"
	case Parquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}
