// Package locator parses object references of the form scheme://container/path.
package locator

import (
	"strings"

	"obfuscator/internal/obfuscation/models"
)

const schemeDelimiter = "://"

// Parse splits s into its scheme, container and object path. Every segment
// must be non-empty; the path may itself contain slashes.
func Parse(s string) (models.Locator, error) {
	scheme, rest, ok := strings.Cut(s, schemeDelimiter)
	if !ok {
		return models.Locator{}, models.NewError(models.KindInvalidLocator, "locator %q has no scheme delimiter", s)
	}
	if scheme == "" || strings.Contains(scheme, "/") {
		return models.Locator{}, models.NewError(models.KindInvalidLocator, "locator %q has no scheme", s)
	}
	container, path, _ := strings.Cut(rest, "/")
	if container == "" {
		return models.Locator{}, models.NewError(models.KindInvalidLocator, "locator %q has no container", s)
	}
	if path == "" {
		return models.Locator{}, models.NewError(models.KindInvalidLocator, "locator %q has no object path", s)
	}
	return models.Locator{Scheme: scheme, Container: container, Path: path}, nil
}
