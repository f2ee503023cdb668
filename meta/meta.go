// Package meta defines the SEO surface catalog entities expose to templates.
package meta

import "strings"

// Object is the computed SEO metadata for one entity. It is a pure function
// of the entity's loaded state, so callers may cache it freely.
type Object struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Image       string   `json:"image,omitempty"`
}

// Provider is implemented by every entity that exposes SEO metadata.
type Provider interface {
	Meta() Object
}

// Title returns metaTitle, falling back to the entity's name when the field
// was left empty. The fallback is uniform across entity types.
func Title(metaTitle, name string) string {
	if metaTitle != "" {
		return metaTitle
	}
	return name
}

// SplitKeywords splits a comma-separated keyword field into trimmed tokens.
// An empty or all-whitespace field yields no tokens at all.
func SplitKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := strings.TrimSpace(part); token != "" {
			keywords = append(keywords, token)
		}
	}
	return keywords
}
