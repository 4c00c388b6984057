// Package slug derives URL identifiers for articles.
package slug

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// SuffixAlphabet is base-36.
	SuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	// SuffixLen gives 36^6 ≈ 2.18e9 suffixes per title.
	SuffixLen = 6
)

// Generator produces a slug for a new article.
type Generator interface {
	Generate(title string) (string, error)
}

// NanoIDGenerator appends a random base-36 suffix to the hyphenated title.
// Uniqueness is not checked against storage; the unique index on
// articles.slug rejects the rare collision.
type NanoIDGenerator struct {
	alphabet string
	size     int
}

// NewNanoIDGenerator creates a generator with the base-36, length-6 suffix.
func NewNanoIDGenerator() *NanoIDGenerator {
	return &NanoIDGenerator{alphabet: SuffixAlphabet, size: SuffixLen}
}

// Generate returns "<slugified-title>-<suffix>", or just the suffix when the
// title has no usable characters.
func (g *NanoIDGenerator) Generate(title string) (string, error) {
	suffix, err := gonanoid.Generate(g.alphabet, g.size)
	if err != nil {
		return "", fmt.Errorf("failed to generate slug suffix: %w", err)
	}

	base := Slugify(title)
	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}

// Slugify lowercases s and joins runs of ASCII letters and digits with single
// hyphens. Everything else is a separator.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
