// Package slug builds human readable, collision resistant story slugs.
package slug

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	ShortLength = 10
	// MaxLength matches the widest slug column (stories.slug_full).
	MaxLength = 300
	// MaxTagLength matches tags.slug.
	MaxTagLength = 160
)

type Slug struct {
	Short string
	Full  string
}

// New returns a random short id and "<transliterated title>.<short>".
func New(title string) (Slug, error) {
	short, err := gonanoid.New(ShortLength)
	if err != nil {
		return Slug{}, fmt.Errorf("generate short slug failed: %w", err)
	}
	return Slug{Short: short, Full: Join(title, short)}, nil
}

// Join builds the full slug. The transliterated part is cut so the result
// never exceeds MaxLength.
func Join(title, short string) string {
	base := Truncate(Transliterate(title), MaxLength-len(short)-1)
	if base == "" {
		return short
	}
	return base + "." + short
}

func Transliterate(s string) string {
	return slug.Make(s)
}

// Truncate cuts a transliterated slug to at most n bytes without leaving a
// trailing separator. Transliterated slugs are ASCII.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	return strings.TrimRight(s[:n], "-_")
}
