package skills

import (
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// Allowlist restricts which skill names may enter the cache.
// Patterns use glob syntax ("git*", "pdf", "{docx,xlsx}") and match normalized names.
type Allowlist struct {
	patterns    []glob.Glob
	rawPatterns []string
}

// NewAllowlist compiles the given patterns. An empty list allows every skill.
func NewAllowlist(patterns []string) (*Allowlist, error) {
	a := &Allowlist{}
	for _, pattern := range patterns {
		normalized := NormalizeName(pattern)
		if normalized == "" {
			continue
		}
		g, err := glob.Compile(normalized)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid skill allowlist pattern %q", pattern)
		}
		a.patterns = append(a.patterns, g)
		a.rawPatterns = append(a.rawPatterns, normalized)
	}
	return a, nil
}

// Allows reports whether the named skill passes the allowlist
func (a *Allowlist) Allows(name string) bool {
	if a == nil || len(a.patterns) == 0 {
		return true
	}

	key := NormalizeName(name)
	for _, pattern := range a.patterns {
		if pattern.Match(key) {
			return true
		}
	}
	return false
}

// Patterns returns the normalized patterns of the allowlist
func (a *Allowlist) Patterns() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.rawPatterns...)
}
