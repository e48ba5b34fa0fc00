package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowlist(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		allowed  []string
		denied   []string
	}{
		{
			name:    "empty allows everything",
			allowed: []string{"git", "pdf"},
		},
		{
			name:     "blank patterns are ignored",
			patterns: []string{"", "  "},
			allowed:  []string{"git"},
		},
		{
			name:     "exact names ignore case",
			patterns: []string{"PDF"},
			allowed:  []string{"pdf", " Pdf "},
			denied:   []string{"pdf-tools", "git"},
		},
		{
			name:     "globs",
			patterns: []string{"git*", "{docx,xlsx}"},
			allowed:  []string{"git", "GitHub", "xlsx"},
			denied:   []string{"pdf", "pptx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowlist, err := NewAllowlist(tt.patterns)
			require.NoError(t, err)
			for _, name := range tt.allowed {
				assert.True(t, allowlist.Allows(name), name)
			}
			for _, name := range tt.denied {
				assert.False(t, allowlist.Allows(name), name)
			}
		})
	}
}

func TestAllowlist_Nil(t *testing.T) {
	var allowlist *Allowlist
	assert.True(t, allowlist.Allows("anything"))
	assert.Nil(t, allowlist.Patterns())
}

func TestAllowlist_InvalidPattern(t *testing.T) {
	_, err := NewAllowlist([]string{"[git"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid skill allowlist pattern")
}

func TestAllowlist_Patterns(t *testing.T) {
	allowlist, err := NewAllowlist([]string{" Git* ", "", "pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"git*", "pdf"}, allowlist.Patterns())
}
