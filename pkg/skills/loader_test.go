package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadFile(t *testing.T) {
	root := t.TempDir()
	path := writeSkill(t, root, "git", "Git", "helps with git")
	loadedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	loader := NewLoader(WithClock(func() time.Time { return loadedAt }))
	skill, err := loader.LoadFile(path, filepath.Dir(path), SourceProjectClaude, LocationProject)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Git", skill.Name)
	assert.Equal(t, "helps with git", skill.Description)
	assert.Equal(t, filepath.Join(root, "git"), skill.BaseDirectory)
	assert.Equal(t, path, skill.FilePath)
	assert.Equal(t, string(raw), skill.Content)
	assert.Equal(t, loadedAt, skill.LastLoaded)
	assert.Equal(t, SourceProjectClaude, skill.Source)
	assert.Equal(t, LocationProject, skill.Location)
	assert.Equal(t, "git", skill.Key())
}

func TestLoader_LoadFileErrors(t *testing.T) {
	root := t.TempDir()
	loader := NewLoader()

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.LoadFile(filepath.Join(root, "nope", SkillFileName), root, SourceCustom, LocationGlobal)
		assert.ErrorIs(t, err, ErrSkillNotFound)
	})

	t.Run("parent is a file", func(t *testing.T) {
		file := filepath.Join(root, "plain.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		_, err := loader.LoadFile(filepath.Join(file, SkillFileName), root, SourceCustom, LocationGlobal)
		assert.ErrorIs(t, err, ErrSkillNotFound)
	})

	t.Run("directory named SKILL.md", func(t *testing.T) {
		dir := filepath.Join(root, "weird", SkillFileName)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		_, err := loader.LoadFile(dir, filepath.Dir(dir), SourceCustom, LocationGlobal)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSkillNotFound)
		assert.Contains(t, err.Error(), "is a directory")
	})

	t.Run("malformed frontmatter", func(t *testing.T) {
		path := writeSkillFile(t, filepath.Join(root, "broken"), "---\nname: broken\n---\n")
		_, err := loader.LoadFile(path, filepath.Dir(path), SourceCustom, LocationGlobal)
		assert.ErrorIs(t, err, ErrMissingField)
		assert.True(t, IsFrontmatterError(err))
		assert.Contains(t, err.Error(), path)
	})

	t.Run("permission denied", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		path := writeSkill(t, root, "secret", "secret", "unreadable")
		require.NoError(t, os.Chmod(path, 0o000))
		t.Cleanup(func() { _ = os.Chmod(path, 0o644) })

		_, err := loader.LoadFile(path, filepath.Dir(path), SourceCustom, LocationGlobal)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	loader := NewLoader()
	ctx := context.Background()

	valid := writeSkill(t, root, "pdf", "pdf", "PDF tools")
	assert.NotNil(t, loader.Load(ctx, valid, filepath.Dir(valid), SourceCustom, LocationGlobal))

	invalid := writeSkillFile(t, filepath.Join(root, "invalid"), "no frontmatter here")
	assert.Nil(t, loader.Load(ctx, invalid, filepath.Dir(invalid), SourceCustom, LocationGlobal))

	assert.Nil(t, loader.Load(ctx, filepath.Join(root, "missing", SkillFileName), root, SourceCustom, LocationGlobal))
}
