package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jingkaihe/skillsd/pkg/skills"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleSkills() []*skills.Skill {
	loaded := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return []*skills.Skill{
		{
			Name:          "git",
			Description:   "Helpers for\n  git history",
			BaseDirectory: "/work/.agent/skills/git",
			FilePath:      "/work/.agent/skills/git/SKILL.md",
			Content:       "---\nname: git\n---\n",
			LastLoaded:    loaded,
			Source:        skills.SourceProjectUniversal,
			Location:      skills.LocationProject,
		},
		{
			Name:          "pdf",
			Description:   "PDF tools",
			BaseDirectory: "/opt/skills/pdf",
			FilePath:      "/opt/skills/pdf/SKILL.md",
			LastLoaded:    loaded,
			Source:        skills.SourceCustom,
			Location:      skills.LocationGlobal,
		},
	}
}

func TestRenderSkills_Table(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderSkills(&out, sampleSkills(), outputTable))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"NAME", "SOURCE", "LOCATION", "DESCRIPTION"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"git", "project-universal", "project", "Helpers", "for", "git", "history"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"pdf", "custom", "global", "PDF", "tools"}, strings.Fields(lines[2]))
}

func TestRenderSkills_TableEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderSkills(&out, nil, outputTable))
	assert.Equal(t, "No skills found.\n", out.String())
}

func TestRenderSkills_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderSkills(&out, sampleSkills(), outputJSON))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "git", decoded[0]["name"])
	assert.Equal(t, "project-universal", decoded[0]["source"])
	assert.Equal(t, "/opt/skills/pdf", decoded[1]["baseDirectory"])
	assert.NotContains(t, decoded[0], "content")
}

func TestRenderSkills_YAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderSkills(&out, sampleSkills(), outputYAML))

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "pdf", decoded[1]["name"])
	assert.Equal(t, "global", decoded[1]["location"])
	assert.NotContains(t, decoded[1], "content")
}

func TestRenderSkills_UnknownFormat(t *testing.T) {
	err := renderSkills(&bytes.Buffer{}, sampleSkills(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported output format "xml"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate(" a\n b\tc ", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "héllo w...", truncate("héllo wörld again", 10))
}

// isolateSkillDirs points the built-in roots at empty temporary directories
func isolateSkillDirs(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func writeTestSkill(t *testing.T, root, name, description string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "---\nname: " + name + "\ndescription: " + description + "\n---\n\n# " + name + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, skills.SkillFileName), []byte(content), 0o644))
}

func TestDiscoverSkills(t *testing.T) {
	isolateSkillDirs(t)
	custom := t.TempDir()
	writeTestSkill(t, custom, "git", "git helpers")
	writeTestSkill(t, custom, "pdf", "pdf helpers")

	config := NewDiscoveryConfig()
	config.Dirs = []string{custom}
	config.Allowed = []string{"git"}

	cache, err := discoverSkills(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
	assert.True(t, cache.Has("GIT"))
}

func TestDiscoverSkills_InvalidConfig(t *testing.T) {
	isolateSkillDirs(t)
	config := NewDiscoveryConfig()
	config.Exclude = []string{"[broken"}

	_, err := discoverSkills(context.Background(), config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid discovery configuration")
}
