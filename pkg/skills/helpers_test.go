package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeSkill creates <root>/<dir>/SKILL.md with the given name and description
func writeSkill(t *testing.T, root, dir, name, description string) string {
	t.Helper()
	return writeSkillFile(t, filepath.Join(root, dir), fmt.Sprintf("---\nname: %s\ndescription: %s\n---\n\n# %s\n", name, description, name))
}

func writeSkillFile(t *testing.T, skillDir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	path := filepath.Join(skillDir, SkillFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func skillNames(list []*Skill) []string {
	names := make([]string, 0, len(list))
	for _, skill := range list {
		names = append(names, skill.Name)
	}
	return names
}
