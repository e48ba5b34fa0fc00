// Package skills discovers SKILL.md documents across prioritized directories
// and keeps their parsed metadata and content in an in-memory cache.
// A skill is a directory containing a SKILL.md file whose YAML frontmatter
// carries at least a name and a description.
package skills

import "time"

// SkillFileName is the fixed name of the document inside a skill directory
const SkillFileName = "SKILL.md"

// Source identifies which configured root a skill was discovered under
type Source string

const (
	SourceProjectUniversal Source = "project-universal"
	SourceProjectClaude    Source = "project-claude"
	SourceGlobalUniversal  Source = "global-universal"
	SourceGlobalClaude     Source = "global-claude"
	// SourceCustom tags every operator-supplied root
	SourceCustom Source = "custom"
)

// Location tells whether a skill came from a project-local or a user-global root
type Location string

const (
	LocationProject Location = "project"
	LocationGlobal  Location = "global"
)

// Skill is a discovered skill. Records are never modified after creation;
// a refresh builds new ones.
type Skill struct {
	Name          string    `json:"name" yaml:"name"`
	Description   string    `json:"description" yaml:"description"`
	BaseDirectory string    `json:"baseDirectory" yaml:"baseDirectory"` // absolute path of the skill directory
	FilePath      string    `json:"filePath" yaml:"filePath"`           // absolute path of SKILL.md
	Content       string    `json:"-" yaml:"-"`                         // raw document, frontmatter included
	LastLoaded    time.Time `json:"lastLoaded" yaml:"lastLoaded"`
	Source        Source    `json:"source" yaml:"source"`
	Location      Location  `json:"location" yaml:"location"`
}

// Key returns the normalized cache key of the skill
func (s *Skill) Key() string {
	return NormalizeName(s.Name)
}
