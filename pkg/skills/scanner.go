package skills

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jingkaihe/skillsd/pkg/logger"
	"github.com/pkg/errors"
)

// DefaultMaxDepth bounds how deep a recursive scan descends below its root
const DefaultMaxDepth = 16

// Scanner finds skill directories below a root and loads their SKILL.md files
type Scanner struct {
	loader   *Loader
	excludes []string
	maxDepth int
}

// ScannerOption configures a Scanner
type ScannerOption func(*Scanner) error

// WithScanExcludes prunes recursive scans. Patterns use doublestar syntax
// and are matched against the slash-separated path relative to the root.
func WithScanExcludes(patterns ...string) ScannerOption {
	return func(s *Scanner) error {
		for _, pattern := range patterns {
			if !doublestar.ValidatePattern(pattern) {
				return errors.Errorf("invalid exclude pattern %q", pattern)
			}
		}
		s.excludes = patterns
		return nil
	}
}

// WithScanMaxDepth sets the maximum recursion depth; values below 1 keep the default
func WithScanMaxDepth(depth int) ScannerOption {
	return func(s *Scanner) error {
		if depth > 0 {
			s.maxDepth = depth
		}
		return nil
	}
}

// NewScanner creates a scanner that loads skills through loader
func NewScanner(loader *Loader, opts ...ScannerOption) (*Scanner, error) {
	if loader == nil {
		loader = NewLoader()
	}
	s := &Scanner{
		loader:   loader,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Scan scans an already resolved directory using the strategy of root
func (s *Scanner) Scan(ctx context.Context, dir string, root Root) []*Skill {
	if root.Recursive {
		return s.ScanRecursive(ctx, dir, root.Source, root.Location)
	}
	return s.ScanShallow(ctx, dir, root.Source, root.Location)
}

// ScanShallow probes every immediate subdirectory of dir for a SKILL.md file.
// Symlinks to directories are followed; plain files are ignored.
// A missing dir yields no skills.
func (s *Scanner) ScanShallow(ctx context.Context, dir string, source Source, location Location) []*Skill {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logListError(ctx, dir, err)
		return nil
	}

	var found []*Skill
	for _, entry := range entries {
		if ctx.Err() != nil {
			return found
		}

		entryPath := filepath.Join(dir, entry.Name())
		info, err := os.Stat(entryPath)
		if err != nil || !info.IsDir() {
			continue
		}

		skill := s.loader.Load(ctx, filepath.Join(entryPath, SkillFileName), entryPath, source, location)
		if skill != nil {
			logger.G(ctx).WithField("skill", skill.Name).WithField("source", source).Debug("found skill")
			found = append(found, skill)
		}
	}

	return found
}

type scanFrame struct {
	path  string
	depth int
}

// ScanRecursive walks the tree below dir depth-first in listing order. Any directory
// holding a SKILL.md is loaded as a skill and the walk still continues into its
// subdirectories. Unlistable directories are skipped and symlinked directories are
// not followed.
func (s *Scanner) ScanRecursive(ctx context.Context, dir string, source Source, location Location) []*Skill {
	var found []*Skill
	stack := []scanFrame{{path: dir}}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			return found
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(current.path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.G(ctx).WithField("path", current.path).WithError(err).Debug("skipping unlistable directory")
			}
			continue
		}

		if containsSkillFile(entries) {
			skill := s.loader.Load(ctx, filepath.Join(current.path, SkillFileName), current.path, source, location)
			if skill != nil {
				logger.G(ctx).WithField("skill", skill.Name).WithField("source", source).Debug("found skill")
				found = append(found, skill)
			}
		}

		if current.depth >= s.maxDepth {
			logger.G(ctx).WithField("path", current.path).Debug("maximum scan depth reached")
			continue
		}

		// pushed in reverse so subdirectories are popped in listing order
		for i := len(entries) - 1; i >= 0; i-- {
			entry := entries[i]
			if !entry.IsDir() {
				continue
			}
			child := filepath.Join(current.path, entry.Name())
			if s.excluded(dir, child) {
				continue
			}
			stack = append(stack, scanFrame{path: child, depth: current.depth + 1})
		}
	}

	return found
}

func (s *Scanner) excluded(root, path string) bool {
	if len(s.excludes) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func containsSkillFile(entries []os.DirEntry) bool {
	for _, entry := range entries {
		if entry.Name() == SkillFileName && !entry.IsDir() {
			return true
		}
	}
	return false
}

func logListError(ctx context.Context, dir string, err error) {
	log := logger.G(ctx).WithField("path", dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Trace("skill directory does not exist")
	case errors.Is(err, fs.ErrPermission):
		log.Warn("permission denied listing skill directory")
	default:
		log.WithError(err).Warn("failed to list skill directory")
	}
}
