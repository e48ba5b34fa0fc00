package skills

import (
	"context"
	"io/fs"
	"os"
	"syscall"
	"time"

	"github.com/jingkaihe/skillsd/pkg/logger"
	"github.com/pkg/errors"
)

var (
	// ErrSkillNotFound is returned when the candidate SKILL.md does not exist
	ErrSkillNotFound = errors.New("skill file not found")
	// ErrPermissionDenied is returned when the candidate SKILL.md cannot be read
	ErrPermissionDenied = errors.New("permission denied reading skill file")
)

// Loader reads and validates individual SKILL.md files
type Loader struct {
	now func() time.Time
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithClock overrides the clock used to stamp LastLoaded
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		l.now = now
	}
}

// NewLoader creates a new skill file loader
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads the SKILL.md at path and builds a Skill stamped with the given provenance.
// The returned error wraps ErrSkillNotFound, ErrPermissionDenied or one of the frontmatter
// verdicts so callers can tell the outcomes apart with errors.Is.
func (l *Loader) LoadFile(path, baseDir string, source Source, location Location) (*Skill, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, classifyFSError(err, path)
	}
	if info.IsDir() {
		return nil, errors.Errorf("%s is a directory", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyFSError(err, path)
	}

	fm, err := ParseFrontmatter(string(content))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid skill file %s", path)
	}

	return &Skill{
		Name:          fm.Name,
		Description:   fm.Description,
		BaseDirectory: baseDir,
		FilePath:      path,
		Content:       string(content),
		LastLoaded:    l.now(),
		Source:        source,
		Location:      location,
	}, nil
}

// Load is LoadFile with diagnostics: it logs every failure except a missing file
// and returns nil instead of an error.
func (l *Loader) Load(ctx context.Context, path, baseDir string, source Source, location Location) *Skill {
	skill, err := l.LoadFile(path, baseDir, source, location)
	if err == nil {
		return skill
	}

	log := logger.G(ctx).WithField("path", path)
	switch {
	case errors.Is(err, ErrSkillNotFound):
		log.Trace("no skill file")
	case errors.Is(err, ErrPermissionDenied):
		log.Warn("permission denied reading skill file")
	case IsFrontmatterError(err):
		log.WithError(err).Warn("skill has malformed frontmatter or missing required fields (name, description)")
	default:
		log.WithError(err).Warn("failed to load skill file")
	}

	return nil
}

// IsFrontmatterError reports whether err is one of the frontmatter parse verdicts
func IsFrontmatterError(err error) bool {
	return errors.Is(err, ErrMissingFrontmatter) ||
		errors.Is(err, ErrMalformedFrontmatter) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidFieldType)
}

func classifyFSError(err error, path string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return errors.Wrap(ErrSkillNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return errors.Wrap(ErrPermissionDenied, path)
	default:
		return errors.Wrapf(err, "failed to read skill file %s", path)
	}
}
