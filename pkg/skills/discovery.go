package skills

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillsd/pkg/logger"
	"github.com/jingkaihe/skillsd/pkg/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// Root is one configured directory searched for skills
type Root struct {
	Path      string
	Source    Source
	Location  Location
	Recursive bool
}

// DefaultRoots returns the built-in roots in priority order (first match wins)
func DefaultRoots() []Root {
	return []Root{
		{Path: "./.agent/skills", Source: SourceProjectUniversal, Location: LocationProject},
		{Path: "./.claude/skills", Source: SourceProjectClaude, Location: LocationProject},
		{Path: "~/.agent/skills", Source: SourceGlobalUniversal, Location: LocationGlobal},
		{Path: "~/.claude/skills", Source: SourceGlobalClaude, Location: LocationGlobal},
	}
}

// CustomRoots turns operator supplied directories into custom roots, keeping their order
func CustomRoots(dirs []string, recursive bool) []Root {
	roots := make([]Root, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		roots = append(roots, Root{
			Path:      dir,
			Source:    SourceCustom,
			Location:  LocationGlobal,
			Recursive: recursive,
		})
	}
	return roots
}

// Status describes the outcome of the most recent scan
type Status struct {
	LastScan  time.Time `json:"lastScan"`
	Skills    int       `json:"skills"`
	LastError string    `json:"lastError,omitempty"`
}

// Discovery scans the configured roots and publishes the result into a Cache
type Discovery struct {
	roots           []Root
	extraDirs       []string
	recursive       bool
	excludes        []string
	maxDepth        int
	allowPatterns   []string
	allowlist       *Allowlist
	cache           *Cache
	loader          *Loader
	scanner         *Scanner
	scanMu          sync.Mutex
	statusMu        sync.RWMutex
	status          Status
	rootsOverridden bool
}

// Option is a function that configures a Discovery
type Option func(*Discovery) error

// WithRoots replaces the built-in roots. Extra directories are still appended after them.
func WithRoots(roots ...Root) Option {
	return func(d *Discovery) error {
		d.roots = roots
		d.rootsOverridden = true
		return nil
	}
}

// WithExtraDirs appends operator supplied directories as custom roots
func WithExtraDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		d.extraDirs = append(d.extraDirs, dirs...)
		return nil
	}
}

// WithRecursiveCustomDirs makes custom roots use the recursive scan
func WithRecursiveCustomDirs(recursive bool) Option {
	return func(d *Discovery) error {
		d.recursive = recursive
		return nil
	}
}

// WithExcludes sets doublestar patterns pruned from recursive scans
func WithExcludes(patterns ...string) Option {
	return func(d *Discovery) error {
		d.excludes = patterns
		return nil
	}
}

// WithMaxDepth bounds recursive scans
func WithMaxDepth(depth int) Option {
	return func(d *Discovery) error {
		d.maxDepth = depth
		return nil
	}
}

// WithAllowlist keeps only skills whose names match one of the glob patterns
func WithAllowlist(patterns ...string) Option {
	return func(d *Discovery) error {
		d.allowPatterns = patterns
		return nil
	}
}

// WithCache publishes scans into the given cache instead of a private one
func WithCache(cache *Cache) Option {
	return func(d *Discovery) error {
		if cache == nil {
			return errors.New("cache cannot be nil")
		}
		d.cache = cache
		return nil
	}
}

// WithLoader sets the loader used for individual skill files
func WithLoader(loader *Loader) Option {
	return func(d *Discovery) error {
		if loader == nil {
			return errors.New("loader cannot be nil")
		}
		d.loader = loader
		return nil
	}
}

// NewDiscovery creates a new skill discovery instance
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	if !d.rootsOverridden {
		d.roots = DefaultRoots()
	}
	d.roots = append(append([]Root(nil), d.roots...), CustomRoots(d.extraDirs, d.recursive)...)

	if d.cache == nil {
		d.cache = NewCache()
	}
	if d.loader == nil {
		d.loader = NewLoader()
	}

	allowlist, err := NewAllowlist(d.allowPatterns)
	if err != nil {
		return nil, err
	}
	d.allowlist = allowlist

	scanner, err := NewScanner(d.loader, WithScanExcludes(d.excludes...), WithScanMaxDepth(d.maxDepth))
	if err != nil {
		return nil, err
	}
	d.scanner = scanner

	return d, nil
}

// Roots returns the configured roots in priority order
func (d *Discovery) Roots() []Root {
	return append([]Root(nil), d.roots...)
}

// Cache returns the live cache the discovery publishes into
func (d *Discovery) Cache() *Cache {
	return d.cache
}

// Status returns the outcome of the most recent scan
func (d *Discovery) Status() Status {
	d.statusMu.RLock()
	defer d.statusMu.RUnlock()
	return d.status
}

// Scan performs a full scan of every root and replaces the cache contents.
// The new snapshot is built off to the side and swapped in at the end, so readers
// never observe a partially populated cache. Roots that cannot be resolved are
// skipped and reported in the returned error while the snapshot is still published.
// If ctx is cancelled mid-scan the snapshot is abandoned and the cache is left untouched.
func (d *Discovery) Scan(ctx context.Context) (int, error) {
	d.scanMu.Lock()
	defer d.scanMu.Unlock()

	var count int
	err := telemetry.WithSpan(ctx, "skills.scan", func(ctx context.Context) error {
		next := NewCache()
		var result *multierror.Error

		for _, root := range d.roots {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "skill scan abandoned")
			}

			dir, err := resolveRoot(root.Path)
			if err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "failed to resolve skill directory %s", root.Path))
				continue
			}

			logger.G(ctx).WithField("root", root.Path).WithField("path", dir).Debug("scanning skill directory")
			d.merge(ctx, next, d.scanner.Scan(ctx, dir, root))
		}

		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "skill scan abandoned")
		}

		d.cache.Replace(next)
		count = next.Len()
		telemetry.SetAttributes(ctx, attribute.Int("skills.count", count))
		return result.ErrorOrNil()
	}, attribute.Int("skills.roots", len(d.roots)))

	if err != nil && ctx.Err() != nil {
		return d.cache.Len(), err
	}

	d.recordStatus(count, err)
	logger.G(ctx).WithField("count", count).Info("skills discovered")
	return count, err
}

// merge inserts skills into cache unless a higher priority root already provided the name
func (d *Discovery) merge(ctx context.Context, cache *Cache, found []*Skill) {
	for _, skill := range found {
		log := logger.G(ctx).WithField("skill", skill.Name).WithField("source", skill.Source)

		if !d.allowlist.Allows(skill.Name) {
			log.Debug("skill not in allowlist, skipping")
			continue
		}

		if existing, ok := cache.Get(skill.Name); ok {
			log.WithField("kept_source", existing.Source).
				WithField("kept_path", existing.FilePath).
				Info("skipping duplicate skill (already loaded from higher priority)")
			continue
		}

		cache.Set(skill)
	}
}

func (d *Discovery) recordStatus(count int, err error) {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()
	d.status = Status{
		LastScan: time.Now(),
		Skills:   count,
	}
	if err != nil {
		d.status.LastError = err.Error()
	}
}

// resolveRoot expands "~" and makes the path absolute
func resolveRoot(path string) (string, error) {
	return filepath.Abs(ResolveHomePath(path))
}
