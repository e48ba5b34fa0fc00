package main

import (
	"strings"
	"time"

	"github.com/jingkaihe/skillsd/pkg/skills"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

func setDefaults() {
	viper.SetDefault("skills.recursive", false)
	viper.SetDefault("skills.max_depth", skills.DefaultMaxDepth)
	viper.SetDefault("skills.refresh_interval", skills.DefaultRefreshInterval)
	viper.SetDefault("transport", transportStdio)
	viper.SetDefault("http.addr", defaultHTTPAddr)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "fmt")
}

// DiscoveryConfig holds the skill discovery settings shared by every command
type DiscoveryConfig struct {
	Dirs      []string
	Recursive bool
	Exclude   []string
	MaxDepth  int
	Allowed   []string
}

func NewDiscoveryConfig() *DiscoveryConfig {
	return &DiscoveryConfig{
		Dirs:      []string{},
		Recursive: false,
		Exclude:   []string{},
		MaxDepth:  skills.DefaultMaxDepth,
		Allowed:   []string{},
	}
}

// Options converts the configuration into discovery options
func (c *DiscoveryConfig) Options() []skills.Option {
	return []skills.Option{
		skills.WithExtraDirs(c.Dirs...),
		skills.WithRecursiveCustomDirs(c.Recursive),
		skills.WithExcludes(c.Exclude...),
		skills.WithMaxDepth(c.MaxDepth),
		skills.WithAllowlist(c.Allowed...),
	}
}

func addDiscoveryFlags(cmd *cobra.Command) {
	defaults := NewDiscoveryConfig()
	cmd.Flags().StringSliceP("skill-dir", "d", defaults.Dirs, "Additional skill directory, searched after the built-in ones (repeatable)")
	cmd.Flags().Bool("recursive", defaults.Recursive, "Search additional skill directories recursively")
	cmd.Flags().StringSlice("exclude", defaults.Exclude, "Glob of paths to skip during recursive search, e.g. **/node_modules (repeatable)")
	cmd.Flags().Int("max-depth", defaults.MaxDepth, "Maximum depth of recursive search")
	cmd.Flags().StringSlice("allow", defaults.Allowed, "Only load skills whose name matches one of these globs (repeatable)")
}

// getDiscoveryConfigFromFlags layers explicitly set flags over the viper configuration
func getDiscoveryConfigFromFlags(cmd *cobra.Command) *DiscoveryConfig {
	config := NewDiscoveryConfig()

	if viper.IsSet("skills.dirs") {
		config.Dirs = viper.GetStringSlice("skills.dirs")
	}
	config.Recursive = viper.GetBool("skills.recursive")
	if viper.IsSet("skills.exclude") {
		config.Exclude = viper.GetStringSlice("skills.exclude")
	}
	if depth := viper.GetInt("skills.max_depth"); depth > 0 {
		config.MaxDepth = depth
	}
	if viper.IsSet("skills.allowed") {
		config.Allowed = viper.GetStringSlice("skills.allowed")
	}

	flags := cmd.Flags()
	if flags.Changed("skill-dir") {
		if dirs, err := flags.GetStringSlice("skill-dir"); err == nil {
			config.Dirs = dirs
		}
	}
	if flags.Changed("recursive") {
		if recursive, err := flags.GetBool("recursive"); err == nil {
			config.Recursive = recursive
		}
	}
	if flags.Changed("exclude") {
		if exclude, err := flags.GetStringSlice("exclude"); err == nil {
			config.Exclude = exclude
		}
	}
	if flags.Changed("max-depth") {
		if depth, err := flags.GetInt("max-depth"); err == nil {
			config.MaxDepth = depth
		}
	}
	if flags.Changed("allow") {
		if allowed, err := flags.GetStringSlice("allow"); err == nil {
			config.Allowed = allowed
		}
	}

	return config
}

// refreshInterval reads skills.refresh_interval, falling back to the default for non-positive values
func refreshInterval() time.Duration {
	interval := viper.GetDuration("skills.refresh_interval")
	if interval <= 0 {
		return skills.DefaultRefreshInterval
	}
	return interval
}
