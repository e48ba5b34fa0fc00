package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jingkaihe/skillsd/pkg/logger"
	"github.com/jingkaihe/skillsd/pkg/presenter"
	"github.com/jingkaihe/skillsd/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"

	maxDescriptionWidth = 60
)

type ListConfig struct {
	Discovery *DiscoveryConfig
	Output    string
}

func NewListConfig() *ListConfig {
	return &ListConfig{
		Discovery: NewDiscoveryConfig(),
		Output:    outputTable,
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the skills the server would expose",
	Long: `Scan the skill directories once and list every skill that would be served,
after priority resolution and the allowlist are applied.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getListConfigFromFlags(cmd)
		runListCommand(ctx, config, os.Stdout)
	},
}

func init() {
	defaults := NewListConfig()
	addDiscoveryFlags(listCmd)
	listCmd.Flags().StringP("output", "o", defaults.Output, "Output format (table, json, yaml)")
}

func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()
	config.Discovery = getDiscoveryConfigFromFlags(cmd)
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	return config
}

func runListCommand(ctx context.Context, config *ListConfig, w io.Writer) {
	cache, err := discoverSkills(ctx, config.Discovery)
	if err != nil {
		presenter.Error(err, "failed to discover skills")
		os.Exit(1)
	}

	if err := renderSkills(w, cache.All(), config.Output); err != nil {
		presenter.Error(err, "failed to render skills")
		os.Exit(1)
	}
}

// discoverSkills runs a single scan and returns the populated cache.
// Per-root failures are reported as warnings and do not fail the command.
func discoverSkills(ctx context.Context, config *DiscoveryConfig) (*skills.Cache, error) {
	discovery, err := skills.NewDiscovery(config.Options()...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid discovery configuration")
	}

	if _, err := discovery.Scan(ctx); err != nil {
		logger.G(ctx).WithError(err).Warn("skill scan completed with errors")
		presenter.Warning(err.Error())
	}

	return discovery.Cache(), nil
}

func renderSkills(w io.Writer, list []*skills.Skill, format string) error {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return errors.Wrap(encoder.Encode(list), "failed to encode skills as JSON")
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(list); err != nil {
			return errors.Wrap(err, "failed to encode skills as YAML")
		}
		return errors.Wrap(encoder.Close(), "failed to flush YAML output")
	case outputTable:
		if len(list) == 0 {
			fmt.Fprintln(w, "No skills found.")
			return nil
		}
		rows := make([][]string, 0, len(list))
		for _, skill := range list {
			rows = append(rows, []string{
				skill.Name,
				string(skill.Source),
				string(skill.Location),
				truncate(skill.Description, maxDescriptionWidth),
			})
		}
		presenter.NewWithOptions(w, os.Stderr, presenter.ColorAuto).Table(
			[]string{"NAME", "SOURCE", "LOCATION", "DESCRIPTION"},
			rows,
		)
		return nil
	default:
		return errors.Errorf("unsupported output format %q (expected %s, %s or %s)", format, outputTable, outputJSON, outputYAML)
	}
}

// truncate shortens s to at most width runes, marking the cut with an ellipsis
func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
