package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jingkaihe/skillsd/pkg/mcpserver"
	"github.com/jingkaihe/skillsd/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <skill-name>",
	Short: "Print a skill exactly as the skill tool returns it",
	Long: `Scan the skill directories once and print the response an MCP client would
receive when invoking the skill tool with the given name. The lookup ignores
case and surrounding whitespace.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getDiscoveryConfigFromFlags(cmd)
		if err := runShowCommand(ctx, config, args[0], os.Stdout); err != nil {
			presenter.Error(err, "")
			os.Exit(1)
		}
	},
}

func init() {
	addDiscoveryFlags(showCmd)
}

func runShowCommand(ctx context.Context, config *DiscoveryConfig, name string, w io.Writer) error {
	cache, err := discoverSkills(ctx, config)
	if err != nil {
		return err
	}

	if skill, ok := cache.Get(name); ok {
		fmt.Fprintln(w, mcpserver.FormatSkillContent(skill))
		return nil
	}

	fmt.Fprintln(w, mcpserver.FormatSkillNotFound(name, cache.All()))
	return errors.Errorf("skill %q not found", name)
}
