package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/automator/internal/cli"
	"github.com/aretw0/automator/internal/presentation/graph"
	"github.com/aretw0/automator/internal/presentation/tui"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Render a recipe's condition groups",
	Long: `Renders condition groups as markdown (styled when stdout is a terminal) or as a
Mermaid flowchart.

With a file argument the groups are built from a YAML groups file. With --recipe
they are read from the configured group store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Int64("recipe", 0, "read the groups of this recipe from the configured store")
	inspectCmd.Flags().String("format", "markdown", "output format: markdown or mermaid")
	inspectCmd.Flags().Int64("action", 0, "highlight the groups gating this action (mermaid only)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	recipe, _ := cmd.Flags().GetInt64("recipe")
	format, _ := cmd.Flags().GetString("format")
	action, _ := cmd.Flags().GetInt64("action")

	if format != "markdown" && format != "mermaid" {
		return fmt.Errorf("unknown format: %s. Supported: markdown, mermaid", format)
	}

	recipeID, loaded, err := loadGroups(cmd.Context(), args, domain.RecipeID(recipe))
	if err != nil {
		return err
	}

	if format == "mermaid" {
		var overlay *graph.GraphOverlay
		if action > 0 {
			overlay = &graph.GraphOverlay{Action: domain.ActionID(action)}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(loaded, overlay))
		return nil
	}

	render := tui.NewRenderer(os.Stdout)
	out, err := render(tui.GroupsMarkdown(recipeID, loaded))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func loadGroups(ctx context.Context, args []string, recipe domain.RecipeID) (domain.RecipeID, []domain.Group, error) {
	switch {
	case len(args) == 1 && recipe != 0:
		return 0, nil, errors.New("pass either a file or --recipe, not both")

	case len(args) == 1:
		file, err := cli.ReadGroupsFile(args[0])
		if err != nil {
			return 0, nil, err
		}
		catalog, _, err := cli.BuildCatalog(ctx, cfg.Catalog, logger)
		if err != nil {
			return 0, nil, err
		}
		loaded, err := cli.LoadFile(ctx, file, catalog)
		return file.RecipeID, loaded, err

	case recipe > 0:
		deps, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return 0, nil, err
		}
		defer deps.Close()
		loaded, err := deps.Service.List(ctx, recipe)
		return recipe, loaded, err

	default:
		return 0, nil, errors.New("nothing to inspect: pass a groups file or --recipe")
	}
}
