package main

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/automator/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a groups file against the condition catalog",
	Long: `Builds every group of a YAML groups file against the configured condition
catalog and reports the first failure of each group. Exits non-zero if any group fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, out io.Writer, path string) error {
	file, err := cli.ReadGroupsFile(path)
	if err != nil {
		return err
	}
	catalog, _, err := cli.BuildCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range cli.ValidateFile(ctx, file, catalog) {
		if r.OK() {
			fmt.Fprintf(out, "ok    group %s\n", r.Name())
			continue
		}
		failed++
		fmt.Fprintf(out, "FAIL  group %s: %v\n", r.Name(), r.Err)
	}

	if failed > 0 {
		return fmt.Errorf("validation failed: %d of %d groups", failed, len(file.Groups))
	}
	cli.PrintSystemMessage(out, "All %d groups of recipe %s are valid.", len(file.Groups), file.RecipeID)
	return nil
}
