package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coursetools/courseup/internal/manifests"
)

const defaultManifestFile = "courseup.yaml"

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in course manifest to courseup.yaml for customisation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(defaultManifestFile); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", defaultManifestFile)
			}

			if err := os.WriteFile(defaultManifestFile, manifests.Builtin(), 0o644); err != nil {
				return fmt.Errorf("write manifest: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s — edit it, then run: courseup provision -c %s\n", defaultManifestFile, defaultManifestFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing manifest")

	return cmd
}
