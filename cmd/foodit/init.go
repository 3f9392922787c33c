package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/foodit-dev/foodit/internal/config"
	"github.com/foodit-dev/foodit/internal/errors"
)

func initCmd(configDir *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default foodit.json",
		Long: `Write foodit.json with the default settings to the config directory.

Secrets are not written; set FOODIT_BACKEND_JWT_SECRET and the
FOODIT_IMAGES_* keys in the environment instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.Exists(*configDir) && !force {
				return errors.New("E101").
					WithDetail("A configuration file already exists in " + *configDir).
					WithSuggestion("Use --force to overwrite it")
			}
			path := filepath.Join(*configDir, config.ConfigFileName)
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration")

	return cmd
}
