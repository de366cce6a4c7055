package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/racewatch/regbot/internal/conf"
)

// Command creates the configuration management command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(initCommand(settings))
	return cmd
}

func initCommand(settings *conf.Settings) *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective settings to a config file",
		Long:  "Write the current settings, including defaults and environment overrides, to a YAML config file as a starting point for editing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", path)
				}
			}
			if err := conf.SaveYAMLConfig(path, settings); err != nil {
				return err
			}
			fmt.Printf("wrote configuration to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "config.yaml", "Path of the config file to write")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
