package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configcmd "github.com/racewatch/regbot/cmd/config"
	runcmd "github.com/racewatch/regbot/cmd/run"
	synccmd "github.com/racewatch/regbot/cmd/sync"
	watchescmd "github.com/racewatch/regbot/cmd/watches"
	"github.com/racewatch/regbot/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "regbot",
		Short: "Race registration watch service",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		runcmd.Command(settings),
		synccmd.Command(settings),
		watchescmd.Command(settings),
		configcmd.Command(settings),
	)

	return rootCmd
}

// setupFlags configures the global flags for the root command.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}
