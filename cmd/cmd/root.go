package cmd

import (
	"github.com/ostafen/ecsfs/internal/env"
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     env.AppName,
		Short:   env.AppName + " - ECS150FS volume tool",
		Version: env.Version,
	}

	rootCmd.PersistentFlags().String("config", "", "path of the YAML configuration file (default $"+configEnvVar+")")
	rootCmd.PersistentFlags().String("log-level", "", "minimum log level: DEBUG, INFO, WARN or ERROR")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to the specified file")

	rootCmd.AddCommand(
		DefineFormatCommand(),
		DefineInfoCommand(),
		DefineLsCommand(),
		DefineAddCommand(),
		DefineCatCommand(),
		DefineRmCommand(),
		DefineStatCommand(),
		DefineCheckCommand(),
		DefineMountCommand(),
		DefineSnapshotCommand(),
	)
	return rootCmd
}

func Execute() error {
	return NewRootCommand().Execute()
}
