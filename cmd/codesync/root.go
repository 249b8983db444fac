package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/manpreetbhatti/codesync/internal/config"
	"github.com/manpreetbhatti/codesync/internal/logging"
)

// Set at build time with -ldflags.
var (
	version = "dev"
	commit  = "none"
)

type commandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "codesync",
		Short:         "Real-time collaborative code editing relay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to codesync.yml config file")

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func getOptions(cmd *cobra.Command) commandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return commandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// setup loads configuration and applies it, and the command flags, to the
// shared logger.
func setup(cmd *cobra.Command) (*config.Config, error) {
	opts := getOptions(cmd)

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	var logOpts []logging.Option
	if opts.Verbose {
		logOpts = append(logOpts, logging.WithLevel(logrus.DebugLevel))
	}
	if opts.JSONOutput {
		logOpts = append(logOpts, logging.WithJSON())
	}
	logging.Configure(cfg.Logging, logOpts...)

	return cfg, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of codesync",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("codesync %s\n", version)
			cmd.Printf("  Commit:    %s\n", commit)
		},
	}
}
