package main

import (
	"strings"

	"github.com/bsmkit/bsmc/pkg/cfg"
	"github.com/spf13/cobra"
)

func (c *CLI) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use: "bsm",

		// needed to properly bind CLI flags with viper values from env and YML files
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.configure()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			c.exit()
			return nil
		},
	}
	cmd.AddCommand(c.versionCmd())
	cmd.AddCommand(c.setupCmd())
	cmd.AddCommand(c.configCmd())
	cmd.AddCommand(c.managerCmd())
	cmd.AddCommand(c.serverCmd())
	cmd.AddCommand(c.serviceCmd())
	cmd.AddCommand(c.bridgeCmd())
	c.rootFlags(cmd)
	return cmd
}

func (c *CLI) rootFlags(cmd *cobra.Command) {
	cv := c.config.Values()

	cmd.PersistentFlags().StringVar(&(cv.Input.Format),
		"input-format", cv.Input.Format,
		"Controls input format (yml|json)")
	cmd.PersistentFlags().StringVar(&(cv.Input.File),
		"input-file", cv.Input.File,
		"Provides input as file path")
	cmd.PersistentFlags().StringVar(&(cv.Input.String),
		"input-string", cv.Input.String,
		"Provides input as string")
	cmd.PersistentFlags().StringVar(&(cv.Output.Format),
		"output-format", cv.Output.Format,
		"Controls output format ("+strings.Join(cfg.OutputFormats(), "|")+")")
	cmd.PersistentFlags().StringVar(&(cv.Output.Value),
		"output-value", cv.Output.Value,
		"Limits output to single variable")
	cmd.PersistentFlags().StringVarP(&(cv.Manager.Filter.ID),
		"manager-id", "M", cv.Manager.Filter.ID,
		"Use only manager(s) with matching ID (glob pattern allowed)")
}
