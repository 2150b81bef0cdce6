package main

import (
	"github.com/bsmkit/bsmc/pkg/cfg"
	"github.com/spf13/cobra"
)

func (c *CLI) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manages BSM configuration",
	}
	cmd.AddCommand(c.configValuesCmd())
	return cmd
}

func (c *CLI) configValuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "values",
		Aliases: []string{"get-all"},
		Short:   "Read all configuration values",
		Run: func(cmd *cobra.Command, args []string) {
			c.SetOutput("file", cfg.File())
			c.SetOutput("values", c.config.Values().String())
			c.Ok("config values read")
		},
	}
	return cmd
}
