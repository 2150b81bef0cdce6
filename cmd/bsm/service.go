package main

import (
	"fmt"

	"github.com/bsmkit/bsmc/pkg"
	"github.com/bsmkit/bsmc/pkg/cfg"
	"github.com/spf13/cobra"
)

// serviceCmd invokes the same service surface the bridge exposes over MQTT,
// but directly from the command line.
func (c *CLI) serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "service call <service>",
		Aliases: []string{"svc"},
		Short:   "Calls a service on targeted server(s)",
		Long: "Calls a service on targeted server(s).\n" +
			"Service data is read from --input-string or --input-file when provided.",
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if args[0] != "call" {
				c.Fail(fmt.Sprintf("unknown service subcommand '%s'", args[0]))
				return
			}
			devices, _ := cmd.Flags().GetStringSlice("device")
			entities, _ := cmd.Flags().GetStringSlice("entity")
			patterns, _ := cmd.Flags().GetStringSlice("pattern")
			managers, _ := cmd.Flags().GetStringSlice("manager")

			var data map[string]any
			cv := c.config.Values()
			if cv.Input.String != "" || cv.Input.File != cfg.InputStdin {
				if err := c.ReadInput(&data); err != nil {
					c.Error(err)
					return
				}
			}

			dispatcher := pkg.NewBridge(c.bsm).Dispatcher()
			result := dispatcher.Dispatch(cmd.Context(), pkg.ServiceCall{
				Service: args[1],
				Target: pkg.ServiceTarget{
					Devices:  devices,
					Entities: entities,
					Patterns: patterns,
					Managers: managers,
				},
				Data: data,
			})
			c.SetOutput("result", result)
			if result.Error != "" {
				c.Fail(result.Error)
			} else if !result.Succeeded {
				c.Fail(fmt.Sprintf("service '%s' failed on some target(s)", args[1]))
			} else {
				c.Changed(fmt.Sprintf("service '%s' called on %d target(s)", args[1], len(result.Outcomes)))
			}
		},
	}
	cmd.Flags().StringSlice("device", nil, "Target device ID(s)")
	cmd.Flags().StringSlice("entity", nil, "Target entity unique ID(s)")
	cmd.Flags().StringSlice("pattern", nil, "Target server name pattern(s), optionally 'manager:server'")
	cmd.Flags().StringSlice("manager", nil, "Target manager ID(s) (manager-level services)")
	return cmd
}
