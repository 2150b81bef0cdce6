package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/bsmkit/bsmc/pkg"
	"github.com/spf13/cobra"
)

func (c *CLI) bridgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Manages the MQTT bridge daemon",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Runs the MQTT bridge until interrupted",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			bridge := pkg.NewBridge(c.bsm)
			if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
				c.Error(err)
				return
			}
			c.Ok("bridge stopped")
		},
	})
	return cmd
}
