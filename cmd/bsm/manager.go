package main

import (
	"fmt"

	"github.com/bsmkit/bsmc/pkg"
	"github.com/bsmkit/bsmc/pkg/common/lox"
	"github.com/spf13/cobra"
)

func (c *CLI) managerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "manager",
		Aliases: []string{"mgr"},
		Short:   "Manages Bedrock Server Manager connection(s)",
	}
	cmd.AddCommand(c.managerListCmd())
	cmd.AddCommand(c.managerInfoCmd())
	cmd.AddCommand(c.managerPlayersCmd())
	cmd.AddCommand(c.managerScanPlayersCmd())
	cmd.AddCommand(c.managerPruneDownloadsCmd())
	cmd.AddCommand(c.managerInstallCmd())
	cmd.AddCommand(c.managerDiagnoseCmd())
	return cmd
}

func (c *CLI) managerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Lists configured manager(s)",
		Run: func(cmd *cobra.Command, args []string) {
			managers, err := c.bsm.ManagerRegistry().Some()
			if err != nil {
				c.Error(err)
				return
			}
			states, _ := lox.Map(false, managers, func(m *pkg.Manager) (pkg.ManagerState, error) {
				return m.State(), nil
			})
			c.SetOutput("managers", states)
			c.Ok("managers listed")
		},
	}
}

func (c *CLI) managerInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Reads manager application details",
		Run: func(cmd *cobra.Command, args []string) {
			manager, err := c.bsm.ManagerRegistry().One()
			if err != nil {
				c.Error(err)
				return
			}
			info, err := manager.Info(cmd.Context())
			if err != nil {
				c.Error(err)
				return
			}
			c.SetOutput("info", info.Info)
			c.Ok("manager info read")
		},
	}
}

func (c *CLI) managerPlayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "Lists players known across all servers",
		Run: func(cmd *cobra.Command, args []string) {
			manager, err := c.bsm.ManagerRegistry().One()
			if err != nil {
				c.Error(err)
				return
			}
			players, err := manager.GlobalPlayers(cmd.Context())
			if err != nil {
				c.Error(err)
				return
			}
			c.SetOutput("players", players.Players)
			c.Ok(fmt.Sprintf("players listed (%d)", len(players.Players)))
		},
	}
}

func (c *CLI) managerScanPlayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan-players",
		Short: "Rescans server logs for player identities",
		Run: func(cmd *cobra.Command, args []string) {
			manager, err := c.bsm.ManagerRegistry().One()
			if err != nil {
				c.Error(err)
				return
			}
			result := manager.ScanPlayers(cmd.Context())
			c.SetOutput("result", result)
			if result.Succeeded() {
				c.Changed("player logs scanned")
			} else {
				c.Fail(result.Message)
			}
		},
	}
}

func (c *CLI) managerPruneDownloadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune-downloads",
		Short: "Trims the manager's download cache",
		Run: func(cmd *cobra.Command, args []string) {
			manager, err := c.bsm.ManagerRegistry().One()
			if err != nil {
				c.Error(err)
				return
			}
			directory, _ := cmd.Flags().GetString("directory")
			keep, _ := cmd.Flags().GetInt("keep")
			result := manager.PruneDownloads(cmd.Context(), directory, keep)
			c.SetOutput("result", result)
			if result.Succeeded() {
				c.Changed("download cache pruned")
			} else {
				c.Fail(result.Message)
			}
		},
	}
	cmd.Flags().String("directory", "", "Cache directory to prune")
	cmd.Flags().Int("keep", -1, "Number of newest files to keep")
	return cmd
}

func (c *CLI) managerInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Provisions a new server on the manager",
		Run: func(cmd *cobra.Command, args []string) {
			manager, err := c.bsm.ManagerRegistry().One()
			if err != nil {
				c.Error(err)
				return
			}
			serverName, _ := cmd.Flags().GetString("server-name")
			serverVersion, _ := cmd.Flags().GetString("server-version")
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			result := manager.InstallServer(cmd.Context(), serverName, serverVersion, overwrite)
			c.SetOutput("result", result)
			if result.Succeeded() {
				c.Changed(fmt.Sprintf("server '%s' installed", serverName))
			} else {
				c.Fail(result.Message)
			}
		},
	}
	cmd.Flags().String("server-name", "", "Name of the new server")
	cmd.Flags().String("server-version", "LATEST", "Bedrock version to install")
	cmd.Flags().Bool("overwrite", false, "Overwrite an existing server of the same name")
	_ = cmd.MarkFlagRequired("server-name")
	return cmd
}

// managerDiagnoseCmd does one full poll of everything and dumps it, which is
// handy when reporting bridge issues.
func (c *CLI) managerDiagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "diagnose",
		Aliases: []string{"diag"},
		Short:   "Dumps a full snapshot of manager(s) and server(s)",
		Run: func(cmd *cobra.Command, args []string) {
			managers, err := c.bsm.ManagerRegistry().Some()
			if err != nil {
				c.Error(err)
				return
			}
			cv := c.config.Values()
			for _, manager := range managers {
				managerSnapshot, err := manager.Coordinator().Refresh(cmd.Context())
				if err != nil {
					c.AddOutput("managers", map[string]any{"id": manager.ID(), "error": err.Error()})
					continue
				}
				servers, err := manager.Servers(cmd.Context())
				if err != nil {
					c.Error(err)
					return
				}
				serverSnapshots := map[string]any{}
				for _, server := range servers {
					snapshot, _ := pkg.NewCoordinator(server, cv.Manager.ServerInterval).Refresh(cmd.Context())
					serverSnapshots[server.Name()] = snapshot
				}
				c.AddOutput("managers", map[string]any{
					"id":      manager.ID(),
					"info":    managerSnapshot.Info,
					"players": managerSnapshot.PlayerNames(),
					"servers": serverSnapshots,
				})
			}
			c.Ok("diagnostics collected")
		},
	}
}
