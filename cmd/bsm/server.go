package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/bsmkit/bsmc/pkg"
	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/bsmkit/bsmc/pkg/common/mapsx"
	"github.com/spf13/cobra"
)

func (c *CLI) serverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "server",
		Aliases: []string{"srv"},
		Short:   "Manages Bedrock server(s)",
	}
	cmd.AddCommand(c.serverListCmd())
	cmd.AddCommand(c.serverStatusCmd())
	cmd.AddCommand(c.serverStartCmd())
	cmd.AddCommand(c.serverStopCmd())
	cmd.AddCommand(c.serverRestartCmd())
	cmd.AddCommand(c.serverUpdateCmd())
	cmd.AddCommand(c.serverCommandCmd())
	cmd.AddCommand(c.serverBackupCmd())
	cmd.AddCommand(c.serverRestoreCmd())
	cmd.AddCommand(c.serverExportWorldCmd())
	cmd.AddCommand(c.serverPruneBackupsCmd())
	cmd.AddCommand(c.serverAllowlistCmd())
	cmd.AddCommand(c.serverPermissionsCmd())
	cmd.AddCommand(c.serverPropertiesCmd())
	cmd.AddCommand(c.serverDeleteCmd())
	return cmd
}

func (c *CLI) server(ctx context.Context, args []string) (*pkg.Server, error) {
	manager, err := c.bsm.ManagerRegistry().One()
	if err != nil {
		return nil, err
	}
	return manager.ServerByName(ctx, args[0])
}

func (c *CLI) serverResult(server *pkg.Server, action string, result bsm.ActionResult) {
	c.SetOutput("server", server.State())
	c.SetOutput("result", result)
	switch result.Outcome {
	case bsm.OutcomeOK:
		c.Changed(fmt.Sprintf("%s %s", server, action))
	case bsm.OutcomeNotRunning:
		c.Ok(fmt.Sprintf("%s is not running", server))
	default:
		c.Fail(result.Message)
	}
}

func (c *CLI) serverListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Lists server(s) on the manager",
		Run: func(cmd *cobra.Command, args []string) {
			manager, err := c.bsm.ManagerRegistry().One()
			if err != nil {
				c.Error(err)
				return
			}
			names, err := manager.ServerNames(cmd.Context())
			if err != nil {
				c.Error(err)
				return
			}
			c.SetOutput("servers", names)
			c.Ok(fmt.Sprintf("servers listed (%d)", len(names)))
		},
	}
}

func (c *CLI) serverStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <name>",
		Short: "Reads server process status",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			status, err := server.StatusInfo(cmd.Context())
			if err != nil {
				c.Error(err)
				return
			}
			running := status.Process != nil
			c.SetOutput("running", running)
			if running {
				c.SetOutput("process", map[string]any{
					"pid":         status.Process.PID,
					"cpu_percent": status.Process.CPUPercent,
					"memory":      status.Process.Memory(),
					"uptime":      status.Process.Uptime,
				})
			}
			if version, err := server.Version(cmd.Context()); err == nil {
				c.SetOutput("version", version)
			}
			if worldName, err := server.WorldName(cmd.Context()); err == nil {
				c.SetOutput("world", worldName)
			}
			c.Ok("server status read")
		},
	}
}

func (c *CLI) serverStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start <name>",
		Aliases: []string{"up"},
		Short:   "Starts server",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			c.serverResult(server, "started", server.Start(cmd.Context()))
		},
	}
}

func (c *CLI) serverStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "stop <name>",
		Aliases: []string{"down"},
		Short:   "Stops server",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			c.serverResult(server, "stopped", server.Stop(cmd.Context()))
		},
	}
}

func (c *CLI) serverRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart <name>",
		Short: "Restarts server",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			c.serverResult(server, "restarted", server.Restart(cmd.Context()))
		},
	}
}

func (c *CLI) serverUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <name>",
		Short: "Updates server to the newest available version",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			c.serverResult(server, "updated", server.Update(cmd.Context()))
		},
	}
}

func (c *CLI) serverCommandCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "command <name> <command>...",
		Aliases: []string{"cmd"},
		Short:   "Runs a console command inside the server",
		Args:    cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			command := strings.Join(args[1:], " ")
			c.serverResult(server, fmt.Sprintf("ran command '%s'", command), server.SendCommand(cmd.Context(), command))
		},
	}
}

func (c *CLI) serverBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup <name>",
		Short: "Triggers a server backup",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			list, _ := cmd.Flags().GetBool("list")
			if list {
				backups, err := server.Backups(cmd.Context())
				if err != nil {
					c.Error(err)
					return
				}
				c.SetOutput("backups", backups)
				c.Ok(fmt.Sprintf("backups listed (%d)", len(backups)))
				return
			}
			backupType, _ := cmd.Flags().GetString("type")
			file, _ := cmd.Flags().GetString("file")
			c.serverResult(server, "backed up", server.TriggerBackup(cmd.Context(), backupType, file))
		},
	}
	cmd.Flags().String("type", "all", "Backup type (all|world|config)")
	cmd.Flags().String("file", "", "File to back up (config backups only)")
	cmd.Flags().Bool("list", false, "List existing backups instead")
	return cmd
}

func (c *CLI) serverRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <name>",
		Short: "Restores server data from a backup",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			latestAll, _ := cmd.Flags().GetBool("latest-all")
			if latestAll {
				c.serverResult(server, "restored", server.RestoreLatestAll(cmd.Context()))
				return
			}
			restoreType, _ := cmd.Flags().GetString("type")
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				c.Fail("flag 'file' or 'latest-all' need to be specified")
				return
			}
			c.serverResult(server, "restored", server.RestoreBackup(cmd.Context(), restoreType, file))
		},
	}
	cmd.Flags().String("type", "world", "Restore type (world|config)")
	cmd.Flags().String("file", "", "Backup file to restore")
	cmd.Flags().Bool("latest-all", false, "Restore the newest backup of everything")
	return cmd
}

func (c *CLI) serverExportWorldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-world <name>",
		Short: "Exports the server world",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			c.serverResult(server, "world exported", server.ExportWorld(cmd.Context()))
		},
	}
}

func (c *CLI) serverPruneBackupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune-backups <name>",
		Short: "Trims old server backups",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			keep, _ := cmd.Flags().GetInt("keep")
			c.serverResult(server, "backups pruned", server.PruneBackups(cmd.Context(), keep))
		},
	}
	cmd.Flags().Int("keep", -1, "Number of newest backups to keep")
	return cmd
}

func (c *CLI) serverAllowlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "allowlist",
		Aliases: []string{"al"},
		Short:   "Manages server allowlist",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <name>",
		Short: "Reads the allowlist",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			players, err := server.Allowlist(cmd.Context())
			if err != nil {
				c.Error(err)
				return
			}
			c.SetOutput("players", players)
			c.Ok(fmt.Sprintf("allowlist read (%d)", len(players)))
		},
	})
	addCmd := &cobra.Command{
		Use:   "add <name> <player>...",
		Short: "Adds player(s) to the allowlist",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			ignoresLimit, _ := cmd.Flags().GetBool("ignores-player-limit")
			c.serverResult(server, "allowlist extended", server.AddToAllowlist(cmd.Context(), args[1:], ignoresLimit))
		},
	}
	addCmd.Flags().Bool("ignores-player-limit", false, "Let the player(s) join past the player limit")
	cmd.AddCommand(addCmd)
	cmd.AddCommand(&cobra.Command{
		Use:     "remove <name> <player>",
		Aliases: []string{"rm"},
		Short:   "Removes a player from the allowlist",
		Args:    cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			c.serverResult(server, fmt.Sprintf("removed '%s' from allowlist", args[1]), server.RemoveFromAllowlist(cmd.Context(), args[1]))
		},
	})
	return cmd
}

func (c *CLI) serverPermissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "permissions",
		Aliases: []string{"perms"},
		Short:   "Manages player permission levels",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <name>",
		Short: "Reads player permissions",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			permissions, err := server.Permissions(cmd.Context())
			if err != nil {
				c.Error(err)
				return
			}
			c.SetOutput("permissions", permissions)
			c.Ok(fmt.Sprintf("permissions read (%d)", len(permissions)))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <xuid=level>...",
		Short: "Sets permission levels by player XUID",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			permissions := map[string]string{}
			for _, pair := range args[1:] {
				xuid, level, found := strings.Cut(pair, "=")
				if !found {
					c.Fail(fmt.Sprintf("cannot parse permission '%s'; expected format 'xuid=level'", pair))
					return
				}
				permissions[xuid] = level
			}
			c.serverResult(server, "permissions set", server.SetPermissions(cmd.Context(), permissions))
		},
	})
	return cmd
}

func (c *CLI) serverPropertiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "properties",
		Aliases: []string{"props"},
		Short:   "Manages server.properties values",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <name>",
		Short: "Reads server properties",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			properties, err := server.Properties(cmd.Context())
			if err != nil {
				c.Error(err)
				return
			}
			c.SetOutput("properties", properties)
			c.Ok(fmt.Sprintf("properties read (%d)", len(properties)))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "update <name>",
		Short: "Updates server properties from input",
		Long:  "Updates server properties from input; only changed values are sent.\nProvide input via --input-file, --input-string or STDIN.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			var desired map[string]string
			if err := c.ReadInput(&desired); err != nil {
				c.Error(err)
				return
			}
			current, err := server.Properties(cmd.Context())
			if err != nil {
				c.Error(err)
				return
			}
			if mapsx.Equal(toAnyMap(current), toAnyMap(desired)) {
				c.SetOutput("properties", current)
				c.Ok("properties already up to date")
				return
			}
			changed := map[string]string{}
			for key, value := range desired {
				if current[key] != value {
					changed[key] = value
				}
			}
			c.SetOutput("changed", changed)
			c.serverResult(server, fmt.Sprintf("properties updated (%d)", len(changed)), server.UpdateProperties(cmd.Context(), changed))
		},
	})
	return cmd
}

func toAnyMap(values map[string]string) map[string]any {
	result := map[string]any{}
	for key, value := range values {
		result[key] = value
	}
	return result
}

func (c *CLI) serverDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Deletes server and its data permanently",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			confirmed, _ := cmd.Flags().GetBool("confirm")
			if !confirmed {
				c.Fail("deletion is permanent; pass --confirm to proceed")
				return
			}
			server, err := c.server(cmd.Context(), args)
			if err != nil {
				c.Error(err)
				return
			}
			c.serverResult(server, "deleted", server.Delete(cmd.Context()))
		},
	}
	cmd.Flags().Bool("confirm", false, "Confirm permanent deletion")
	return cmd
}
