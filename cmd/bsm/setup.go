package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/bsmkit/bsmc/pkg/cfg"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// setupCmd walks through connecting managers interactively: credentials are
// validated against the API and the server selection is offered from the live
// server list before anything is written to the config file.
func (c *CLI) setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "setup",
		Aliases: []string{"init"},
		Short:   "Sets up manager connections interactively",
		Run: func(cmd *cobra.Command, args []string) {
			reconfigure, _ := cmd.Flags().GetBool("reconfigure")
			if c.config.FileExists() && !reconfigure {
				c.Fail(fmt.Sprintf("config file already exists at '%s'; pass --reconfigure to redo it", cfg.File()))
				return
			}
			values, err := c.runSetupWizard(cmd.Context())
			if err != nil {
				c.Error(err)
				return
			}
			if err := c.config.Save(values); err != nil {
				c.Error(err)
				return
			}
			c.SetOutput("path", cfg.File())
			c.SetOutput("managers", lo.Keys(values.Manager.Config))
			c.Changed("config saved")
		},
	}
	cmd.Flags().Bool("reconfigure", false, "Overwrite existing configuration")
	return cmd
}

func (c *CLI) runSetupWizard(ctx context.Context) (*cfg.ConfigValues, error) {
	reader := bufio.NewReader(os.Stdin)
	values := c.config.Values()
	if values.Manager.Config == nil {
		values.Manager.Config = map[string]cfg.ManagerConfig{}
	}

	color.New(color.Bold).Println("Bedrock Server Manager setup")

	for {
		manager, id, err := c.setupManager(ctx, reader)
		if err != nil {
			return nil, err
		}
		values.Manager.Config[id] = *manager

		if !promptBool(reader, "Add another manager?", false) {
			break
		}
	}

	if promptBool(reader, "Configure MQTT bridge now?", true) {
		values.Bridge.BrokerURL = prompt(reader, "Broker URL", values.Bridge.BrokerURL)
		values.Bridge.User = prompt(reader, "Broker user (blank for none)", values.Bridge.User)
		if values.Bridge.User != "" {
			values.Bridge.Password = prompt(reader, "Broker password", values.Bridge.Password)
		}
	}

	return values, nil
}

func (c *CLI) setupManager(ctx context.Context, reader *bufio.Reader) (*cfg.ManagerConfig, string, error) {
	id := prompt(reader, "Manager ID", "home")
	host := prompt(reader, "Manager host", "localhost")
	port := prompt(reader, "Manager port", fmt.Sprintf("%d", bsm.PortDefault))
	url := bsm.SanitizeHostPort(host + ":" + port)
	user := prompt(reader, "Username", "")
	password := prompt(reader, "Password", "")

	manager, err := c.bsm.ManagerRegistry().Transient(id, url, user, password)
	if err != nil {
		return nil, "", err
	}
	color.Cyan("Connecting to '%s'...", url)
	if _, err := manager.HTTP().Authenticate(ctx, true); err != nil {
		return nil, "", err
	}
	names, err := manager.ServerNamesAll(ctx)
	if err != nil {
		return nil, "", err
	}
	color.Green("Connected; %d server(s) found.", len(names))

	var selected []string
	if len(names) > 0 {
		fmt.Printf("Available servers: %s\n", strings.Join(names, ", "))
		answer := prompt(reader, "Servers to bridge (comma-separated, blank for all)", "")
		if answer != "" {
			selected = lo.Map(strings.Split(answer, ","), func(name string, _ int) string {
				return strings.TrimSpace(name)
			})
			unknown := lo.Without(selected, names...)
			if len(unknown) > 0 {
				return nil, "", fmt.Errorf("unknown server(s) selected: %s", strings.Join(unknown, ", "))
			}
		}
	}

	return &cfg.ManagerConfig{
		HTTPURL:  "http://" + url,
		User:     user,
		Password: password,
		Servers:  selected,
	}, id, nil
}

func prompt(reader *bufio.Reader, label string, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultValue
	}
	return line
}

func promptBool(reader *bufio.Reader, label string, defaultValue bool) bool {
	hint := "y/N"
	if defaultValue {
		hint = "Y/n"
	}
	answer := strings.ToLower(prompt(reader, fmt.Sprintf("%s (%s)", label, hint), ""))
	if answer == "" {
		return defaultValue
	}
	return answer == "y" || answer == "yes"
}
