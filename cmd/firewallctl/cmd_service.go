//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"firewallctl/internal/backup"
	"firewallctl/internal/firewalld"
)

type cmdService struct {
	global *cmdGlobal

	flagPermanent bool
	flagOutput    string
}

func (c *cmdService) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "service"
	cmd.Short = "Inspect and manage service definitions"

	cmd.AddCommand(c.commandList())
	cmd.AddCommand(c.commandShow())
	cmd.AddCommand(c.commandExport())
	cmd.AddCommand(c.commandImport())
	cmd.AddCommand(c.commandDelete())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Usage() }
	return cmd
}

// List
func (c *cmdService) commandList() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "list"
	cmd.Short = "List services"
	cmd.Args = cobra.NoArgs
	cmd.Flags().BoolVar(&c.flagPermanent, "permanent", false, "List services of the stored configuration")
	cmd.RunE = c.runList
	return cmd
}

func (c *cmdService) runList(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	var names []string
	if c.flagPermanent {
		names, err = client.Config().GetServiceNames()
	} else {
		names, err = client.ListServices()
	}
	if err != nil {
		return err
	}
	return c.global.printer().list("SERVICE", names)
}

// Show
func (c *cmdService) commandShow() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "show <service>"
	cmd.Short = "Show service settings"
	cmd.Args = cobra.ExactArgs(1)
	cmd.Flags().BoolVar(&c.flagPermanent, "permanent", false, "Show the stored configuration")
	cmd.RunE = c.runShow
	return cmd
}

func (c *cmdService) runShow(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	settings, err := c.settings(client, args[0])
	if err != nil {
		return err
	}
	view := newServiceView(args[0], settings)
	return c.global.printer().table([]string{"PROPERTY", "VALUE"}, view.rows(), view)
}

func (c *cmdService) settings(client *firewalld.Client, name string) (*firewalld.ServiceSettings, error) {
	if !c.flagPermanent {
		return client.GetServiceSettings(name)
	}
	obj, err := client.Config().GetServiceByName(name)
	if err != nil {
		return nil, err
	}
	return obj.Settings()
}

// Export
func (c *cmdService) commandExport() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "export <service>"
	cmd.Short = "Write the permanent service definition as XML"
	cmd.Args = cobra.ExactArgs(1)
	cmd.Flags().StringVarP(&c.flagOutput, "output", "o", "", "File to write instead of stdout")
	cmd.RunE = c.runExport
	return cmd
}

func (c *cmdService) runExport(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	c.flagPermanent = true
	settings, err := c.settings(client, args[0])
	if err != nil {
		return err
	}
	data, err := backup.MarshalServiceXML(settings)
	if err != nil {
		return err
	}
	return writeOutput(c.global, c.flagOutput, data)
}

// Import
func (c *cmdService) commandImport() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "import <service> <file>"
	cmd.Short = "Replace or create a permanent service from XML"
	cmd.Args = cobra.ExactArgs(2)
	cmd.RunE = c.runImport
	return cmd
}

func (c *cmdService) runImport(cmd *cobra.Command, args []string) error {
	settings, err := backup.ParseServiceXMLFile(args[1])
	if err != nil {
		return fmt.Errorf("%w: %v", firewalld.ErrInvalidArgument, err)
	}
	client, err := c.global.session()
	if err != nil {
		return err
	}
	cfg := client.Config()
	obj, err := cfg.GetServiceByName(args[0])
	if err != nil {
		if firewalld.KindOf(err) != firewalld.KindNotFound {
			return err
		}
		if _, err := cfg.AddService(args[0], settings); err != nil {
			return err
		}
		return c.global.printer().line(fmt.Sprintf("service %s created from %s", args[0], args[1]))
	}
	if err := obj.Update(settings); err != nil {
		return err
	}
	return c.global.printer().line(fmt.Sprintf("service %s updated from %s", args[0], args[1]))
}

// Delete
func (c *cmdService) commandDelete() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "delete <service>"
	cmd.Short = "Delete a permanent service"
	cmd.Args = cobra.ExactArgs(1)
	cmd.RunE = c.runDelete
	return cmd
}

func (c *cmdService) runDelete(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	obj, err := client.Config().GetServiceByName(args[0])
	if err != nil {
		return err
	}
	if err := obj.Remove(); err != nil {
		return err
	}
	return c.global.printer().line(fmt.Sprintf("service %s deleted", args[0]))
}
