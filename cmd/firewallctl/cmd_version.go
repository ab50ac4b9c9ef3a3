//go:build linux
// +build linux

package main

import (
	"github.com/spf13/cobra"

	"firewallctl/internal/version"
)

type cmdVersion struct {
	global *cmdGlobal

	flagDaemon bool
}

func (c *cmdVersion) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "version"
	cmd.Short = "Show the client version, and the daemon's with --daemon"
	cmd.Args = cobra.NoArgs
	cmd.Flags().BoolVar(&c.flagDaemon, "daemon", false, "Also connect and report the firewalld version")
	cmd.RunE = c.run
	return cmd
}

type versionView struct {
	Client string `json:"client" yaml:"client"`
	Daemon string `json:"daemon,omitempty" yaml:"daemon,omitempty"`
	API    string `json:"api,omitempty" yaml:"api,omitempty"`
}

func (c *cmdVersion) run(cmd *cobra.Command, args []string) error {
	v := versionView{Client: version.String()}
	if c.flagDaemon {
		client, err := c.global.session()
		if err != nil {
			return err
		}
		v.Daemon = client.Version()
		v.API = client.APIVersion().String()
	}

	rows := [][]string{{"client", v.Client}}
	if c.flagDaemon {
		rows = append(rows, []string{"daemon", v.Daemon}, []string{"api", v.API})
	}
	return c.global.printer().table([]string{"COMPONENT", "VERSION"}, rows, v)
}
