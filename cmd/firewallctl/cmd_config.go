//go:build linux
// +build linux

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"firewallctl/internal/config"
)

type cmdConfig struct {
	global *cmdGlobal
}

func (c *cmdConfig) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "config"
	cmd.Short = "Show daemon configuration and tool settings"

	cmd.AddCommand(c.commandShow())
	cmd.AddCommand(c.commandSet())
	cmd.AddCommand(c.commandTool())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Usage() }
	return cmd
}

// Show
func (c *cmdConfig) commandShow() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "show"
	cmd.Short = "Show firewalld.conf properties"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.runShow
	return cmd
}

func (c *cmdConfig) runShow(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	props, err := client.Config().Properties()
	if err != nil {
		return err
	}
	return c.global.printer().properties(props)
}

// Set
func (c *cmdConfig) commandSet() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "set <key> <value>"
	cmd.Short = "Change a firewalld.conf property"
	cmd.Args = cobra.ExactArgs(2)
	cmd.RunE = c.runSet
	return cmd
}

func (c *cmdConfig) runSet(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	if err := client.Config().SetProperty(args[0], args[1]); err != nil {
		return err
	}
	return c.global.printer().line(fmt.Sprintf("%s set to %s", args[0], args[1]))
}

// Tool
func (c *cmdConfig) commandTool() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "tool"
	cmd.Short = "Show the effective firewallctl settings and where they came from"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.runTool
	return cmd
}

type toolConfigView struct {
	Path        string `json:"path" yaml:"path"`
	Found       bool   `json:"found" yaml:"found"`
	Bus         string `json:"bus" yaml:"bus"`
	Address     string `json:"address,omitempty" yaml:"address,omitempty"`
	Timeout     int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	ReadRetries int    `json:"read_retries" yaml:"read_retries"`
	Authorize   bool   `json:"authorize" yaml:"authorize"`
	Format      string `json:"format" yaml:"format"`
	Color       bool   `json:"color" yaml:"color"`
	LogLevel    string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

func newToolConfigView(cfg config.Config, path string, found bool) toolConfigView {
	return toolConfigView{
		Path:        path,
		Found:       found,
		Bus:         cfg.Connection.Bus,
		Address:     cfg.Connection.Address,
		Timeout:     cfg.Connection.TimeoutSeconds,
		ReadRetries: cfg.Connection.ReadRetries,
		Authorize:   cfg.Connection.Authorize,
		Format:      cfg.Output.Format,
		Color:       cfg.Output.Color,
		LogLevel:    cfg.Advanced.LogLevel,
	}
}

func (v toolConfigView) rows() [][]string {
	return [][]string{
		{"path", v.Path},
		{"found", yesNo(v.Found)},
		{"bus", v.Bus},
		{"address", v.Address},
		{"timeout_seconds", strconv.Itoa(v.Timeout)},
		{"read_retries", strconv.Itoa(v.ReadRetries)},
		{"authorize", yesNo(v.Authorize)},
		{"format", v.Format},
		{"color", yesNo(v.Color)},
		{"log_level", v.LogLevel},
	}
}

func (c *cmdConfig) runTool(cmd *cobra.Command, args []string) error {
	_, _, path, found, err := config.Load()
	if err != nil {
		return err
	}
	if !found {
		if path, err = config.ResolvePath(); err != nil {
			return err
		}
	}
	view := newToolConfigView(c.global.cfg, path, found)
	return c.global.printer().table([]string{"SETTING", "VALUE"}, view.rows(), view)
}
