//go:build linux
// +build linux

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

type cmdIPSet struct {
	global *cmdGlobal

	flagPermanent bool
}

func (c *cmdIPSet) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "ipset"
	cmd.Short = "Inspect ipsets and manage their runtime entries"

	cmd.AddCommand(c.commandList())
	cmd.AddCommand(c.commandShow())
	cmd.AddCommand(c.commandEntries())
	for _, action := range []string{"add", "remove", "query"} {
		cmd.AddCommand(c.commandEntry(action))
	}

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Usage() }
	return cmd
}

// List
func (c *cmdIPSet) commandList() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "list"
	cmd.Short = "List ipsets"
	cmd.Args = cobra.NoArgs
	cmd.Flags().BoolVar(&c.flagPermanent, "permanent", false, "List ipsets of the stored configuration")
	cmd.RunE = c.runList
	return cmd
}

func (c *cmdIPSet) runList(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	var names []string
	if c.flagPermanent {
		names, err = client.Config().GetIPSetNames()
	} else {
		names, err = client.GetIPSets()
	}
	if err != nil {
		return err
	}
	return c.global.printer().list("IPSET", names)
}

// Show
func (c *cmdIPSet) commandShow() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "show <ipset>"
	cmd.Short = "Show ipset settings"
	cmd.Args = cobra.ExactArgs(1)
	cmd.Flags().BoolVar(&c.flagPermanent, "permanent", false, "Show the stored configuration")
	cmd.RunE = c.runShow
	return cmd
}

type ipsetView struct {
	Name        string            `json:"name" yaml:"name"`
	Short       string            `json:"short,omitempty" yaml:"short,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string            `json:"type" yaml:"type"`
	Options     map[string]string `json:"options" yaml:"options"`
	Entries     []string          `json:"entries" yaml:"entries"`
}

func (c *cmdIPSet) runShow(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	name := args[0]

	view := ipsetView{Name: name}
	if c.flagPermanent {
		obj, err := client.Config().GetIPSetByName(name)
		if err != nil {
			return err
		}
		s, err := obj.Settings()
		if err != nil {
			return err
		}
		view.Short, view.Description, view.Type, view.Options, view.Entries = s.Short, s.Description, s.Type, s.Options, s.Entries
	} else {
		s, err := client.GetIPSetSettings(name)
		if err != nil {
			return err
		}
		view.Short, view.Description, view.Type, view.Options, view.Entries = s.Short, s.Description, s.Type, s.Options, s.Entries
	}
	if view.Options == nil {
		view.Options = map[string]string{}
	}
	view.Entries = orEmpty(view.Entries)

	opts := make([]string, 0, len(view.Options))
	for k, v := range view.Options {
		if v == "" {
			opts = append(opts, k)
		} else {
			opts = append(opts, k+"="+v)
		}
	}
	sort.Strings(opts)
	rows := [][]string{
		{"name", view.Name},
		{"short", view.Short},
		{"description", view.Description},
		{"type", view.Type},
		{"options", strings.Join(opts, " ")},
		{"entries", strings.Join(view.Entries, "\n")},
	}
	return c.global.printer().table([]string{"PROPERTY", "VALUE"}, rows, view)
}

// Entries
func (c *cmdIPSet) commandEntries() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "entries <ipset>"
	cmd.Short = "List runtime entries of an ipset"
	cmd.Args = cobra.ExactArgs(1)
	cmd.RunE = c.runEntries
	return cmd
}

func (c *cmdIPSet) runEntries(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	entries, err := client.GetIPSetEntries(args[0])
	if err != nil {
		return err
	}
	return c.global.printer().list("ENTRY", entries)
}

// Entry add/remove/query
func (c *cmdIPSet) commandEntry(action string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = action + "-entry <ipset> <entry>"
	cmd.Short = strings.ToUpper(action[:1]) + action[1:] + " a runtime ipset entry"
	cmd.Args = cobra.ExactArgs(2)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return c.runEntry(action, args[0], args[1])
	}
	return cmd
}

func (c *cmdIPSet) runEntry(action, name, entry string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	switch action {
	case "add":
		err = client.AddIPSetEntry(name, entry)
	case "remove":
		err = client.RemoveIPSetEntry(name, entry)
	default:
		ok, err := client.QueryIPSetEntry(name, entry)
		if err != nil {
			return err
		}
		return c.global.printer().line(yesNo(ok))
	}
	if err != nil {
		return err
	}
	return c.global.printer().line(fmt.Sprintf("%s: entry %s %s", name, entry, pastTense(action)))
}
