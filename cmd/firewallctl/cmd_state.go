//go:build linux
// +build linux

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"firewallctl/internal/firewalld"
)

// cmdState groups the daemon-wide top level commands.
type cmdState struct {
	global *cmdGlobal

	flagComplete bool
}

func (c *cmdState) commands() []*cobra.Command {
	return []*cobra.Command{
		c.commandState(),
		c.commandReload(),
		c.commandRuntimeToPermanent(),
		c.commandPanic(),
		c.commandIcmpType(),
		c.commandHelper(),
	}
}

// State
func (c *cmdState) commandState() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "state"
	cmd.Short = "Show daemon state and capabilities"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.runState
	return cmd
}

type stateView struct {
	Version          string   `json:"version" yaml:"version"`
	InterfaceVersion string   `json:"interface_version" yaml:"interface_version"`
	API              string   `json:"api" yaml:"api"`
	State            string   `json:"state" yaml:"state"`
	ReadOnly         bool     `json:"read_only" yaml:"read_only"`
	IPv4             bool     `json:"ipv4" yaml:"ipv4"`
	IPv6             bool     `json:"ipv6" yaml:"ipv6"`
	IPv6Rpfilter     bool     `json:"ipv6_rpfilter" yaml:"ipv6_rpfilter"`
	Bridge           bool     `json:"bridge" yaml:"bridge"`
	IPSet            bool     `json:"ipset" yaml:"ipset"`
	IPSetTypes       []string `json:"ipset_types" yaml:"ipset_types"`
	ConntrackHelper  bool     `json:"nf_conntrack_helper_setting" yaml:"nf_conntrack_helper_setting"`
}

func newStateView(info *firewalld.DaemonInfo, api firewalld.APIVersion, readOnly bool) stateView {
	return stateView{
		Version:          info.Version,
		InterfaceVersion: info.InterfaceVersion,
		API:              api.String(),
		State:            info.State,
		ReadOnly:         readOnly,
		IPv4:             info.IPv4,
		IPv6:             info.IPv6,
		IPv6Rpfilter:     info.IPv6Rpfilter,
		Bridge:           info.Bridge,
		IPSet:            info.IPSet,
		IPSetTypes:       orEmpty(info.IPSetTypes),
		ConntrackHelper:  info.NfConntrackHelperSetting,
	}
}

func (v stateView) rows() [][]string {
	return [][]string{
		{"version", v.Version},
		{"interface_version", v.InterfaceVersion},
		{"api", v.API},
		{"state", v.State},
		{"read_only", yesNo(v.ReadOnly)},
		{"ipv4", yesNo(v.IPv4)},
		{"ipv6", yesNo(v.IPv6)},
		{"ipv6_rpfilter", yesNo(v.IPv6Rpfilter)},
		{"bridge", yesNo(v.Bridge)},
		{"ipset", yesNo(v.IPSet)},
		{"ipset_types", strings.Join(v.IPSetTypes, " ")},
		{"nf_conntrack_helper_setting", yesNo(v.ConntrackHelper)},
	}
}

func (c *cmdState) runState(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	info, err := client.Properties()
	if err != nil {
		return err
	}
	view := newStateView(info, client.APIVersion(), client.ReadOnly())
	return c.global.printer().table([]string{"PROPERTY", "VALUE"}, view.rows(), view)
}

// Reload
func (c *cmdState) commandReload() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "reload"
	cmd.Short = "Reload the permanent configuration, dropping runtime changes"
	cmd.Args = cobra.NoArgs
	cmd.Flags().BoolVar(&c.flagComplete, "complete", false, "Also unload kernel modules and reset connection tracking")
	cmd.RunE = c.runReload
	return cmd
}

func (c *cmdState) runReload(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	if c.flagComplete {
		err = client.CompleteReload()
	} else {
		err = client.Reload()
	}
	if err != nil {
		return err
	}
	return c.global.printer().line("reloaded")
}

// Runtime to permanent
func (c *cmdState) commandRuntimeToPermanent() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "runtime-to-permanent"
	cmd.Short = "Make the current runtime configuration permanent"
	cmd.Args = cobra.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := c.global.session()
		if err != nil {
			return err
		}
		if err := client.RuntimeToPermanent(); err != nil {
			return err
		}
		return c.global.printer().line("runtime configuration saved")
	}
	return cmd
}

// Panic
func (c *cmdState) commandPanic() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "panic on|off|status"
	cmd.Short = "Drop all traffic, or show whether panic mode is on"
	cmd.Args = cobra.ExactArgs(1)
	cmd.ValidArgs = []string{"on", "off", "status"}
	cmd.RunE = c.runPanic
	return cmd
}

func (c *cmdState) runPanic(cmd *cobra.Command, args []string) error {
	if err := cobra.OnlyValidArgs(cmd, args); err != nil {
		return wrapInvalid(err)
	}
	client, err := c.global.session()
	if err != nil {
		return err
	}
	switch args[0] {
	case "on":
		err = client.EnablePanicMode()
	case "off":
		err = client.DisablePanicMode()
	default:
		on, err := client.QueryPanicMode()
		if err != nil {
			return err
		}
		return c.global.printer().line(yesNo(on))
	}
	if err != nil {
		return err
	}
	return c.global.printer().line("panic mode " + args[0])
}

// Icmp types
func (c *cmdState) commandIcmpType() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "icmptype [<name>]"
	cmd.Short = "List icmp types or show one"
	cmd.Args = cobra.MaximumNArgs(1)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := c.global.session()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			names, err := client.ListIcmpTypes()
			if err != nil {
				return err
			}
			return c.global.printer().list("ICMPTYPE", names)
		}
		t, err := client.GetIcmpTypeSettings(args[0])
		if err != nil {
			return err
		}
		props := map[string]string{
			"name":         args[0],
			"short":        t.Short,
			"description":  t.Description,
			"destinations": strings.Join(t.Destinations, " "),
		}
		return c.global.printer().properties(props)
	}
	return cmd
}

// Helpers
func (c *cmdState) commandHelper() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "helper [<name>]"
	cmd.Short = "List conntrack helpers or show one"
	cmd.Args = cobra.MaximumNArgs(1)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := c.global.session()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			names, err := client.GetHelpers()
			if err != nil {
				return err
			}
			return c.global.printer().list("HELPER", names)
		}
		h, err := client.GetHelperSettings(args[0])
		if err != nil {
			return err
		}
		props := map[string]string{
			"name":        args[0],
			"short":       h.Short,
			"description": h.Description,
			"family":      h.Family,
			"module":      h.Module,
			"ports":       strings.Join(stringify(h.Ports), " "),
		}
		return c.global.printer().properties(props)
	}
	return cmd
}
