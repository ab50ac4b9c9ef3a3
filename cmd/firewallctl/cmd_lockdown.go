//go:build linux
// +build linux

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"firewallctl/internal/firewalld"
)

type cmdLockdown struct {
	global *cmdGlobal
}

func (c *cmdLockdown) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "lockdown"
	cmd.Short = "Manage lockdown mode and its whitelist"

	cmd.AddCommand(c.commandToggle("on"))
	cmd.AddCommand(c.commandToggle("off"))
	cmd.AddCommand(c.commandStatus())
	cmd.AddCommand(c.commandWhitelist())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Usage() }
	return cmd
}

// On / Off
func (c *cmdLockdown) commandToggle(state string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = state
	cmd.Short = "Turn lockdown " + state
	cmd.Args = cobra.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := c.global.session()
		if err != nil {
			return err
		}
		if state == "on" {
			err = client.EnableLockdown()
		} else {
			err = client.DisableLockdown()
		}
		if err != nil {
			return err
		}
		return c.global.printer().line("lockdown " + state)
	}
	return cmd
}

// Status
func (c *cmdLockdown) commandStatus() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "status"
	cmd.Short = "Show whether lockdown is on"
	cmd.Args = cobra.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := c.global.session()
		if err != nil {
			return err
		}
		on, err := client.QueryLockdown()
		if err != nil {
			return err
		}
		return c.global.printer().line(yesNo(on))
	}
	return cmd
}

// whitelistKind binds one whitelist dimension to its client methods. Values
// stay strings here; uids are parsed on the way in.
type whitelistKind struct {
	list   func(*firewalld.Client) ([]string, error)
	add    func(*firewalld.Client, string) error
	remove func(*firewalld.Client, string) error
	query  func(*firewalld.Client, string) (bool, error)
}

var whitelistKinds = map[string]whitelistKind{
	"command": {
		list:   (*firewalld.Client).GetLockdownWhitelistCommands,
		add:    (*firewalld.Client).AddLockdownWhitelistCommand,
		remove: (*firewalld.Client).RemoveLockdownWhitelistCommand,
		query:  (*firewalld.Client).QueryLockdownWhitelistCommand,
	},
	"context": {
		list:   (*firewalld.Client).GetLockdownWhitelistContexts,
		add:    (*firewalld.Client).AddLockdownWhitelistContext,
		remove: (*firewalld.Client).RemoveLockdownWhitelistContext,
		query:  (*firewalld.Client).QueryLockdownWhitelistContext,
	},
	"user": {
		list:   (*firewalld.Client).GetLockdownWhitelistUsers,
		add:    (*firewalld.Client).AddLockdownWhitelistUser,
		remove: (*firewalld.Client).RemoveLockdownWhitelistUser,
		query:  (*firewalld.Client).QueryLockdownWhitelistUser,
	},
	"uid": {
		list: func(c *firewalld.Client) ([]string, error) {
			uids, err := c.GetLockdownWhitelistUids()
			if err != nil {
				return nil, err
			}
			out := make([]string, 0, len(uids))
			for _, uid := range uids {
				out = append(out, strconv.FormatUint(uint64(uid), 10))
			}
			return out, nil
		},
		add: func(c *firewalld.Client, v string) error {
			uid, err := parseUID(v)
			if err != nil {
				return err
			}
			return c.AddLockdownWhitelistUid(uid)
		},
		remove: func(c *firewalld.Client, v string) error {
			uid, err := parseUID(v)
			if err != nil {
				return err
			}
			return c.RemoveLockdownWhitelistUid(uid)
		},
		query: func(c *firewalld.Client, v string) (bool, error) {
			uid, err := parseUID(v)
			if err != nil {
				return false, err
			}
			return c.QueryLockdownWhitelistUid(uid)
		},
	},
}

func parseUID(v string) (uint32, error) {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: uid %q", firewalld.ErrInvalidArgument, v)
	}
	return uint32(n), nil
}

func lookupWhitelistKind(kind string) (whitelistKind, error) {
	k, ok := whitelistKinds[kind]
	if !ok {
		return whitelistKind{}, fmt.Errorf("%w: unknown whitelist kind %q (use command|context|uid|user)", firewalld.ErrInvalidArgument, kind)
	}
	return k, nil
}

// Whitelist
func (c *cmdLockdown) commandWhitelist() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "whitelist"
	cmd.Short = "Manage the lockdown whitelist"

	list := &cobra.Command{}
	list.Use = "list command|context|uid|user"
	list.Short = "List whitelist entries of one kind"
	list.Args = cobra.ExactArgs(1)
	list.RunE = func(cmd *cobra.Command, args []string) error {
		k, err := lookupWhitelistKind(args[0])
		if err != nil {
			return err
		}
		client, err := c.global.session()
		if err != nil {
			return err
		}
		items, err := k.list(client)
		if err != nil {
			return err
		}
		return c.global.printer().list("ENTRY", items)
	}
	cmd.AddCommand(list)

	for _, action := range []string{"add", "remove", "query"} {
		sub := &cobra.Command{}
		sub.Use = action + " command|context|uid|user <value>"
		sub.Short = action + " a whitelist entry"
		sub.Args = cobra.ExactArgs(2)
		sub.RunE = func(cmd *cobra.Command, args []string) error {
			return c.runWhitelist(action, args[0], args[1])
		}
		cmd.AddCommand(sub)
	}

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Usage() }
	return cmd
}

func (c *cmdLockdown) runWhitelist(action, kind, value string) error {
	k, err := lookupWhitelistKind(kind)
	if err != nil {
		return err
	}
	client, err := c.global.session()
	if err != nil {
		return err
	}
	switch action {
	case "add":
		err = k.add(client, value)
	case "remove":
		err = k.remove(client, value)
	default:
		ok, err := k.query(client, value)
		if err != nil {
			return err
		}
		return c.global.printer().line(yesNo(ok))
	}
	if err != nil {
		return err
	}
	return c.global.printer().line(fmt.Sprintf("whitelist %s %s %s", kind, value, pastTense(action)))
}
