//go:build linux
// +build linux

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firewallctl/internal/backup"
	"firewallctl/internal/ui"
)

type cmdTUI struct {
	global *cmdGlobal

	flagPermanent bool
}

func (c *cmdTUI) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "tui"
	cmd.Short = "Browse and edit zones interactively"
	cmd.Long = `Browse and edit zones interactively

Keys: tab switches panes, j/k move, 1-5 pick a tab, a adds, x removes,
t applies a template, P toggles runtime/permanent, s saves a snapshot,
D sets the default zone, R reloads, C commits runtime to permanent, q quits.`
	cmd.Args = cobra.NoArgs
	cmd.Flags().BoolVar(&c.flagPermanent, "permanent", false, "Start on the permanent configuration")
	cmd.RunE = c.run
	return cmd
}

func (c *cmdTUI) run(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}

	opts := ui.Options{
		NoColor:   !c.global.cfg.Output.Color,
		Permanent: c.flagPermanent,
	}
	store, err := backup.DefaultStore()
	if err != nil {
		slog.Warn("snapshots disabled", "error", err)
	} else {
		opts.Snapshots = store
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, os.Interrupt)
	defer stop()
	return ui.RunWithContext(ctx, client, opts)
}
