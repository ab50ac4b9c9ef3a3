//go:build linux
// +build linux

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firewallctl/internal/firewalld"
)

type cmdMonitor struct {
	global *cmdGlobal

	flagCount int
}

func (c *cmdMonitor) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "monitor"
	cmd.Short = "Print firewalld change notifications as they happen"
	cmd.Args = cobra.NoArgs
	cmd.Flags().IntVarP(&c.flagCount, "count", "n", 0, "Exit after this many events (0 runs until interrupted)")
	cmd.RunE = c.run
	return cmd
}

type eventView struct {
	Time   string `json:"time" yaml:"time"`
	Signal string `json:"signal" yaml:"signal"`
	Zone   string `json:"zone,omitempty" yaml:"zone,omitempty"`
	Item   string `json:"item,omitempty" yaml:"item,omitempty"`
	Path   string `json:"path" yaml:"path"`
}

func newEventView(at time.Time, e firewalld.SignalEvent) eventView {
	return eventView{
		Time:   at.Format(time.RFC3339),
		Signal: e.Name(),
		Zone:   e.Zone,
		Item:   e.Item,
		Path:   string(e.Path),
	}
}

func (c *cmdMonitor) run(cmd *cobra.Command, args []string) error {
	if c.flagCount < 0 {
		return fmt.Errorf("%w: --count must not be negative", firewalld.ErrInvalidArgument)
	}
	client, err := c.global.session()
	if err != nil {
		return err
	}
	events, cancel, err := client.SubscribeSignals()
	if err != nil {
		return err
	}
	defer cancel()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.watch(ctx, events)
}

// watch prints events until ctx ends, the channel closes or the count is reached.
func (c *cmdMonitor) watch(ctx context.Context, events <-chan firewalld.SignalEvent) error {
	p := c.global.printer()
	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				slog.Debug("signal channel closed")
				return nil
			}
			if err := c.print(p, newEventView(time.Now(), e), e); err != nil {
				return err
			}
			seen++
			if c.flagCount > 0 && seen >= c.flagCount {
				return nil
			}
		}
	}
}

func (c *cmdMonitor) print(p *printer, v eventView, e firewalld.SignalEvent) error {
	switch p.format {
	case "json":
		return p.table(nil, nil, v)
	case "yaml":
		if _, err := fmt.Fprintln(p.w, "---"); err != nil {
			return err
		}
		return p.table(nil, nil, v)
	}
	_, err := fmt.Fprintf(p.w, "%s %s\n", v.Time, e.String())
	return err
}
