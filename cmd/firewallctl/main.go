//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"firewallctl/internal/config"
	"firewallctl/internal/firewalld"
	"firewallctl/internal/logger"
	"firewallctl/internal/version"
)

const (
	exitFailure          = 1
	exitInvalidArgument  = 2
	exitNotFound         = 3
	exitPermissionDenied = 4
	exitUnavailable      = 5
	exitConflict         = 6
)

type cmdGlobal struct {
	flagFormat   string
	flagLogLevel string
	flagNoColor  bool
	flagBus      string
	flagAddress  string
	flagTimeout  time.Duration
	flagNoAuth   bool

	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
	tty    bool

	client *firewalld.Client
	// connect opens the session; replaced in tests.
	connect func(firewalld.Options) (*firewalld.Client, error)
}

func main() {
	global := &cmdGlobal{
		stdout:  colorable.NewColorable(os.Stdout),
		stderr:  colorable.NewColorable(os.Stderr),
		tty:     isatty.IsTerminal(os.Stdout.Fd()),
		connect: firewalld.NewClient,
	}
	app := global.command()

	err := app.Execute()
	global.teardown()
	_ = logger.Close()
	if err != nil {
		fmt.Fprintf(global.stderr, "Error: %v\n", err)
		if errors.Is(err, firewalld.ErrServiceUnavailable) {
			fmt.Fprintln(global.stderr, "Make sure firewalld is running:")
			fmt.Fprintln(global.stderr, "  sudo systemctl start firewalld")
		}
		os.Exit(exitCode(err))
	}
}

func (g *cmdGlobal) command() *cobra.Command {
	app := &cobra.Command{}
	app.Use = "firewallctl"
	app.Short = "Command line client for firewalld"
	app.Long = "Query and change firewalld zones, direct rules, ipsets and lockdown over D-Bus."
	app.SilenceUsage = true
	app.SilenceErrors = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}
	app.Version = version.String()
	app.SetVersionTemplate("{{.Version}}\n")
	app.SetOut(g.stdout)
	app.SetErr(g.stderr)
	app.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return g.setup(cmd)
	}
	app.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return wrapInvalid(err)
	})

	flags := app.PersistentFlags()
	flags.StringVarP(&g.flagFormat, "format", "f", "", "Output format (table|yaml|json)")
	flags.StringVar(&g.flagLogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	flags.BoolVar(&g.flagNoColor, "no-color", false, "Disable color output")
	flags.StringVar(&g.flagBus, "bus", "", "D-Bus to use (system|session)")
	flags.StringVar(&g.flagAddress, "address", "", "D-Bus address, overrides --bus")
	flags.DurationVar(&g.flagTimeout, "timeout", 0, "Per-call timeout")
	flags.BoolVar(&g.flagNoAuth, "no-authorize", false, "Do not request authorization while connecting")

	zone := cmdZone{global: g}
	app.AddCommand(zone.command())

	service := cmdService{global: g}
	app.AddCommand(service.command())

	direct := cmdDirect{global: g}
	app.AddCommand(direct.command())

	ipset := cmdIPSet{global: g}
	app.AddCommand(ipset.command())

	lockdown := cmdLockdown{global: g}
	app.AddCommand(lockdown.command())

	conf := cmdConfig{global: g}
	app.AddCommand(conf.command())

	state := cmdState{global: g}
	app.AddCommand(state.commands()...)

	monitor := cmdMonitor{global: g}
	app.AddCommand(monitor.command())

	tui := cmdTUI{global: g}
	app.AddCommand(tui.command())

	ver := cmdVersion{global: g}
	app.AddCommand(ver.command())

	return app
}

// setup loads the config file, applies flag overrides and starts logging.
func (g *cmdGlobal) setup(cmd *cobra.Command) error {
	cfg, warnings, _, _, err := config.Load()
	if err != nil {
		return err
	}
	g.cfg = cfg

	if g.flagFormat != "" {
		g.cfg.Output.Format = g.flagFormat
	}
	if g.flagNoColor {
		g.cfg.Output.Color = false
	}
	if g.flagBus != "" {
		g.cfg.Connection.Bus = g.flagBus
	}
	if g.flagAddress != "" {
		g.cfg.Connection.Address = g.flagAddress
	}
	if g.flagTimeout > 0 {
		g.cfg.Connection.TimeoutSeconds = int((g.flagTimeout + time.Second - 1) / time.Second)
	}
	if g.flagNoAuth {
		g.cfg.Connection.Authorize = false
	}
	switch g.cfg.Output.Format {
	case "table", "yaml", "json":
	default:
		return fmt.Errorf("%w: output format %q (use table|yaml|json)", firewalld.ErrInvalidArgument, g.cfg.Output.Format)
	}

	level := g.cfg.Advanced.LogLevel
	if g.flagLogLevel != "" {
		level = g.flagLogLevel
	}
	if _, err := logger.ParseLevel(level); err != nil {
		return wrapInvalid(err)
	}
	if err := logger.Init(level); err != nil {
		return err
	}
	for _, w := range warnings {
		slog.Warn("config", "warning", w)
	}
	slog.Debug("command", "path", cmd.CommandPath())
	return nil
}

func (g *cmdGlobal) options() firewalld.Options {
	opts := firewalld.DefaultOptions()
	opts.Bus = g.cfg.Connection.Bus
	opts.Address = g.cfg.Connection.Address
	opts.Timeout = g.cfg.Timeout()
	if g.cfg.Connection.ReadRetries >= 0 {
		opts.ReadRetries = uint(g.cfg.Connection.ReadRetries)
	}
	opts.Authorize = g.cfg.Connection.Authorize
	return opts
}

// session connects on first use and reuses the client afterwards.
func (g *cmdGlobal) session() (*firewalld.Client, error) {
	if g.client != nil {
		return g.client, nil
	}
	client, err := g.connect(g.options())
	if err != nil {
		return nil, err
	}
	g.client = client
	return client, nil
}

func (g *cmdGlobal) teardown() {
	if g.client == nil {
		return
	}
	if err := g.client.Close(); err != nil {
		slog.Debug("close session", "error", err)
	}
	g.client = nil
}

func (g *cmdGlobal) printer() *printer {
	return &printer{
		w:      g.stdout,
		format: g.cfg.Output.Format,
		color:  g.cfg.Output.Color && g.tty,
	}
}

// wrapInvalid marks usage errors so they exit with exitInvalidArgument.
func wrapInvalid(err error) error {
	return fmt.Errorf("%w: %v", firewalld.ErrInvalidArgument, err)
}

func exitCode(err error) int {
	switch firewalld.KindOf(err) {
	case firewalld.KindInvalidArgument:
		return exitInvalidArgument
	case firewalld.KindNotFound, firewalld.KindStale:
		return exitNotFound
	case firewalld.KindPermissionDenied:
		return exitPermissionDenied
	case firewalld.KindServiceUnavailable:
		return exitUnavailable
	case firewalld.KindConflict, firewalld.KindAlreadyExists:
		return exitConflict
	}
	switch {
	case errors.Is(err, firewalld.ErrInvalidArgument):
		return exitInvalidArgument
	case errors.Is(err, firewalld.ErrNotFound):
		return exitNotFound
	case errors.Is(err, firewalld.ErrPermissionDenied):
		return exitPermissionDenied
	case errors.Is(err, firewalld.ErrServiceUnavailable):
		return exitUnavailable
	case errors.Is(err, firewalld.ErrConflict), errors.Is(err, firewalld.ErrAlreadyExists):
		return exitConflict
	}
	return exitFailure
}
