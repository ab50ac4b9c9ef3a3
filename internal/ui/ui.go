//go:build linux
// +build linux

package ui

import (
	"context"
	"time"

	"firewallctl/internal/backup"
	"firewallctl/internal/firewalld"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type Options struct {
	NoColor bool
	// Permanent starts the browser on the permanent configuration instead of
	// the runtime one.
	Permanent bool
	// Snapshots receives zone snapshots taken with "s". Nil disables them.
	Snapshots *backup.Store
}

// Backend is the part of the firewalld session the browser drives.
type Backend interface {
	ReadOnly() bool
	GetZones() ([]string, error)
	GetDefaultZone() (string, error)
	SetDefaultZone(zone string) error
	GetActiveZones() (map[string]firewalld.ActiveZone, error)
	GetZoneSettings(zone string) (*firewalld.ZoneSettings, error)
	PermanentZone(zone string) (backup.ZoneHandle, error)

	AddService(zone, service string, timeout time.Duration) (string, error)
	RemoveService(zone, service string) (string, error)
	AddPort(zone string, port firewalld.Port, timeout time.Duration) (string, error)
	RemovePort(zone string, port firewalld.Port) (string, error)
	AddRichRule(zone, rule string, timeout time.Duration) (string, error)
	RemoveRichRule(zone, rule string) (string, error)
	AddInterface(zone, iface string) (string, error)
	RemoveInterface(zone, iface string) (string, error)
	AddSource(zone, source string) (string, error)
	RemoveSource(zone, source string) (string, error)

	Reload() error
	RuntimeToPermanent() error
	SubscribeSignals() (<-chan firewalld.SignalEvent, func(), error)
}

type clientBackend struct {
	*firewalld.Client
}

func (b clientBackend) PermanentZone(zone string) (backup.ZoneHandle, error) {
	handle, err := b.Config().GetZoneByName(zone)
	if err != nil {
		return nil, err
	}
	return handle, nil
}

func RunWithContext(ctx context.Context, client *firewalld.Client, opts Options) error {
	if opts.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	model := NewModel(clientBackend{client}, opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	m, err := program.Run()
	if finalModel, ok := m.(Model); ok && finalModel.signalsCancel != nil {
		finalModel.signalsCancel()
	}
	return err
}

func Run(client *firewalld.Client, opts Options) error {
	return RunWithContext(context.Background(), client, opts)
}
