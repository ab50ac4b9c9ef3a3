//go:build linux
// +build linux

package ui

import (
	"fmt"
	"log/slog"

	"firewallctl/internal/backup"
	"firewallctl/internal/firewalld"
	"firewallctl/internal/validation"

	tea "github.com/charmbracelet/bubbletea"
)

type zonesMsg struct {
	zones       []string
	defaultZone string
	active      map[string]firewalld.ActiveZone
	err         error
}

type zoneSettingsMsg struct {
	zone      *firewalld.ZoneSettings
	zoneName  string
	permanent bool
	err       error
}

type mutationMsg struct {
	zone   string
	notice string
	err    error
}

type signalsReadyMsg struct {
	ch     <-chan firewalld.SignalEvent
	cancel func()
	err    error
}

type signalsClosedMsg struct{}

type firewalldSignalMsg struct {
	event firewalld.SignalEvent
}

// change adds or removes one zone item.
type change struct {
	kind  itemKind
	value string
	add   bool
}

func (c change) String() string {
	verb := "removed"
	if c.add {
		verb = "added"
	}
	return fmt.Sprintf("%s %s %s", c.kind, c.value, verb)
}

// parseAddition turns text typed on a tab into a change.
func parseAddition(tab mainTab, value string) (change, error) {
	switch tab {
	case tabServices:
		if err := validation.IsValidName(value); err != nil {
			return change{}, fmt.Errorf("service: %w", err)
		}
		return change{kind: kindService, value: value, add: true}, nil
	case tabPorts:
		p, err := firewalld.ParsePort(value)
		if err != nil {
			return change{}, err
		}
		if err := validation.IsValidPort(p.Port); err != nil {
			return change{}, err
		}
		if err := validation.IsValidPortProtocol(p.Protocol); err != nil {
			return change{}, err
		}
		return change{kind: kindPort, value: p.String(), add: true}, nil
	case tabRich:
		return change{kind: kindRichRule, value: value, add: true}, nil
	case tabNetwork:
		if validation.IsValidSource(value) == nil {
			return change{kind: kindSource, value: value, add: true}, nil
		}
		if err := validation.IsValidInterfaceName(value); err != nil {
			return change{}, fmt.Errorf("%q is neither a source nor an interface", value)
		}
		return change{kind: kindInterface, value: value, add: true}, nil
	default:
		return change{}, fmt.Errorf("nothing to add on the %s tab", tab)
	}
}

// applyRuntime sends one change to the runtime configuration.
func applyRuntime(b Backend, zone string, c change) error {
	var err error
	switch c.kind {
	case kindService:
		if c.add {
			_, err = b.AddService(zone, c.value, 0)
		} else {
			_, err = b.RemoveService(zone, c.value)
		}
	case kindPort:
		p, perr := firewalld.ParsePort(c.value)
		if perr != nil {
			return perr
		}
		if c.add {
			_, err = b.AddPort(zone, p, 0)
		} else {
			_, err = b.RemovePort(zone, p)
		}
	case kindRichRule:
		if c.add {
			_, err = b.AddRichRule(zone, c.value, 0)
		} else {
			_, err = b.RemoveRichRule(zone, c.value)
		}
	case kindInterface:
		if c.add {
			_, err = b.AddInterface(zone, c.value)
		} else {
			_, err = b.RemoveInterface(zone, c.value)
		}
	case kindSource:
		if c.add {
			_, err = b.AddSource(zone, c.value)
		} else {
			_, err = b.RemoveSource(zone, c.value)
		}
	}
	return err
}

// applySettings applies changes to a detached settings copy.
func applySettings(z *firewalld.ZoneSettings, changes []change) error {
	for _, c := range changes {
		switch c.kind {
		case kindService:
			if c.add {
				z.AddService(c.value)
			} else {
				z.RemoveService(c.value)
			}
		case kindPort:
			p, err := firewalld.ParsePort(c.value)
			if err != nil {
				return err
			}
			if c.add {
				z.AddPort(p)
			} else {
				z.RemovePort(p)
			}
		case kindRichRule:
			if c.add {
				z.AddRichRule(c.value)
			} else {
				z.RemoveRichRule(c.value)
			}
		case kindInterface:
			if c.add {
				z.AddInterface(c.value)
			} else {
				z.RemoveInterface(c.value)
			}
		case kindSource:
			if c.add {
				z.AddSource(c.value)
			} else {
				z.RemoveSource(c.value)
			}
		}
	}
	return nil
}

func fetchZonesCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		zones, err := b.GetZones()
		if err != nil {
			return zonesMsg{err: err}
		}
		def, err := b.GetDefaultZone()
		if err != nil {
			return zonesMsg{err: err}
		}
		active, err := b.GetActiveZones()
		if err != nil {
			slog.Debug("active zones unavailable", "error", err)
		}
		return zonesMsg{zones: zones, defaultZone: def, active: active}
	}
}

func fetchZoneSettingsCmd(b Backend, zone string, permanent bool) tea.Cmd {
	return func() tea.Msg {
		if !permanent {
			settings, err := b.GetZoneSettings(zone)
			return zoneSettingsMsg{zone: settings, zoneName: zone, err: err}
		}
		handle, err := b.PermanentZone(zone)
		if err != nil {
			return zoneSettingsMsg{zoneName: zone, permanent: true, err: err}
		}
		settings, err := handle.Settings()
		return zoneSettingsMsg{zone: settings, zoneName: zone, permanent: true, err: err}
	}
}

// applyChangesCmd applies changes one call at a time at runtime, or as a
// single copy-then-commit Update on the permanent zone.
func applyChangesCmd(b Backend, zone string, permanent bool, changes []change) tea.Cmd {
	return func() tea.Msg {
		if len(changes) == 0 {
			return mutationMsg{zone: zone}
		}
		notice := changes[0].String()
		if len(changes) > 1 {
			notice = fmt.Sprintf("%d changes applied", len(changes))
		}
		if !permanent {
			for _, c := range changes {
				if err := applyRuntime(b, zone, c); err != nil {
					return mutationMsg{zone: zone, err: err}
				}
			}
			return mutationMsg{zone: zone, notice: notice}
		}

		handle, err := b.PermanentZone(zone)
		if err != nil {
			return mutationMsg{zone: zone, err: err}
		}
		settings, err := handle.Settings()
		if err != nil {
			return mutationMsg{zone: zone, err: err}
		}
		if err := applySettings(settings, changes); err != nil {
			return mutationMsg{zone: zone, err: err}
		}
		if err := handle.Update(settings); err != nil {
			return mutationMsg{zone: zone, err: err}
		}
		return mutationMsg{zone: zone, notice: notice + " (permanent)"}
	}
}

func setDefaultZoneCmd(b Backend, zone string) tea.Cmd {
	return func() tea.Msg {
		err := b.SetDefaultZone(zone)
		return mutationMsg{zone: zone, notice: "default zone set to " + zone, err: err}
	}
}

func reloadCmd(b Backend, zone string) tea.Cmd {
	return func() tea.Msg {
		err := b.Reload()
		return mutationMsg{zone: zone, notice: "permanent configuration reloaded", err: err}
	}
}

func commitRuntimeCmd(b Backend, zone string) tea.Cmd {
	return func() tea.Msg {
		err := b.RuntimeToPermanent()
		return mutationMsg{zone: zone, notice: "runtime configuration saved as permanent", err: err}
	}
}

func snapshotCmd(b Backend, store *backup.Store, zone string) tea.Cmd {
	return func() tea.Msg {
		handle, err := b.PermanentZone(zone)
		if err != nil {
			return mutationMsg{zone: zone, err: err}
		}
		snap, err := store.Snapshot(handle, "tui")
		if err != nil {
			return mutationMsg{zone: zone, err: err}
		}
		return mutationMsg{zone: zone, notice: "snapshot saved to " + snap.Path}
	}
}

func startSignalsCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		ch, cancel, err := b.SubscribeSignals()
		return signalsReadyMsg{ch: ch, cancel: cancel, err: err}
	}
}

func listenSignalsCmd(ch <-chan firewalld.SignalEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return signalsClosedMsg{}
		}
		return firewalldSignalMsg{event: event}
	}
}
