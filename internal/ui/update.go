//go:build linux
// +build linux

package ui

import (
	"errors"
	"fmt"
	"strings"

	"firewallctl/internal/firewalld"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var errReadOnly = fmt.Errorf("session is read-only: %w", firewalld.ErrPermissionDenied)

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchZonesCmd(m.backend), startSignalsCmd(m.backend))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if m.inputMode != inputNone {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)
	case zonesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.zones = msg.zones
		m.defaultZone = msg.defaultZone
		m.activeZones = msg.active
		if len(m.zones) == 0 {
			m.err = fmt.Errorf("no zones returned")
			return m, nil
		}
		if idx := indexOf(m.zones, m.pendingZone); idx >= 0 {
			m.selected = idx
		} else if m.selected >= len(m.zones) {
			m.selected = 0
		}
		cmd := m.loadZone()
		return m, cmd
	case zoneSettingsMsg:
		if msg.zoneName != m.pendingZone || msg.permanent != m.permanent {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.data = nil
			return m, nil
		}
		m.data = msg.zone
		m.clampItemIndex()
		return m, nil
	case mutationMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.notice = ""
		} else {
			m.err = nil
			m.notice = msg.notice
		}
		m.pendingZone = msg.zone
		return m, fetchZonesCmd(m.backend)
	case signalsReadyMsg:
		if msg.err != nil {
			// Auto-refresh is best effort; "r" still reloads.
			m.notice = "live updates unavailable: " + msg.err.Error()
			return m, nil
		}
		m.signals = msg.ch
		m.signalsCancel = msg.cancel
		return m, listenSignalsCmd(m.signals)
	case signalsClosedMsg:
		m.signals = nil
		m.signalsCancel = nil
		return m, nil
	case firewalldSignalMsg:
		m.notice = "daemon: " + msg.event.String()
		m.pendingZone = m.currentZone()
		return m, tea.Batch(fetchZonesCmd(m.backend), listenSignalsCmd(m.signals))
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.focus == focusZones {
			m.focus = focusMain
		} else {
			m.focus = focusZones
		}
		return m, nil
	case "j", "down":
		return m.move(1)
	case "k", "up":
		return m.move(-1)
	case "]", "right", "l":
		m.setTab((m.tab + 1) % tabCount)
		return m, nil
	case "[", "left", "h":
		m.setTab((m.tab + tabCount - 1) % tabCount)
		return m, nil
	case "1", "2", "3", "4", "5":
		m.setTab(mainTab(msg.String()[0] - '1'))
		return m, nil
	case "P":
		m.permanent = !m.permanent
		m.data = nil
		cmd := m.loadZone()
		return m, cmd
	case "r":
		m.loading = true
		m.err = nil
		m.pendingZone = m.currentZone()
		return m, fetchZonesCmd(m.backend)
	case "a":
		return m.startAdd()
	case "x", "delete":
		return m.removeSelected()
	case "t":
		if !m.guardMutation() {
			return m, nil
		}
		m.inputMode = inputTemplate
		m.templateIndex = 0
		return m, nil
	case "D":
		zone := m.currentZone()
		if zone == "" {
			return m, nil
		}
		if !m.guardMutation() {
			return m, nil
		}
		m.loading = true
		return m, setDefaultZoneCmd(m.backend, zone)
	case "R":
		if !m.guardMutation() {
			return m, nil
		}
		m.loading = true
		return m, reloadCmd(m.backend, m.currentZone())
	case "C":
		if !m.guardMutation() {
			return m, nil
		}
		m.loading = true
		return m, commitRuntimeCmd(m.backend, m.currentZone())
	case "s":
		zone := m.currentZone()
		if zone == "" {
			return m, nil
		}
		if m.snapshots == nil {
			m.notice = "snapshots are disabled"
			return m, nil
		}
		m.loading = true
		return m, snapshotCmd(m.backend, m.snapshots, zone)
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode == inputTemplate {
		switch msg.String() {
		case "esc", "q":
			m.inputMode = inputNone
		case "j", "down":
			if m.templateIndex < len(defaultTemplates)-1 {
				m.templateIndex++
			}
		case "k", "up":
			if m.templateIndex > 0 {
				m.templateIndex--
			}
		case "enter":
			m.inputMode = inputNone
			tpl := defaultTemplates[m.templateIndex]
			m.loading = true
			return m, applyChangesCmd(m.backend, m.currentZone(), m.permanent, tpl.changes())
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.inputMode = inputNone
		m.input.Blur()
		m.input.SetValue("")
		return m, nil
	case "enter":
		cmd := m.submitInput()
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submitInput() tea.Cmd {
	value := strings.TrimSpace(m.input.Value())
	m.inputMode = inputNone
	m.input.Blur()
	m.input.SetValue("")
	if value == "" {
		return nil
	}
	c, err := parseAddition(m.tab, value)
	if err != nil {
		m.err = err
		return nil
	}
	m.err = nil
	m.loading = true
	return applyChangesCmd(m.backend, m.currentZone(), m.permanent, []change{c})
}

func (m Model) startAdd() (tea.Model, tea.Cmd) {
	if m.currentZone() == "" || m.tab == tabInfo {
		return m, nil
	}
	if !m.guardMutation() {
		return m, nil
	}
	m.focus = focusMain
	m.inputMode = inputAdd
	m.input.Placeholder = placeholder(m.tab)
	m.input.SetValue("")
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) removeSelected() (tea.Model, tea.Cmd) {
	if m.focus != focusMain {
		return m, nil
	}
	it, ok := m.selectedItem()
	if !ok {
		return m, nil
	}
	if !m.guardMutation() {
		return m, nil
	}
	m.loading = true
	c := change{kind: it.kind, value: it.value}
	return m, applyChangesCmd(m.backend, m.currentZone(), m.permanent, []change{c})
}

// guardMutation refuses edits on a session whose authorization was denied.
func (m *Model) guardMutation() bool {
	if m.readOnly {
		m.err = errReadOnly
		return false
	}
	return true
}

func (m Model) move(delta int) (tea.Model, tea.Cmd) {
	if m.focus == focusMain {
		m.itemIndex += delta
		m.clampItemIndex()
		return m, nil
	}
	next := m.selected + delta
	if len(m.zones) == 0 || next < 0 || next >= len(m.zones) {
		return m, nil
	}
	m.selected = next
	m.itemIndex = 0
	cmd := m.loadZone()
	return m, cmd
}

func (m *Model) setTab(t mainTab) {
	if t < 0 || t >= tabCount {
		return
	}
	m.tab = t
	m.itemIndex = 0
}

func (m *Model) loadZone() tea.Cmd {
	zone := m.currentZone()
	if zone == "" {
		return nil
	}
	m.loading = true
	m.err = nil
	m.pendingZone = zone
	return fetchZoneSettingsCmd(m.backend, zone, m.permanent)
}

func placeholder(tab mainTab) string {
	switch tab {
	case tabServices:
		return "service name, e.g. https"
	case tabPorts:
		return "port/protocol, e.g. 8080/tcp"
	case tabRich:
		return `rule family="ipv4" source address="10.0.0.0/8" accept`
	case tabNetwork:
		return "interface or source, e.g. eth1 or 10.0.0.0/8"
	}
	return ""
}

func indexOf(items []string, want string) int {
	if want == "" {
		return -1
	}
	for i, item := range items {
		if item == want {
			return i
		}
	}
	return -1
}

func isPermissionError(err error) bool {
	return errors.Is(err, firewalld.ErrPermissionDenied)
}
