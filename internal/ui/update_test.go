//go:build linux
// +build linux

package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"firewallctl/internal/backup"
	"firewallctl/internal/firewalld"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return nm, cmd
}

// loaded returns a model showing the first zone of b.
func loaded(t *testing.T, b *fakeBackend, opts Options) Model {
	t.Helper()
	m := NewModel(b, opts)
	m, cmd := step(t, m, fetchZonesCmd(b)())
	if cmd == nil {
		t.Fatalf("zonesMsg produced no zone load")
	}
	m, _ = step(t, m, cmd())
	if m.data == nil || m.loading {
		t.Fatalf("zone not loaded: data=%v loading=%v err=%v", m.data, m.loading, m.err)
	}
	return m
}

func TestZonesMsgLoadsSelectedZone(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b, Options{})

	if m.currentZone() != "public" || m.defaultZone != "public" {
		t.Fatalf("zone = %q default = %q", m.currentZone(), m.defaultZone)
	}
	if _, ok := m.activeZones["work"]; !ok {
		t.Fatalf("active zones not recorded: %v", m.activeZones)
	}
	if len(m.data.Services) != 2 {
		t.Fatalf("runtime services = %v", m.data.Services)
	}
}

func TestPermanentToggleLoadsConfigHandle(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b, Options{})

	m, cmd := step(t, m, keyMsg("P"))
	if !m.permanent || m.data != nil {
		t.Fatalf("permanent = %v data = %v after toggle", m.permanent, m.data)
	}
	m, _ = step(t, m, cmd())
	if m.data == nil || len(m.data.Services) != 1 {
		t.Fatalf("permanent data = %v", m.data)
	}
}

func TestStaleZoneSettingsIgnored(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b, Options{})

	m, cmd := step(t, m, keyMsg("j"))
	if m.pendingZone != "work" || cmd == nil {
		t.Fatalf("pendingZone = %q", m.pendingZone)
	}
	m, _ = step(t, m, zoneSettingsMsg{zoneName: "public", zone: &firewalld.ZoneSettings{Target: "DROP"}})
	if m.data.Target == "DROP" {
		t.Fatalf("late reply for another zone replaced the view")
	}
	m, _ = step(t, m, cmd())
	if len(m.data.Interfaces) != 1 {
		t.Fatalf("work zone not shown: %v", m.data)
	}
}

func TestAddServiceRuntime(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b, Options{})

	m, _ = step(t, m, keyMsg("a"))
	if m.inputMode != inputAdd || m.focus != focusMain {
		t.Fatalf("inputMode = %v focus = %v", m.inputMode, m.focus)
	}
	m.input.SetValue("https")
	m, cmd := step(t, m, keyMsg("enter"))
	if cmd == nil {
		t.Fatalf("enter produced no command, err = %v", m.err)
	}
	msg := cmd()
	if got := strings.Join(b.calls, ";"); got != "addService public https" {
		t.Fatalf("calls = %q", got)
	}
	m, _ = step(t, m, msg)
	if m.err != nil || m.notice != "service https added" {
		t.Fatalf("err = %v notice = %q", m.err, m.notice)
	}
}

func TestAddInvalidPortNeverReachesDaemon(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b, Options{})
	m.setTab(tabPorts)

	m, _ = step(t, m, keyMsg("a"))
	m.input.SetValue("8080")
	m, cmd := step(t, m, keyMsg("enter"))
	if cmd != nil || m.err == nil {
		t.Fatalf("cmd = %v err = %v, want validation error", cmd, m.err)
	}
	if len(b.calls) != 0 {
		t.Fatalf("calls = %v, want none", b.calls)
	}
}

func TestRemoveSelectedPort(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b, Options{})
	m, _ = step(t, m, keyMsg("2"))
	m, _ = step(t, m, keyMsg("tab"))

	m, cmd := step(t, m, keyMsg("x"))
	if cmd == nil {
		t.Fatalf("x produced no command")
	}
	cmd()
	if got := strings.Join(b.calls, ";"); got != "removePort public 8080/tcp" {
		t.Fatalf("calls = %q", got)
	}
}

func TestRemoveNeedsMainFocus(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b, Options{})
	if _, cmd := step(t, m, keyMsg("x")); cmd != nil {
		t.Fatalf("x with sidebar focus produced a command")
	}
}

func TestTemplatePermanentIsOneUpdate(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b, Options{Permanent: true})

	m, _ = step(t, m, keyMsg("t"))
	if m.inputMode != inputTemplate {
		t.Fatalf("inputMode = %v, want inputTemplate", m.inputMode)
	}
	m, _ = step(t, m, keyMsg("j"))
	m, _ = step(t, m, keyMsg("j"))
	m, _ = step(t, m, keyMsg("j"))
	_, cmd := step(t, m, keyMsg("enter"))
	msg, ok := cmd().(mutationMsg)
	if !ok || msg.err != nil {
		t.Fatalf("template result = %#v", msg)
	}

	h := b.permanent["public"]
	if h.updates != 1 {
		t.Fatalf("updates = %d, want 1", h.updates)
	}
	want := defaultTemplates[3].Services
	for _, s := range want {
		if !h.settings.QueryService(s) {
			t.Fatalf("service %s missing after template: %v", s, h.settings.Services)
		}
	}
	if len(b.calls) != 0 {
		t.Fatalf("runtime calls = %v, want none", b.calls)
	}
}

func TestReadOnlyBlocksMutations(t *testing.T) {
	b := newFakeBackend()
	b.readOnly = true
	m := loaded(t, b, Options{})

	for _, key := range []string{"a", "t", "D", "R", "C"} {
		next, cmd := step(t, m, keyMsg(key))
		if cmd != nil || next.inputMode != inputNone {
			t.Fatalf("%s: cmd = %v inputMode = %v", key, cmd, next.inputMode)
		}
		if !errors.Is(next.err, firewalld.ErrPermissionDenied) {
			t.Fatalf("%s: err = %v, want permission denied", key, next.err)
		}
	}
}

func TestMutationErrorIsShown(t *testing.T) {
	b := newFakeBackend()
	b.failWith = firewalld.ErrConflict
	m := loaded(t, b, Options{})

	m, cmd := step(t, m, keyMsg("D"))
	m, _ = step(t, m, cmd())
	if !errors.Is(m.err, firewalld.ErrConflict) || m.notice != "" {
		t.Fatalf("err = %v notice = %q", m.err, m.notice)
	}
	if !strings.Contains(m.View(), "Error: conflict") {
		t.Fatalf("view does not show the error")
	}
}

func TestSnapshotKey(t *testing.T) {
	b := newFakeBackend()
	store := backup.NewStore(filepath.Join(t.TempDir(), "snapshots"))
	m := loaded(t, b, Options{Snapshots: store})

	m, cmd := step(t, m, keyMsg("s"))
	m, _ = step(t, m, cmd())
	if m.err != nil || !strings.HasPrefix(m.notice, "snapshot saved to ") {
		t.Fatalf("err = %v notice = %q", m.err, m.notice)
	}
	items, err := store.List("public")
	if err != nil || len(items) != 1 {
		t.Fatalf("List() = %v, %v", items, err)
	}
}

func TestSnapshotsDisabled(t *testing.T) {
	m := loaded(t, newFakeBackend(), Options{})
	m, cmd := step(t, m, keyMsg("s"))
	if cmd != nil || m.notice != "snapshots are disabled" {
		t.Fatalf("cmd = %v notice = %q", cmd, m.notice)
	}
}

func TestSignalRefreshes(t *testing.T) {
	m := loaded(t, newFakeBackend(), Options{})
	ch := make(chan firewalld.SignalEvent, 1)
	m.signals = ch

	m, cmd := step(t, m, firewalldSignalMsg{event: firewalld.SignalEvent{Interface: "org.fedoraproject.FirewallD1", Member: "Reloaded"}})
	if cmd == nil || m.notice != "daemon: Reloaded" {
		t.Fatalf("cmd = %v notice = %q", cmd, m.notice)
	}

	m, _ = step(t, m, signalsClosedMsg{})
	if m.signals != nil {
		t.Fatalf("signals channel kept after close")
	}
	if listenSignalsCmd(nil) != nil {
		t.Fatalf("listenSignalsCmd(nil) != nil")
	}
}

func TestSignalsUnavailableIsANotice(t *testing.T) {
	b := newFakeBackend()
	m := NewModel(b, Options{})
	m, _ = step(t, m, startSignalsCmd(b)())
	if m.err != nil || !strings.HasPrefix(m.notice, "live updates unavailable") {
		t.Fatalf("err = %v notice = %q", m.err, m.notice)
	}
}

func TestViewShowsZonesAndTabs(t *testing.T) {
	m := loaded(t, newFakeBackend(), Options{})
	out := m.View()
	for _, want := range []string{"public (default)", "work ●", "public (runtime)", "1 Services", "dhcpv6-client"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}

	m.setTab(tabInfo)
	if !strings.Contains(m.View(), "Target") {
		t.Fatalf("info tab missing target row")
	}
}
