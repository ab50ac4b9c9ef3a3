//go:build linux
// +build linux

package ui

import (
	"fmt"
	"time"

	"firewallctl/internal/backup"
	"firewallctl/internal/firewalld"
)

type fakeHandle struct {
	name     string
	settings *firewalld.ZoneSettings
	updates  int
}

func (h *fakeHandle) Name() string { return h.name }

func (h *fakeHandle) Settings() (*firewalld.ZoneSettings, error) {
	return h.settings.Clone(), nil
}

func (h *fakeHandle) Update(s *firewalld.ZoneSettings) error {
	h.updates++
	h.settings = s.Clone()
	return nil
}

type fakeBackend struct {
	readOnly    bool
	zones       []string
	defaultZone string
	runtime     map[string]*firewalld.ZoneSettings
	permanent   map[string]*fakeHandle
	calls       []string
	failWith    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		zones:       []string{"public", "work"},
		defaultZone: "public",
		runtime: map[string]*firewalld.ZoneSettings{
			"public": {Target: "default", Services: []string{"ssh", "dhcpv6-client"}, Ports: []firewalld.Port{{Port: "8080", Protocol: "tcp"}}},
			"work":   {Target: "default", Services: []string{"ssh"}, Interfaces: []string{"eth1"}, Sources: []string{"10.0.0.0/8"}},
		},
		permanent: map[string]*fakeHandle{
			"public": {name: "public", settings: &firewalld.ZoneSettings{Services: []string{"ssh"}}},
			"work":   {name: "work", settings: &firewalld.ZoneSettings{}},
		},
	}
}

func (f *fakeBackend) record(format string, args ...any) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return "", f.failWith
}

func (f *fakeBackend) ReadOnly() bool { return f.readOnly }

func (f *fakeBackend) GetZones() ([]string, error) { return f.zones, nil }

func (f *fakeBackend) GetDefaultZone() (string, error) { return f.defaultZone, nil }

func (f *fakeBackend) SetDefaultZone(zone string) error {
	_, err := f.record("setDefaultZone %s", zone)
	if err == nil {
		f.defaultZone = zone
	}
	return err
}

func (f *fakeBackend) GetActiveZones() (map[string]firewalld.ActiveZone, error) {
	return map[string]firewalld.ActiveZone{"work": {Interfaces: []string{"eth1"}}}, nil
}

func (f *fakeBackend) GetZoneSettings(zone string) (*firewalld.ZoneSettings, error) {
	z, ok := f.runtime[zone]
	if !ok {
		return nil, firewalld.ErrNotFound
	}
	return z.Clone(), nil
}

func (f *fakeBackend) PermanentZone(zone string) (backup.ZoneHandle, error) {
	h, ok := f.permanent[zone]
	if !ok {
		return nil, firewalld.ErrNotFound
	}
	return h, nil
}

func (f *fakeBackend) AddService(zone, service string, timeout time.Duration) (string, error) {
	return f.record("addService %s %s", zone, service)
}

func (f *fakeBackend) RemoveService(zone, service string) (string, error) {
	return f.record("removeService %s %s", zone, service)
}

func (f *fakeBackend) AddPort(zone string, port firewalld.Port, timeout time.Duration) (string, error) {
	return f.record("addPort %s %s", zone, port)
}

func (f *fakeBackend) RemovePort(zone string, port firewalld.Port) (string, error) {
	return f.record("removePort %s %s", zone, port)
}

func (f *fakeBackend) AddRichRule(zone, rule string, timeout time.Duration) (string, error) {
	return f.record("addRichRule %s %s", zone, rule)
}

func (f *fakeBackend) RemoveRichRule(zone, rule string) (string, error) {
	return f.record("removeRichRule %s %s", zone, rule)
}

func (f *fakeBackend) AddInterface(zone, iface string) (string, error) {
	return f.record("addInterface %s %s", zone, iface)
}

func (f *fakeBackend) RemoveInterface(zone, iface string) (string, error) {
	return f.record("removeInterface %s %s", zone, iface)
}

func (f *fakeBackend) AddSource(zone, source string) (string, error) {
	return f.record("addSource %s %s", zone, source)
}

func (f *fakeBackend) RemoveSource(zone, source string) (string, error) {
	return f.record("removeSource %s %s", zone, source)
}

func (f *fakeBackend) Reload() error {
	_, err := f.record("reload")
	return err
}

func (f *fakeBackend) RuntimeToPermanent() error {
	_, err := f.record("runtimeToPermanent")
	return err
}

func (f *fakeBackend) SubscribeSignals() (<-chan firewalld.SignalEvent, func(), error) {
	return nil, nil, fmt.Errorf("no bus")
}
