//go:build linux
// +build linux

package ui

import (
	"strings"
	"testing"

	"firewallctl/internal/firewalld"
)

func TestNewModelDefaults(t *testing.T) {
	b := newFakeBackend()
	b.readOnly = true
	m := NewModel(b, Options{Permanent: true})

	if !m.loading {
		t.Fatalf("loading = false, want true")
	}
	if !m.permanent {
		t.Fatalf("permanent = false, want true")
	}
	if !m.readOnly {
		t.Fatalf("readOnly = false, want true")
	}
	if m.focus != focusZones {
		t.Fatalf("focus = %v, want focusZones", m.focus)
	}
	if m.tab != tabServices {
		t.Fatalf("tab = %v, want tabServices", m.tab)
	}
	if m.inputMode != inputNone {
		t.Fatalf("inputMode = %v, want inputNone", m.inputMode)
	}
}

func TestItemsPerTab(t *testing.T) {
	m := Model{data: &firewalld.ZoneSettings{
		Services:   []string{"ssh"},
		Ports:      []firewalld.Port{{Port: "80", Protocol: "tcp"}},
		RichRules:  []string{`rule service name="ftp" accept`},
		Interfaces: []string{"eth0", "wlan0"},
		Sources:    []string{"10.0.0.0/24"},
	}}

	tests := []struct {
		tab  mainTab
		want []item
	}{
		{tabServices, []item{{kindService, "ssh"}}},
		{tabPorts, []item{{kindPort, "80/tcp"}}},
		{tabRich, []item{{kindRichRule, `rule service name="ftp" accept`}}},
		{tabNetwork, []item{{kindInterface, "eth0"}, {kindInterface, "wlan0"}, {kindSource, "10.0.0.0/24"}}},
		{tabInfo, nil},
	}
	for _, tt := range tests {
		m.tab = tt.tab
		got := m.items()
		if len(got) != len(tt.want) {
			t.Fatalf("%s: items = %#v, want %#v", tt.tab, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("%s: items[%d] = %#v, want %#v", tt.tab, i, got[i], tt.want[i])
			}
		}
	}
}

func TestClampItemIndex(t *testing.T) {
	m := Model{data: &firewalld.ZoneSettings{Services: []string{"a", "b"}}, itemIndex: 5}
	m.clampItemIndex()
	if m.itemIndex != 1 {
		t.Fatalf("itemIndex = %d, want 1", m.itemIndex)
	}
	m.data = &firewalld.ZoneSettings{}
	m.clampItemIndex()
	if m.itemIndex != 0 {
		t.Fatalf("itemIndex = %d, want 0", m.itemIndex)
	}
	if _, ok := m.selectedItem(); ok {
		t.Fatalf("selectedItem() ok on empty list")
	}
}

func TestParseAddition(t *testing.T) {
	tests := []struct {
		tab     mainTab
		value   string
		want    change
		wantErr bool
	}{
		{tab: tabServices, value: "https", want: change{kindService, "https", true}},
		{tab: tabServices, value: "../x", wantErr: true},
		{tab: tabPorts, value: "8080/tcp", want: change{kindPort, "8080/tcp", true}},
		{tab: tabPorts, value: "8080", wantErr: true},
		{tab: tabPorts, value: "70000/tcp", wantErr: true},
		{tab: tabPorts, value: "53/icmp", wantErr: true},
		{tab: tabRich, value: "rule drop", want: change{kindRichRule, "rule drop", true}},
		{tab: tabNetwork, value: "10.0.0.0/8", want: change{kindSource, "10.0.0.0/8", true}},
		{tab: tabNetwork, value: "ipset:admins", want: change{kindSource, "ipset:admins", true}},
		{tab: tabNetwork, value: "eth1", want: change{kindInterface, "eth1", true}},
		{tab: tabNetwork, value: "bad name!", wantErr: true},
		{tab: tabInfo, value: "x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseAddition(tt.tab, tt.value)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseAddition(%s, %q) error = %v, wantErr = %v", tt.tab, tt.value, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.want {
			t.Fatalf("parseAddition(%s, %q) = %#v, want %#v", tt.tab, tt.value, got, tt.want)
		}
	}
}

func TestApplySettings(t *testing.T) {
	z := &firewalld.ZoneSettings{Services: []string{"ssh"}, Sources: []string{"10.0.0.0/8"}}
	err := applySettings(z, []change{
		{kindService, "http", true},
		{kindService, "ssh", false},
		{kindPort, "443/tcp", true},
		{kindRichRule, "rule drop", true},
		{kindInterface, "eth2", true},
		{kindSource, "10.0.0.0/8", false},
	})
	if err != nil {
		t.Fatalf("applySettings() error = %v", err)
	}
	if strings.Join(z.Services, ",") != "http" {
		t.Fatalf("services = %v, want [http]", z.Services)
	}
	if !z.QueryPort(firewalld.Port{Port: "443", Protocol: "tcp"}) || !z.QueryRichRule("rule drop") || !z.QueryInterface("eth2") {
		t.Fatalf("additions missing: %s", z)
	}
	if len(z.Sources) != 0 {
		t.Fatalf("sources = %v, want none", z.Sources)
	}

	if err := applySettings(z, []change{{kindPort, "bad", true}}); err == nil {
		t.Fatalf("applySettings() accepted a malformed port")
	}
}

func TestTemplateChanges(t *testing.T) {
	for _, tpl := range defaultTemplates {
		changes := tpl.changes()
		if len(changes) != len(tpl.Services)+len(tpl.Ports) {
			t.Fatalf("%s: %d changes, want %d", tpl.Name, len(changes), len(tpl.Services)+len(tpl.Ports))
		}
		for _, c := range changes {
			if !c.add {
				t.Fatalf("%s: template removes %s", tpl.Name, c.value)
			}
		}
	}
}

func TestChangeString(t *testing.T) {
	if got := (change{kindPort, "80/tcp", true}).String(); got != "port 80/tcp added" {
		t.Fatalf("String() = %q", got)
	}
	if got := (change{kindRichRule, "rule drop", false}).String(); got != "rich rule rule drop removed" {
		t.Fatalf("String() = %q", got)
	}
}
