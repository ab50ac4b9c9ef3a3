//go:build linux
// +build linux

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firewallctl/internal/config"
	"firewallctl/internal/firewalld"
)

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{w: &buf, format: "table"}

	require.NoError(t, p.list("ZONE", []string{"public", "work"}))
	out := buf.String()
	assert.Contains(t, out, "ZONE")
	assert.Contains(t, out, "public")
	assert.Contains(t, out, "work")
}

func TestPrinterJSONListIsNeverNull(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{w: &buf, format: "json"}

	require.NoError(t, p.list("ZONE", nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestPrinterYAMLProperties(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{w: &buf, format: "yaml"}

	require.NoError(t, p.properties(map[string]string{"DefaultZone": "public", "IPv6_rpfilter": "yes"}))
	assert.Equal(t, "DefaultZone: public\nIPv6_rpfilter: \"yes\"\n", buf.String())
}

func TestPrinterLine(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{w: &buf, format: "table"}
	require.NoError(t, p.line("reloaded"))
	assert.Equal(t, "reloaded\n", buf.String())

	buf.Reset()
	p.format = "json"
	require.NoError(t, p.line("reloaded"))
	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]string{"result": "reloaded"}, got)
}

func TestPrinterUnknownFormat(t *testing.T) {
	p := &printer{w: &bytes.Buffer{}, format: "xml"}
	err := p.list("ZONE", []string{"public"})
	assert.ErrorIs(t, err, firewalld.ErrInvalidArgument)
}

func TestZoneViewJSON(t *testing.T) {
	z := &firewalld.ZoneSettings{
		Target:       "default",
		Ports:        []firewalld.Port{{Port: "443", Protocol: "tcp"}},
		ForwardPorts: []firewalld.ForwardPort{{Port: "80", Protocol: "tcp", ToPort: "8080"}},
		Masquerade:   true,
	}
	data, err := json.Marshal(newZoneView("public", z))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "public", got["name"])
	assert.Equal(t, []any{"443/tcp"}, got["ports"])
	assert.Equal(t, []any{}, got["services"])
	assert.Equal(t, true, got["masquerade"])
	assert.NotContains(t, got, "short")
}

func TestZoneViewRows(t *testing.T) {
	v := newZoneView("home", &firewalld.ZoneSettings{
		Services:  []string{"ssh", "mdns"},
		RichRules: []string{"rule drop", "rule accept"},
	})
	rows := map[string]string{}
	for _, r := range v.rows() {
		rows[r[0]] = r[1]
	}
	assert.Equal(t, "home", rows["name"])
	assert.Equal(t, "ssh mdns", rows["services"])
	assert.Equal(t, "rule drop\nrule accept", rows["rich-rules"])
	assert.Equal(t, "no", rows["masquerade"])
}

func TestServiceViewRows(t *testing.T) {
	s := &firewalld.ServiceSettings{
		Ports:        []firewalld.Port{{Port: "5353", Protocol: "udp"}},
		Destinations: map[string]string{"ipv6": "ff02::fb", "ipv4": "224.0.0.251"},
	}
	v := newServiceView("mdns", s)
	var dest string
	for _, r := range v.rows() {
		if r[0] == "destinations" {
			dest = r[1]
		}
	}
	assert.Equal(t, "ipv4:224.0.0.251 ipv6:ff02::fb", dest)
	assert.Equal(t, []string{}, newServiceView("x", &firewalld.ServiceSettings{}).Modules)
}

func TestStateView(t *testing.T) {
	v := newStateView(&firewalld.DaemonInfo{Version: "1.3.4", State: "RUNNING", IPv4: true}, firewalld.APIv2, true)
	assert.Equal(t, "v2 (firewalld 1.x+)", v.API)
	assert.Equal(t, []string{}, v.IPSetTypes)
	assert.True(t, v.ReadOnly)
	assert.Len(t, v.rows(), 12)
}

func TestToolConfigView(t *testing.T) {
	v := newToolConfigView(config.Default(), "/tmp/config.toml", false)
	rows := map[string]string{}
	for _, r := range v.rows() {
		rows[r[0]] = r[1]
	}
	assert.Equal(t, "system", rows["bus"])
	assert.Equal(t, "30", rows["timeout_seconds"])
	assert.Equal(t, "no", rows["found"])
	assert.True(t, strings.HasSuffix(rows["path"], "config.toml"))
}

func TestPastTense(t *testing.T) {
	assert.Equal(t, "added", pastTense("add"))
	assert.Equal(t, "removed", pastTense("remove"))
	assert.Equal(t, "query", pastTense("query"))
}
