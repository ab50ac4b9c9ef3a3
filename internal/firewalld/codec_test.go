//go:build linux
// +build linux

package firewalld

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantToPorts(t *testing.T) {
	want := []Port{{"22", "tcp"}, {"53", "udp"}}

	tests := []struct {
		name  string
		input interface{}
	}{
		{name: "typed", input: []Port{{"22", "tcp"}, {"53", "udp"}}},
		{name: "string tuples", input: [][]string{{"22", "tcp"}, {"53", "udp"}}},
		{name: "slash form", input: []string{"22/tcp", "53/udp"}},
		{name: "decoded structs", input: [][]interface{}{{"22", "tcp"}, {"53", "udp"}}},
		{name: "mixed interfaces", input: []interface{}{[]string{"22", "tcp"}, "53/udp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := variantToPorts(dbus.MakeVariant(tt.input))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("errors", func(t *testing.T) {
		for _, input := range []interface{}{
			42,
			[][]string{{"22"}},
			[]string{"22"},
			[][]interface{}{{"22", 6}},
		} {
			_, err := variantToPorts(dbus.MakeVariant(input))
			assert.Error(t, err, "input %#v", input)
		}
	})
}

func TestVariantToForwardPorts(t *testing.T) {
	want := []ForwardPort{{Port: "80", Protocol: "tcp", ToPort: "8080", ToAddr: "10.0.0.2"}}

	for _, input := range []interface{}{
		[]ForwardPort{{Port: "80", Protocol: "tcp", ToPort: "8080", ToAddr: "10.0.0.2"}},
		[][]string{{"80", "tcp", "8080", "10.0.0.2"}},
		[][]interface{}{{"80", "tcp", "8080", "10.0.0.2"}},
		[]interface{}{[]string{"80", "tcp", "8080", "10.0.0.2"}},
	} {
		got, err := variantToForwardPorts(dbus.MakeVariant(input))
		require.NoError(t, err, "input %#v", input)
		assert.Equal(t, want, got)
	}

	_, err := variantToForwardPorts(dbus.MakeVariant([][]string{{"80", "tcp"}}))
	assert.Error(t, err)
}

func TestVariantToStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, variantToStringSlice(dbus.MakeVariant([]string{"a", "b"})))
	assert.Equal(t, []string{"a"}, variantToStringSlice(dbus.MakeVariant([]interface{}{"a", 3})))
	assert.Nil(t, variantToStringSlice(dbus.MakeVariant(7)))
	assert.Nil(t, variantToStringSlice(dbus.Variant{}))
}

func TestVariantToStringMap(t *testing.T) {
	want := map[string]string{"ipv4": "10.0.0.1"}
	assert.Equal(t, want, variantToStringMap(dbus.MakeVariant(map[string]string{"ipv4": "10.0.0.1"})))
	assert.Equal(t, want, variantToStringMap(dbus.MakeVariant(map[string]interface{}{"ipv4": "10.0.0.1", "ipv6": 1})))
	assert.Equal(t, want, variantToStringMap(dbus.MakeVariant(map[string]dbus.Variant{"ipv4": dbus.MakeVariant("10.0.0.1")})))
	assert.Nil(t, variantToStringMap(dbus.Variant{}))
}

func TestVariantScalars(t *testing.T) {
	assert.Equal(t, "x", variantString(dbus.MakeVariant("x")))
	assert.Empty(t, variantString(dbus.MakeVariant(1)))
	assert.Empty(t, variantString(dbus.Variant{}))
	assert.True(t, variantBool(dbus.MakeVariant(true)))
	assert.False(t, variantBool(dbus.MakeVariant("yes")))
}

func TestZoneDictSendsEveryKey(t *testing.T) {
	dict := zoneToDict(&ZoneSettings{})
	for _, key := range []string{
		"version", "short", "description", "target", "services", "ports",
		"icmp_blocks", "masquerade", "forward_ports", "interfaces", "sources",
		"rules_str", "protocols", "source_ports", "icmp_block_inversion",
	} {
		v, ok := dict[key]
		require.True(t, ok, "key %q missing", key)
		assert.NotNil(t, v.Value(), "key %q", key)
	}

	svc := serviceToDict(&ServiceSettings{})
	assert.Len(t, svc, 8)
	assert.Equal(t, map[string]string{}, svc["destination"].Value())
}

func TestParseZoneSettingsPartialDict(t *testing.T) {
	z, err := parseZoneSettings("public", map[string]dbus.Variant{
		"target":   dbus.MakeVariant("DROP"),
		"services": dbus.MakeVariant([]string{"ssh"}),
		"ports":    dbus.MakeVariant([][]interface{}{{"443", "tcp"}}),
	})
	require.NoError(t, err)
	assert.Equal(t, "DROP", z.Target)
	assert.Equal(t, []string{"ssh"}, z.Services)
	assert.Equal(t, []Port{{"443", "tcp"}}, z.Ports)
	assert.Empty(t, z.Sources)
	assert.False(t, z.Masquerade)

	_, err = parseZoneSettings("public", map[string]dbus.Variant{"ports": dbus.MakeVariant(5)})
	assert.Error(t, err)
}

func TestTupleRoundTrip(t *testing.T) {
	z := testZoneSettings()
	assert.True(t, z.Equal(zoneFromTuple(zoneToTuple(z))))

	s := &ServiceSettings{Short: "DNS", Ports: []Port{{"53", "udp"}}, Destinations: map[string]string{"ipv6": "ff02::fb"}}
	assert.True(t, s.Equal(serviceFromTuple(serviceToTuple(s))))

	set := &IPSetSettings{Type: "hash:mac", Entries: []string{"00:11:22:33:44:55"}}
	assert.True(t, set.Equal(ipsetFromTuple(ipsetToTuple(set))))

	tuple := ipsetToTuple(&IPSetSettings{Type: "hash:ip"})
	assert.NotNil(t, tuple.Options)
	assert.NotNil(t, tuple.Entries)
}

func TestFromTupleDetaches(t *testing.T) {
	tuple := zoneToTuple(&ZoneSettings{Services: []string{"ssh"}})
	z := zoneFromTuple(tuple)
	z.Services[0] = "http"
	assert.Equal(t, "ssh", tuple.Services[0])
}

func TestIsSourceRef(t *testing.T) {
	for ref, want := range map[string]bool{
		"eth0":              false,
		"br-lan.100":        false,
		"10.0.0.1":          true,
		"10.0.0.0/8":        true,
		"fe80::1":           true,
		"00:11:22:33:44:55": true,
		"ipset:blocklist":   true,
	} {
		assert.Equal(t, want, isSourceRef(ref), ref)
	}
}
