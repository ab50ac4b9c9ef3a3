//go:build linux
// +build linux

package firewalld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePort(t *testing.T) {
	p, err := ParsePort(" 8080-8090/tcp ")
	require.NoError(t, err)
	assert.Equal(t, Port{Port: "8080-8090", Protocol: "tcp"}, p)
	assert.Equal(t, "8080-8090/tcp", p.String())

	for _, bad := range []string{"", "80", "/tcp", "80/"} {
		_, err := ParsePort(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseForwardPort(t *testing.T) {
	fp, err := ParseForwardPort("port=22:proto=tcp:toport=2222:toaddr=10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, ForwardPort{Port: "22", Protocol: "tcp", ToPort: "2222", ToAddr: "10.0.0.1"}, fp)

	again, err := ParseForwardPort(fp.String())
	require.NoError(t, err)
	assert.Equal(t, fp, again)

	for _, bad := range []string{
		"port=22:proto=tcp",
		"port=22:toport=23",
		"port=22:proto=tcp:toport",
		"port=22:proto=tcp:mark=1",
	} {
		_, err := ParseForwardPort(bad)
		assert.Error(t, err, bad)
	}
}

func TestSortRules(t *testing.T) {
	rules := []Rule{
		{IPV: "ipv6", Table: "filter", Chain: "INPUT", Priority: 0},
		{IPV: "ipv4", Table: "filter", Chain: "INPUT", Priority: 5, Args: []string{"b"}},
		{IPV: "ipv4", Table: "filter", Chain: "INPUT", Priority: -1},
		{IPV: "ipv4", Table: "filter", Chain: "INPUT", Priority: 5, Args: []string{"a"}},
	}
	SortRules(rules)

	assert.Equal(t, int32(-1), rules[0].Priority)
	assert.Equal(t, []string{"b"}, rules[1].Args, "equal priorities keep their order")
	assert.Equal(t, []string{"a"}, rules[2].Args)
	assert.Equal(t, "ipv6", rules[3].IPV)
}

func TestRuleEqual(t *testing.T) {
	r := Rule{IPV: "ipv4", Table: "filter", Chain: "INPUT", Args: []string{"-j", "ACCEPT"}}
	assert.True(t, r.Equal(Rule{IPV: "ipv4", Table: "filter", Chain: "INPUT", Args: []string{"-j", "ACCEPT"}}))
	assert.False(t, r.Equal(Rule{IPV: "ipv4", Table: "filter", Chain: "INPUT", Priority: 1, Args: []string{"-j", "ACCEPT"}}))
	assert.Equal(t, "ipv4 filter INPUT 0 -j ACCEPT", r.String())
}

func TestZoneSettingsMutators(t *testing.T) {
	z := &ZoneSettings{}
	z.AddService("ssh")
	z.AddService("ssh")
	z.AddPort(Port{"80", "tcp"})
	z.AddForwardPort(ForwardPort{Port: "22", Protocol: "tcp", ToPort: "2222"})
	z.AddSource("10.0.0.0/8")

	assert.Equal(t, []string{"ssh"}, z.Services)
	assert.True(t, z.QueryPort(Port{"80", "tcp"}))
	assert.True(t, z.QueryForwardPort(ForwardPort{Port: "22", Protocol: "tcp", ToPort: "2222"}))

	z.RemovePort(Port{"80", "tcp"})
	z.RemoveService("absent")
	assert.False(t, z.QueryPort(Port{"80", "tcp"}))
	assert.Equal(t, []string{"ssh"}, z.Services)
}

func TestZoneSettingsCloneEqual(t *testing.T) {
	z := testZoneSettings()
	clone := z.Clone()
	require.True(t, z.Equal(clone))

	clone.Services[0] = "telnet"
	clone.Ports = append(clone.Ports, Port{"23", "tcp"})
	assert.Equal(t, "ssh", z.Services[0])
	assert.False(t, z.Equal(clone))

	assert.True(t, (&ZoneSettings{}).Equal(&ZoneSettings{Services: []string{}}))
	assert.False(t, (&ZoneSettings{}).Equal(nil))
	assert.Nil(t, (*ZoneSettings)(nil).Clone())
}

func TestServiceDestinations(t *testing.T) {
	s := &ServiceSettings{}
	s.SetDestination("ipv4", "224.0.0.251")
	assert.True(t, s.QueryDestination("ipv4", "224.0.0.251"))
	assert.False(t, s.QueryDestination("ipv6", "224.0.0.251"))

	clone := s.Clone()
	clone.SetDestination("ipv4", "10.0.0.1")
	assert.True(t, s.QueryDestination("ipv4", "224.0.0.251"))

	s.RemoveDestination("ipv4")
	assert.False(t, s.QueryDestination("ipv4", "224.0.0.251"))
}

func TestSettingsString(t *testing.T) {
	z := &ZoneSettings{Short: "My Zone", Services: []string{"ssh", "http"}, Ports: []Port{{"80", "tcp"}}, Masquerade: true}
	assert.Equal(t, `zone{short="My Zone" services=[ssh http] ports=[80/tcp] masquerade=true}`, z.String())

	set := &IPSetSettings{Type: "hash:ip", Options: map[string]string{"maxelem": "10", "family": "inet"}}
	assert.Equal(t, "ipset{type=hash:ip options=[family:inet maxelem:10]}", set.String())

	assert.Equal(t, "service<nil>", (*ServiceSettings)(nil).String())
}
