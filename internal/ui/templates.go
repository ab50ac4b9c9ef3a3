//go:build linux
// +build linux

package ui

import "firewallctl/internal/firewalld"

type zoneTemplate struct {
	Name        string
	Description string
	Services    []string
	Ports       []firewalld.Port
}

var defaultTemplates = []zoneTemplate{
	{
		Name:        "Web Server",
		Description: "Adds http and https services",
		Services:    []string{"http", "https"},
	},
	{
		Name:        "Database Server",
		Description: "Adds postgresql and mysql services",
		Services:    []string{"postgresql", "mysql"},
	},
	{
		Name:        "SSH Only",
		Description: "Adds ssh service (does not remove others)",
		Services:    []string{"ssh"},
	},
	{
		Name:        "Workstation",
		Description: "Adds common desktop services",
		Services:    []string{"ssh", "mdns", "samba-client", "ipp-client", "dhcpv6-client"},
	},
	{
		Name:        "Alternate HTTP",
		Description: "Adds 8080/tcp and 8443/tcp",
		Ports:       []firewalld.Port{{Port: "8080", Protocol: "tcp"}, {Port: "8443", Protocol: "tcp"}},
	},
}

// changes lists the additions the template makes to a zone.
func (t zoneTemplate) changes() []change {
	out := make([]change, 0, len(t.Services)+len(t.Ports))
	for _, s := range t.Services {
		out = append(out, change{kind: kindService, value: s, add: true})
	}
	for _, p := range t.Ports {
		out = append(out, change{kind: kindPort, value: p.String(), add: true})
	}
	return out
}
