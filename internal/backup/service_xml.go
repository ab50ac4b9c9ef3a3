//go:build linux
// +build linux

package backup

import (
	"encoding/xml"
	"fmt"
	"strings"

	"firewallctl/internal/firewalld"
)

type serviceXML struct {
	XMLName      xml.Name         `xml:"service"`
	Version      string           `xml:"version,attr,omitempty"`
	Short        string           `xml:"short,omitempty"`
	Description  string           `xml:"description,omitempty"`
	Ports        []portXML        `xml:"port"`
	Protocols    []valueXML       `xml:"protocol"`
	SourcePorts  []portXML        `xml:"source-port"`
	Modules      []nameXML        `xml:"module"`
	Destinations []destinationXML `xml:"destination"`
}

// firewalld writes a single <destination ipv4=".." ipv6=".."/>; one element
// per family is accepted as well.
type destinationXML struct {
	IPv4 string `xml:"ipv4,attr,omitempty"`
	IPv6 string `xml:"ipv6,attr,omitempty"`
}

func ParseServiceXMLFile(path string) (*firewalld.ServiceSettings, error) {
	data, err := readLimited(path)
	if err != nil {
		return nil, err
	}
	return ParseServiceXML(data)
}

func ParseServiceXML(data []byte) (*firewalld.ServiceSettings, error) {
	var sx serviceXML
	if err := decodeXML(data, &sx); err != nil {
		return nil, fmt.Errorf("parse service xml: %w", err)
	}
	s := &firewalld.ServiceSettings{
		Version:     sx.Version,
		Short:       strings.TrimSpace(sx.Short),
		Description: strings.TrimSpace(sx.Description),
		Ports:       ports(sx.Ports),
		Protocols:   values(sx.Protocols),
		SourcePorts: ports(sx.SourcePorts),
		Modules:     names(sx.Modules),
	}
	for _, d := range sx.Destinations {
		if d.IPv4 != "" {
			s.SetDestination("ipv4", d.IPv4)
		}
		if d.IPv6 != "" {
			s.SetDestination("ipv6", d.IPv6)
		}
	}
	return s, nil
}

func MarshalServiceXML(s *firewalld.ServiceSettings) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("service settings are nil")
	}
	sx := serviceXML{
		Version:     s.Version,
		Short:       s.Short,
		Description: s.Description,
		Ports:       toPorts(s.Ports),
		Protocols:   toValues(s.Protocols),
		SourcePorts: toPorts(s.SourcePorts),
		Modules:     toNames(s.Modules),
	}
	if len(s.Destinations) > 0 {
		var d destinationXML
		for ipv, addr := range s.Destinations {
			switch ipv {
			case "ipv4":
				d.IPv4 = addr
			case "ipv6":
				d.IPv6 = addr
			default:
				return nil, fmt.Errorf("service destination: unknown family %q", ipv)
			}
		}
		sx.Destinations = []destinationXML{d}
	}
	return encodeXML(sx)
}
