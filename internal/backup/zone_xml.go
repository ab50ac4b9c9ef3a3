//go:build linux
// +build linux

package backup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"firewallctl/internal/firewalld"
	"firewallctl/internal/validation"
)

const (
	maxParsedXMLSize = 1 << 20
	maxXMLFileSize   = 4 << 20
)

var errDoctype = errors.New("xml document type declarations are not accepted")

// zoneXML follows the layout firewalld uses for /etc/firewalld/zones/*.xml.
// Rich rules are kept as text in <rich-rule> elements, which firewalld
// skips when reading the file directly.
type zoneXML struct {
	XMLName            xml.Name         `xml:"zone"`
	Version            string           `xml:"version,attr,omitempty"`
	Target             string           `xml:"target,attr,omitempty"`
	Short              string           `xml:"short,omitempty"`
	Description        string           `xml:"description,omitempty"`
	Interfaces         []nameXML        `xml:"interface"`
	Sources            []sourceXML      `xml:"source"`
	Services           []nameXML        `xml:"service"`
	Ports              []portXML        `xml:"port"`
	Protocols          []valueXML       `xml:"protocol"`
	IcmpBlocks         []nameXML        `xml:"icmp-block"`
	IcmpBlockInversion *struct{}        `xml:"icmp-block-inversion"`
	Masquerade         *struct{}        `xml:"masquerade"`
	ForwardPorts       []forwardPortXML `xml:"forward-port"`
	SourcePorts        []portXML        `xml:"source-port"`
	RichRules          []valueXML       `xml:"rich-rule"`
}

type nameXML struct {
	Name string `xml:"name,attr"`
}

type valueXML struct {
	Value string `xml:"value,attr"`
}

type portXML struct {
	Port     string `xml:"port,attr"`
	Protocol string `xml:"protocol,attr"`
}

type forwardPortXML struct {
	Port     string `xml:"port,attr"`
	Protocol string `xml:"protocol,attr"`
	ToPort   string `xml:"to-port,attr,omitempty"`
	ToAddr   string `xml:"to-addr,attr,omitempty"`
}

type sourceXML struct {
	Address string `xml:"address,attr,omitempty"`
	Mac     string `xml:"mac,attr,omitempty"`
	IPSet   string `xml:"ipset,attr,omitempty"`
}

func ParseZoneXMLFile(path string) (*firewalld.ZoneSettings, error) {
	data, err := readLimited(path)
	if err != nil {
		return nil, err
	}
	return ParseZoneXML(data)
}

func ParseZoneXML(data []byte) (*firewalld.ZoneSettings, error) {
	var zx zoneXML
	if err := decodeXML(data, &zx); err != nil {
		return nil, fmt.Errorf("parse zone xml: %w", err)
	}

	z := &firewalld.ZoneSettings{
		Version:            zx.Version,
		Target:             zx.Target,
		Short:              strings.TrimSpace(zx.Short),
		Description:        strings.TrimSpace(zx.Description),
		Masquerade:         zx.Masquerade != nil,
		IcmpBlockInversion: zx.IcmpBlockInversion != nil,
	}
	z.Services = names(zx.Services)
	z.Interfaces = names(zx.Interfaces)
	z.IcmpBlocks = names(zx.IcmpBlocks)
	z.Protocols = values(zx.Protocols)
	z.RichRules = values(zx.RichRules)
	z.Ports = ports(zx.Ports)
	z.SourcePorts = ports(zx.SourcePorts)
	for _, f := range zx.ForwardPorts {
		if f.Port == "" || f.Protocol == "" {
			continue
		}
		z.ForwardPorts = append(z.ForwardPorts, firewalld.ForwardPort{
			Port: f.Port, Protocol: f.Protocol, ToPort: f.ToPort, ToAddr: f.ToAddr,
		})
	}
	for _, s := range zx.Sources {
		switch {
		case s.Address != "":
			z.Sources = append(z.Sources, s.Address)
		case s.Mac != "":
			z.Sources = append(z.Sources, s.Mac)
		case s.IPSet != "":
			z.Sources = append(z.Sources, "ipset:"+s.IPSet)
		}
	}
	return z, nil
}

func MarshalZoneXML(z *firewalld.ZoneSettings) ([]byte, error) {
	if z == nil {
		return nil, fmt.Errorf("zone settings are nil")
	}
	zx := zoneXML{
		Version:     z.Version,
		Target:      z.Target,
		Short:       z.Short,
		Description: z.Description,
		Services:    toNames(z.Services),
		Interfaces:  toNames(z.Interfaces),
		IcmpBlocks:  toNames(z.IcmpBlocks),
		Protocols:   toValues(z.Protocols),
		RichRules:   toValues(z.RichRules),
		Ports:       toPorts(z.Ports),
		SourcePorts: toPorts(z.SourcePorts),
	}
	if z.Masquerade {
		zx.Masquerade = &struct{}{}
	}
	if z.IcmpBlockInversion {
		zx.IcmpBlockInversion = &struct{}{}
	}
	for _, f := range z.ForwardPorts {
		zx.ForwardPorts = append(zx.ForwardPorts, forwardPortXML{
			Port: f.Port, Protocol: f.Protocol, ToPort: f.ToPort, ToAddr: f.ToAddr,
		})
	}
	for _, s := range z.Sources {
		if s == "" {
			continue
		}
		kind, _ := validation.ParseSource(s)
		switch kind {
		case validation.SourceIPSet:
			zx.Sources = append(zx.Sources, sourceXML{IPSet: strings.TrimPrefix(s, "ipset:")})
		case validation.SourceMAC:
			zx.Sources = append(zx.Sources, sourceXML{Mac: s})
		default:
			zx.Sources = append(zx.Sources, sourceXML{Address: s})
		}
	}
	return encodeXML(zx)
}

func decodeXML(data []byte, v interface{}) error {
	if len(data) > maxParsedXMLSize {
		return fmt.Errorf("xml document exceeds %d bytes", maxParsedXMLSize)
	}
	if bytes.Contains(data, []byte("<!DOCTYPE")) || bytes.Contains(data, []byte("<!ENTITY")) {
		return errDoctype
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	return dec.Decode(v)
}

func encodeXML(v interface{}) ([]byte, error) {
	data, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	out := append([]byte(xml.Header), data...)
	return append(out, '\n'), nil
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxXMLFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxXMLFileSize {
		return nil, fmt.Errorf("%s: file exceeds %d bytes", path, maxXMLFileSize)
	}
	return data, nil
}

func names(items []nameXML) []string {
	var out []string
	for _, i := range items {
		if i.Name != "" {
			out = append(out, i.Name)
		}
	}
	return out
}

func toNames(items []string) []nameXML {
	var out []nameXML
	for _, i := range items {
		if i != "" {
			out = append(out, nameXML{Name: i})
		}
	}
	return out
}

func values(items []valueXML) []string {
	var out []string
	for _, i := range items {
		if i.Value != "" {
			out = append(out, i.Value)
		}
	}
	return out
}

func toValues(items []string) []valueXML {
	var out []valueXML
	for _, i := range items {
		if i != "" {
			out = append(out, valueXML{Value: i})
		}
	}
	return out
}

func ports(items []portXML) []firewalld.Port {
	var out []firewalld.Port
	for _, p := range items {
		if p.Port != "" && p.Protocol != "" {
			out = append(out, firewalld.Port{Port: p.Port, Protocol: p.Protocol})
		}
	}
	return out
}

func toPorts(items []firewalld.Port) []portXML {
	var out []portXML
	for _, p := range items {
		if p.Port != "" && p.Protocol != "" {
			out = append(out, portXML{Port: p.Port, Protocol: p.Protocol})
		}
	}
	return out
}
