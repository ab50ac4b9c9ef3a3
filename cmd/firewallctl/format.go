//go:build linux
// +build linux

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v2"

	"firewallctl/internal/firewalld"
)

type printer struct {
	w      io.Writer
	format string
	color  bool
}

// table renders rows as a table, or obj as yaml or json.
func (p *printer) table(header []string, rows [][]string, obj any) error {
	switch p.format {
	case "json":
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(obj)
	case "yaml":
		data, err := yaml.Marshal(obj)
		if err != nil {
			return err
		}
		_, err = p.w.Write(data)
		return err
	case "table", "":
		table := tablewriter.NewWriter(p.w)
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetHeader(header)
		if p.color {
			colors := make([]tablewriter.Colors, len(header))
			for i := range colors {
				colors[i] = tablewriter.Colors{tablewriter.Bold}
			}
			table.SetHeaderColor(colors...)
		}
		table.AppendBulk(rows)
		table.Render()
		return nil
	default:
		return fmt.Errorf("%w: output format %q", firewalld.ErrInvalidArgument, p.format)
	}
}

// list renders a single column of names.
func (p *printer) list(header string, items []string) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item})
	}
	if items == nil {
		items = []string{}
	}
	return p.table([]string{header}, rows, items)
}

// properties renders key/value pairs sorted by key.
func (p *printer) properties(props map[string]string) error {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, props[k]})
	}
	return p.table([]string{"KEY", "VALUE"}, rows, props)
}

// line prints a plain message. Structured formats get {"result": msg} so the
// output stays machine readable.
func (p *printer) line(msg string) error {
	if p.format == "table" || p.format == "" {
		_, err := fmt.Fprintln(p.w, msg)
		return err
	}
	return p.table(nil, nil, map[string]string{"result": msg})
}

type zoneView struct {
	Name               string   `json:"name" yaml:"name"`
	Version            string   `json:"version,omitempty" yaml:"version,omitempty"`
	Short              string   `json:"short,omitempty" yaml:"short,omitempty"`
	Description        string   `json:"description,omitempty" yaml:"description,omitempty"`
	Target             string   `json:"target" yaml:"target"`
	Services           []string `json:"services" yaml:"services"`
	Ports              []string `json:"ports" yaml:"ports"`
	Protocols          []string `json:"protocols" yaml:"protocols"`
	SourcePorts        []string `json:"source_ports" yaml:"source_ports"`
	IcmpBlocks         []string `json:"icmp_blocks" yaml:"icmp_blocks"`
	IcmpBlockInversion bool     `json:"icmp_block_inversion" yaml:"icmp_block_inversion"`
	Masquerade         bool     `json:"masquerade" yaml:"masquerade"`
	ForwardPorts       []string `json:"forward_ports" yaml:"forward_ports"`
	Interfaces         []string `json:"interfaces" yaml:"interfaces"`
	Sources            []string `json:"sources" yaml:"sources"`
	RichRules          []string `json:"rich_rules" yaml:"rich_rules"`
}

func newZoneView(name string, z *firewalld.ZoneSettings) zoneView {
	v := zoneView{
		Name:               name,
		Version:            z.Version,
		Short:              z.Short,
		Description:        z.Description,
		Target:             z.Target,
		Services:           orEmpty(z.Services),
		Ports:              stringify(z.Ports),
		Protocols:          orEmpty(z.Protocols),
		SourcePorts:        stringify(z.SourcePorts),
		IcmpBlocks:         orEmpty(z.IcmpBlocks),
		IcmpBlockInversion: z.IcmpBlockInversion,
		Masquerade:         z.Masquerade,
		ForwardPorts:       stringify(z.ForwardPorts),
		Interfaces:         orEmpty(z.Interfaces),
		Sources:            orEmpty(z.Sources),
		RichRules:          orEmpty(z.RichRules),
	}
	return v
}

func (v zoneView) rows() [][]string {
	return [][]string{
		{"name", v.Name},
		{"short", v.Short},
		{"description", v.Description},
		{"target", v.Target},
		{"services", strings.Join(v.Services, " ")},
		{"ports", strings.Join(v.Ports, " ")},
		{"protocols", strings.Join(v.Protocols, " ")},
		{"source-ports", strings.Join(v.SourcePorts, " ")},
		{"icmp-blocks", strings.Join(v.IcmpBlocks, " ")},
		{"icmp-block-inversion", yesNo(v.IcmpBlockInversion)},
		{"masquerade", yesNo(v.Masquerade)},
		{"forward-ports", strings.Join(v.ForwardPorts, "\n")},
		{"interfaces", strings.Join(v.Interfaces, " ")},
		{"sources", strings.Join(v.Sources, " ")},
		{"rich-rules", strings.Join(v.RichRules, "\n")},
	}
}

type serviceView struct {
	Name         string            `json:"name" yaml:"name"`
	Short        string            `json:"short,omitempty" yaml:"short,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Ports        []string          `json:"ports" yaml:"ports"`
	Protocols    []string          `json:"protocols" yaml:"protocols"`
	SourcePorts  []string          `json:"source_ports" yaml:"source_ports"`
	Modules      []string          `json:"modules" yaml:"modules"`
	Destinations map[string]string `json:"destinations" yaml:"destinations"`
}

func newServiceView(name string, s *firewalld.ServiceSettings) serviceView {
	dest := s.Destinations
	if dest == nil {
		dest = map[string]string{}
	}
	return serviceView{
		Name:         name,
		Short:        s.Short,
		Description:  s.Description,
		Ports:        stringify(s.Ports),
		Protocols:    orEmpty(s.Protocols),
		SourcePorts:  stringify(s.SourcePorts),
		Modules:      orEmpty(s.Modules),
		Destinations: dest,
	}
}

func (v serviceView) rows() [][]string {
	dest := make([]string, 0, len(v.Destinations))
	for ipv, addr := range v.Destinations {
		dest = append(dest, ipv+":"+addr)
	}
	sort.Strings(dest)
	return [][]string{
		{"name", v.Name},
		{"short", v.Short},
		{"description", v.Description},
		{"ports", strings.Join(v.Ports, " ")},
		{"protocols", strings.Join(v.Protocols, " ")},
		{"source-ports", strings.Join(v.SourcePorts, " ")},
		{"modules", strings.Join(v.Modules, " ")},
		{"destinations", strings.Join(dest, " ")},
	}
}

func stringify[T fmt.Stringer](items []T) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func pastTense(action string) string {
	switch action {
	case "add":
		return "added"
	case "remove":
		return "removed"
	}
	return action
}
