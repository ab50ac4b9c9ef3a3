//go:build linux
// +build linux

package firewalld

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

type Port struct {
	Port     string
	Protocol string
}

func (p Port) String() string {
	return p.Port + "/" + p.Protocol
}

// ParsePort reads the "port/protocol" form used by firewall-cmd.
func ParsePort(s string) (Port, error) {
	port, proto, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || port == "" || proto == "" {
		return Port{}, fmt.Errorf("invalid port %q (want port/protocol)", s)
	}
	return Port{Port: port, Protocol: proto}, nil
}

type ForwardPort struct {
	Port     string
	Protocol string
	ToPort   string
	ToAddr   string
}

func (f ForwardPort) String() string {
	return fmt.Sprintf("port=%s:proto=%s:toport=%s:toaddr=%s", f.Port, f.Protocol, f.ToPort, f.ToAddr)
}

// ParseForwardPort reads "port=22:proto=tcp:toport=2222:toaddr=10.0.0.1".
func ParseForwardPort(s string) (ForwardPort, error) {
	var fp ForwardPort
	for _, part := range strings.Split(strings.TrimSpace(s), ":") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return ForwardPort{}, fmt.Errorf("invalid forward port %q: %q is not key=value", s, part)
		}
		switch key {
		case "port":
			fp.Port = value
		case "proto":
			fp.Protocol = value
		case "toport":
			fp.ToPort = value
		case "toaddr":
			fp.ToAddr = value
		default:
			return ForwardPort{}, fmt.Errorf("invalid forward port %q: unknown key %q", s, key)
		}
	}
	if fp.Port == "" || fp.Protocol == "" {
		return ForwardPort{}, fmt.Errorf("invalid forward port %q: port and proto are required", s)
	}
	if fp.ToPort == "" && fp.ToAddr == "" {
		return ForwardPort{}, fmt.Errorf("invalid forward port %q: toport or toaddr is required", s)
	}
	return fp, nil
}

// Chain is a direct chain in an (ip version, table) namespace.
type Chain struct {
	IPV   string
	Table string
	Chain string
}

func (c Chain) String() string {
	return c.IPV + "/" + c.Table + "/" + c.Chain
}

// Rule is a direct rule. All five fields together identify it; Priority
// orders rules sharing a chain.
type Rule struct {
	IPV      string
	Table    string
	Chain    string
	Priority int32
	Args     []string
}

func (r Rule) Equal(o Rule) bool {
	return r.IPV == o.IPV && r.Table == o.Table && r.Chain == o.Chain &&
		r.Priority == o.Priority && slices.Equal(r.Args, o.Args)
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s %s %d %s", r.IPV, r.Table, r.Chain, r.Priority, strings.Join(r.Args, " "))
}

// SortRules orders rules the way firewalld inserts them: by namespace, then by
// ascending priority. Rules with equal priority keep their relative order.
func SortRules(rules []Rule) {
	slices.SortStableFunc(rules, func(a, b Rule) int {
		if c := strings.Compare(a.IPV, b.IPV); c != 0 {
			return c
		}
		if c := strings.Compare(a.Table, b.Table); c != 0 {
			return c
		}
		if c := strings.Compare(a.Chain, b.Chain); c != 0 {
			return c
		}
		switch {
		case a.Priority < b.Priority:
			return -1
		case a.Priority > b.Priority:
			return 1
		}
		return 0
	})
}

// Passthrough is a tracked raw command, keyed by its full argument list.
type Passthrough struct {
	IPV  string
	Args []string
}

func (p Passthrough) Equal(o Passthrough) bool {
	return p.IPV == o.IPV && slices.Equal(p.Args, o.Args)
}

func (p Passthrough) String() string {
	return p.IPV + " " + strings.Join(p.Args, " ")
}

// ActiveZone lists what binds a zone at runtime.
type ActiveZone struct {
	Interfaces []string
	Sources    []string
}

type ZoneSettings struct {
	Version            string
	Short              string
	Description        string
	Target             string
	Services           []string
	Ports              []Port
	IcmpBlocks         []string
	Masquerade         bool
	ForwardPorts       []ForwardPort
	Interfaces         []string
	Sources            []string
	RichRules          []string
	Protocols          []string
	SourcePorts        []Port
	IcmpBlockInversion bool
}

func (z *ZoneSettings) Clone() *ZoneSettings {
	if z == nil {
		return nil
	}
	out := *z
	out.Services = slices.Clone(z.Services)
	out.Ports = slices.Clone(z.Ports)
	out.IcmpBlocks = slices.Clone(z.IcmpBlocks)
	out.ForwardPorts = slices.Clone(z.ForwardPorts)
	out.Interfaces = slices.Clone(z.Interfaces)
	out.Sources = slices.Clone(z.Sources)
	out.RichRules = slices.Clone(z.RichRules)
	out.Protocols = slices.Clone(z.Protocols)
	out.SourcePorts = slices.Clone(z.SourcePorts)
	return &out
}

func (z *ZoneSettings) Equal(o *ZoneSettings) bool {
	if z == nil || o == nil {
		return z == o
	}
	return z.Version == o.Version &&
		z.Short == o.Short &&
		z.Description == o.Description &&
		z.Target == o.Target &&
		z.Masquerade == o.Masquerade &&
		z.IcmpBlockInversion == o.IcmpBlockInversion &&
		slices.Equal(z.Services, o.Services) &&
		slices.Equal(z.Ports, o.Ports) &&
		slices.Equal(z.IcmpBlocks, o.IcmpBlocks) &&
		slices.Equal(z.ForwardPorts, o.ForwardPorts) &&
		slices.Equal(z.Interfaces, o.Interfaces) &&
		slices.Equal(z.Sources, o.Sources) &&
		slices.Equal(z.RichRules, o.RichRules) &&
		slices.Equal(z.Protocols, o.Protocols) &&
		slices.Equal(z.SourcePorts, o.SourcePorts)
}

func (z *ZoneSettings) AddService(s string) { z.Services = appendUnique(z.Services, s) }
func (z *ZoneSettings) RemoveService(s string) { z.Services = removeItem(z.Services, s) }
func (z *ZoneSettings) QueryService(s string) bool { return slices.Contains(z.Services, s) }
func (z *ZoneSettings) AddPort(p Port) { z.Ports = appendUnique(z.Ports, p) }
func (z *ZoneSettings) RemovePort(p Port) { z.Ports = removeItem(z.Ports, p) }
func (z *ZoneSettings) QueryPort(p Port) bool { return slices.Contains(z.Ports, p) }
func (z *ZoneSettings) AddProtocol(p string) { z.Protocols = appendUnique(z.Protocols, p) }
func (z *ZoneSettings) RemoveProtocol(p string) { z.Protocols = removeItem(z.Protocols, p) }
func (z *ZoneSettings) QueryProtocol(p string) bool { return slices.Contains(z.Protocols, p) }
func (z *ZoneSettings) AddSourcePort(p Port) { z.SourcePorts = appendUnique(z.SourcePorts, p) }
func (z *ZoneSettings) RemoveSourcePort(p Port) { z.SourcePorts = removeItem(z.SourcePorts, p) }
func (z *ZoneSettings) QuerySourcePort(p Port) bool { return slices.Contains(z.SourcePorts, p) }
func (z *ZoneSettings) AddIcmpBlock(t string) { z.IcmpBlocks = appendUnique(z.IcmpBlocks, t) }
func (z *ZoneSettings) RemoveIcmpBlock(t string) { z.IcmpBlocks = removeItem(z.IcmpBlocks, t) }
func (z *ZoneSettings) QueryIcmpBlock(t string) bool {
	return slices.Contains(z.IcmpBlocks, t)
}
func (z *ZoneSettings) AddForwardPort(f ForwardPort) { z.ForwardPorts = appendUnique(z.ForwardPorts, f) }
func (z *ZoneSettings) RemoveForwardPort(f ForwardPort) { z.ForwardPorts = removeItem(z.ForwardPorts, f) }
func (z *ZoneSettings) QueryForwardPort(f ForwardPort) bool {
	return slices.Contains(z.ForwardPorts, f)
}
func (z *ZoneSettings) AddInterface(i string) { z.Interfaces = appendUnique(z.Interfaces, i) }
func (z *ZoneSettings) RemoveInterface(i string) { z.Interfaces = removeItem(z.Interfaces, i) }
func (z *ZoneSettings) QueryInterface(i string) bool { return slices.Contains(z.Interfaces, i) }
func (z *ZoneSettings) AddSource(s string) { z.Sources = appendUnique(z.Sources, s) }
func (z *ZoneSettings) RemoveSource(s string) { z.Sources = removeItem(z.Sources, s) }
func (z *ZoneSettings) QuerySource(s string) bool { return slices.Contains(z.Sources, s) }
func (z *ZoneSettings) AddRichRule(r string) { z.RichRules = appendUnique(z.RichRules, r) }
func (z *ZoneSettings) RemoveRichRule(r string) { z.RichRules = removeItem(z.RichRules, r) }
func (z *ZoneSettings) QueryRichRule(r string) bool { return slices.Contains(z.RichRules, r) }

func (z *ZoneSettings) String() string {
	if z == nil {
		return "zone<nil>"
	}
	return formatFields("zone",
		field{"version", z.Version},
		field{"short", z.Short},
		field{"description", z.Description},
		field{"target", z.Target},
		field{"services", joinList(z.Services)},
		field{"ports", joinList(z.Ports)},
		field{"protocols", joinList(z.Protocols)},
		field{"source-ports", joinList(z.SourcePorts)},
		field{"icmp-blocks", joinList(z.IcmpBlocks)},
		field{"icmp-block-inversion", strconv.FormatBool(z.IcmpBlockInversion)},
		field{"masquerade", strconv.FormatBool(z.Masquerade)},
		field{"forward-ports", joinList(z.ForwardPorts)},
		field{"interfaces", joinList(z.Interfaces)},
		field{"sources", joinList(z.Sources)},
		field{"rich-rules", joinList(z.RichRules)},
	)
}

type ServiceSettings struct {
	Version     string
	Short       string
	Description string
	Ports       []Port
	Modules     []string
	// Destinations maps an ip version ("ipv4", "ipv6") to the only address the
	// service may be reached at.
	Destinations map[string]string
	Protocols    []string
	SourcePorts  []Port
}

func (s *ServiceSettings) Clone() *ServiceSettings {
	if s == nil {
		return nil
	}
	out := *s
	out.Ports = slices.Clone(s.Ports)
	out.Modules = slices.Clone(s.Modules)
	out.Destinations = maps.Clone(s.Destinations)
	out.Protocols = slices.Clone(s.Protocols)
	out.SourcePorts = slices.Clone(s.SourcePorts)
	return &out
}

func (s *ServiceSettings) Equal(o *ServiceSettings) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Version == o.Version &&
		s.Short == o.Short &&
		s.Description == o.Description &&
		slices.Equal(s.Ports, o.Ports) &&
		slices.Equal(s.Modules, o.Modules) &&
		maps.Equal(s.Destinations, o.Destinations) &&
		slices.Equal(s.Protocols, o.Protocols) &&
		slices.Equal(s.SourcePorts, o.SourcePorts)
}

func (s *ServiceSettings) AddPort(p Port) { s.Ports = appendUnique(s.Ports, p) }
func (s *ServiceSettings) RemovePort(p Port) { s.Ports = removeItem(s.Ports, p) }
func (s *ServiceSettings) QueryPort(p Port) bool { return slices.Contains(s.Ports, p) }
func (s *ServiceSettings) AddModule(m string) { s.Modules = appendUnique(s.Modules, m) }
func (s *ServiceSettings) RemoveModule(m string) { s.Modules = removeItem(s.Modules, m) }
func (s *ServiceSettings) QueryModule(m string) bool { return slices.Contains(s.Modules, m) }
func (s *ServiceSettings) AddProtocol(p string) { s.Protocols = appendUnique(s.Protocols, p) }
func (s *ServiceSettings) RemoveProtocol(p string) { s.Protocols = removeItem(s.Protocols, p) }
func (s *ServiceSettings) QueryProtocol(p string) bool { return slices.Contains(s.Protocols, p) }
func (s *ServiceSettings) AddSourcePort(p Port) { s.SourcePorts = appendUnique(s.SourcePorts, p) }
func (s *ServiceSettings) RemoveSourcePort(p Port) { s.SourcePorts = removeItem(s.SourcePorts, p) }
func (s *ServiceSettings) QuerySourcePort(p Port) bool {
	return slices.Contains(s.SourcePorts, p)
}

func (s *ServiceSettings) SetDestination(ipv, address string) {
	if s.Destinations == nil {
		s.Destinations = make(map[string]string)
	}
	s.Destinations[ipv] = address
}

func (s *ServiceSettings) RemoveDestination(ipv string) {
	delete(s.Destinations, ipv)
}

func (s *ServiceSettings) QueryDestination(ipv, address string) bool {
	got, ok := s.Destinations[ipv]
	return ok && got == address
}

func (s *ServiceSettings) String() string {
	if s == nil {
		return "service<nil>"
	}
	return formatFields("service",
		field{"version", s.Version},
		field{"short", s.Short},
		field{"description", s.Description},
		field{"ports", joinList(s.Ports)},
		field{"modules", joinList(s.Modules)},
		field{"destinations", joinMap(s.Destinations)},
		field{"protocols", joinList(s.Protocols)},
		field{"source-ports", joinList(s.SourcePorts)},
	)
}

type HelperSettings struct {
	Version     string
	Short       string
	Description string
	Family      string
	Module      string
	Ports       []Port
}

func (h *HelperSettings) Clone() *HelperSettings {
	if h == nil {
		return nil
	}
	out := *h
	out.Ports = slices.Clone(h.Ports)
	return &out
}

func (h *HelperSettings) Equal(o *HelperSettings) bool {
	if h == nil || o == nil {
		return h == o
	}
	return h.Version == o.Version && h.Short == o.Short && h.Description == o.Description &&
		h.Family == o.Family && h.Module == o.Module && slices.Equal(h.Ports, o.Ports)
}

func (h *HelperSettings) AddPort(p Port) { h.Ports = appendUnique(h.Ports, p) }
func (h *HelperSettings) RemovePort(p Port) { h.Ports = removeItem(h.Ports, p) }
func (h *HelperSettings) QueryPort(p Port) bool { return slices.Contains(h.Ports, p) }

func (h *HelperSettings) String() string {
	if h == nil {
		return "helper<nil>"
	}
	return formatFields("helper",
		field{"version", h.Version},
		field{"short", h.Short},
		field{"description", h.Description},
		field{"family", h.Family},
		field{"module", h.Module},
		field{"ports", joinList(h.Ports)},
	)
}

type IcmpTypeSettings struct {
	Version     string
	Short       string
	Description string
	// Destinations lists the ip versions the type applies to. Empty means all.
	Destinations []string
}

func (t *IcmpTypeSettings) Clone() *IcmpTypeSettings {
	if t == nil {
		return nil
	}
	out := *t
	out.Destinations = slices.Clone(t.Destinations)
	return &out
}

func (t *IcmpTypeSettings) Equal(o *IcmpTypeSettings) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Version == o.Version && t.Short == o.Short && t.Description == o.Description &&
		slices.Equal(t.Destinations, o.Destinations)
}

func (t *IcmpTypeSettings) AddDestination(ipv string) { t.Destinations = appendUnique(t.Destinations, ipv) }
func (t *IcmpTypeSettings) RemoveDestination(ipv string) { t.Destinations = removeItem(t.Destinations, ipv) }
func (t *IcmpTypeSettings) QueryDestination(ipv string) bool {
	return slices.Contains(t.Destinations, ipv)
}

func (t *IcmpTypeSettings) String() string {
	if t == nil {
		return "icmptype<nil>"
	}
	return formatFields("icmptype",
		field{"version", t.Version},
		field{"short", t.Short},
		field{"description", t.Description},
		field{"destinations", joinList(t.Destinations)},
	)
}

type IPSetSettings struct {
	Version     string
	Short       string
	Description string
	Type        string
	Options     map[string]string
	Entries     []string
}

func (s *IPSetSettings) Clone() *IPSetSettings {
	if s == nil {
		return nil
	}
	out := *s
	out.Options = maps.Clone(s.Options)
	out.Entries = slices.Clone(s.Entries)
	return &out
}

func (s *IPSetSettings) Equal(o *IPSetSettings) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Version == o.Version && s.Short == o.Short && s.Description == o.Description &&
		s.Type == o.Type && maps.Equal(s.Options, o.Options) && slices.Equal(s.Entries, o.Entries)
}

func (s *IPSetSettings) SetOption(key, value string) {
	if s.Options == nil {
		s.Options = make(map[string]string)
	}
	s.Options[key] = value
}

func (s *IPSetSettings) RemoveOption(key string) {
	delete(s.Options, key)
}

func (s *IPSetSettings) QueryOption(key, value string) bool {
	got, ok := s.Options[key]
	return ok && got == value
}

func (s *IPSetSettings) AddEntry(e string) { s.Entries = appendUnique(s.Entries, e) }
func (s *IPSetSettings) RemoveEntry(e string) { s.Entries = removeItem(s.Entries, e) }
func (s *IPSetSettings) QueryEntry(e string) bool { return slices.Contains(s.Entries, e) }

func (s *IPSetSettings) String() string {
	if s == nil {
		return "ipset<nil>"
	}
	return formatFields("ipset",
		field{"version", s.Version},
		field{"short", s.Short},
		field{"description", s.Description},
		field{"type", s.Type},
		field{"options", joinMap(s.Options)},
		field{"entries", joinList(s.Entries)},
	)
}

func appendUnique[T comparable](list []T, v T) []T {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

func removeItem[T comparable](list []T, v T) []T {
	return slices.DeleteFunc(list, func(item T) bool { return item == v })
}

type field struct {
	name  string
	value string
}

// formatFields renders a settings value for debugging. Empty fields are left out.
func formatFields(kind string, fields ...field) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteString("{")
	first := true
	for _, f := range fields {
		if f.value == "" || f.value == "false" {
			continue
		}
		if !first {
			b.WriteString(" ")
		}
		first = false
		b.WriteString(f.name)
		b.WriteString("=")
		if strings.ContainsAny(f.value, " \t") && !strings.HasPrefix(f.value, "[") {
			b.WriteString(strconv.Quote(f.value))
		} else {
			b.WriteString(f.value)
		}
	}
	b.WriteString("}")
	return b.String()
}

func joinList[T any](items []T) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		s := fmt.Sprint(item)
		if strings.ContainsAny(s, " \t") {
			s = strconv.Quote(s)
		}
		parts = append(parts, s)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func joinMap(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+m[k])
	}
	return "[" + strings.Join(parts, " ") + "]"
}
