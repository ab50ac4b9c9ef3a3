//go:build linux
// +build linux

package firewalld

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Tuple forms, (sssbsasa(ss)asba(ssss)asasasasa(ss)b) and friends. Field order
// is the wire order.
type zoneTuple struct {
	Version            string
	Short              string
	Description        string
	Immutable          bool
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

type serviceTuple struct {
	Version      string
	Short        string
	Description  string
	Ports        []Port
	Modules      []string
	Destinations map[string]string
	Protocols    []string
	SourcePorts  []Port
}

type helperTuple struct {
	Version     string
	Short       string
	Description string
	Family      string
	Module      string
	Ports       []Port
}

type icmpTypeTuple struct {
	Version      string
	Short        string
	Description  string
	Destinations []string
}

type ipsetTuple struct {
	Version     string
	Short       string
	Description string
	Type        string
	Options     map[string]string
	Entries     []string
}

func zoneToTuple(z *ZoneSettings) zoneTuple {
	return zoneTuple{
		Version:            z.Version,
		Short:              z.Short,
		Description:        z.Description,
		Target:             z.Target,
		Services:           nonNil(z.Services),
		Ports:              nonNil(z.Ports),
		IcmpBlocks:         nonNil(z.IcmpBlocks),
		Masquerade:         z.Masquerade,
		ForwardPorts:       nonNil(z.ForwardPorts),
		Interfaces:         nonNil(z.Interfaces),
		Sources:            nonNil(z.Sources),
		RichRules:          nonNil(z.RichRules),
		Protocols:          nonNil(z.Protocols),
		SourcePorts:        nonNil(z.SourcePorts),
		IcmpBlockInversion: z.IcmpBlockInversion,
	}
}

func zoneFromTuple(t zoneTuple) *ZoneSettings {
	return (&ZoneSettings{
		Version:            t.Version,
		Short:              t.Short,
		Description:        t.Description,
		Target:             t.Target,
		Services:           t.Services,
		Ports:              t.Ports,
		IcmpBlocks:         t.IcmpBlocks,
		Masquerade:         t.Masquerade,
		ForwardPorts:       t.ForwardPorts,
		Interfaces:         t.Interfaces,
		Sources:            t.Sources,
		RichRules:          t.RichRules,
		Protocols:          t.Protocols,
		SourcePorts:        t.SourcePorts,
		IcmpBlockInversion: t.IcmpBlockInversion,
	}).Clone()
}

func serviceToTuple(s *ServiceSettings) serviceTuple {
	dest := s.Destinations
	if dest == nil {
		dest = map[string]string{}
	}
	return serviceTuple{
		Version:      s.Version,
		Short:        s.Short,
		Description:  s.Description,
		Ports:        nonNil(s.Ports),
		Modules:      nonNil(s.Modules),
		Destinations: dest,
		Protocols:    nonNil(s.Protocols),
		SourcePorts:  nonNil(s.SourcePorts),
	}
}

func serviceFromTuple(t serviceTuple) *ServiceSettings {
	return (&ServiceSettings{
		Version:      t.Version,
		Short:        t.Short,
		Description:  t.Description,
		Ports:        t.Ports,
		Modules:      t.Modules,
		Destinations: t.Destinations,
		Protocols:    t.Protocols,
		SourcePorts:  t.SourcePorts,
	}).Clone()
}

func helperToTuple(h *HelperSettings) helperTuple {
	return helperTuple{
		Version:     h.Version,
		Short:       h.Short,
		Description: h.Description,
		Family:      h.Family,
		Module:      h.Module,
		Ports:       nonNil(h.Ports),
	}
}

func helperFromTuple(t helperTuple) *HelperSettings {
	return (&HelperSettings{
		Version:     t.Version,
		Short:       t.Short,
		Description: t.Description,
		Family:      t.Family,
		Module:      t.Module,
		Ports:       t.Ports,
	}).Clone()
}

func icmpTypeToTuple(t *IcmpTypeSettings) icmpTypeTuple {
	return icmpTypeTuple{
		Version:      t.Version,
		Short:        t.Short,
		Description:  t.Description,
		Destinations: nonNil(t.Destinations),
	}
}

func icmpTypeFromTuple(t icmpTypeTuple) *IcmpTypeSettings {
	return (&IcmpTypeSettings{
		Version:      t.Version,
		Short:        t.Short,
		Description:  t.Description,
		Destinations: t.Destinations,
	}).Clone()
}

func ipsetToTuple(s *IPSetSettings) ipsetTuple {
	opts := s.Options
	if opts == nil {
		opts = map[string]string{}
	}
	return ipsetTuple{
		Version:     s.Version,
		Short:       s.Short,
		Description: s.Description,
		Type:        s.Type,
		Options:     opts,
		Entries:     nonNil(s.Entries),
	}
}

func ipsetFromTuple(t ipsetTuple) *IPSetSettings {
	return (&IPSetSettings{
		Version:     t.Version,
		Short:       t.Short,
		Description: t.Description,
		Type:        t.Type,
		Options:     t.Options,
		Entries:     t.Entries,
	}).Clone()
}

// zoneToDict builds the a{sv} form. Every key is sent: firewalld merges the
// dictionary into the stored zone, so an omitted key would survive an update.
func zoneToDict(z *ZoneSettings) map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"version":              dbus.MakeVariant(z.Version),
		"short":                dbus.MakeVariant(z.Short),
		"description":          dbus.MakeVariant(z.Description),
		"target":               dbus.MakeVariant(z.Target),
		"services":             dbus.MakeVariant(nonNil(z.Services)),
		"ports":                dbus.MakeVariant(nonNil(z.Ports)),
		"icmp_blocks":          dbus.MakeVariant(nonNil(z.IcmpBlocks)),
		"masquerade":           dbus.MakeVariant(z.Masquerade),
		"forward_ports":        dbus.MakeVariant(nonNil(z.ForwardPorts)),
		"interfaces":           dbus.MakeVariant(nonNil(z.Interfaces)),
		"sources":              dbus.MakeVariant(nonNil(z.Sources)),
		"rules_str":            dbus.MakeVariant(nonNil(z.RichRules)),
		"protocols":            dbus.MakeVariant(nonNil(z.Protocols)),
		"source_ports":         dbus.MakeVariant(nonNil(z.SourcePorts)),
		"icmp_block_inversion": dbus.MakeVariant(z.IcmpBlockInversion),
	}
}

func parseZoneSettings(zone string, settings map[string]dbus.Variant) (*ZoneSettings, error) {
	z := &ZoneSettings{}

	z.Version = variantString(settings["version"])
	z.Short = variantString(settings["short"])
	z.Description = variantString(settings["description"])
	z.Target = variantString(settings["target"])
	z.Masquerade = variantBool(settings["masquerade"])
	z.IcmpBlockInversion = variantBool(settings["icmp_block_inversion"])

	if v, ok := settings["services"]; ok {
		z.Services = variantToStringSlice(v)
	}
	if v, ok := settings["icmp_blocks"]; ok {
		z.IcmpBlocks = variantToStringSlice(v)
	}
	if v, ok := settings["interfaces"]; ok {
		z.Interfaces = variantToStringSlice(v)
	}
	if v, ok := settings["sources"]; ok {
		z.Sources = variantToStringSlice(v)
	}
	if v, ok := settings["rules_str"]; ok {
		z.RichRules = variantToStringSlice(v)
	}
	if v, ok := settings["protocols"]; ok {
		z.Protocols = variantToStringSlice(v)
	}

	var err error
	if v, ok := settings["ports"]; ok {
		if z.Ports, err = variantToPorts(v); err != nil {
			return nil, fmt.Errorf("zone %s ports: %w", zone, err)
		}
	}
	if v, ok := settings["source_ports"]; ok {
		if z.SourcePorts, err = variantToPorts(v); err != nil {
			return nil, fmt.Errorf("zone %s source ports: %w", zone, err)
		}
	}
	if v, ok := settings["forward_ports"]; ok {
		if z.ForwardPorts, err = variantToForwardPorts(v); err != nil {
			return nil, fmt.Errorf("zone %s forward ports: %w", zone, err)
		}
	}

	slog.Debug("zone parsed", "zone", zone, "services", len(z.Services), "ports", len(z.Ports))
	return z.Clone(), nil
}

func serviceToDict(s *ServiceSettings) map[string]dbus.Variant {
	dest := s.Destinations
	if dest == nil {
		dest = map[string]string{}
	}
	return map[string]dbus.Variant{
		"version":      dbus.MakeVariant(s.Version),
		"short":        dbus.MakeVariant(s.Short),
		"description":  dbus.MakeVariant(s.Description),
		"ports":        dbus.MakeVariant(nonNil(s.Ports)),
		"module_names": dbus.MakeVariant(nonNil(s.Modules)),
		"destination":  dbus.MakeVariant(dest),
		"protocols":    dbus.MakeVariant(nonNil(s.Protocols)),
		"source_ports": dbus.MakeVariant(nonNil(s.SourcePorts)),
	}
}

func parseServiceSettings(service string, settings map[string]dbus.Variant) (*ServiceSettings, error) {
	s := &ServiceSettings{
		Version:     variantString(settings["version"]),
		Short:       variantString(settings["short"]),
		Description: variantString(settings["description"]),
	}
	if v, ok := settings["module_names"]; ok {
		s.Modules = variantToStringSlice(v)
	}
	if v, ok := settings["protocols"]; ok {
		s.Protocols = variantToStringSlice(v)
	}
	if v, ok := settings["destination"]; ok {
		s.Destinations = variantToStringMap(v)
	}

	var err error
	if v, ok := settings["ports"]; ok {
		if s.Ports, err = variantToPorts(v); err != nil {
			return nil, fmt.Errorf("service %s ports: %w", service, err)
		}
	}
	if v, ok := settings["source_ports"]; ok {
		if s.SourcePorts, err = variantToPorts(v); err != nil {
			return nil, fmt.Errorf("service %s source ports: %w", service, err)
		}
	}
	return s.Clone(), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func variantString(v dbus.Variant) string {
	if v.Value() == nil {
		return ""
	}
	s, ok := v.Value().(string)
	if !ok {
		slog.Warn("unexpected variant type for string", "type", fmt.Sprintf("%T", v.Value()))
	}
	return s
}

func variantBool(v dbus.Variant) bool {
	if v.Value() == nil {
		return false
	}
	b, ok := v.Value().(bool)
	if !ok {
		slog.Warn("unexpected variant type for bool", "type", fmt.Sprintf("%T", v.Value()))
	}
	return b
}

func variantToStringSlice(v dbus.Variant) []string {
	return toStringSlice(v.Value())
}

func variantToStringMap(v dbus.Variant) map[string]string {
	switch val := v.Value().(type) {
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out
	case map[string]interface{}:
		out := make(map[string]string, len(val))
		for k, item := range val {
			if s, ok := item.(string); ok {
				out[k] = s
			}
		}
		return out
	case map[string]dbus.Variant:
		out := make(map[string]string, len(val))
		for k, item := range val {
			if s, ok := item.Value().(string); ok {
				out[k] = s
			}
		}
		return out
	case nil:
		return nil
	default:
		slog.Warn("unexpected variant type for string map", "type", fmt.Sprintf("%T", val))
		return nil
	}
}

func variantToPorts(v dbus.Variant) ([]Port, error) {
	switch val := v.Value().(type) {
	case []Port:
		return append([]Port(nil), val...), nil
	case [][]string:
		return parsePortTuples(val)
	case []string:
		return parsePortStrings(val)
	case []interface{}:
		return parsePortInterfaces(val)
	case [][]interface{}:
		return parsePortInterfaceTuples(val)
	default:
		return nil, fmt.Errorf("unexpected port format: %T", val)
	}
}

func parsePortStrings(items []string) ([]Port, error) {
	ports := make([]Port, 0, len(items))
	for _, item := range items {
		p, err := ParsePort(item)
		if err != nil {
			return nil, err
		}
		ports = append(ports, p)
	}
	return ports, nil
}

func parsePortTuples(items [][]string) ([]Port, error) {
	ports := make([]Port, 0, len(items))
	for _, item := range items {
		if len(item) != 2 {
			return nil, fmt.Errorf("invalid port tuple: %v", item)
		}
		ports = append(ports, Port{Port: item[0], Protocol: item[1]})
	}
	return ports, nil
}

func parsePortInterfaces(items []interface{}) ([]Port, error) {
	ports := make([]Port, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case []string:
			parsed, err := parsePortTuples([][]string{val})
			if err != nil {
				return nil, err
			}
			ports = append(ports, parsed...)
		case []interface{}:
			parsed, err := parsePortInterfaceTuples([][]interface{}{val})
			if err != nil {
				return nil, err
			}
			ports = append(ports, parsed...)
		case string:
			p, err := ParsePort(val)
			if err != nil {
				return nil, err
			}
			ports = append(ports, p)
		default:
			return nil, fmt.Errorf("unexpected port tuple type: %T", val)
		}
	}
	return ports, nil
}

func parsePortInterfaceTuples(items [][]interface{}) ([]Port, error) {
	ports := make([]Port, 0, len(items))
	for _, item := range items {
		fields, err := interfaceStrings(item, 2)
		if err != nil {
			return nil, fmt.Errorf("invalid port tuple %v: %w", item, err)
		}
		ports = append(ports, Port{Port: fields[0], Protocol: fields[1]})
	}
	return ports, nil
}

func variantToForwardPorts(v dbus.Variant) ([]ForwardPort, error) {
	return toForwardPorts(v.Value())
}

func toForwardPorts(value interface{}) ([]ForwardPort, error) {
	switch val := value.(type) {
	case []ForwardPort:
		return append([]ForwardPort(nil), val...), nil
	case [][]string:
		out := make([]ForwardPort, 0, len(val))
		for _, item := range val {
			if len(item) != 4 {
				return nil, fmt.Errorf("invalid forward port tuple: %v", item)
			}
			out = append(out, ForwardPort{Port: item[0], Protocol: item[1], ToPort: item[2], ToAddr: item[3]})
		}
		return out, nil
	case [][]interface{}:
		out := make([]ForwardPort, 0, len(val))
		for _, item := range val {
			fields, err := interfaceStrings(item, 4)
			if err != nil {
				return nil, fmt.Errorf("invalid forward port tuple %v: %w", item, err)
			}
			out = append(out, ForwardPort{Port: fields[0], Protocol: fields[1], ToPort: fields[2], ToAddr: fields[3]})
		}
		return out, nil
	case []interface{}:
		out := make([]ForwardPort, 0, len(val))
		for _, item := range val {
			parsed, err := toForwardPorts([][]interface{}{toInterfaces(item)})
			if err != nil {
				return nil, err
			}
			out = append(out, parsed...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected forward port format: %T", val)
	}
}

func toInterfaces(item interface{}) []interface{} {
	switch val := item.(type) {
	case []interface{}:
		return val
	case []string:
		out := make([]interface{}, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	default:
		return []interface{}{item}
	}
}

func interfaceStrings(item []interface{}, n int) ([]string, error) {
	if len(item) != n {
		return nil, fmt.Errorf("want %d fields, got %d", n, len(item))
	}
	out := make([]string, n)
	for i, field := range item {
		s, ok := field.(string)
		if !ok {
			return nil, fmt.Errorf("field %d has type %T", i, field)
		}
		out[i] = s
	}
	return out, nil
}

// toStringSlice flattens the shapes godbus produces for string lists, including
// the {"interfaces": [...], "sources": [...]} maps of getActiveZones.
func toStringSlice(value interface{}) []string {
	switch val := value.(type) {
	case []string:
		return append([]string(nil), val...)
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				slog.Warn("unexpected item type in string slice", "type", fmt.Sprintf("%T", item))
			}
		}
		return out
	case dbus.Variant:
		return toStringSlice(val.Value())
	case map[string]interface{}:
		var out []string
		for _, key := range []string{"interfaces", "sources"} {
			out = append(out, toStringSlice(val[key])...)
		}
		return out
	case map[string][]string:
		var out []string
		for _, key := range []string{"interfaces", "sources"} {
			out = append(out, val[key]...)
		}
		return out
	case nil:
		return nil
	default:
		slog.Warn("unexpected variant type for string slice", "type", fmt.Sprintf("%T", val))
		return nil
	}
}

// normalizeActiveZones accepts the a{sa{sas}} reply of firewalld 0.4+ as well
// as the older a{sas} form and any variant wrapping of either.
func normalizeActiveZones(raw interface{}) (map[string]ActiveZone, error) {
	out := make(map[string]ActiveZone)
	switch val := raw.(type) {
	case dbus.Variant:
		return normalizeActiveZones(val.Value())
	case map[string]map[string][]string:
		for zone, refs := range val {
			out[zone] = ActiveZone{
				Interfaces: dedupeStrings(refs["interfaces"]),
				Sources:    dedupeStrings(refs["sources"]),
			}
		}
	case map[string]map[string]dbus.Variant:
		for zone, refs := range val {
			out[zone] = ActiveZone{
				Interfaces: dedupeStrings(toStringSlice(refs["interfaces"])),
				Sources:    dedupeStrings(toStringSlice(refs["sources"])),
			}
		}
	case map[string]map[string]interface{}:
		for zone, refs := range val {
			out[zone] = ActiveZone{
				Interfaces: dedupeStrings(toStringSlice(refs["interfaces"])),
				Sources:    dedupeStrings(toStringSlice(refs["sources"])),
			}
		}
	case map[string][]string:
		for zone, refs := range val {
			out[zone] = splitRefs(refs)
		}
	case map[string]dbus.Variant:
		for zone, refs := range val {
			if nested, ok := refs.Value().(map[string][]string); ok {
				out[zone] = ActiveZone{
					Interfaces: dedupeStrings(nested["interfaces"]),
					Sources:    dedupeStrings(nested["sources"]),
				}
				continue
			}
			out[zone] = splitRefs(toStringSlice(refs))
		}
	default:
		return nil, fmt.Errorf("unexpected active zones format: %T", raw)
	}
	return out, nil
}

// splitRefs sorts a flat binding list into interfaces and sources. Anything
// that looks like an address, a MAC or an ipset reference is a source.
func splitRefs(refs []string) ActiveZone {
	var az ActiveZone
	for _, ref := range dedupeStrings(refs) {
		if isSourceRef(ref) {
			az.Sources = append(az.Sources, ref)
		} else {
			az.Interfaces = append(az.Interfaces, ref)
		}
	}
	return az
}

func isSourceRef(ref string) bool {
	if strings.HasPrefix(ref, "ipset:") || strings.ContainsAny(ref, "/:") {
		return true
	}
	return strings.Count(ref, ".") == 3 && strings.IndexFunc(ref, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}) < 0
}

func dedupeStrings(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
