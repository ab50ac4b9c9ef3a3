//go:build linux
// +build linux

package firewalld

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

// fakeDaemon is an in-memory firewalld reached through the busObject seam.
// Replies use the shapes the godbus decoder produces, structs as
// []interface{} and so on, so the client's Store paths are exercised.
type fakeDaemon struct {
	mu sync.Mutex

	version     string
	denyAuth    bool
	requireAuth bool
	authorized  bool
	defaultZone string

	zones    map[string]map[string][]string
	bindings map[string]string // interface or source -> zone

	chains       []Chain
	rules        []Rule
	passthroughs []Passthrough

	lockdown  bool
	whitelist map[string][]string

	ipsets map[string]*IPSetSettings

	config   map[dbus.ObjectPath]*fakeConfigObject
	nextPath int

	failures map[string][]error
	calls    []fakeCall
}

type fakeCall struct {
	Path   dbus.ObjectPath
	Method string
	Args   []interface{}
}

type fakeConfigObject struct {
	kind     string
	name     string
	settings any
	defaults any
}

func newFakeDaemon() *fakeDaemon {
	d := &fakeDaemon{
		version:     "1.3.4",
		defaultZone: "public",
		zones:       map[string]map[string][]string{},
		bindings:    map[string]string{},
		whitelist:   map[string][]string{},
		ipsets:      map[string]*IPSetSettings{},
		config:      map[dbus.ObjectPath]*fakeConfigObject{},
		failures:    map[string][]error{},
	}
	for _, zone := range []string{"block", "drop", "public", "work", "home"} {
		d.zones[zone] = map[string][]string{}
	}
	d.zones["public"]["Service"] = []string{"ssh", "dhcpv6-client"}
	d.ipsets["blocklist"] = &IPSetSettings{Type: "hash:net", Options: map[string]string{"family": "inet"}}

	d.addConfig("zone", "public", &ZoneSettings{Short: "Public", Target: "default", Services: []string{"ssh"}}, true)
	d.addConfig("zone", "work", &ZoneSettings{Short: "Work", Target: "default"}, true)
	d.addConfig("service", "ssh", &ServiceSettings{Short: "SSH", Ports: []Port{{"22", "tcp"}}}, true)
	d.addConfig("helper", "ftp", &HelperSettings{Family: "ipv4", Module: "nf_conntrack_ftp", Ports: []Port{{"21", "tcp"}}}, true)
	d.addConfig("icmptype", "echo-request", &IcmpTypeSettings{Destinations: []string{"ipv4", "ipv6"}}, true)
	d.addConfig("ipset", "blocklist", &IPSetSettings{Type: "hash:net"}, false)
	return d
}

func (d *fakeDaemon) addConfig(kind, name string, settings any, builtin bool) dbus.ObjectPath {
	d.nextPath++
	p := dbus.ObjectPath(fmt.Sprintf("%s/%s/%d", dbusConfigPath, kind, d.nextPath))
	obj := &fakeConfigObject{kind: kind, name: name, settings: cloneSettings(settings)}
	if builtin {
		obj.defaults = cloneSettings(settings)
	}
	d.config[p] = obj
	return p
}

func cloneSettings(s any) any {
	switch v := s.(type) {
	case *ZoneSettings:
		return v.Clone()
	case *ServiceSettings:
		return v.Clone()
	case *HelperSettings:
		return v.Clone()
	case *IcmpTypeSettings:
		return v.Clone()
	case *IPSetSettings:
		return v.Clone()
	}
	panic(fmt.Sprintf("unexpected settings %T", s))
}

// failNext makes the next calls of method fail with errs, in order.
func (d *fakeDaemon) failNext(method string, errs ...error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[method] = append(d.failures[method], errs...)
}

func (d *fakeDaemon) callCount(method string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (d *fakeDaemon) lastCall(method string) fakeCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.calls) - 1; i >= 0; i-- {
		if d.calls[i].Method == method {
			return d.calls[i]
		}
	}
	return fakeCall{}
}

func (d *fakeDaemon) object(p dbus.ObjectPath) busObject {
	return &fakeObject{d: d, path: p}
}

type fakeObject struct {
	d    *fakeDaemon
	path dbus.ObjectPath
}

func (o *fakeObject) CallWithContext(ctx context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	d := o.d
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, fakeCall{Path: o.path, Method: method, Args: args})
	if errs := d.failures[method]; len(errs) > 0 {
		d.failures[method] = errs[1:]
		return &dbus.Call{Method: method, Err: errs[0]}
	}
	if err := ctx.Err(); err != nil {
		return &dbus.Call{Method: method, Err: err}
	}

	iface, member := method, ""
	if i := strings.LastIndex(method, "."); i >= 0 {
		iface, member = method[:i], method[i+1:]
	}
	if d.requireAuth && !d.authorized && isMutatingMember(member) {
		return &dbus.Call{Method: method, Err: fwException("NOT_AUTHORIZED", "authorizeAll first")}
	}

	var body []interface{}
	var err error
	switch {
	case iface == dbusProperties:
		body, err = d.properties(o.path, member, args)
	case o.path == dbusPath:
		body, err = d.runtime(iface, member, args)
	case o.path == dbusConfigPath:
		body, err = d.configRoot(member, args)
	default:
		body, err = d.configObject(o.path, member, args)
	}
	return &dbus.Call{Method: method, Body: body, Err: err}
}

func isMutatingMember(member string) bool {
	for _, prefix := range []string{"add", "remove", "change", "set", "enable", "disable", "passthrough", "update", "rename", "loadDefaults", "reload", "completeReload", "runtimeToPermanent", "Set"} {
		if strings.HasPrefix(member, prefix) {
			return true
		}
	}
	return false
}

func fwException(code, detail string) error {
	return dbus.Error{Name: "org.fedoraproject.FirewallD1.Exception", Body: []interface{}{code + ": " + detail}}
}

func dbusError(name string) error {
	return dbus.Error{Name: name, Body: []interface{}{name}}
}

func (d *fakeDaemon) properties(p dbus.ObjectPath, member string, args []interface{}) ([]interface{}, error) {
	if p == dbusPath {
		props := map[string]dbus.Variant{
			"version":           dbus.MakeVariant(d.version),
			"interface_version": dbus.MakeVariant("1.0"),
			"state":             dbus.MakeVariant("RUNNING"),
			"IPv4":              dbus.MakeVariant(true),
			"IPv6":              dbus.MakeVariant(true),
			"IPSetTypes":        dbus.MakeVariant([]string{"hash:ip", "hash:net"}),
		}
		if member == "GetAll" {
			return []interface{}{props}, nil
		}
		return []interface{}{props[args[1].(string)]}, nil
	}
	if p == dbusConfigPath {
		props := map[string]dbus.Variant{
			"DefaultZone": dbus.MakeVariant(d.defaultZone),
			"MinimalMark": dbus.MakeVariant(int32(100)),
			"Lockdown":    dbus.MakeVariant("no"),
		}
		switch member {
		case "GetAll":
			return []interface{}{props}, nil
		case "Set":
			if args[1].(string) == "DefaultZone" {
				d.defaultZone = args[2].(dbus.Variant).Value().(string)
			}
			return nil, nil
		}
		return []interface{}{props[args[1].(string)]}, nil
	}
	obj, ok := d.config[p]
	if !ok {
		return nil, dbusError("org.freedesktop.DBus.Error.UnknownObject")
	}
	return []interface{}{dbus.MakeVariant(obj.name)}, nil
}

// Runtime zone items are kept as string keys per kind: "70/tcp" for a port,
// "22/tcp/2222/" for a forward port, "yes" for a flag.
var zoneItemArity = map[string]int{
	"Interface":          1,
	"Source":             1,
	"Service":            1,
	"Port":               2,
	"Protocol":           1,
	"SourcePort":         2,
	"RichRule":           1,
	"IcmpBlock":          1,
	"ForwardPort":        4,
	"Masquerade":         0,
	"IcmpBlockInversion": 0,
}

func (d *fakeDaemon) zone(name string) (string, map[string][]string, error) {
	if name == "" {
		name = d.defaultZone
	}
	z, ok := d.zones[name]
	if !ok {
		return "", nil, fwException("INVALID_ZONE", name)
	}
	return name, z, nil
}

func itemKey(kind string, args []interface{}) string {
	n := zoneItemArity[kind]
	if n == 0 {
		return "yes"
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = args[i].(string)
	}
	return strings.Join(parts, "/")
}

func (d *fakeDaemon) runtime(iface, member string, args []interface{}) ([]interface{}, error) {
	switch iface {
	case dbusZoneInterface:
		return d.runtimeZone(member, args)
	case dbusDirectInterface:
		return d.direct(member, args)
	case dbusPoliciesInterface:
		return d.policies(member, args)
	case dbusIPSetInterface:
		return d.ipset(member, args)
	}

	switch member {
	case "authorizeAll":
		if d.denyAuth {
			return nil, fwException("NOT_AUTHORIZED", "polkit denied")
		}
		d.authorized = true
		return nil, nil
	case "getDefaultZone":
		return []interface{}{d.defaultZone}, nil
	case "setDefaultZone":
		name := args[0].(string)
		if _, ok := d.zones[name]; !ok {
			return nil, fwException("INVALID_ZONE", name)
		}
		if name == d.defaultZone {
			return nil, fwException("ZONE_ALREADY_SET", name)
		}
		d.defaultZone = name
		return nil, nil
	case "reload", "completeReload", "runtimeToPermanent":
		return nil, nil
	case "listServices":
		return []interface{}{[]string{"dhcpv6-client", "http", "ssh"}}, nil
	case "getServiceSettings2":
		if args[0].(string) != "ssh" {
			return nil, fwException("INVALID_SERVICE", args[0].(string))
		}
		return []interface{}{map[string]dbus.Variant{
			"short":        dbus.MakeVariant("SSH"),
			"ports":        dbus.MakeVariant([][]interface{}{{"22", "tcp"}}),
			"module_names": dbus.MakeVariant([]string{}),
			"destination":  dbus.MakeVariant(map[string]string{"ipv4": "10.0.0.0/8"}),
		}}, nil
	case "getHelpers":
		return []interface{}{[]string{"ftp"}}, nil
	case "getHelperSettings":
		return []interface{}{[]interface{}{"", "FTP", "", "ipv4", "nf_conntrack_ftp", [][]interface{}{{"21", "tcp"}}}}, nil
	case "listIcmpTypes":
		return []interface{}{[]string{"echo-reply", "echo-request"}}, nil
	case "getIcmpTypeSettings":
		return []interface{}{[]interface{}{"", "Echo Request", "", []string{"ipv4", "ipv6"}}}, nil
	case "queryPanicMode":
		return []interface{}{false}, nil
	case "enablePanicMode", "disablePanicMode":
		return nil, nil
	}
	return nil, dbusError("org.freedesktop.DBus.Error.UnknownMethod")
}

func (d *fakeDaemon) runtimeZone(member string, args []interface{}) ([]interface{}, error) {
	switch member {
	case "getZones":
		names := make([]string, 0, len(d.zones))
		for name := range d.zones {
			names = append(names, name)
		}
		slices.Sort(names)
		return []interface{}{names}, nil
	case "getActiveZones":
		active := map[string]map[string][]string{}
		for name, z := range d.zones {
			if len(z["Interface"]) == 0 && len(z["Source"]) == 0 {
				continue
			}
			active[name] = map[string][]string{"interfaces": z["Interface"], "sources": z["Source"]}
		}
		return []interface{}{active}, nil
	case "getZoneOfInterface", "getZoneOfSource":
		return []interface{}{d.bindings[args[0].(string)]}, nil
	case "getZoneSettings2":
		name, z, err := d.zone(args[0].(string))
		if err != nil {
			return nil, err
		}
		return []interface{}{map[string]dbus.Variant{
			"short":      dbus.MakeVariant(strings.ToUpper(name[:1]) + name[1:]),
			"target":     dbus.MakeVariant("default"),
			"services":   dbus.MakeVariant(z["Service"]),
			"ports":      dbus.MakeVariant(splitKeys(z["Port"])),
			"interfaces": dbus.MakeVariant(z["Interface"]),
			"masquerade": dbus.MakeVariant(len(z["Masquerade"]) > 0),
		}}, nil
	case "changeZoneOfInterface", "changeZoneOfSource":
		name, z, err := d.zone(args[0].(string))
		if err != nil {
			return nil, err
		}
		kind := strings.TrimPrefix(member, "changeZoneOf")
		item := args[1].(string)
		if owner, ok := d.bindings[item]; ok {
			if owner == name {
				return nil, fwException("ZONE_ALREADY_SET", item)
			}
			d.zones[owner][kind] = removeItem(d.zones[owner][kind], item)
		}
		z[kind] = append(z[kind], item)
		d.bindings[item] = name
		return []interface{}{name}, nil
	}

	for _, op := range []string{"add", "remove", "query", "get"} {
		if !strings.HasPrefix(member, op) {
			continue
		}
		kind := strings.TrimPrefix(member, op)
		if op == "get" {
			kind = strings.TrimSuffix(kind, "s")
		}
		if _, ok := zoneItemArity[kind]; !ok {
			break
		}
		name, z, err := d.zone(args[0].(string))
		if err != nil {
			return nil, err
		}
		switch op {
		case "get":
			switch kind {
			case "Port", "SourcePort", "ForwardPort":
				return []interface{}{splitKeys(z[kind])}, nil
			}
			return []interface{}{append([]string{}, z[kind]...)}, nil
		case "query":
			return []interface{}{slices.Contains(z[kind], itemKey(kind, args[1:]))}, nil
		case "add":
			key := itemKey(kind, args[1:])
			if kind == "Interface" || kind == "Source" {
				if owner, ok := d.bindings[key]; ok && owner != name {
					return nil, fwException("ZONE_CONFLICT", key)
				}
				d.bindings[key] = name
			}
			if slices.Contains(z[kind], key) {
				return nil, fwException("ALREADY_ENABLED", key)
			}
			if kind == "RichRule" && !strings.HasPrefix(key, "rule ") {
				return nil, fwException("INVALID_RULE", key)
			}
			z[kind] = append(z[kind], key)
			return []interface{}{name}, nil
		case "remove":
			key := itemKey(kind, args[1:])
			if !slices.Contains(z[kind], key) {
				if kind == "Interface" {
					return nil, fwException("UNKNOWN_INTERFACE", key)
				}
				return nil, fwException("NOT_ENABLED", key)
			}
			z[kind] = removeItem(z[kind], key)
			delete(d.bindings, key)
			return []interface{}{name}, nil
		}
	}
	return nil, dbusError("org.freedesktop.DBus.Error.UnknownMethod")
}

func splitKeys(keys []string) [][]string {
	out := make([][]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.Split(k, "/"))
	}
	return out
}

func (d *fakeDaemon) direct(member string, args []interface{}) ([]interface{}, error) {
	switch member {
	case "addChain", "removeChain", "queryChain":
		ch := Chain{IPV: args[0].(string), Table: args[1].(string), Chain: args[2].(string)}
		i := slices.Index(d.chains, ch)
		switch {
		case member == "queryChain":
			return []interface{}{i >= 0}, nil
		case member == "addChain" && i >= 0:
			return nil, fwException("ALREADY_ENABLED", ch.String())
		case member == "addChain":
			d.chains = append(d.chains, ch)
		case i < 0:
			return nil, fwException("NOT_ENABLED", ch.String())
		default:
			d.chains = slices.Delete(d.chains, i, i+1)
		}
		return nil, nil
	case "getChains":
		var names []string
		for _, ch := range d.chains {
			if ch.IPV == args[0] && ch.Table == args[1] {
				names = append(names, ch.Chain)
			}
		}
		return []interface{}{names}, nil
	case "getAllChains":
		out := [][]interface{}{}
		for _, ch := range d.chains {
			out = append(out, []interface{}{ch.IPV, ch.Table, ch.Chain})
		}
		return []interface{}{out}, nil
	case "addRule", "removeRule", "queryRule":
		r := Rule{IPV: args[0].(string), Table: args[1].(string), Chain: args[2].(string), Priority: args[3].(int32), Args: args[4].([]string)}
		i := slices.IndexFunc(d.rules, r.Equal)
		switch {
		case member == "queryRule":
			return []interface{}{i >= 0}, nil
		case member == "addRule" && i >= 0:
			return nil, fwException("ALREADY_ENABLED", r.String())
		case member == "addRule":
			d.rules = append(d.rules, r)
		case i < 0:
			return nil, fwException("NOT_ENABLED", r.String())
		default:
			d.rules = slices.Delete(d.rules, i, i+1)
		}
		return nil, nil
	case "removeRules":
		d.rules = slices.DeleteFunc(d.rules, func(r Rule) bool {
			return r.IPV == args[0] && r.Table == args[1] && r.Chain == args[2]
		})
		return nil, nil
	case "getRules":
		out := [][]interface{}{}
		for _, r := range d.rules {
			if r.IPV == args[0] && r.Table == args[1] && r.Chain == args[2] {
				out = append(out, []interface{}{r.Priority, r.Args})
			}
		}
		return []interface{}{out}, nil
	case "getAllRules":
		out := [][]interface{}{}
		for _, r := range d.rules {
			out = append(out, []interface{}{r.IPV, r.Table, r.Chain, r.Priority, r.Args})
		}
		return []interface{}{out}, nil
	case "passthrough":
		return []interface{}{""}, nil
	case "addPassthrough", "removePassthrough", "queryPassthrough":
		pt := Passthrough{IPV: args[0].(string), Args: args[1].([]string)}
		i := slices.IndexFunc(d.passthroughs, pt.Equal)
		switch {
		case member == "queryPassthrough":
			return []interface{}{i >= 0}, nil
		case member == "addPassthrough" && i >= 0:
			return nil, fwException("ALREADY_ENABLED", pt.String())
		case member == "addPassthrough":
			d.passthroughs = append(d.passthroughs, pt)
		case i < 0:
			return nil, fwException("NOT_ENABLED", pt.String())
		default:
			d.passthroughs = slices.Delete(d.passthroughs, i, i+1)
		}
		return nil, nil
	case "getPassthroughs":
		out := [][]string{}
		for _, pt := range d.passthroughs {
			if pt.IPV == args[0] {
				out = append(out, pt.Args)
			}
		}
		return []interface{}{out}, nil
	case "getAllPassthroughs":
		out := [][]interface{}{}
		for _, pt := range d.passthroughs {
			out = append(out, []interface{}{pt.IPV, pt.Args})
		}
		return []interface{}{out}, nil
	case "removeAllPassthroughs":
		d.passthroughs = nil
		return nil, nil
	}
	return nil, dbusError("org.freedesktop.DBus.Error.UnknownMethod")
}

func (d *fakeDaemon) policies(member string, args []interface{}) ([]interface{}, error) {
	switch member {
	case "enableLockdown":
		if d.lockdown {
			return nil, fwException("ALREADY_ENABLED", "lockdown")
		}
		d.lockdown = true
		return nil, nil
	case "disableLockdown":
		if !d.lockdown {
			return nil, fwException("NOT_ENABLED", "lockdown")
		}
		d.lockdown = false
		return nil, nil
	case "queryLockdown":
		return []interface{}{d.lockdown}, nil
	}

	for _, op := range []string{"add", "remove", "query", "get"} {
		kind, ok := strings.CutPrefix(member, op+"LockdownWhitelist")
		if !ok {
			continue
		}
		if op == "get" {
			kind = strings.TrimSuffix(kind, "s")
			if kind == "Uid" {
				uids := []int32{}
				for _, v := range d.whitelist[kind] {
					var n int32
					fmt.Sscan(v, &n)
					uids = append(uids, n)
				}
				return []interface{}{uids}, nil
			}
			return []interface{}{append([]string{}, d.whitelist[kind]...)}, nil
		}
		key := fmt.Sprint(args[0])
		present := slices.Contains(d.whitelist[kind], key)
		switch op {
		case "query":
			return []interface{}{present}, nil
		case "add":
			if present {
				return nil, fwException("ALREADY_ENABLED", key)
			}
			d.whitelist[kind] = append(d.whitelist[kind], key)
		case "remove":
			if !present {
				return nil, fwException("NOT_ENABLED", key)
			}
			d.whitelist[kind] = removeItem(d.whitelist[kind], key)
		}
		return nil, nil
	}
	return nil, dbusError("org.freedesktop.DBus.Error.UnknownMethod")
}

func (d *fakeDaemon) ipset(member string, args []interface{}) ([]interface{}, error) {
	if member == "getIPSets" {
		names := []string{}
		for name := range d.ipsets {
			names = append(names, name)
		}
		return []interface{}{names}, nil
	}
	name := args[0].(string)
	set, ok := d.ipsets[name]
	if member == "queryIPSet" {
		return []interface{}{ok}, nil
	}
	if !ok {
		return nil, fwException("INVALID_IPSET", name)
	}
	switch member {
	case "getIPSetSettings":
		return []interface{}{[]interface{}{set.Version, set.Short, set.Description, set.Type, set.Options, nonNil(set.Entries)}}, nil
	case "getEntries":
		return []interface{}{nonNil(set.Entries)}, nil
	case "setEntries":
		set.Entries = append([]string{}, args[1].([]string)...)
		return nil, nil
	case "queryEntry":
		return []interface{}{set.QueryEntry(args[1].(string))}, nil
	case "addEntry":
		if set.QueryEntry(args[1].(string)) {
			return nil, fwException("ALREADY_ENABLED", args[1].(string))
		}
		set.AddEntry(args[1].(string))
		return nil, nil
	case "removeEntry":
		if !set.QueryEntry(args[1].(string)) {
			return nil, fwException("NOT_ENABLED", args[1].(string))
		}
		set.RemoveEntry(args[1].(string))
		return nil, nil
	}
	return nil, dbusError("org.freedesktop.DBus.Error.UnknownMethod")
}

var configMethodKinds = map[string]string{
	"Zone":     "zone",
	"Service":  "service",
	"Helper":   "helper",
	"IcmpType": "icmptype",
	"IPSet":    "ipset",
}

func (d *fakeDaemon) findConfig(kind, name string) (dbus.ObjectPath, bool) {
	for p, obj := range d.config {
		if obj.kind == kind && obj.name == name {
			return p, true
		}
	}
	return "", false
}

func (d *fakeDaemon) configRoot(member string, args []interface{}) ([]interface{}, error) {
	if member == "getZoneOfInterface" || member == "getZoneOfSource" {
		return []interface{}{""}, nil
	}
	for method, kind := range configMethodKinds {
		switch member {
		case "get" + method + "Names":
			names := []string{}
			for _, obj := range d.config {
				if obj.kind == kind {
					names = append(names, obj.name)
				}
			}
			return []interface{}{names}, nil
		case "list" + method + "s":
			paths := []dbus.ObjectPath{}
			for p, obj := range d.config {
				if obj.kind == kind {
					paths = append(paths, p)
				}
			}
			return []interface{}{paths}, nil
		case "get" + method + "ByName":
			p, ok := d.findConfig(kind, args[0].(string))
			if !ok {
				return nil, fwException("INVALID_"+strings.ToUpper(kind), args[0].(string))
			}
			return []interface{}{p}, nil
		case "add" + method, "add" + method + "2":
			name := args[0].(string)
			if _, ok := d.findConfig(kind, name); ok {
				return nil, fwException("NAME_CONFLICT", name)
			}
			settings, err := decodeFakeSettings(kind, args[1])
			if err != nil {
				return nil, err
			}
			return []interface{}{d.addConfig(kind, name, settings, false)}, nil
		}
	}
	return nil, dbusError("org.freedesktop.DBus.Error.UnknownMethod")
}

// decodeFakeSettings reads what the client sent for add and update.
func decodeFakeSettings(kind string, arg interface{}) (any, error) {
	switch v := arg.(type) {
	case map[string]dbus.Variant:
		if kind == "zone" {
			return parseZoneSettings("", v)
		}
		return parseServiceSettings("", v)
	case zoneTuple:
		return zoneFromTuple(v), nil
	case serviceTuple:
		return serviceFromTuple(v), nil
	case helperTuple:
		return helperFromTuple(v), nil
	case icmpTypeTuple:
		return icmpTypeFromTuple(v), nil
	case ipsetTuple:
		return ipsetFromTuple(v), nil
	}
	return nil, fwException("INVALID_TYPE", fmt.Sprintf("%T", arg))
}

// encodeFakeSettings builds the reply of getSettings and getSettings2.
func encodeFakeSettings(member string, settings any) []interface{} {
	switch s := settings.(type) {
	case *ZoneSettings:
		if member == "getSettings2" {
			dict := zoneToDict(s)
			dict["ports"] = dbus.MakeVariant(portsToWire(s.Ports))
			dict["source_ports"] = dbus.MakeVariant(portsToWire(s.SourcePorts))
			return []interface{}{dict}
		}
		return []interface{}{zoneToTuple(s)}
	case *ServiceSettings:
		if member == "getSettings2" {
			dict := serviceToDict(s)
			dict["ports"] = dbus.MakeVariant(portsToWire(s.Ports))
			return []interface{}{dict}
		}
		return []interface{}{serviceToTuple(s)}
	case *HelperSettings:
		return []interface{}{helperToTuple(s)}
	case *IcmpTypeSettings:
		return []interface{}{icmpTypeToTuple(s)}
	case *IPSetSettings:
		return []interface{}{ipsetToTuple(s)}
	}
	return nil
}

func portsToWire(ports []Port) [][]interface{} {
	out := [][]interface{}{}
	for _, p := range ports {
		out = append(out, []interface{}{p.Port, p.Protocol})
	}
	return out
}

func (d *fakeDaemon) configObject(p dbus.ObjectPath, member string, args []interface{}) ([]interface{}, error) {
	obj, ok := d.config[p]
	if !ok {
		return nil, dbusError("org.freedesktop.DBus.Error.UnknownObject")
	}
	switch member {
	case "getSettings", "getSettings2":
		return encodeFakeSettings(member, obj.settings), nil
	case "update", "update2":
		settings, err := decodeFakeSettings(obj.kind, args[0])
		if err != nil {
			return nil, err
		}
		obj.settings = settings
		return nil, nil
	case "rename":
		name := args[0].(string)
		if _, taken := d.findConfig(obj.kind, name); taken {
			return nil, fwException("NAME_CONFLICT", name)
		}
		obj.name = name
		return nil, nil
	case "remove":
		delete(d.config, p)
		return nil, nil
	case "loadDefaults":
		if obj.defaults == nil {
			return nil, fwException("NO_DEFAULTS", obj.name)
		}
		obj.settings = cloneSettings(obj.defaults)
		return nil, nil
	}
	return nil, dbusError("org.freedesktop.DBus.Error.UnknownMethod")
}

// newTestClient opens a session against d the way NewClient would.
func newTestClient(t *testing.T, d *fakeDaemon, opts Options) *Client {
	t.Helper()
	c := newClient(d.object(dbusPath), d.object, opts)
	c.retryBackoff = time.Millisecond
	if err := c.init(opts); err != nil {
		t.Fatalf("init() error = %v", err)
	}
	return c
}
