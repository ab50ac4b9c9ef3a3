//go:build linux
// +build linux

package firewalld

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"

	"github.com/godbus/dbus/v5"
)

// Config is the permanent configuration store of the daemon. Objects fetched
// from it are handles; see ConfigObject.
type Config struct {
	client *Client
	obj    busObject
}

func (c *Client) Config() *Config {
	return &Config{client: c, obj: c.configObject()}
}

func getNames[S any](cfg *Config, codec *configCodec[S]) ([]string, error) {
	var names []string
	method := dbusConfigInterface + ".get" + codec.method + "Names"
	if err := cfg.client.read(cfg.obj, method, codec.kind+"s", "", &names); err != nil {
		return nil, err
	}
	sort.Strings(names)
	slog.Debug("config names listed", "kind", codec.kind, "count", len(names))
	return names, nil
}

func listPaths[S any](cfg *Config, codec *configCodec[S]) ([]dbus.ObjectPath, error) {
	var paths []dbus.ObjectPath
	method := dbusConfigInterface + ".list" + codec.method + "s"
	if err := cfg.client.read(cfg.obj, method, codec.kind+"s", "", &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

func getByName[S any](cfg *Config, codec *configCodec[S], name string) (*ConfigObject[S], error) {
	if err := checkName(codec.kind, name); err != nil {
		return nil, err
	}
	var p dbus.ObjectPath
	method := dbusConfigInterface + ".get" + codec.method + "ByName"
	if err := cfg.client.read(cfg.obj, method, codec.kind, name, &p, name); err != nil {
		return nil, err
	}
	return newConfigObject(cfg.client, codec, p, name), nil
}

func addObject[S any](cfg *Config, codec *configCodec[S], name string, s *S) (*ConfigObject[S], error) {
	if err := checkName(codec.kind, name); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, invalidArgument(codec.kind, name, fmt.Errorf("nil settings"))
	}
	if err := codec.validate(name, s); err != nil {
		return nil, err
	}
	slog.Info("adding config object", "kind", codec.kind, "name", name)
	p, err := codec.create(cfg.client, name, s)
	if err != nil {
		return nil, err
	}
	return newConfigObject(cfg.client, codec, p, name), nil
}

// Zones

func (cfg *Config) GetZoneNames() ([]string, error) { return getNames(cfg, zoneCodec) }

func (cfg *Config) ListZones() ([]dbus.ObjectPath, error) { return listPaths(cfg, zoneCodec) }

func (cfg *Config) GetZoneByName(name string) (*ConfigZone, error) {
	return getByName(cfg, zoneCodec, name)
}

// AddZone persists a new zone. A taken name fails with ErrAlreadyExists.
func (cfg *Config) AddZone(name string, s *ZoneSettings) (*ConfigZone, error) {
	return addObject(cfg, zoneCodec, name, s)
}

// Services

func (cfg *Config) GetServiceNames() ([]string, error) { return getNames(cfg, serviceCodec) }

func (cfg *Config) ListServices() ([]dbus.ObjectPath, error) { return listPaths(cfg, serviceCodec) }

func (cfg *Config) GetServiceByName(name string) (*ConfigService, error) {
	return getByName(cfg, serviceCodec, name)
}

func (cfg *Config) AddService(name string, s *ServiceSettings) (*ConfigService, error) {
	return addObject(cfg, serviceCodec, name, s)
}

// Helpers

func (cfg *Config) GetHelperNames() ([]string, error) { return getNames(cfg, helperCodec) }

func (cfg *Config) ListHelpers() ([]dbus.ObjectPath, error) { return listPaths(cfg, helperCodec) }

func (cfg *Config) GetHelperByName(name string) (*ConfigHelper, error) {
	return getByName(cfg, helperCodec, name)
}

func (cfg *Config) AddHelper(name string, s *HelperSettings) (*ConfigHelper, error) {
	return addObject(cfg, helperCodec, name, s)
}

// ICMP types

func (cfg *Config) GetIcmpTypeNames() ([]string, error) { return getNames(cfg, icmpTypeCodec) }

func (cfg *Config) ListIcmpTypes() ([]dbus.ObjectPath, error) { return listPaths(cfg, icmpTypeCodec) }

func (cfg *Config) GetIcmpTypeByName(name string) (*ConfigIcmpType, error) {
	return getByName(cfg, icmpTypeCodec, name)
}

func (cfg *Config) AddIcmpType(name string, s *IcmpTypeSettings) (*ConfigIcmpType, error) {
	return addObject(cfg, icmpTypeCodec, name, s)
}

// IP sets

func (cfg *Config) GetIPSetNames() ([]string, error) { return getNames(cfg, ipsetCodec) }

func (cfg *Config) ListIPSets() ([]dbus.ObjectPath, error) { return listPaths(cfg, ipsetCodec) }

func (cfg *Config) GetIPSetByName(name string) (*ConfigIPSet, error) {
	return getByName(cfg, ipsetCodec, name)
}

func (cfg *Config) AddIPSet(name string, s *IPSetSettings) (*ConfigIPSet, error) {
	return addObject(cfg, ipsetCodec, name, s)
}

// PathName returns the last element of an object path. firewalld numbers
// config objects, so this is an index, not the object name.
func PathName(p dbus.ObjectPath) string {
	return path.Base(string(p))
}

// Permanent bindings

func (cfg *Config) GetZoneOfInterface(iface string) (string, error) {
	if err := checkInterface(iface); err != nil {
		return "", err
	}
	var zone string
	err := cfg.client.read(cfg.obj, dbusConfigInterface+".getZoneOfInterface", "interface", iface, &zone, iface)
	return zone, err
}

func (cfg *Config) GetZoneOfSource(source string) (string, error) {
	if err := checkSource(source); err != nil {
		return "", err
	}
	var zone string
	err := cfg.client.read(cfg.obj, dbusConfigInterface+".getZoneOfSource", "source", source, &zone, source)
	return zone, err
}

// Properties of the configuration store, mirroring firewalld.conf.

var configProperties = []string{
	"DefaultZone",
	"MinimalMark",
	"CleanupOnExit",
	"Lockdown",
	"IPv6_rpfilter",
	"IndividualCalls",
	"LogDenied",
	"AutomaticHelpers",
	"FirewallBackend",
	"FlushAllOnReload",
	"RFC3964_IPv4",
}

// Properties returns the firewalld.conf settings as strings.
func (cfg *Config) Properties() (map[string]string, error) {
	var props map[string]dbus.Variant
	if err := cfg.client.read(cfg.obj, dbusProperties+".GetAll", "config", dbusConfigInterface, &props, dbusConfigInterface); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(props))
	for _, key := range configProperties {
		if v, ok := props[key]; ok {
			out[key] = fmt.Sprint(v.Value())
		}
	}
	return out, nil
}

// SetProperty writes one firewalld.conf setting. MinimalMark takes an integer,
// the rest take strings such as "yes", "no" or "all".
func (cfg *Config) SetProperty(name, value string) error {
	known := false
	for _, key := range configProperties {
		if key == name {
			known = true
			break
		}
	}
	if !known {
		return invalidArgument("config property", name, fmt.Errorf("unknown property"))
	}

	var v dbus.Variant
	if name == "MinimalMark" {
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return invalidArgument("config property", name, err)
		}
		v = dbus.MakeVariant(int32(n))
	} else {
		v = dbus.MakeVariant(value)
	}

	slog.Info("setting config property", "name", name, "value", value)
	return cfg.client.write(cfg.obj, dbusProperties+".Set", "config property", name, nil, dbusConfigInterface, name, v)
}
