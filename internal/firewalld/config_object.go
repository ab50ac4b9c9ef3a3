//go:build linux
// +build linux

package firewalld

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// configCodec describes one kind of persisted object: where its methods live
// and how its settings travel for each API version.
type configCodec[S any] struct {
	kind   string // "zone", used in errors and logs
	iface  string // interface of the object handles
	method string // "Zone" in getZoneByName, addZone, listZones ...

	fetch    func(c *Client, obj busObject, name string) (*S, error)
	update   func(c *Client, obj busObject, name string, s *S) error
	create   func(c *Client, name string, s *S) (dbus.ObjectPath, error)
	validate func(name string, s *S) error
}

// ConfigObject is a handle on a persisted zone, service, helper, icmptype or
// ipset. Settings returns a detached copy; changes to that copy reach the
// daemon only through Update.
//
// A handle goes stale once Remove succeeds, or when the object behind it is
// renamed or deleted through another handle. Every call on a stale handle
// fails with ErrStale, which also matches ErrNotFound.
type ConfigObject[S any] struct {
	client  *Client
	codec   *configCodec[S]
	obj     busObject
	path    dbus.ObjectPath
	name    string
	removed bool
}

type (
	ConfigZone     = ConfigObject[ZoneSettings]
	ConfigService  = ConfigObject[ServiceSettings]
	ConfigHelper   = ConfigObject[HelperSettings]
	ConfigIcmpType = ConfigObject[IcmpTypeSettings]
	ConfigIPSet    = ConfigObject[IPSetSettings]
)

func newConfigObject[S any](c *Client, codec *configCodec[S], path dbus.ObjectPath, name string) *ConfigObject[S] {
	return &ConfigObject[S]{
		client: c,
		codec:  codec,
		obj:    c.objectAt(path),
		path:   path,
		name:   name,
	}
}

func (o *ConfigObject[S]) Name() string {
	return o.name
}

func (o *ConfigObject[S]) Path() dbus.ObjectPath {
	return o.path
}

// Kind returns the object kind, e.g. "zone".
func (o *ConfigObject[S]) Kind() string {
	return o.codec.kind
}

// Stale reports whether the handle no longer refers to a live object of the
// same name.
func (o *ConfigObject[S]) Stale() (bool, error) {
	err := o.checkStale()
	if err == nil {
		return false, nil
	}
	if KindOf(err) == KindStale {
		return true, nil
	}
	return false, err
}

func (o *ConfigObject[S]) checkStale() error {
	if o.removed {
		return newError(KindStale, o.codec.kind, o.name, fmt.Errorf("object %s was removed", o.path))
	}
	var v dbus.Variant
	if err := o.client.read(o.obj, dbusProperties+".Get", o.codec.kind, o.name, &v, o.codec.iface, "name"); err != nil {
		if KindOf(err) == KindNotFound {
			return newError(KindStale, o.codec.kind, o.name, err)
		}
		return err
	}
	if current := variantString(v); current != o.name {
		return newError(KindStale, o.codec.kind, o.name, fmt.Errorf("object %s is now named %q", o.path, current))
	}
	return nil
}

// Settings fetches a copy of the stored settings.
func (o *ConfigObject[S]) Settings() (*S, error) {
	if err := o.checkStale(); err != nil {
		return nil, err
	}
	return o.codec.fetch(o.client, o.obj, o.name)
}

// Update replaces the stored settings with s as a whole.
func (o *ConfigObject[S]) Update(s *S) error {
	if s == nil {
		return invalidArgument(o.codec.kind, o.name, fmt.Errorf("nil settings"))
	}
	if err := o.codec.validate(o.name, s); err != nil {
		return err
	}
	if err := o.checkStale(); err != nil {
		return err
	}
	slog.Info("updating config object", "kind", o.codec.kind, "name", o.name)
	return o.codec.update(o.client, o.obj, o.name, s)
}

// Rename fails with ErrAlreadyExists when newName is taken.
func (o *ConfigObject[S]) Rename(newName string) error {
	if err := checkName(o.codec.kind, newName); err != nil {
		return err
	}
	if err := o.checkStale(); err != nil {
		return err
	}
	slog.Info("renaming config object", "kind", o.codec.kind, "from", o.name, "to", newName)
	if err := o.client.write(o.obj, o.codec.iface+".rename", o.codec.kind, newName, nil, newName); err != nil {
		return err
	}
	o.name = newName
	return nil
}

// Remove deletes the object. The handle is stale afterwards.
func (o *ConfigObject[S]) Remove() error {
	if err := o.checkStale(); err != nil {
		return err
	}
	slog.Info("removing config object", "kind", o.codec.kind, "name", o.name)
	if err := o.client.write(o.obj, o.codec.iface+".remove", o.codec.kind, o.name, nil); err != nil {
		return err
	}
	o.removed = true
	return nil
}

// LoadDefaults reverts a built-in object to the settings shipped with
// firewalld. Objects without a shipped default fail with ErrInvalidArgument.
func (o *ConfigObject[S]) LoadDefaults() error {
	if err := o.checkStale(); err != nil {
		return err
	}
	slog.Info("loading defaults", "kind", o.codec.kind, "name", o.name)
	return o.client.write(o.obj, o.codec.iface+".loadDefaults", o.codec.kind, o.name, nil)
}

var zoneCodec = &configCodec[ZoneSettings]{
	kind:   "zone",
	iface:  dbusConfigInterface + ".zone",
	method: "Zone",
	fetch: func(c *Client, obj busObject, name string) (*ZoneSettings, error) {
		iface := dbusConfigInterface + ".zone"
		if c.apiVersion == APIv1 {
			var t zoneTuple
			if err := c.read(obj, iface+".getSettings", "zone", name, &t); err != nil {
				return nil, err
			}
			return zoneFromTuple(t), nil
		}
		var settings map[string]dbus.Variant
		if err := c.read(obj, iface+".getSettings2", "zone", name, &settings); err != nil {
			return nil, err
		}
		z, err := parseZoneSettings(name, settings)
		if err != nil {
			return nil, invalidArgument("zone", name, err)
		}
		return z, nil
	},
	update: func(c *Client, obj busObject, name string, s *ZoneSettings) error {
		iface := dbusConfigInterface + ".zone"
		if c.apiVersion == APIv1 {
			return c.write(obj, iface+".update", "zone", name, nil, zoneToTuple(s))
		}
		return c.write(obj, iface+".update2", "zone", name, nil, zoneToDict(s))
	},
	create: func(c *Client, name string, s *ZoneSettings) (dbus.ObjectPath, error) {
		var path dbus.ObjectPath
		if c.apiVersion == APIv1 {
			err := c.write(c.configObject(), dbusConfigInterface+".addZone", "zone", name, &path, name, zoneToTuple(s))
			return path, err
		}
		err := c.write(c.configObject(), dbusConfigInterface+".addZone2", "zone", name, &path, name, zoneToDict(s))
		return path, err
	},
	validate: validateZoneSettings,
}

var serviceCodec = &configCodec[ServiceSettings]{
	kind:   "service",
	iface:  dbusConfigInterface + ".service",
	method: "Service",
	fetch: func(c *Client, obj busObject, name string) (*ServiceSettings, error) {
		iface := dbusConfigInterface + ".service"
		if c.apiVersion == APIv1 {
			var t serviceTuple
			if err := c.read(obj, iface+".getSettings", "service", name, &t); err != nil {
				return nil, err
			}
			return serviceFromTuple(t), nil
		}
		var settings map[string]dbus.Variant
		if err := c.read(obj, iface+".getSettings2", "service", name, &settings); err != nil {
			return nil, err
		}
		s, err := parseServiceSettings(name, settings)
		if err != nil {
			return nil, invalidArgument("service", name, err)
		}
		return s, nil
	},
	update: func(c *Client, obj busObject, name string, s *ServiceSettings) error {
		iface := dbusConfigInterface + ".service"
		if c.apiVersion == APIv1 {
			return c.write(obj, iface+".update", "service", name, nil, serviceToTuple(s))
		}
		return c.write(obj, iface+".update2", "service", name, nil, serviceToDict(s))
	},
	create: func(c *Client, name string, s *ServiceSettings) (dbus.ObjectPath, error) {
		var path dbus.ObjectPath
		if c.apiVersion == APIv1 {
			err := c.write(c.configObject(), dbusConfigInterface+".addService", "service", name, &path, name, serviceToTuple(s))
			return path, err
		}
		err := c.write(c.configObject(), dbusConfigInterface+".addService2", "service", name, &path, name, serviceToDict(s))
		return path, err
	},
	validate: func(name string, s *ServiceSettings) error {
		return checkPortLists("service", name, s.Ports, s.SourcePorts)
	},
}

// tupleCodec builds the codec of a kind that only has the tuple form.
func tupleCodec[S, T any](kind, method string, to func(*S) T, from func(T) *S, validate func(string, *S) error) *configCodec[S] {
	iface := dbusConfigInterface + "." + kind
	return &configCodec[S]{
		kind:   kind,
		iface:  iface,
		method: method,
		fetch: func(c *Client, obj busObject, name string) (*S, error) {
			var t T
			if err := c.read(obj, iface+".getSettings", kind, name, &t); err != nil {
				return nil, err
			}
			return from(t), nil
		},
		update: func(c *Client, obj busObject, name string, s *S) error {
			return c.write(obj, iface+".update", kind, name, nil, to(s))
		},
		create: func(c *Client, name string, s *S) (dbus.ObjectPath, error) {
			var path dbus.ObjectPath
			err := c.write(c.configObject(), dbusConfigInterface+".add"+method, kind, name, &path, name, to(s))
			return path, err
		},
		validate: validate,
	}
}

var (
	helperCodec = tupleCodec("helper", "Helper", helperToTuple, helperFromTuple,
		func(name string, s *HelperSettings) error {
			return checkPortLists("helper", name, s.Ports)
		})
	icmpTypeCodec = tupleCodec("icmptype", "IcmpType", icmpTypeToTuple, icmpTypeFromTuple,
		func(string, *IcmpTypeSettings) error { return nil })
	ipsetCodec = tupleCodec("ipset", "IPSet", ipsetToTuple, ipsetFromTuple,
		func(name string, s *IPSetSettings) error {
			if s.Type == "" {
				return invalidArgument("ipset", name, fmt.Errorf("ipset type is empty"))
			}
			return nil
		})
)

func validateZoneSettings(name string, z *ZoneSettings) error {
	if err := checkPortLists("zone", name, z.Ports, z.SourcePorts); err != nil {
		return err
	}
	for _, f := range z.ForwardPorts {
		if err := checkForwardPort(f); err != nil {
			return err
		}
	}
	for _, iface := range z.Interfaces {
		if err := checkInterface(iface); err != nil {
			return err
		}
	}
	for _, src := range z.Sources {
		if err := checkSource(src); err != nil {
			return err
		}
	}
	switch z.Target {
	case "", "default", "ACCEPT", "DROP", "REJECT", "%%REJECT%%":
	default:
		return invalidArgument("zone", name, fmt.Errorf("unknown target %q", z.Target))
	}
	return nil
}

func checkPortLists(object, name string, lists ...[]Port) error {
	for _, list := range lists {
		for _, p := range list {
			if err := checkPort(object+" "+name+" port", p); err != nil {
				return err
			}
		}
	}
	return nil
}
