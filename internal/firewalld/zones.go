//go:build linux
// +build linux

package firewalld

import (
	"log/slog"

	"github.com/godbus/dbus/v5"
)

func (c *Client) GetZones() ([]string, error) {
	var zones []string
	if err := c.read(c.obj, dbusZoneInterface+".getZones", "zones", "", &zones); err != nil {
		return nil, err
	}
	slog.Debug("zones listed (runtime)", "count", len(zones))
	return zones, nil
}

// GetActiveZones returns only zones with at least one bound interface or
// source.
func (c *Client) GetActiveZones() (map[string]ActiveZone, error) {
	var raw map[string]map[string][]string
	if err := c.read(c.obj, dbusZoneInterface+".getActiveZones", "zones", "", &raw); err != nil {
		return nil, err
	}
	zones, err := normalizeActiveZones(raw)
	if err != nil {
		return nil, wrapError("getActiveZones", "zones", "", err)
	}
	for name, az := range zones {
		if len(az.Interfaces) == 0 && len(az.Sources) == 0 {
			delete(zones, name)
		}
	}
	slog.Debug("active zones listed", "count", len(zones))
	return zones, nil
}

func (c *Client) GetDefaultZone() (string, error) {
	var zone string
	if err := c.read(c.obj, dbusInterface+".getDefaultZone", "zone", "", &zone); err != nil {
		return "", err
	}
	return zone, nil
}

func (c *Client) SetDefaultZone(zone string) error {
	if err := checkName("zone", zone); err != nil {
		return err
	}
	slog.Info("setting default zone", "zone", zone)
	return c.add(c.obj, dbusInterface+".setDefaultZone", "zone", zone, nil, zone)
}

// GetZoneOfInterface returns the zone iface is bound to, or "" when it is not
// bound anywhere.
func (c *Client) GetZoneOfInterface(iface string) (string, error) {
	if err := checkInterface(iface); err != nil {
		return "", err
	}
	var zone string
	if err := c.read(c.obj, dbusZoneInterface+".getZoneOfInterface", "interface", iface, &zone, iface); err != nil {
		return "", err
	}
	return zone, nil
}

// GetZoneOfSource returns the zone source is bound to, or "".
func (c *Client) GetZoneOfSource(source string) (string, error) {
	if err := checkSource(source); err != nil {
		return "", err
	}
	var zone string
	if err := c.read(c.obj, dbusZoneInterface+".getZoneOfSource", "source", source, &zone, source); err != nil {
		return "", err
	}
	return zone, nil
}

// GetZoneSettings returns the runtime settings of zone. An empty zone means
// the default zone.
func (c *Client) GetZoneSettings(zone string) (*ZoneSettings, error) {
	slog.Debug("fetching zone settings (runtime)", "zone", zone)

	if c.apiVersion == APIv1 {
		var t zoneTuple
		if err := c.read(c.obj, dbusInterface+".getZoneSettings", "zone", zone, &t, zone); err != nil {
			return nil, err
		}
		return zoneFromTuple(t), nil
	}

	var settings map[string]dbus.Variant
	if err := c.read(c.obj, dbusZoneInterface+".getZoneSettings2", "zone", zone, &settings, zone); err != nil {
		return nil, err
	}
	z, err := parseZoneSettings(zone, settings)
	if err != nil {
		return nil, invalidArgument("zone", zone, err)
	}
	return z, nil
}

func (c *Client) ListServices() ([]string, error) {
	var services []string
	if err := c.read(c.obj, dbusInterface+".listServices", "services", "", &services); err != nil {
		return nil, err
	}
	return services, nil
}

func (c *Client) GetServiceSettings(service string) (*ServiceSettings, error) {
	if err := checkName("service", service); err != nil {
		return nil, err
	}

	if c.apiVersion == APIv1 {
		var t serviceTuple
		if err := c.read(c.obj, dbusInterface+".getServiceSettings", "service", service, &t, service); err != nil {
			return nil, err
		}
		return serviceFromTuple(t), nil
	}

	var settings map[string]dbus.Variant
	if err := c.read(c.obj, dbusInterface+".getServiceSettings2", "service", service, &settings, service); err != nil {
		return nil, err
	}
	s, err := parseServiceSettings(service, settings)
	if err != nil {
		return nil, invalidArgument("service", service, err)
	}
	return s, nil
}

func (c *Client) ListIcmpTypes() ([]string, error) {
	var types []string
	if err := c.read(c.obj, dbusInterface+".listIcmpTypes", "icmptypes", "", &types); err != nil {
		return nil, err
	}
	return types, nil
}

func (c *Client) GetIcmpTypeSettings(icmpType string) (*IcmpTypeSettings, error) {
	if err := checkName("icmptype", icmpType); err != nil {
		return nil, err
	}
	var t icmpTypeTuple
	if err := c.read(c.obj, dbusInterface+".getIcmpTypeSettings", "icmptype", icmpType, &t, icmpType); err != nil {
		return nil, err
	}
	return icmpTypeFromTuple(t), nil
}

func (c *Client) GetHelpers() ([]string, error) {
	var helpers []string
	if err := c.read(c.obj, dbusInterface+".getHelpers", "helpers", "", &helpers); err != nil {
		return nil, err
	}
	return helpers, nil
}

func (c *Client) GetHelperSettings(helper string) (*HelperSettings, error) {
	if err := checkName("helper", helper); err != nil {
		return nil, err
	}
	var t helperTuple
	if err := c.read(c.obj, dbusInterface+".getHelperSettings", "helper", helper, &t, helper); err != nil {
		return nil, err
	}
	return helperFromTuple(t), nil
}
