//go:build linux
// +build linux

package firewalld

import (
	"fmt"
	"log/slog"
	"time"
)

// Zone membership. Add and remove return the zone that was changed, which is
// the default zone when zone is "". Adding an item that is already present
// succeeds. Removing an absent item fails with ErrNotFound.

func (c *Client) zoneAdd(method, object, zone, id string, args ...any) (string, error) {
	slog.Info("adding to zone (runtime)", "zone", zone, "kind", object, "item", id)
	changed := zone
	if err := c.add(c.obj, dbusZoneInterface+"."+method, object, id, &changed, args...); err != nil {
		return "", err
	}
	return changed, nil
}

func (c *Client) zoneRemove(method, object, zone, id string, args ...any) (string, error) {
	slog.Info("removing from zone (runtime)", "zone", zone, "kind", object, "item", id)
	changed := zone
	if err := c.write(c.obj, dbusZoneInterface+"."+method, object, id, &changed, args...); err != nil {
		return "", err
	}
	return changed, nil
}

func (c *Client) zoneQuery(method, object, id string, args ...any) (bool, error) {
	var present bool
	if err := c.read(c.obj, dbusZoneInterface+"."+method, object, id, &present, args...); err != nil {
		return false, err
	}
	return present, nil
}

func (c *Client) zoneStrings(method, object, zone string) ([]string, error) {
	if err := checkZone(zone); err != nil {
		return nil, err
	}
	var items []string
	if err := c.read(c.obj, dbusZoneInterface+"."+method, object, zone, &items, zone); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) zonePorts(method, object, zone string) ([]Port, error) {
	if err := checkZone(zone); err != nil {
		return nil, err
	}
	var raw [][]string
	if err := c.read(c.obj, dbusZoneInterface+"."+method, object, zone, &raw, zone); err != nil {
		return nil, err
	}
	ports, err := parsePortTuples(raw)
	if err != nil {
		return nil, invalidArgument(object, zone, err)
	}
	return ports, nil
}

// Interfaces

// AddInterface binds iface to zone. An interface already bound to a different
// zone fails with ErrConflict; use ChangeZoneOfInterface to move it.
func (c *Client) AddInterface(zone, iface string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkInterface(iface); err != nil {
		return "", err
	}
	return c.zoneAdd("addInterface", "interface", zone, iface, zone, iface)
}

// ChangeZoneOfInterface moves iface to zone, binding it if it was unbound.
func (c *Client) ChangeZoneOfInterface(zone, iface string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkInterface(iface); err != nil {
		return "", err
	}
	return c.zoneAdd("changeZoneOfInterface", "interface", zone, iface, zone, iface)
}

func (c *Client) RemoveInterface(zone, iface string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkInterface(iface); err != nil {
		return "", err
	}
	return c.zoneRemove("removeInterface", "interface", zone, iface, zone, iface)
}

func (c *Client) QueryInterface(zone, iface string) (bool, error) {
	if err := checkZone(zone); err != nil {
		return false, err
	}
	if err := checkInterface(iface); err != nil {
		return false, err
	}
	return c.zoneQuery("queryInterface", "interface", iface, zone, iface)
}

func (c *Client) GetInterfaces(zone string) ([]string, error) {
	return c.zoneStrings("getInterfaces", "zone", zone)
}

// Sources

func (c *Client) AddSource(zone, source string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkSource(source); err != nil {
		return "", err
	}
	return c.zoneAdd("addSource", "source", zone, source, zone, source)
}

func (c *Client) ChangeZoneOfSource(zone, source string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkSource(source); err != nil {
		return "", err
	}
	return c.zoneAdd("changeZoneOfSource", "source", zone, source, zone, source)
}

func (c *Client) RemoveSource(zone, source string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkSource(source); err != nil {
		return "", err
	}
	return c.zoneRemove("removeSource", "source", zone, source, zone, source)
}

func (c *Client) QuerySource(zone, source string) (bool, error) {
	if err := checkZone(zone); err != nil {
		return false, err
	}
	if err := checkSource(source); err != nil {
		return false, err
	}
	return c.zoneQuery("querySource", "source", source, zone, source)
}

func (c *Client) GetSources(zone string) ([]string, error) {
	return c.zoneStrings("getSources", "zone", zone)
}

// Services

func (c *Client) AddService(zone, service string, timeout time.Duration) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkName("service", service); err != nil {
		return "", err
	}
	secs, err := timeoutArg("service", service, timeout)
	if err != nil {
		return "", err
	}
	return c.zoneAdd("addService", "service", zone, service, zone, service, secs)
}

func (c *Client) RemoveService(zone, service string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkName("service", service); err != nil {
		return "", err
	}
	return c.zoneRemove("removeService", "service", zone, service, zone, service)
}

func (c *Client) QueryService(zone, service string) (bool, error) {
	if err := checkZone(zone); err != nil {
		return false, err
	}
	if err := checkName("service", service); err != nil {
		return false, err
	}
	return c.zoneQuery("queryService", "service", service, zone, service)
}

func (c *Client) GetServices(zone string) ([]string, error) {
	return c.zoneStrings("getServices", "zone", zone)
}

// Ports

func (c *Client) AddPort(zone string, port Port, timeout time.Duration) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkPort("port", port); err != nil {
		return "", err
	}
	secs, err := timeoutArg("port", port.String(), timeout)
	if err != nil {
		return "", err
	}
	return c.zoneAdd("addPort", "port", zone, port.String(), zone, port.Port, port.Protocol, secs)
}

func (c *Client) RemovePort(zone string, port Port) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkPort("port", port); err != nil {
		return "", err
	}
	return c.zoneRemove("removePort", "port", zone, port.String(), zone, port.Port, port.Protocol)
}

func (c *Client) QueryPort(zone string, port Port) (bool, error) {
	if err := checkZone(zone); err != nil {
		return false, err
	}
	if err := checkPort("port", port); err != nil {
		return false, err
	}
	return c.zoneQuery("queryPort", "port", port.String(), zone, port.Port, port.Protocol)
}

func (c *Client) GetPorts(zone string) ([]Port, error) {
	return c.zonePorts("getPorts", "zone", zone)
}

// Protocols

func (c *Client) AddProtocol(zone, protocol string, timeout time.Duration) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkNonEmpty("protocol", protocol); err != nil {
		return "", err
	}
	secs, err := timeoutArg("protocol", protocol, timeout)
	if err != nil {
		return "", err
	}
	return c.zoneAdd("addProtocol", "protocol", zone, protocol, zone, protocol, secs)
}

func (c *Client) RemoveProtocol(zone, protocol string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkNonEmpty("protocol", protocol); err != nil {
		return "", err
	}
	return c.zoneRemove("removeProtocol", "protocol", zone, protocol, zone, protocol)
}

func (c *Client) QueryProtocol(zone, protocol string) (bool, error) {
	if err := checkZone(zone); err != nil {
		return false, err
	}
	if err := checkNonEmpty("protocol", protocol); err != nil {
		return false, err
	}
	return c.zoneQuery("queryProtocol", "protocol", protocol, zone, protocol)
}

func (c *Client) GetProtocols(zone string) ([]string, error) {
	return c.zoneStrings("getProtocols", "zone", zone)
}

// Source ports

func (c *Client) AddSourcePort(zone string, port Port, timeout time.Duration) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkPort("source port", port); err != nil {
		return "", err
	}
	secs, err := timeoutArg("source port", port.String(), timeout)
	if err != nil {
		return "", err
	}
	return c.zoneAdd("addSourcePort", "source port", zone, port.String(), zone, port.Port, port.Protocol, secs)
}

func (c *Client) RemoveSourcePort(zone string, port Port) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkPort("source port", port); err != nil {
		return "", err
	}
	return c.zoneRemove("removeSourcePort", "source port", zone, port.String(), zone, port.Port, port.Protocol)
}

func (c *Client) QuerySourcePort(zone string, port Port) (bool, error) {
	if err := checkZone(zone); err != nil {
		return false, err
	}
	if err := checkPort("source port", port); err != nil {
		return false, err
	}
	return c.zoneQuery("querySourcePort", "source port", port.String(), zone, port.Port, port.Protocol)
}

func (c *Client) GetSourcePorts(zone string) ([]Port, error) {
	return c.zonePorts("getSourcePorts", "zone", zone)
}

// Rich rules are passed through as opaque strings; the daemon parses them and
// reports syntax errors as INVALID_RULE.

func (c *Client) AddRichRule(zone, rule string, timeout time.Duration) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkNonEmpty("rich rule", rule); err != nil {
		return "", err
	}
	secs, err := timeoutArg("rich rule", rule, timeout)
	if err != nil {
		return "", err
	}
	return c.zoneAdd("addRichRule", "rich rule", zone, rule, zone, rule, secs)
}

func (c *Client) RemoveRichRule(zone, rule string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkNonEmpty("rich rule", rule); err != nil {
		return "", err
	}
	return c.zoneRemove("removeRichRule", "rich rule", zone, rule, zone, rule)
}

func (c *Client) QueryRichRule(zone, rule string) (bool, error) {
	if err := checkZone(zone); err != nil {
		return false, err
	}
	if err := checkNonEmpty("rich rule", rule); err != nil {
		return false, err
	}
	return c.zoneQuery("queryRichRule", "rich rule", rule, zone, rule)
}

func (c *Client) GetRichRules(zone string) ([]string, error) {
	return c.zoneStrings("getRichRules", "zone", zone)
}

// ICMP blocks

func (c *Client) AddIcmpBlock(zone, icmpType string, timeout time.Duration) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkName("icmptype", icmpType); err != nil {
		return "", err
	}
	secs, err := timeoutArg("icmp block", icmpType, timeout)
	if err != nil {
		return "", err
	}
	return c.zoneAdd("addIcmpBlock", "icmp block", zone, icmpType, zone, icmpType, secs)
}

func (c *Client) RemoveIcmpBlock(zone, icmpType string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkName("icmptype", icmpType); err != nil {
		return "", err
	}
	return c.zoneRemove("removeIcmpBlock", "icmp block", zone, icmpType, zone, icmpType)
}

func (c *Client) QueryIcmpBlock(zone, icmpType string) (bool, error) {
	if err := checkZone(zone); err != nil {
		return false, err
	}
	if err := checkName("icmptype", icmpType); err != nil {
		return false, err
	}
	return c.zoneQuery("queryIcmpBlock", "icmp block", icmpType, zone, icmpType)
}

func (c *Client) GetIcmpBlocks(zone string) ([]string, error) {
	return c.zoneStrings("getIcmpBlocks", "zone", zone)
}

// Forward ports

func (c *Client) AddForwardPort(zone string, fwd ForwardPort, timeout time.Duration) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkForwardPort(fwd); err != nil {
		return "", err
	}
	secs, err := timeoutArg("forward port", fwd.String(), timeout)
	if err != nil {
		return "", err
	}
	return c.zoneAdd("addForwardPort", "forward port", zone, fwd.String(),
		zone, fwd.Port, fwd.Protocol, fwd.ToPort, fwd.ToAddr, secs)
}

func (c *Client) RemoveForwardPort(zone string, fwd ForwardPort) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	if err := checkForwardPort(fwd); err != nil {
		return "", err
	}
	return c.zoneRemove("removeForwardPort", "forward port", zone, fwd.String(),
		zone, fwd.Port, fwd.Protocol, fwd.ToPort, fwd.ToAddr)
}

func (c *Client) QueryForwardPort(zone string, fwd ForwardPort) (bool, error) {
	if err := checkZone(zone); err != nil {
		return false, err
	}
	if err := checkForwardPort(fwd); err != nil {
		return false, err
	}
	return c.zoneQuery("queryForwardPort", "forward port", fwd.String(),
		zone, fwd.Port, fwd.Protocol, fwd.ToPort, fwd.ToAddr)
}

func (c *Client) GetForwardPorts(zone string) ([]ForwardPort, error) {
	if err := checkZone(zone); err != nil {
		return nil, err
	}
	var raw [][]string
	if err := c.read(c.obj, dbusZoneInterface+".getForwardPorts", "zone", zone, &raw, zone); err != nil {
		return nil, err
	}
	fwds, err := toForwardPorts(raw)
	if err != nil {
		return nil, invalidArgument("zone", zone, fmt.Errorf("forward ports: %w", err))
	}
	return fwds, nil
}

// Zone flags

func (c *Client) AddMasquerade(zone string, timeout time.Duration) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	secs, err := timeoutArg("masquerade", zone, timeout)
	if err != nil {
		return "", err
	}
	return c.zoneAdd("addMasquerade", "masquerade", zone, zone, zone, secs)
}

func (c *Client) RemoveMasquerade(zone string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	return c.zoneRemove("removeMasquerade", "masquerade", zone, zone, zone)
}

func (c *Client) QueryMasquerade(zone string) (bool, error) {
	if err := checkZone(zone); err != nil {
		return false, err
	}
	return c.zoneQuery("queryMasquerade", "masquerade", zone, zone)
}

func (c *Client) AddIcmpBlockInversion(zone string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	return c.zoneAdd("addIcmpBlockInversion", "icmp block inversion", zone, zone, zone)
}

func (c *Client) RemoveIcmpBlockInversion(zone string) (string, error) {
	if err := checkZone(zone); err != nil {
		return "", err
	}
	return c.zoneRemove("removeIcmpBlockInversion", "icmp block inversion", zone, zone, zone)
}

func (c *Client) QueryIcmpBlockInversion(zone string) (bool, error) {
	if err := checkZone(zone); err != nil {
		return false, err
	}
	return c.zoneQuery("queryIcmpBlockInversion", "icmp block inversion", zone, zone)
}
