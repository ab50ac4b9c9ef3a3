//go:build linux
// +build linux

package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"firewallctl/internal/firewalld"
)

// zoneItem describes one kind of zone member for add/remove/query, both at
// runtime and on a detached permanent settings copy.
type zoneItem struct {
	// valueless items (masquerade, icmp-block-inversion) take no argument.
	valueless bool
	// timed items accept a runtime --lifetime.
	timed bool

	add    func(c *firewalld.Client, zone, value string, timeout time.Duration) (string, error)
	remove func(c *firewalld.Client, zone, value string) (string, error)
	query  func(c *firewalld.Client, zone, value string) (bool, error)

	edit func(z *firewalld.ZoneSettings, value string, add bool) error
	has  func(z *firewalld.ZoneSettings, value string) (bool, error)
}

var zoneItems = map[string]zoneItem{
	"service": {
		timed:  true,
		add:    func(c *firewalld.Client, zone, v string, t time.Duration) (string, error) { return c.AddService(zone, v, t) },
		remove: (*firewalld.Client).RemoveService,
		query:  (*firewalld.Client).QueryService,
		edit: func(z *firewalld.ZoneSettings, v string, add bool) error {
			if add {
				z.AddService(v)
			} else {
				z.RemoveService(v)
			}
			return nil
		},
		has: func(z *firewalld.ZoneSettings, v string) (bool, error) { return z.QueryService(v), nil },
	},
	"port": {
		timed: true,
		add: func(c *firewalld.Client, zone, v string, t time.Duration) (string, error) {
			p, err := parsePortArg(v)
			if err != nil {
				return "", err
			}
			return c.AddPort(zone, p, t)
		},
		remove: func(c *firewalld.Client, zone, v string) (string, error) {
			p, err := parsePortArg(v)
			if err != nil {
				return "", err
			}
			return c.RemovePort(zone, p)
		},
		query: func(c *firewalld.Client, zone, v string) (bool, error) {
			p, err := parsePortArg(v)
			if err != nil {
				return false, err
			}
			return c.QueryPort(zone, p)
		},
		edit: func(z *firewalld.ZoneSettings, v string, add bool) error {
			p, err := parsePortArg(v)
			if err != nil {
				return err
			}
			if add {
				z.AddPort(p)
			} else {
				z.RemovePort(p)
			}
			return nil
		},
		has: func(z *firewalld.ZoneSettings, v string) (bool, error) {
			p, err := parsePortArg(v)
			return err == nil && z.QueryPort(p), err
		},
	},
	"source-port": {
		timed: true,
		add: func(c *firewalld.Client, zone, v string, t time.Duration) (string, error) {
			p, err := parsePortArg(v)
			if err != nil {
				return "", err
			}
			return c.AddSourcePort(zone, p, t)
		},
		remove: func(c *firewalld.Client, zone, v string) (string, error) {
			p, err := parsePortArg(v)
			if err != nil {
				return "", err
			}
			return c.RemoveSourcePort(zone, p)
		},
		query: func(c *firewalld.Client, zone, v string) (bool, error) {
			p, err := parsePortArg(v)
			if err != nil {
				return false, err
			}
			return c.QuerySourcePort(zone, p)
		},
		edit: func(z *firewalld.ZoneSettings, v string, add bool) error {
			p, err := parsePortArg(v)
			if err != nil {
				return err
			}
			if add {
				z.AddSourcePort(p)
			} else {
				z.RemoveSourcePort(p)
			}
			return nil
		},
		has: func(z *firewalld.ZoneSettings, v string) (bool, error) {
			p, err := parsePortArg(v)
			return err == nil && z.QuerySourcePort(p), err
		},
	},
	"protocol": {
		timed:  true,
		add:    func(c *firewalld.Client, zone, v string, t time.Duration) (string, error) { return c.AddProtocol(zone, v, t) },
		remove: (*firewalld.Client).RemoveProtocol,
		query:  (*firewalld.Client).QueryProtocol,
		edit: func(z *firewalld.ZoneSettings, v string, add bool) error {
			if add {
				z.AddProtocol(v)
			} else {
				z.RemoveProtocol(v)
			}
			return nil
		},
		has: func(z *firewalld.ZoneSettings, v string) (bool, error) { return z.QueryProtocol(v), nil },
	},
	"rich-rule": {
		timed:  true,
		add:    func(c *firewalld.Client, zone, v string, t time.Duration) (string, error) { return c.AddRichRule(zone, v, t) },
		remove: (*firewalld.Client).RemoveRichRule,
		query:  (*firewalld.Client).QueryRichRule,
		edit: func(z *firewalld.ZoneSettings, v string, add bool) error {
			if add {
				z.AddRichRule(v)
			} else {
				z.RemoveRichRule(v)
			}
			return nil
		},
		has: func(z *firewalld.ZoneSettings, v string) (bool, error) { return z.QueryRichRule(v), nil },
	},
	"icmp-block": {
		timed:  true,
		add:    func(c *firewalld.Client, zone, v string, t time.Duration) (string, error) { return c.AddIcmpBlock(zone, v, t) },
		remove: (*firewalld.Client).RemoveIcmpBlock,
		query:  (*firewalld.Client).QueryIcmpBlock,
		edit: func(z *firewalld.ZoneSettings, v string, add bool) error {
			if add {
				z.AddIcmpBlock(v)
			} else {
				z.RemoveIcmpBlock(v)
			}
			return nil
		},
		has: func(z *firewalld.ZoneSettings, v string) (bool, error) { return z.QueryIcmpBlock(v), nil },
	},
	"forward-port": {
		timed: true,
		add: func(c *firewalld.Client, zone, v string, t time.Duration) (string, error) {
			fp, err := parseForwardPortArg(v)
			if err != nil {
				return "", err
			}
			return c.AddForwardPort(zone, fp, t)
		},
		remove: func(c *firewalld.Client, zone, v string) (string, error) {
			fp, err := parseForwardPortArg(v)
			if err != nil {
				return "", err
			}
			return c.RemoveForwardPort(zone, fp)
		},
		query: func(c *firewalld.Client, zone, v string) (bool, error) {
			fp, err := parseForwardPortArg(v)
			if err != nil {
				return false, err
			}
			return c.QueryForwardPort(zone, fp)
		},
		edit: func(z *firewalld.ZoneSettings, v string, add bool) error {
			fp, err := parseForwardPortArg(v)
			if err != nil {
				return err
			}
			if add {
				z.AddForwardPort(fp)
			} else {
				z.RemoveForwardPort(fp)
			}
			return nil
		},
		has: func(z *firewalld.ZoneSettings, v string) (bool, error) {
			fp, err := parseForwardPortArg(v)
			return err == nil && z.QueryForwardPort(fp), err
		},
	},
	"interface": {
		add:    func(c *firewalld.Client, zone, v string, _ time.Duration) (string, error) { return c.AddInterface(zone, v) },
		remove: (*firewalld.Client).RemoveInterface,
		query:  (*firewalld.Client).QueryInterface,
		edit: func(z *firewalld.ZoneSettings, v string, add bool) error {
			if add {
				z.AddInterface(v)
			} else {
				z.RemoveInterface(v)
			}
			return nil
		},
		has: func(z *firewalld.ZoneSettings, v string) (bool, error) { return z.QueryInterface(v), nil },
	},
	"source": {
		add:    func(c *firewalld.Client, zone, v string, _ time.Duration) (string, error) { return c.AddSource(zone, v) },
		remove: (*firewalld.Client).RemoveSource,
		query:  (*firewalld.Client).QuerySource,
		edit: func(z *firewalld.ZoneSettings, v string, add bool) error {
			if add {
				z.AddSource(v)
			} else {
				z.RemoveSource(v)
			}
			return nil
		},
		has: func(z *firewalld.ZoneSettings, v string) (bool, error) { return z.QuerySource(v), nil },
	},
	"masquerade": {
		valueless: true,
		timed:     true,
		add:       func(c *firewalld.Client, zone, _ string, t time.Duration) (string, error) { return c.AddMasquerade(zone, t) },
		remove:    func(c *firewalld.Client, zone, _ string) (string, error) { return c.RemoveMasquerade(zone) },
		query:     func(c *firewalld.Client, zone, _ string) (bool, error) { return c.QueryMasquerade(zone) },
		edit: func(z *firewalld.ZoneSettings, _ string, add bool) error {
			z.Masquerade = add
			return nil
		},
		has: func(z *firewalld.ZoneSettings, _ string) (bool, error) { return z.Masquerade, nil },
	},
	"icmp-block-inversion": {
		valueless: true,
		add:       func(c *firewalld.Client, zone, _ string, _ time.Duration) (string, error) { return c.AddIcmpBlockInversion(zone) },
		remove:    func(c *firewalld.Client, zone, _ string) (string, error) { return c.RemoveIcmpBlockInversion(zone) },
		query:     func(c *firewalld.Client, zone, _ string) (bool, error) { return c.QueryIcmpBlockInversion(zone) },
		edit: func(z *firewalld.ZoneSettings, _ string, add bool) error {
			z.IcmpBlockInversion = add
			return nil
		},
		has: func(z *firewalld.ZoneSettings, _ string) (bool, error) { return z.IcmpBlockInversion, nil },
	},
}

func zoneItemNames() []string {
	names := make([]string, 0, len(zoneItems))
	for name := range zoneItems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupZoneItem(kind string) (zoneItem, error) {
	item, ok := zoneItems[kind]
	if !ok {
		return zoneItem{}, fmt.Errorf("%w: unknown item %q (use %s)", firewalld.ErrInvalidArgument, kind, strings.Join(zoneItemNames(), "|"))
	}
	return item, nil
}

// itemValues checks the argument count for kind and returns the values to
// apply. Valueless kinds yield a single empty value.
func itemValues(kind string, item zoneItem, args []string) ([]string, error) {
	if item.valueless {
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: %s takes no value", firewalld.ErrInvalidArgument, kind)
		}
		return []string{""}, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: %s needs at least one value", firewalld.ErrInvalidArgument, kind)
	}
	return args, nil
}

func parsePortArg(v string) (firewalld.Port, error) {
	p, err := firewalld.ParsePort(v)
	if err != nil {
		return firewalld.Port{}, fmt.Errorf("%w: %v", firewalld.ErrInvalidArgument, err)
	}
	return p, nil
}

func parseForwardPortArg(v string) (firewalld.ForwardPort, error) {
	fp, err := firewalld.ParseForwardPort(v)
	if err != nil {
		return firewalld.ForwardPort{}, fmt.Errorf("%w: %v", firewalld.ErrInvalidArgument, err)
	}
	return fp, nil
}

// editSettings applies one add or remove per value to a permanent zone copy.
// Removing a value the zone does not have fails with ErrNotFound before
// anything is edited.
func editSettings(zone, kind string, item zoneItem, z *firewalld.ZoneSettings, values []string, add bool) error {
	if !add {
		for _, v := range values {
			ok, err := item.has(z, v)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("zone %q %s %q: %w", zone, kind, v, firewalld.ErrNotFound)
			}
		}
	}
	for _, v := range values {
		if err := item.edit(z, v, add); err != nil {
			return err
		}
	}
	return nil
}
