//go:build linux
// +build linux

package firewalld

import (
	"log/slog"
	"sort"
)

// Runtime IP sets. Permanent sets are edited through Config.

func (c *Client) GetIPSets() ([]string, error) {
	slog.Debug("listing ipsets (runtime)")
	var sets []string
	if err := c.read(c.obj, dbusIPSetInterface+".getIPSets", "ipsets", "", &sets); err != nil {
		return nil, err
	}
	sort.Strings(sets)
	return sets, nil
}

func (c *Client) QueryIPSet(name string) (bool, error) {
	if err := checkName("ipset", name); err != nil {
		return false, err
	}
	var present bool
	err := c.read(c.obj, dbusIPSetInterface+".queryIPSet", "ipset", name, &present, name)
	return present, err
}

func (c *Client) GetIPSetSettings(name string) (*IPSetSettings, error) {
	if err := checkName("ipset", name); err != nil {
		return nil, err
	}
	var t ipsetTuple
	if err := c.read(c.obj, dbusIPSetInterface+".getIPSetSettings", "ipset", name, &t, name); err != nil {
		return nil, err
	}
	return ipsetFromTuple(t), nil
}

func (c *Client) GetIPSetEntries(name string) ([]string, error) {
	if err := checkName("ipset", name); err != nil {
		return nil, err
	}
	slog.Debug("fetching ipset entries (runtime)", "ipset", name)
	var entries []string
	if err := c.read(c.obj, dbusIPSetInterface+".getEntries", "ipset", name, &entries, name); err != nil {
		return nil, err
	}
	return entries, nil
}

// SetIPSetEntries replaces every entry of the set.
func (c *Client) SetIPSetEntries(name string, entries []string) error {
	if err := checkName("ipset", name); err != nil {
		return err
	}
	slog.Info("replacing ipset entries (runtime)", "ipset", name, "count", len(entries))
	return c.write(c.obj, dbusIPSetInterface+".setEntries", "ipset", name, nil, name, nonNil(entries))
}

func (c *Client) AddIPSetEntry(name, entry string) error {
	if err := checkName("ipset", name); err != nil {
		return err
	}
	if err := checkNonEmpty("ipset entry", entry); err != nil {
		return err
	}
	slog.Info("adding ipset entry (runtime)", "ipset", name, "entry", entry)
	return c.add(c.obj, dbusIPSetInterface+".addEntry", "ipset entry", entry, nil, name, entry)
}

func (c *Client) RemoveIPSetEntry(name, entry string) error {
	if err := checkName("ipset", name); err != nil {
		return err
	}
	if err := checkNonEmpty("ipset entry", entry); err != nil {
		return err
	}
	slog.Info("removing ipset entry (runtime)", "ipset", name, "entry", entry)
	return c.write(c.obj, dbusIPSetInterface+".removeEntry", "ipset entry", entry, nil, name, entry)
}

func (c *Client) QueryIPSetEntry(name, entry string) (bool, error) {
	if err := checkName("ipset", name); err != nil {
		return false, err
	}
	if err := checkNonEmpty("ipset entry", entry); err != nil {
		return false, err
	}
	var present bool
	err := c.read(c.obj, dbusIPSetInterface+".queryEntry", "ipset entry", entry, &present, name, entry)
	return present, err
}
