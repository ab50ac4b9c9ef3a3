//go:build linux
// +build linux

package firewalld

import (
	"log/slog"
	"strings"
)

// Direct chains, rules and passthroughs. These are runtime only; the ipv
// argument is one of ipv4, ipv6 or eb.

func (c *Client) AddChain(ch Chain) error {
	if err := checkChain(ch.IPV, ch.Table, ch.Chain); err != nil {
		return err
	}
	slog.Info("adding direct chain", "ipv", ch.IPV, "table", ch.Table, "chain", ch.Chain)
	return c.add(c.obj, dbusDirectInterface+".addChain", "chain", ch.String(), nil, ch.IPV, ch.Table, ch.Chain)
}

func (c *Client) RemoveChain(ch Chain) error {
	if err := checkChain(ch.IPV, ch.Table, ch.Chain); err != nil {
		return err
	}
	slog.Info("removing direct chain", "ipv", ch.IPV, "table", ch.Table, "chain", ch.Chain)
	return c.write(c.obj, dbusDirectInterface+".removeChain", "chain", ch.String(), nil, ch.IPV, ch.Table, ch.Chain)
}

func (c *Client) QueryChain(ch Chain) (bool, error) {
	if err := checkChain(ch.IPV, ch.Table, ch.Chain); err != nil {
		return false, err
	}
	var present bool
	err := c.read(c.obj, dbusDirectInterface+".queryChain", "chain", ch.String(), &present, ch.IPV, ch.Table, ch.Chain)
	return present, err
}

// GetChains lists the chain names added to table.
func (c *Client) GetChains(ipv, table string) ([]string, error) {
	if err := checkChain(ipv, table, "-"); err != nil {
		return nil, err
	}
	var chains []string
	if err := c.read(c.obj, dbusDirectInterface+".getChains", "table", ipv+"/"+table, &chains, ipv, table); err != nil {
		return nil, err
	}
	return chains, nil
}

func (c *Client) GetAllChains() ([]Chain, error) {
	var chains []Chain
	if err := c.read(c.obj, dbusDirectInterface+".getAllChains", "chains", "", &chains); err != nil {
		return nil, err
	}
	return chains, nil
}

// AddRule inserts rule into its chain. Within a chain, firewalld places rules
// with a lower priority before rules with a higher one; rules of equal
// priority keep insertion order.
func (c *Client) AddRule(rule Rule) error {
	if err := checkRule(rule); err != nil {
		return err
	}
	slog.Info("adding direct rule", "rule", rule.String())
	return c.add(c.obj, dbusDirectInterface+".addRule", "rule", rule.String(), nil,
		rule.IPV, rule.Table, rule.Chain, rule.Priority, rule.Args)
}

func (c *Client) RemoveRule(rule Rule) error {
	if err := checkRule(rule); err != nil {
		return err
	}
	slog.Info("removing direct rule", "rule", rule.String())
	return c.write(c.obj, dbusDirectInterface+".removeRule", "rule", rule.String(), nil,
		rule.IPV, rule.Table, rule.Chain, rule.Priority, rule.Args)
}

func (c *Client) QueryRule(rule Rule) (bool, error) {
	if err := checkRule(rule); err != nil {
		return false, err
	}
	var present bool
	err := c.read(c.obj, dbusDirectInterface+".queryRule", "rule", rule.String(), &present,
		rule.IPV, rule.Table, rule.Chain, rule.Priority, rule.Args)
	return present, err
}

// RemoveRules drops every rule of a chain.
func (c *Client) RemoveRules(ipv, table, chain string) error {
	if err := checkChain(ipv, table, chain); err != nil {
		return err
	}
	slog.Info("removing direct rules", "ipv", ipv, "table", table, "chain", chain)
	return c.write(c.obj, dbusDirectInterface+".removeRules", "chain", ipv+"/"+table+"/"+chain, nil, ipv, table, chain)
}

// GetRules returns the rules of one chain in the order the daemon reports
// them. Use SortRules for evaluation order.
func (c *Client) GetRules(ipv, table, chain string) ([]Rule, error) {
	if err := checkChain(ipv, table, chain); err != nil {
		return nil, err
	}
	var raw []struct {
		Priority int32
		Args     []string
	}
	if err := c.read(c.obj, dbusDirectInterface+".getRules", "chain", ipv+"/"+table+"/"+chain, &raw, ipv, table, chain); err != nil {
		return nil, err
	}
	rules := make([]Rule, 0, len(raw))
	for _, r := range raw {
		rules = append(rules, Rule{IPV: ipv, Table: table, Chain: chain, Priority: r.Priority, Args: r.Args})
	}
	return rules, nil
}

func (c *Client) GetAllRules() ([]Rule, error) {
	var rules []Rule
	if err := c.read(c.obj, dbusDirectInterface+".getAllRules", "rules", "", &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func checkRule(rule Rule) error {
	if err := checkChain(rule.IPV, rule.Table, rule.Chain); err != nil {
		return err
	}
	return checkArgs("rule", rule.IPV, rule.Args)
}

// Passthrough runs a raw command and returns its output. Nothing is tracked:
// calling it twice applies the command twice.
func (c *Client) Passthrough(ipv string, args []string) (string, error) {
	if err := checkArgs("passthrough", ipv, args); err != nil {
		return "", err
	}
	slog.Info("direct passthrough", "ipv", ipv, "args", strings.Join(args, " "))
	var output string
	if err := c.write(c.obj, dbusDirectInterface+".passthrough", "passthrough", passthroughID(ipv, args), &output, ipv, args); err != nil {
		return "", err
	}
	return output, nil
}

// AddPassthrough applies a raw command and records it so it can be queried
// and removed later. The full argument list is the key.
func (c *Client) AddPassthrough(ipv string, args []string) error {
	if err := checkArgs("passthrough", ipv, args); err != nil {
		return err
	}
	slog.Info("adding tracked passthrough", "ipv", ipv, "args", strings.Join(args, " "))
	return c.add(c.obj, dbusDirectInterface+".addPassthrough", "passthrough", passthroughID(ipv, args), nil, ipv, args)
}

func (c *Client) RemovePassthrough(ipv string, args []string) error {
	if err := checkArgs("passthrough", ipv, args); err != nil {
		return err
	}
	slog.Info("removing tracked passthrough", "ipv", ipv, "args", strings.Join(args, " "))
	return c.write(c.obj, dbusDirectInterface+".removePassthrough", "passthrough", passthroughID(ipv, args), nil, ipv, args)
}

func (c *Client) QueryPassthrough(ipv string, args []string) (bool, error) {
	if err := checkArgs("passthrough", ipv, args); err != nil {
		return false, err
	}
	var present bool
	err := c.read(c.obj, dbusDirectInterface+".queryPassthrough", "passthrough", passthroughID(ipv, args), &present, ipv, args)
	return present, err
}

// GetPassthroughs returns the argument lists tracked for ipv.
func (c *Client) GetPassthroughs(ipv string) ([][]string, error) {
	if err := checkArgs("passthrough", ipv, []string{"-"}); err != nil {
		return nil, err
	}
	var args [][]string
	if err := c.read(c.obj, dbusDirectInterface+".getPassthroughs", "passthrough", ipv, &args, ipv); err != nil {
		return nil, err
	}
	return args, nil
}

func (c *Client) GetAllPassthroughs() ([]Passthrough, error) {
	var all []Passthrough
	if err := c.read(c.obj, dbusDirectInterface+".getAllPassthroughs", "passthroughs", "", &all); err != nil {
		return nil, err
	}
	return all, nil
}

// RemoveAllPassthroughs clears the tracked passthroughs of every ip version.
func (c *Client) RemoveAllPassthroughs() error {
	slog.Info("removing all tracked passthroughs")
	return c.write(c.obj, dbusDirectInterface+".removeAllPassthroughs", "passthroughs", "", nil)
}

func passthroughID(ipv string, args []string) string {
	return Passthrough{IPV: ipv, Args: args}.String()
}
