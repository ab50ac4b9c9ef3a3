//go:build linux
// +build linux

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"firewallctl/internal/firewalld"
)

type cmdDirect struct {
	global *cmdGlobal
}

func (c *cmdDirect) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "direct"
	cmd.Short = "Manage direct chains, rules and passthroughs"
	cmd.Long = `Manage direct chains, rules and passthroughs

Direct entries are runtime only. Rule and passthrough arguments are
passed to the packet filter as given; everything after the first
positional argument is treated as an argument, not as a flag.`

	cmd.AddCommand(c.commandChains())
	for _, action := range []string{"add", "remove", "query"} {
		cmd.AddCommand(c.commandChain(action))
		cmd.AddCommand(c.commandRule(action))
		cmd.AddCommand(c.commandPassthroughEntry(action))
	}
	cmd.AddCommand(c.commandRules())
	cmd.AddCommand(c.commandRemoveRules())
	cmd.AddCommand(c.commandPassthrough())
	cmd.AddCommand(c.commandPassthroughs())
	cmd.AddCommand(c.commandRemovePassthroughs())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Usage() }
	return cmd
}

// Chains
func (c *cmdDirect) commandChains() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "chains [<ipv> <table>]"
	cmd.Short = "List direct chains"
	cmd.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("%w: expected no arguments or <ipv> <table>", firewalld.ErrInvalidArgument)
		}
		return nil
	}
	cmd.RunE = c.runChains
	return cmd
}

type chainView struct {
	IPV   string `json:"ipv" yaml:"ipv"`
	Table string `json:"table" yaml:"table"`
	Chain string `json:"chain" yaml:"chain"`
}

func (c *cmdDirect) runChains(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	var chains []firewalld.Chain
	if len(args) == 2 {
		names, err := client.GetChains(args[0], args[1])
		if err != nil {
			return err
		}
		for _, name := range names {
			chains = append(chains, firewalld.Chain{IPV: args[0], Table: args[1], Chain: name})
		}
	} else {
		chains, err = client.GetAllChains()
		if err != nil {
			return err
		}
	}

	views := make([]chainView, 0, len(chains))
	rows := make([][]string, 0, len(chains))
	for _, ch := range chains {
		views = append(views, chainView{IPV: ch.IPV, Table: ch.Table, Chain: ch.Chain})
		rows = append(rows, []string{ch.IPV, ch.Table, ch.Chain})
	}
	return c.global.printer().table([]string{"IPV", "TABLE", "CHAIN"}, rows, views)
}

// Chain add/remove/query
func (c *cmdDirect) commandChain(action string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = action + "-chain <ipv> <table> <chain>"
	cmd.Short = strings.ToUpper(action[:1]) + action[1:] + " a direct chain"
	cmd.Args = cobra.ExactArgs(3)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return c.runChain(action, firewalld.Chain{IPV: args[0], Table: args[1], Chain: args[2]})
	}
	return cmd
}

func (c *cmdDirect) runChain(action string, ch firewalld.Chain) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	switch action {
	case "add":
		err = client.AddChain(ch)
	case "remove":
		err = client.RemoveChain(ch)
	default:
		ok, err := client.QueryChain(ch)
		if err != nil {
			return err
		}
		return c.global.printer().line(yesNo(ok))
	}
	if err != nil {
		return err
	}
	return c.global.printer().line(fmt.Sprintf("chain %s %s", ch, pastTense(action)))
}

// Rules
func (c *cmdDirect) commandRules() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "rules [<ipv> <table> <chain>]"
	cmd.Short = "List direct rules"
	cmd.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("%w: expected no arguments or <ipv> <table> <chain>", firewalld.ErrInvalidArgument)
		}
		return nil
	}
	cmd.RunE = c.runRules
	return cmd
}

type ruleView struct {
	IPV      string   `json:"ipv" yaml:"ipv"`
	Table    string   `json:"table" yaml:"table"`
	Chain    string   `json:"chain" yaml:"chain"`
	Priority int32    `json:"priority" yaml:"priority"`
	Args     []string `json:"args" yaml:"args"`
}

func (c *cmdDirect) runRules(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	var rules []firewalld.Rule
	if len(args) == 3 {
		rules, err = client.GetRules(args[0], args[1], args[2])
	} else {
		rules, err = client.GetAllRules()
	}
	if err != nil {
		return err
	}

	views := make([]ruleView, 0, len(rules))
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		views = append(views, ruleView{IPV: r.IPV, Table: r.Table, Chain: r.Chain, Priority: r.Priority, Args: orEmpty(r.Args)})
		rows = append(rows, []string{r.IPV, r.Table, r.Chain, strconv.Itoa(int(r.Priority)), strings.Join(r.Args, " ")})
	}
	return c.global.printer().table([]string{"IPV", "TABLE", "CHAIN", "PRIORITY", "ARGS"}, rows, views)
}

// Rule add/remove/query
func (c *cmdDirect) commandRule(action string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = action + "-rule <ipv> <table> <chain> <priority> <args>..."
	cmd.Short = strings.ToUpper(action[:1]) + action[1:] + " a direct rule"
	cmd.Args = cobra.MinimumNArgs(5)
	cmd.Flags().SetInterspersed(false)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		rule, err := parseRuleArgs(args)
		if err != nil {
			return err
		}
		return c.runRule(action, rule)
	}
	return cmd
}

func parseRuleArgs(args []string) (firewalld.Rule, error) {
	if len(args) < 5 {
		return firewalld.Rule{}, fmt.Errorf("%w: a rule needs <ipv> <table> <chain> <priority> <args>", firewalld.ErrInvalidArgument)
	}
	priority, err := strconv.ParseInt(args[3], 10, 32)
	if err != nil {
		return firewalld.Rule{}, fmt.Errorf("%w: priority %q is not a 32-bit integer", firewalld.ErrInvalidArgument, args[3])
	}
	return firewalld.Rule{
		IPV:      args[0],
		Table:    args[1],
		Chain:    args[2],
		Priority: int32(priority),
		Args:     args[4:],
	}, nil
}

func (c *cmdDirect) runRule(action string, rule firewalld.Rule) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	switch action {
	case "add":
		err = client.AddRule(rule)
	case "remove":
		err = client.RemoveRule(rule)
	default:
		ok, err := client.QueryRule(rule)
		if err != nil {
			return err
		}
		return c.global.printer().line(yesNo(ok))
	}
	if err != nil {
		return err
	}
	return c.global.printer().line(fmt.Sprintf("rule %s %s", rule, pastTense(action)))
}

// Remove rules
func (c *cmdDirect) commandRemoveRules() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "remove-rules <ipv> <table> <chain>"
	cmd.Short = "Remove every direct rule of a chain"
	cmd.Args = cobra.ExactArgs(3)
	cmd.RunE = c.runRemoveRules
	return cmd
}

func (c *cmdDirect) runRemoveRules(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	if err := client.RemoveRules(args[0], args[1], args[2]); err != nil {
		return err
	}
	return c.global.printer().line(fmt.Sprintf("rules of %s/%s/%s removed", args[0], args[1], args[2]))
}

// Passthrough
func (c *cmdDirect) commandPassthrough() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "passthrough <ipv> <args>..."
	cmd.Short = "Run an untracked packet filter command"
	cmd.Args = cobra.MinimumNArgs(2)
	cmd.Flags().SetInterspersed(false)
	cmd.RunE = c.runPassthrough
	return cmd
}

func (c *cmdDirect) runPassthrough(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	out, err := client.Passthrough(args[0], args[1:])
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(c.global.stdout, out)
	return err
}

// Passthroughs
func (c *cmdDirect) commandPassthroughs() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "passthroughs [<ipv>]"
	cmd.Short = "List tracked passthroughs"
	cmd.Args = cobra.MaximumNArgs(1)
	cmd.RunE = c.runPassthroughs
	return cmd
}

type passthroughView struct {
	IPV  string   `json:"ipv" yaml:"ipv"`
	Args []string `json:"args" yaml:"args"`
}

func (c *cmdDirect) runPassthroughs(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	var entries []firewalld.Passthrough
	if len(args) == 1 {
		list, err := client.GetPassthroughs(args[0])
		if err != nil {
			return err
		}
		for _, a := range list {
			entries = append(entries, firewalld.Passthrough{IPV: args[0], Args: a})
		}
	} else {
		entries, err = client.GetAllPassthroughs()
		if err != nil {
			return err
		}
	}

	views := make([]passthroughView, 0, len(entries))
	rows := make([][]string, 0, len(entries))
	for _, p := range entries {
		views = append(views, passthroughView{IPV: p.IPV, Args: orEmpty(p.Args)})
		rows = append(rows, []string{p.IPV, strings.Join(p.Args, " ")})
	}
	return c.global.printer().table([]string{"IPV", "ARGS"}, rows, views)
}

// Passthrough add/remove/query
func (c *cmdDirect) commandPassthroughEntry(action string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = action + "-passthrough <ipv> <args>..."
	cmd.Short = strings.ToUpper(action[:1]) + action[1:] + " a tracked passthrough"
	cmd.Args = cobra.MinimumNArgs(2)
	cmd.Flags().SetInterspersed(false)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return c.runPassthroughEntry(action, args[0], args[1:])
	}
	return cmd
}

func (c *cmdDirect) runPassthroughEntry(action, ipv string, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	switch action {
	case "add":
		err = client.AddPassthrough(ipv, args)
	case "remove":
		err = client.RemovePassthrough(ipv, args)
	default:
		ok, err := client.QueryPassthrough(ipv, args)
		if err != nil {
			return err
		}
		return c.global.printer().line(yesNo(ok))
	}
	if err != nil {
		return err
	}
	p := firewalld.Passthrough{IPV: ipv, Args: args}
	return c.global.printer().line(fmt.Sprintf("passthrough %s %s", p, pastTense(action)))
}

// Remove passthroughs
func (c *cmdDirect) commandRemovePassthroughs() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "remove-passthroughs"
	cmd.Short = "Remove every tracked passthrough"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.runRemovePassthroughs
	return cmd
}

func (c *cmdDirect) runRemovePassthroughs(cmd *cobra.Command, args []string) error {
	client, err := c.global.session()
	if err != nil {
		return err
	}
	if err := client.RemoveAllPassthroughs(); err != nil {
		return err
	}
	return c.global.printer().line("passthroughs removed")
}
