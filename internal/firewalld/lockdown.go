//go:build linux
// +build linux

package firewalld

import (
	"log/slog"
	"strconv"

	"firewallctl/internal/validation"
)

// Lockdown restricts mutating calls to whitelisted principals. Matching is done
// by the daemon; the client only edits the four whitelists.

func (c *Client) EnableLockdown() error {
	slog.Warn("enabling lockdown")
	return c.add(c.obj, dbusPoliciesInterface+".enableLockdown", "lockdown", "", nil)
}

func (c *Client) DisableLockdown() error {
	slog.Warn("disabling lockdown")
	return c.write(c.obj, dbusPoliciesInterface+".disableLockdown", "lockdown", "", nil)
}

func (c *Client) QueryLockdown() (bool, error) {
	var enabled bool
	err := c.read(c.obj, dbusPoliciesInterface+".queryLockdown", "lockdown", "", &enabled)
	return enabled, err
}

func (c *Client) whitelistAdd(kind, object, id string, value any) error {
	slog.Info("adding lockdown whitelist entry", "kind", object, "item", id)
	return c.add(c.obj, dbusPoliciesInterface+".addLockdownWhitelist"+kind, object, id, nil, value)
}

func (c *Client) whitelistRemove(kind, object, id string, value any) error {
	slog.Info("removing lockdown whitelist entry", "kind", object, "item", id)
	return c.write(c.obj, dbusPoliciesInterface+".removeLockdownWhitelist"+kind, object, id, nil, value)
}

func (c *Client) whitelistQuery(kind, object, id string, value any) (bool, error) {
	var present bool
	err := c.read(c.obj, dbusPoliciesInterface+".queryLockdownWhitelist"+kind, object, id, &present, value)
	return present, err
}

// Commands are matched against the command line of the caller. A trailing "*"
// matches any suffix.

func (c *Client) AddLockdownWhitelistCommand(command string) error {
	if err := checkNonEmpty("lockdown command", command); err != nil {
		return err
	}
	return c.whitelistAdd("Command", "lockdown command", command, command)
}

func (c *Client) RemoveLockdownWhitelistCommand(command string) error {
	if err := checkNonEmpty("lockdown command", command); err != nil {
		return err
	}
	return c.whitelistRemove("Command", "lockdown command", command, command)
}

func (c *Client) QueryLockdownWhitelistCommand(command string) (bool, error) {
	if err := checkNonEmpty("lockdown command", command); err != nil {
		return false, err
	}
	return c.whitelistQuery("Command", "lockdown command", command, command)
}

func (c *Client) GetLockdownWhitelistCommands() ([]string, error) {
	var commands []string
	err := c.read(c.obj, dbusPoliciesInterface+".getLockdownWhitelistCommands", "lockdown command", "", &commands)
	return commands, err
}

// Contexts are SELinux security contexts.

func (c *Client) AddLockdownWhitelistContext(context string) error {
	if err := checkNonEmpty("lockdown context", context); err != nil {
		return err
	}
	return c.whitelistAdd("Context", "lockdown context", context, context)
}

func (c *Client) RemoveLockdownWhitelistContext(context string) error {
	if err := checkNonEmpty("lockdown context", context); err != nil {
		return err
	}
	return c.whitelistRemove("Context", "lockdown context", context, context)
}

func (c *Client) QueryLockdownWhitelistContext(context string) (bool, error) {
	if err := checkNonEmpty("lockdown context", context); err != nil {
		return false, err
	}
	return c.whitelistQuery("Context", "lockdown context", context, context)
}

func (c *Client) GetLockdownWhitelistContexts() ([]string, error) {
	var contexts []string
	err := c.read(c.obj, dbusPoliciesInterface+".getLockdownWhitelistContexts", "lockdown context", "", &contexts)
	return contexts, err
}

// Uids travel as D-Bus int32; values above math.MaxInt32 are rejected.

func (c *Client) AddLockdownWhitelistUid(uid uint32) error {
	wire, err := uidArg(uid)
	if err != nil {
		return err
	}
	return c.whitelistAdd("Uid", "lockdown uid", strconv.FormatUint(uint64(uid), 10), wire)
}

func (c *Client) RemoveLockdownWhitelistUid(uid uint32) error {
	wire, err := uidArg(uid)
	if err != nil {
		return err
	}
	return c.whitelistRemove("Uid", "lockdown uid", strconv.FormatUint(uint64(uid), 10), wire)
}

func (c *Client) QueryLockdownWhitelistUid(uid uint32) (bool, error) {
	wire, err := uidArg(uid)
	if err != nil {
		return false, err
	}
	return c.whitelistQuery("Uid", "lockdown uid", strconv.FormatUint(uint64(uid), 10), wire)
}

func (c *Client) GetLockdownWhitelistUids() ([]uint32, error) {
	var raw []int32
	if err := c.read(c.obj, dbusPoliciesInterface+".getLockdownWhitelistUids", "lockdown uid", "", &raw); err != nil {
		return nil, err
	}
	uids := make([]uint32, 0, len(raw))
	for _, uid := range raw {
		if uid >= 0 {
			uids = append(uids, uint32(uid))
		}
	}
	return uids, nil
}

func uidArg(uid uint32) (int32, error) {
	wire, err := validation.UID(uid)
	if err != nil {
		return 0, invalidArgument("lockdown uid", strconv.FormatUint(uint64(uid), 10), err)
	}
	return wire, nil
}

// Users are matched by user name.

func (c *Client) AddLockdownWhitelistUser(user string) error {
	if err := checkNonEmpty("lockdown user", user); err != nil {
		return err
	}
	return c.whitelistAdd("User", "lockdown user", user, user)
}

func (c *Client) RemoveLockdownWhitelistUser(user string) error {
	if err := checkNonEmpty("lockdown user", user); err != nil {
		return err
	}
	return c.whitelistRemove("User", "lockdown user", user, user)
}

func (c *Client) QueryLockdownWhitelistUser(user string) (bool, error) {
	if err := checkNonEmpty("lockdown user", user); err != nil {
		return false, err
	}
	return c.whitelistQuery("User", "lockdown user", user, user)
}

func (c *Client) GetLockdownWhitelistUsers() ([]string, error) {
	var users []string
	err := c.read(c.obj, dbusPoliciesInterface+".getLockdownWhitelistUsers", "lockdown user", "", &users)
	return users, err
}
