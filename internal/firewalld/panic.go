//go:build linux
// +build linux

package firewalld

import "log/slog"

func (c *Client) QueryPanicMode() (bool, error) {
	var enabled bool
	if err := c.read(c.obj, dbusInterface+".queryPanicMode", "panic mode", "", &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

// EnablePanicMode drops all traffic until DisablePanicMode is called.
func (c *Client) EnablePanicMode() error {
	slog.Warn("enabling panic mode")
	return c.add(c.obj, dbusInterface+".enablePanicMode", "panic mode", "", nil)
}

func (c *Client) DisablePanicMode() error {
	slog.Warn("disabling panic mode")
	return c.write(c.obj, dbusInterface+".disablePanicMode", "panic mode", "", nil)
}
