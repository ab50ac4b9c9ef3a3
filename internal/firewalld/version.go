//go:build linux
// +build linux

package firewalld

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
)

// APIVersion selects how zone and service settings travel over the bus.
// firewalld 0.x only speaks positional tuples; 1.x adds keyed a{sv}
// dictionaries that carry every field.
type APIVersion int

const (
	APIUnknown APIVersion = iota
	APIv1
	APIv2
)

func (v APIVersion) String() string {
	switch v {
	case APIv1:
		return "v1 (firewalld 0.x)"
	case APIv2:
		return "v2 (firewalld 1.x+)"
	default:
		return "unknown"
	}
}

func (c *Client) detectVersion() error {
	var v dbus.Variant
	if err := c.read(c.obj, dbusProperties+".Get", "daemon", dbusInterface, &v, dbusInterface, "version"); err != nil {
		return fmt.Errorf("detect firewalld version: %w", err)
	}

	version, ok := v.Value().(string)
	switch {
	case !ok:
		return fmt.Errorf("version property has type %T, want string", v.Value())
	case version == "":
		return fmt.Errorf("empty version string returned")
	}

	c.version = version
	c.apiVersion = parseVersion(version)
	if c.apiVersion == APIUnknown {
		slog.Warn("unknown firewalld version, falling back to v2 API", "version", version)
		c.apiVersion = APIv2
	}

	slog.Info("firewalld detected", "version", version, "api", c.apiVersion)
	return nil
}

// parseVersion maps a daemon version such as "0.9.11" or "2.1.0" to the
// settings API it speaks.
func parseVersion(version string) APIVersion {
	major, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	n, err := strconv.Atoi(major)
	switch {
	case err != nil || n < 0:
		return APIUnknown
	case n == 0:
		return APIv1
	default:
		return APIv2
	}
}
