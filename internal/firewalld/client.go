//go:build linux
// +build linux

package firewalld

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
	"github.com/godbus/dbus/v5"
)

const (
	dbusInterface         = "org.fedoraproject.FirewallD1"
	dbusZoneInterface     = dbusInterface + ".zone"
	dbusIPSetInterface    = dbusInterface + ".ipset"
	dbusDirectInterface   = dbusInterface + ".direct"
	dbusPoliciesInterface = dbusInterface + ".policies"
	dbusConfigInterface   = dbusInterface + ".config"
	dbusPath              = "/org/fedoraproject/FirewallD1"
	dbusConfigPath        = "/org/fedoraproject/FirewallD1/config"
	dbusBusPath           = "/org/freedesktop/DBus"
	dbusBusName           = "org.freedesktop.DBus"
	dbusProperties        = "org.freedesktop.DBus.Properties"

	defaultTimeout = 30 * time.Second
)

// busObject is the part of dbus.BusObject the client needs.
type busObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

type authState int

const (
	authUnknown authState = iota
	authGranted
	authDenied
)

// Options controls how NewClient reaches the daemon.
type Options struct {
	// Bus is "system" (default) or "session". Ignored when Address is set.
	Bus     string
	Address string
	// Timeout bounds every call. A call that runs out of time fails with
	// ErrServiceUnavailable.
	Timeout time.Duration
	// ReadRetries is how many extra attempts idempotent reads get on channel
	// failures. Mutations are never retried.
	ReadRetries uint
	// Authorize calls AuthorizeAll while connecting.
	Authorize bool
}

func DefaultOptions() Options {
	return Options{
		Bus:         "system",
		Timeout:     defaultTimeout,
		ReadRetries: 2,
		Authorize:   true,
	}
}

// Client is a session with firewalld. It holds no firewall state of its own;
// every method is a blocking round trip to the daemon.
type Client struct {
	conn         *dbus.Conn
	obj          busObject
	objectAt     func(path dbus.ObjectPath) busObject
	timeout      time.Duration
	retries      uint
	retryBackoff time.Duration
	version      string
	apiVersion   APIVersion
	auth         authState
}

func NewClient(opts Options) (*Client, error) {
	slog.Debug("connecting to bus", "bus", opts.Bus, "address", opts.Address)

	conn, err := connect(opts)
	if err != nil {
		return nil, newError(KindServiceUnavailable, "bus", opts.Bus, err)
	}

	client := newClient(conn.Object(dbusInterface, dbusPath), func(path dbus.ObjectPath) busObject {
		return conn.Object(dbusInterface, path)
	}, opts)
	client.conn = conn

	var hasOwner bool
	ctx, cancel := context.WithTimeout(context.Background(), client.timeout)
	defer cancel()
	if err := conn.BusObject().CallWithContext(ctx, dbusBusName+".NameHasOwner", 0, dbusInterface).Store(&hasOwner); err != nil {
		conn.Close()
		return nil, newError(KindServiceUnavailable, "daemon", dbusInterface, fmt.Errorf("check firewalld owner: %w", err))
	}
	if !hasOwner {
		conn.Close()
		return nil, newError(KindServiceUnavailable, "daemon", dbusInterface, errNotRunning)
	}

	if err := client.init(opts); err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

func connect(opts Options) (*dbus.Conn, error) {
	if opts.Address != "" {
		return dbus.Connect(opts.Address)
	}
	switch opts.Bus {
	case "", "system":
		return dbus.ConnectSystemBus()
	case "session":
		return dbus.ConnectSessionBus()
	default:
		return nil, fmt.Errorf("unknown bus %q (use system|session)", opts.Bus)
	}
}

func newClient(obj busObject, objectAt func(dbus.ObjectPath) busObject, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		obj:          obj,
		objectAt:     objectAt,
		timeout:      timeout,
		retries:      opts.ReadRetries,
		retryBackoff: 100 * time.Millisecond,
	}
}

// init runs the handshake shared by NewClient and in-process sessions.
func (c *Client) init(opts Options) error {
	var stateVar dbus.Variant
	if err := c.call(c.obj, dbusProperties+".Get", &stateVar, dbusInterface, "state"); err != nil {
		if isPermissionDenied(err) {
			slog.Warn("state read denied", "error", err)
		} else {
			return wrapError("state", "daemon", dbusInterface, err)
		}
	} else {
		state, _ := stateVar.Value().(string)
		slog.Info("firewalld state", "state", state)
	}

	if err := c.detectVersion(); err != nil {
		slog.Warn("version detection failed", "error", err)
		c.apiVersion = APIv2
	}

	if opts.Authorize {
		if err := c.AuthorizeAll(); err != nil && KindOf(err) != KindPermissionDenied {
			return err
		}
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) Version() string {
	return c.version
}

func (c *Client) APIVersion() APIVersion {
	return c.apiVersion
}

// ReadOnly reports whether authorization was refused for this session.
func (c *Client) ReadOnly() bool {
	return c.auth == authDenied
}

func (c *Client) Authorized() bool {
	return c.auth == authGranted
}

// AuthorizeAll asks the daemon for access to the whole API. A refusal leaves
// the session read-only and is returned as ErrPermissionDenied.
func (c *Client) AuthorizeAll() error {
	slog.Debug("requesting authorization")

	if err := c.call(c.obj, dbusInterface+".authorizeAll", nil); err != nil {
		if isPermissionDenied(err) {
			c.auth = authDenied
			slog.Warn("read-only mode enabled", "error", err)
			return newError(KindPermissionDenied, "daemon", dbusInterface, err)
		}
		return wrapError("authorizeAll", "daemon", dbusInterface, err)
	}

	c.auth = authGranted
	return nil
}

func (c *Client) call(obj busObject, method string, out any, args ...any) error {
	slog.Debug("dbus call", "method", method, "args", args)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	call := obj.CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		slog.Debug("dbus call failed", "method", method, "error", call.Err)
		return fmt.Errorf("dbus %s: %w", method, call.Err)
	}

	if out == nil {
		return nil
	}

	if err := call.Store(out); err != nil {
		slog.Error("dbus store failed", "method", method, "error", err)
		return fmt.Errorf("dbus store %s: %w", method, err)
	}

	return nil
}

// read performs an idempotent call, retrying channel-level failures.
func (c *Client) read(obj busObject, method, object, id string, out any, args ...any) error {
	var last error
	attempts := func(attempt uint) error {
		last = c.call(obj, method, out, args...)
		if last != nil && classify(last) == KindServiceUnavailable {
			slog.Debug("retrying read", "method", method, "attempt", attempt, "error", last)
			return last
		}
		return nil
	}
	_ = retry.Retry(attempts,
		strategy.Limit(c.retries+1),
		strategy.Backoff(backoff.Linear(c.retryBackoff)),
	)
	return wrapError(method, object, id, last)
}

// write performs a mutating call exactly once.
func (c *Client) write(obj busObject, method, object, id string, out any, args ...any) error {
	if c.auth == authDenied {
		return newError(KindPermissionDenied, object, id, fmt.Errorf("session is read-only, %s refused", method))
	}
	return wrapError(method, object, id, c.call(obj, method, out, args...))
}

// add is write with ALREADY_ENABLED treated as success.
func (c *Client) add(obj busObject, method, object, id string, out any, args ...any) error {
	err := c.write(obj, method, object, id, out, args...)
	if err != nil && isAlreadyEnabled(err) {
		slog.Debug("already enabled", "method", method, "object", object, "id", id)
		return nil
	}
	return err
}

func (c *Client) configObject() busObject {
	return c.objectAt(dbusConfigPath)
}

// DaemonInfo carries the read-only properties of the daemon object.
type DaemonInfo struct {
	Version                  string
	InterfaceVersion         string
	State                    string
	IPv4                     bool
	IPv6                     bool
	IPv6Rpfilter             bool
	Bridge                   bool
	IPSet                    bool
	IPSetTypes               []string
	NfConntrackHelperSetting bool
}

func (c *Client) Properties() (*DaemonInfo, error) {
	var props map[string]dbus.Variant
	if err := c.read(c.obj, dbusProperties+".GetAll", "daemon", dbusInterface, &props, dbusInterface); err != nil {
		return nil, err
	}
	return parseDaemonInfo(props), nil
}

func parseDaemonInfo(props map[string]dbus.Variant) *DaemonInfo {
	info := &DaemonInfo{
		Version:                  variantString(props["version"]),
		InterfaceVersion:         variantString(props["interface_version"]),
		State:                    variantString(props["state"]),
		IPv4:                     variantBool(props["IPv4"]),
		IPv6:                     variantBool(props["IPv6"]),
		IPv6Rpfilter:             variantBool(props["IPv6_rpfilter"]),
		Bridge:                   variantBool(props["BRIDGE"]),
		IPSet:                    variantBool(props["IPSet"]),
		NfConntrackHelperSetting: variantBool(props["nf_conntrack_helper_setting"]),
	}
	if v, ok := props["IPSetTypes"]; ok {
		info.IPSetTypes = variantToStringSlice(v)
	}
	return info
}

func (c *Client) Reload() error {
	slog.Info("reloading firewalld")
	return c.write(c.obj, dbusInterface+".reload", "daemon", dbusInterface, nil)
}

func (c *Client) CompleteReload() error {
	slog.Info("complete reload of firewalld")
	return c.write(c.obj, dbusInterface+".completeReload", "daemon", dbusInterface, nil)
}

func (c *Client) RuntimeToPermanent() error {
	slog.Info("committing runtime to permanent")
	return c.write(c.obj, dbusInterface+".runtimeToPermanent", "daemon", dbusInterface, nil)
}
