//go:build linux
// +build linux

package firewalld

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

// SignalEvent is a change notification emitted by the daemon, e.g. "Reloaded"
// or "zone.ServiceAdded". Zone and Item are filled when the signal carries
// them.
type SignalEvent struct {
	Interface string
	Member    string
	Zone      string
	Item      string
	Path      dbus.ObjectPath
}

// Name is the member prefixed with the sub-interface, as in "zone.PortAdded".
func (e SignalEvent) Name() string {
	sub := strings.TrimPrefix(strings.TrimPrefix(e.Interface, dbusInterface), ".")
	if sub == "" {
		return e.Member
	}
	return sub + "." + e.Member
}

func (e SignalEvent) String() string {
	var b strings.Builder
	b.WriteString(e.Name())
	if e.Zone != "" {
		fmt.Fprintf(&b, " zone=%s", e.Zone)
	}
	if e.Item != "" {
		fmt.Fprintf(&b, " item=%s", e.Item)
	}
	return b.String()
}

func signalEventFrom(sig *dbus.Signal) SignalEvent {
	iface, member := sig.Name, ""
	if i := strings.LastIndex(sig.Name, "."); i >= 0 {
		iface, member = sig.Name[:i], sig.Name[i+1:]
	}
	event := SignalEvent{Interface: iface, Member: member, Path: sig.Path}

	var fields []string
	for _, v := range sig.Body {
		switch val := v.(type) {
		case string:
			fields = append(fields, val)
		case []string:
			fields = append(fields, strings.Join(val, " "))
		}
	}
	if iface == dbusZoneInterface && len(fields) > 0 {
		event.Zone = fields[0]
		fields = fields[1:]
	}
	if len(fields) > 0 {
		event.Item = strings.Join(fields, "/")
	}
	return event
}

// SubscribeSignals delivers daemon signals until cancel is called. Only
// sessions opened with NewClient can subscribe.
func (c *Client) SubscribeSignals() (<-chan SignalEvent, func(), error) {
	if c.conn == nil {
		return nil, nil, newError(KindServiceUnavailable, "daemon", dbusInterface, fmt.Errorf("dbus connection not initialized"))
	}

	rule := "type='signal',sender='" + dbusInterface + "'"
	slog.Debug("dbus add match", "rule", rule)
	ctx, cancelCtx := context.WithTimeout(context.Background(), c.timeout)
	defer cancelCtx()
	if call := c.conn.BusObject().CallWithContext(ctx, dbusBusName+".AddMatch", 0, rule); call.Err != nil {
		return nil, nil, wrapError("AddMatch", "daemon", dbusInterface, call.Err)
	}

	raw := make(chan *dbus.Signal, 16)
	out := make(chan SignalEvent, 16)
	done := make(chan struct{})
	c.conn.Signal(raw)

	go func() {
		defer close(out)
		for {
			select {
			case sig := <-raw:
				if sig == nil {
					return
				}
				if !strings.HasPrefix(sig.Name, dbusInterface) {
					continue
				}
				select {
				case out <- signalEventFrom(sig):
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	cancel := idempotentCancel(func() {
		close(done)
		c.conn.RemoveSignal(raw)
		slog.Debug("dbus remove match", "rule", rule)
		ctx, cancelCtx := context.WithTimeout(context.Background(), c.timeout)
		defer cancelCtx()
		_ = c.conn.BusObject().CallWithContext(ctx, dbusBusName+".RemoveMatch", 0, rule).Err
	})

	return out, cancel, nil
}

func idempotentCancel(fn func()) func() {
	var once sync.Once
	return func() {
		once.Do(fn)
	}
}
