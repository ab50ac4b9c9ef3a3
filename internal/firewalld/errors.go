//go:build linux
// +build linux

package firewalld

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Kind classifies a failure reported by the binding or the daemon.
type Kind int

const (
	KindUnknown Kind = iota
	KindPermissionDenied
	KindServiceUnavailable
	KindNotFound
	KindAlreadyExists
	KindConflict
	KindInvalidArgument
	KindStale
)

var (
	ErrPermissionDenied   = errors.New("permission denied")
	ErrServiceUnavailable = errors.New("firewalld unavailable")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrConflict           = errors.New("conflict")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrStale              = errors.New("stale object handle")

	errNotRunning = errors.New("firewalld service is not running")
)

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission denied"
	case KindServiceUnavailable:
		return "service unavailable"
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid argument"
	case KindStale:
		return "stale"
	default:
		return "failed"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindPermissionDenied:
		return ErrPermissionDenied
	case KindServiceUnavailable:
		return ErrServiceUnavailable
	case KindNotFound:
		return ErrNotFound
	case KindAlreadyExists:
		return ErrAlreadyExists
	case KindConflict:
		return ErrConflict
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindStale:
		return ErrStale
	default:
		return nil
	}
}

// Error is returned by every Client operation that fails. Object and ID name the
// thing the caller was operating on so scripted callers can log it as is.
type Error struct {
	Kind   Kind
	Object string
	ID     string
	Method string
	// Code is the firewalld error code (NOT_ENABLED, ZONE_CONFLICT, ...) when the
	// daemon reported one.
	Code string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Object != "" {
		b.WriteString(e.Object)
		if e.ID != "" {
			fmt.Fprintf(&b, " %q", e.ID)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels. A stale handle also reports as ErrNotFound.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if s := e.Kind.sentinel(); s != nil && s == target {
		return true
	}
	return e.Kind == KindStale && target == ErrNotFound
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var fwErr *Error
	if errors.As(err, &fwErr) {
		return fwErr.Kind
	}
	return KindUnknown
}

func newError(kind Kind, object, id string, err error) *Error {
	return &Error{Kind: kind, Object: object, ID: id, Err: err}
}

func invalidArgument(object, id string, err error) *Error {
	return newError(KindInvalidArgument, object, id, err)
}

// asDBusError finds a D-Bus error reply in err. godbus delivers replies as
// dbus.Error values; *dbus.Error is accepted too.
func asDBusError(err error) (*dbus.Error, bool) {
	var byValue dbus.Error
	if errors.As(err, &byValue) {
		return &byValue, true
	}
	var byPointer *dbus.Error
	if errors.As(err, &byPointer) && byPointer != nil {
		return byPointer, true
	}
	return nil, false
}

// firewalld reports problems as org.fedoraproject.FirewallD1.Exception with a
// message of the form "CODE: detail".
func errorCode(err error) string {
	msg := err.Error()
	if dbusErr, ok := asDBusError(err); ok && len(dbusErr.Body) > 0 {
		if s, ok := dbusErr.Body[0].(string); ok {
			msg = s
		}
	}
	code, _, found := strings.Cut(strings.TrimSpace(msg), ":")
	if !found {
		code = strings.TrimSpace(msg)
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && r != '_' && (r < '0' || r > '9') {
			return ""
		}
	}
	return code
}

// isDaemonReply reports whether err carries a firewalld error code. Such
// messages echo caller arguments, so their text is never matched.
func isDaemonReply(err error) bool {
	dbusErr, ok := asDBusError(err)
	if !ok {
		return false
	}
	return dbusErr.Name == dbusInterface+".Exception" || errorCode(err) != ""
}

func isAlreadyEnabled(err error) bool {
	switch errorCode(err) {
	case "ALREADY_ENABLED", "ZONE_ALREADY_SET", "ALREADY_SET":
		return true
	}
	return false
}

func isPermissionDenied(err error) bool {
	if dbusErr, ok := asDBusError(err); ok {
		switch dbusErr.Name {
		case "org.freedesktop.DBus.Error.AccessDenied",
			"org.freedesktop.DBus.Error.AuthFailed",
			"org.fedoraproject.FirewallD1.AccessDenied",
			"org.fedoraproject.FirewallD1.NotAuthorized",
			"org.fedoraproject.FirewallD1.Error.AccessDenied",
			"org.fedoraproject.FirewallD1.Error.NotAuthorized":
			return true
		}
	}
	switch errorCode(err) {
	case "NOT_AUTHORIZED", "ACCESS_DENIED":
		return true
	}
	if isDaemonReply(err) {
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "accessdenied") ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "not authorized") ||
		strings.Contains(msg, "notauthorized")
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if dbusErr, ok := asDBusError(err); ok {
		switch dbusErr.Name {
		case "org.freedesktop.DBus.Error.NoReply",
			"org.freedesktop.DBus.Error.ServiceUnknown",
			"org.freedesktop.DBus.Error.NameHasNoOwner",
			"org.freedesktop.DBus.Error.Disconnected",
			"org.freedesktop.DBus.Error.Timeout",
			"org.freedesktop.DBus.Error.TimedOut",
			"org.freedesktop.DBus.Error.NoServer":
			return true
		}
	}
	switch errorCode(err) {
	case "NOT_RUNNING", "RUNNING_BUT_FAILED":
		return true
	}
	return errors.Is(err, dbus.ErrClosed)
}

func isStaleObject(err error) bool {
	if dbusErr, ok := asDBusError(err); ok {
		switch dbusErr.Name {
		case "org.freedesktop.DBus.Error.UnknownObject",
			"org.freedesktop.DBus.Error.UnknownInterface":
			return true
		}
	}
	return errorCode(err) == "INVALID_OBJECT"
}

func isInvalidZone(err error) bool {
	if dbusErr, ok := asDBusError(err); ok && strings.Contains(strings.ToUpper(dbusErr.Name), "INVALID_ZONE") {
		return true
	}
	if errorCode(err) == "INVALID_ZONE" {
		return true
	}
	if isDaemonReply(err) {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "invalid zone")
}

// classify maps a raw call failure to a Kind.
func classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case isUnavailable(err):
		return KindServiceUnavailable
	case isPermissionDenied(err):
		return KindPermissionDenied
	case isStaleObject(err):
		return KindStale
	}

	code := errorCode(err)
	switch code {
	case "NOT_ENABLED", "UNKNOWN_INTERFACE", "UNKNOWN_SOURCE",
		"INVALID_ZONE", "INVALID_SERVICE", "INVALID_ICMPTYPE", "INVALID_IPSET",
		"INVALID_HELPER", "INVALID_POLICY":
		return KindNotFound
	case "NAME_CONFLICT", "ALREADY_ENABLED", "ALREADY_SET", "ZONE_ALREADY_SET":
		return KindAlreadyExists
	case "ZONE_CONFLICT":
		return KindConflict
	case "PARSE_ERROR", "BUILTIN_CHAIN", "NAME_MISMATCH", "IPSET_WITH_TIMEOUT", "NO_DEFAULTS":
		return KindInvalidArgument
	}
	if strings.HasPrefix(code, "INVALID_") || strings.HasPrefix(code, "MISSING_") {
		return KindInvalidArgument
	}
	if isInvalidZone(err) {
		return KindNotFound
	}
	return KindUnknown
}

// wrapError turns a raw call failure into an *Error naming object and id.
func wrapError(method, object, id string, err error) error {
	if err == nil {
		return nil
	}
	var fwErr *Error
	if errors.As(err, &fwErr) {
		return err
	}
	return &Error{
		Kind:   classify(err),
		Object: object,
		ID:     id,
		Method: method,
		Code:   errorCode(err),
		Err:    err,
	}
}
