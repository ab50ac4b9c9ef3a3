//go:build linux
// +build linux

package firewalld

import (
	"errors"
	"time"

	"firewallctl/internal/validation"
)

// Client-side checks that turn malformed input into InvalidArgument before a
// call is made.

func checkName(object, name string) error {
	if err := validation.IsValidName(name); err != nil {
		return invalidArgument(object, name, err)
	}
	return nil
}

// checkZone allows "", which firewalld resolves to the default zone.
func checkZone(zone string) error {
	if zone == "" {
		return nil
	}
	return checkName("zone", zone)
}

func checkInterface(iface string) error {
	if err := validation.IsValidInterfaceName(iface); err != nil {
		return invalidArgument("interface", iface, err)
	}
	return nil
}

func checkSource(source string) error {
	if err := validation.IsValidSource(source); err != nil {
		return invalidArgument("source", source, err)
	}
	return nil
}

func checkPort(object string, p Port) error {
	if err := validation.IsValidPort(p.Port); err != nil {
		return invalidArgument(object, p.String(), err)
	}
	if err := validation.IsValidPortProtocol(p.Protocol); err != nil {
		return invalidArgument(object, p.String(), err)
	}
	return nil
}

func checkForwardPort(f ForwardPort) error {
	if err := checkPort("forward port", Port{Port: f.Port, Protocol: f.Protocol}); err != nil {
		return err
	}
	if f.ToPort == "" && f.ToAddr == "" {
		return invalidArgument("forward port", f.String(), errors.New("toport or toaddr is required"))
	}
	if f.ToPort != "" {
		if err := validation.IsValidPort(f.ToPort); err != nil {
			return invalidArgument("forward port", f.String(), err)
		}
	}
	if err := validation.IsValidForwardAddress(f.ToAddr); err != nil {
		return invalidArgument("forward port", f.String(), err)
	}
	return nil
}

func checkNonEmpty(object, value string) error {
	if value == "" {
		return invalidArgument(object, value, errors.New("value cannot be empty"))
	}
	return nil
}

func timeoutArg(object, id string, timeout time.Duration) (int32, error) {
	secs, err := validation.TimeoutSeconds(timeout)
	if err != nil {
		return 0, invalidArgument(object, id, err)
	}
	return secs, nil
}

func checkChain(ipv, table, chain string) error {
	if err := validation.IsValidChain(ipv, table, chain); err != nil {
		return invalidArgument("chain", ipv+"/"+table+"/"+chain, err)
	}
	return nil
}

func checkArgs(object, ipv string, args []string) error {
	if err := validation.IsValidIPV(ipv); err != nil {
		return invalidArgument(object, ipv, err)
	}
	if len(args) == 0 {
		return invalidArgument(object, ipv, validation.ErrArgsEmpty)
	}
	return nil
}
