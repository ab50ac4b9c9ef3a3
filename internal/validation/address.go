package validation

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"go4.org/netipx"
)

var (
	ErrSourceEmpty   = errors.New("source cannot be empty")
	ErrSourceInvalid = errors.New("source is not an address, network, range, MAC or ipset reference")

	ErrPortInvalid     = errors.New("port must be a number or range between 1 and 65535")
	ErrProtocolInvalid = errors.New("protocol must be one of tcp, udp, sctp, dccp")
)

var portProtocols = map[string]struct{}{
	"tcp":  {},
	"udp":  {},
	"sctp": {},
	"dccp": {},
}

// SourceKind names what a zone source string refers to.
type SourceKind string

const (
	SourceAddress SourceKind = "address"
	SourcePrefix  SourceKind = "prefix"
	SourceRange   SourceKind = "range"
	SourceMAC     SourceKind = "mac"
	SourceIPSet   SourceKind = "ipset"
)

// ParseSource classifies a zone source. Sources are addresses, CIDR networks,
// address ranges, MAC addresses or "ipset:<name>".
func ParseSource(source string) (SourceKind, error) {
	if source == "" {
		return "", ErrSourceEmpty
	}
	if name, ok := strings.CutPrefix(source, "ipset:"); ok {
		if err := IsValidName(name); err != nil {
			return "", fmt.Errorf("ipset source: %w", err)
		}
		return SourceIPSet, nil
	}
	if _, err := netip.ParseAddr(source); err == nil {
		return SourceAddress, nil
	}
	if _, err := netip.ParsePrefix(source); err == nil {
		return SourcePrefix, nil
	}
	if r, err := netipx.ParseIPRange(source); err == nil && r.IsValid() {
		return SourceRange, nil
	}
	if hw, err := net.ParseMAC(source); err == nil && len(hw) == 6 {
		return SourceMAC, nil
	}
	return "", ErrSourceInvalid
}

// IsValidSource reports whether source is usable as a zone source.
func IsValidSource(source string) error {
	_, err := ParseSource(source)
	return err
}

// IsValidPort accepts "N" and "N-M" with 1 <= N <= M <= 65535.
func IsValidPort(port string) error {
	lo, hi, isRange := strings.Cut(port, "-")
	a, err := parsePortNumber(lo)
	if err != nil {
		return err
	}
	if !isRange {
		return nil
	}
	b, err := parsePortNumber(hi)
	if err != nil {
		return err
	}
	if b < a {
		return fmt.Errorf("%w: range %s is reversed", ErrPortInvalid, port)
	}
	return nil
}

func parsePortNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("%w: %q", ErrPortInvalid, s)
	}
	return n, nil
}

// IsValidPortProtocol checks the protocol half of a port entry.
func IsValidPortProtocol(protocol string) error {
	if _, ok := portProtocols[protocol]; !ok {
		return fmt.Errorf("%w: %q", ErrProtocolInvalid, protocol)
	}
	return nil
}

// IsValidForwardAddress accepts an empty string (local forward) or a single
// IPv4 or IPv6 address.
func IsValidForwardAddress(addr string) error {
	if addr == "" {
		return nil
	}
	if _, err := netip.ParseAddr(addr); err != nil {
		return fmt.Errorf("forward address: %w", err)
	}
	return nil
}
