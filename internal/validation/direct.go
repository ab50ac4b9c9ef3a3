package validation

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrIPVInvalid     = errors.New("ip version must be one of ipv4, ipv6, eb")
	ErrTableInvalid   = errors.New("table is not valid for this ip version")
	ErrChainEmpty     = errors.New("chain cannot be empty")
	ErrArgsEmpty      = errors.New("argument list cannot be empty")
	ErrTimeoutInvalid = errors.New("timeout must be between 0 and 2147483647 seconds")
	ErrUIDInvalid     = errors.New("uid must not exceed 2147483647")
)

var tablesByIPV = map[string][]string{
	"ipv4": {"filter", "nat", "mangle", "raw", "security"},
	"ipv6": {"filter", "nat", "mangle", "raw", "security"},
	"eb":   {"filter", "nat", "broute"},
}

// IsValidIPV accepts the ip versions of the direct interface.
func IsValidIPV(ipv string) error {
	if _, ok := tablesByIPV[ipv]; !ok {
		return fmt.Errorf("%w: %q", ErrIPVInvalid, ipv)
	}
	return nil
}

func IsValidTable(ipv, table string) error {
	if err := IsValidIPV(ipv); err != nil {
		return err
	}
	for _, t := range tablesByIPV[ipv] {
		if t == table {
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrTableInvalid, ipv, table)
}

func IsValidChain(ipv, table, chain string) error {
	if err := IsValidTable(ipv, table); err != nil {
		return err
	}
	if chain == "" {
		return ErrChainEmpty
	}
	return nil
}

// TimeoutSeconds converts a binding timeout to the wire value. Zero means no
// expiry; sub-second remainders round up so a short timeout never becomes 0.
func TimeoutSeconds(d time.Duration) (int32, error) {
	if d < 0 {
		return 0, fmt.Errorf("%w: %s", ErrTimeoutInvalid, d)
	}
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	if secs > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s", ErrTimeoutInvalid, d)
	}
	return int32(secs), nil
}

// UID converts a lockdown uid to the wire value.
func UID(uid uint32) (int32, error) {
	if uid > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d", ErrUIDInvalid, uid)
	}
	return int32(uid), nil
}
