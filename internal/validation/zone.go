package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	maxNameLength      = 128
	maxInterfaceLength = 15
)

var (
	ErrNameEmpty          = errors.New("name cannot be empty")
	ErrNameTooLong        = fmt.Errorf("name too long (max %d characters)", maxNameLength)
	ErrNameTraversal      = errors.New("name cannot contain '..'")
	ErrNamePathSeparator  = errors.New("name cannot contain path separators")
	ErrNameInvalidCharSet = errors.New("name contains invalid characters")

	ErrInterfaceEmpty   = errors.New("interface name cannot be empty")
	ErrInterfaceTooLong = fmt.Errorf("interface name too long (max %d characters)", maxInterfaceLength)
	ErrInterfaceInvalid = errors.New("interface name contains invalid characters")
)

// IsValidName validates a zone, service, helper, icmptype or ipset name.
// firewalld stores these objects as <name>.xml, so the name must be safe to
// use as a file name.
func IsValidName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	if strings.Contains(name, "..") {
		return ErrNameTraversal
	}
	if strings.ContainsAny(name, `/\`) {
		return ErrNamePathSeparator
	}

	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' || r == '+' {
			continue
		}
		return ErrNameInvalidCharSet
	}

	return nil
}

// IsValidZoneName is IsValidName for zones.
func IsValidZoneName(name string) error {
	if err := IsValidName(name); err != nil {
		return fmt.Errorf("zone: %w", err)
	}
	return nil
}

// IsValidInterfaceName accepts kernel interface names and firewalld's
// trailing "+" wildcard.
func IsValidInterfaceName(name string) error {
	if name == "" {
		return ErrInterfaceEmpty
	}
	if len(name) > maxInterfaceLength {
		return ErrInterfaceTooLong
	}
	if name == "." || name == ".." {
		return ErrInterfaceInvalid
	}
	for i, r := range name {
		switch {
		case r == '+' && i == len(name)-1:
		case r <= ' ' || r == '/' || r == ':' || r == '+' || r > unicode.MaxASCII:
			return ErrInterfaceInvalid
		}
	}
	return nil
}
