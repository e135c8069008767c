package sensor

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/onewire"
)

// Verbose formats the address for diagnostic output.
//
// Example:
//
//	{ 0x28, 0xFF, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC }
func (a Address) Verbose() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for i, b := range a {
		fmt.Fprintf(&sb, "0x%02X", b)
		if i < AddressLength-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteString(" }")

	return sb.String()
}

// Compact formats the address as a single 0x-prefixed hex string, the form
// used as the key of the outgoing message.
func (a Address) Compact() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Compact()
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Compact()), nil
}

// SysfsID is the name the Linux w1 subsystem gives the device,
// e.g. 28-0316a2795aff.
func (a Address) SysfsID() string {
	var serial uint64
	for i := 0; i < 6; i++ {
		serial |= uint64(a[1+i]) << (8 * i)
	}

	return fmt.Sprintf("%02x-%012x", a[0], serial)
}

// OneWire converts to the periph representation, which stores the family
// code in the low byte.
func (a Address) OneWire() onewire.Address {
	var v uint64
	for i := AddressLength - 1; i >= 0; i-- {
		v = v<<8 | uint64(a[i])
	}

	return onewire.Address(v)
}

func FromOneWire(v onewire.Address) Address {
	var a Address
	for i := 0; i < AddressLength; i++ {
		a[i] = byte(uint64(v) >> (8 * i))
	}

	return a
}

// ParseSysfsID builds the full ROM code from a w1 device name. The kernel
// drops the CRC byte so it is recomputed.
func ParseSysfsID(id string) (Address, error) {
	var a Address

	family, serial, ok := strings.Cut(id, "-")
	if !ok || len(family) != 2 || len(serial) != 12 {
		return a, fmt.Errorf("invalid w1 device id %q", id)
	}

	f, err := strconv.ParseUint(family, 16, 8)
	if err != nil {
		return a, fmt.Errorf("invalid w1 family code %q: %w", family, err)
	}

	s, err := strconv.ParseUint(serial, 16, 48)
	if err != nil {
		return a, fmt.Errorf("invalid w1 serial %q: %w", serial, err)
	}

	a[0] = byte(f)
	for i := 0; i < 6; i++ {
		a[1+i] = byte(s >> (8 * i))
	}
	a[7] = onewire.CalcCRC(a[:7])

	return a, nil
}

// ParseCompact parses the 0x-prefixed form produced by Compact.
func ParseCompact(s string) (Address, error) {
	var a Address

	raw, ok := strings.CutPrefix(strings.ToLower(s), "0x")
	if !ok || len(raw) != 2*AddressLength {
		return a, fmt.Errorf("invalid device address %q", s)
	}

	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return a, fmt.Errorf("invalid device address %q: %w", s, err)
	}

	return a, nil
}

// ParseAddress accepts either the compact form or a w1 device id.
func ParseAddress(s string) (Address, error) {
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		return ParseCompact(s)
	}

	return ParseSysfsID(s)
}
