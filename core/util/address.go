package util

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Address is an EVM account or token address. It is stored in byte form so
// that two addresses written with different hex casing always compare equal.
type Address struct {
	inner common.Address
}

// NewAddress parses a 0x-prefixed hex address. The input casing is ignored;
// no EIP-55 checksum verification is performed, matching wallet behavior.
func NewAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return Address{}, errors.Errorf("invalid address: %s", s)
	}
	return Address{inner: common.HexToAddress(s)}, nil
}

// MustNewAddress is NewAddress for statically known inputs. It panics on
// malformed input and is intended for registry constants and tests.
func MustNewAddress(s string) Address {
	addr, err := NewAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Hex returns the lowercase 0x-prefixed representation.
func (a Address) Hex() string {
	return strings.ToLower(a.inner.Hex())
}

// Checksum returns the EIP-55 checksummed representation, the form shown to
// users and sent to explorers.
func (a Address) Checksum() string {
	return a.inner.Hex()
}

// Equal reports whether two addresses refer to the same account, regardless
// of the casing they were parsed from.
func (a Address) Equal(b Address) bool {
	return a.inner == b.inner
}

// IsZero reports whether the address is the zero value (no account).
func (a Address) IsZero() bool {
	return a.inner == (common.Address{})
}

func (a Address) String() string {
	return a.Hex()
}

// MarshalJSON encodes the address as its lowercase hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

// UnmarshalJSON decodes a hex string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
