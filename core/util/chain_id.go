package util

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseChainID parses a chain identifier in either of the forms wallets emit:
// 0x-prefixed hex ("0x61") or plain decimal ("97").
func ParseChainID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty chain id")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		id, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid hex chain id %q", s)
		}
		return id, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid chain id %q", s)
	}
	return id, nil
}

// ChainIDsEqual compares two chain identifiers regardless of their textual
// form (hex vs decimal). Unparseable identifiers never compare equal.
func ChainIDsEqual(a, b string) bool {
	idA, errA := ParseChainID(a)
	idB, errB := ParseChainID(b)
	return errA == nil && errB == nil && idA == idB
}
