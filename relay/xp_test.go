package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPForSwap(t *testing.T) {
	tests := []struct {
		name     string
		amountIn string
		decimals uint8
		want     uint64
	}{
		{"below one whole token", "500000000000000000", 18, 10},
		{"exactly one token", "1000000000000000000", 18, 11},
		{"one and a half tokens floors", "1500000000000000000", 18, 11},
		{"fifty tokens", "50000000000000000000", 18, 60},
		{"bonus is capped", "1000000000000000000000", 18, 60},
		{"six decimal token", "2500000", 6, 12},
		{"unparseable amount earns the base", "garbage", 18, 10},
		{"zero amount", "0", 18, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, XPForSwap(tt.amountIn, tt.decimals))
		})
	}
}
