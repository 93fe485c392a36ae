package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseRawAmount converts a human decimal string ("0.5") into raw token units
// at the given decimals. Digits beyond the token's precision are rejected
// rather than silently truncated. Arbitrary-precision integer math only, no
// floats touch on-chain amounts.
func ParseRawAmount(raw string, decimals uint8) (*big.Int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("negative amount %q", raw)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", raw, decimals)
	}

	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return v, nil
}
