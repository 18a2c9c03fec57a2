package usecases

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

func padLeft(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat("0", length-len(s)) + s
}

// uuidToBytes32Hex renders a deposit ID as a left-padded 32-byte hex
// string.
func uuidToBytes32Hex(id uuid.UUID) string {
	b := uuidToBytes32(id)
	hexID := hex.EncodeToString(b[:])
	return padLeft(hexID, EVMWordSizeHex)
}

func uuidToBytes32(id uuid.UUID) [32]byte {
	var out [32]byte
	copy(out[16:], id[:])
	return out
}

// convertToSmallestUnit parses a decimal-string amount (as an operator
// would type a TokenBalanceConfig threshold) into its integer
// smallest-unit representation at the given decimals, without floating
// point.
func convertToSmallestUnit(amount string, decimals int) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("invalid decimals: %d", decimals)
	}

	normalized := strings.TrimSpace(amount)
	if normalized == "" {
		return "", fmt.Errorf("amount is required")
	}
	if strings.HasPrefix(normalized, "-") {
		return "", fmt.Errorf("amount must be positive")
	}
	if after, ok := strings.CutPrefix(normalized, "+"); ok {
		normalized = after
	}

	parts := strings.Split(normalized, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("invalid amount format")
	}

	wholePart := parts[0]
	if wholePart == "" {
		wholePart = "0"
	}
	fractionalPart := ""
	if len(parts) == 2 {
		fractionalPart = parts[1]
	}

	isDigits := func(s string) bool {
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	}

	if !isDigits(wholePart) || (fractionalPart != "" && !isDigits(fractionalPart)) {
		return "", fmt.Errorf("amount must be numeric")
	}

	if len(fractionalPart) > decimals {
		return "", fmt.Errorf("amount has too many decimal places (max %d)", decimals)
	}

	fractionalPadded := fractionalPart + strings.Repeat("0", decimals-len(fractionalPart))
	raw := strings.TrimLeft(wholePart+fractionalPadded, "0")
	if raw == "" {
		raw = "0"
	}
	return raw, nil
}

func addDecimalStrings(a, b string) (string, error) {
	aa := new(big.Int)
	if _, ok := aa.SetString(a, 10); !ok {
		return "", fmt.Errorf("invalid decimal string: %s", a)
	}
	bb := new(big.Int)
	if _, ok := bb.SetString(b, 10); !ok {
		return "", fmt.Errorf("invalid decimal string: %s", b)
	}
	return new(big.Int).Add(aa, bb).String(), nil
}

func normalizeEvmAddress(addr string) string {
	if addr == "" || addr == "native" || addr == "0x0000000000000000000000000000000000000000" {
		return "0x0000000000000000000000000000000000000000"
	}
	if !strings.HasPrefix(addr, "0x") {
		return "0x0000000000000000000000000000000000000000"
	}
	return addr
}
