package chains

import (
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// validSolanaAddress checks that addr decodes to a 32-byte ed25519 point on
// the curve. Signing wallets are keypair accounts, so unlike PDAs they must
// be on-curve.
func validSolanaAddress(addr string) bool {
	decoded, err := base58.Decode(addr)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}

// validEvmAddress checks the 0x-prefixed 20-byte hex shape.
func validEvmAddress(addr string) bool {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return false
	}
	for _, c := range addr[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
