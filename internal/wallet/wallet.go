// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// LooksLikeAddress is the cheap routing heuristic: plausible length and
// base58 alphabet only. Used to decide whether a chat message is meant as a
// wallet address at all, before strict validation.
func LooksLikeAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune(base58Alphabet, c) {
			return false
		}
	}
	return true
}

// ValidateAddress checks that s is a real Solana public key: base58 that
// decodes to 32 bytes and parses as a pubkey.
func ValidateAddress(s string) error {
	if len(s) < 32 || len(s) > 44 {
		return fmt.Errorf("address length %d out of range [32, 44]", len(s))
	}

	decoded, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("address is not valid base58: %w", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("address decodes to %d bytes, expected 32", len(decoded))
	}

	if _, err := solana.PublicKeyFromBase58(s); err != nil {
		return fmt.Errorf("address is not a valid public key: %w", err)
	}
	return nil
}
