package client

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// MinPinLength is the shortest PIN accepted when creating a profile.
const MinPinLength = 3

const (
	fnvOffset32 = 0x811c9dc5
	fnvPrime32  = 0x01000193
)

// PinHash returns the 32-bit FNV-1a hash of the trimmed PIN as 8 hex digits.
// The input is hashed per UTF-16 code unit so hashes stored by other clients
// stay comparable. It gates a profile on a shared device and is not a secret.
func PinHash(pin string) string {
	h := uint32(fnvOffset32)
	for _, unit := range utf16.Encode([]rune(strings.TrimSpace(pin))) {
		h ^= uint32(unit)
		h *= fnvPrime32
	}
	return fmt.Sprintf("%08x", h)
}

// VerifyPin reports whether pin hashes to the stored hash.
func VerifyPin(storedHash, pin string) bool {
	return storedHash != "" && PinHash(pin) == storedHash
}
