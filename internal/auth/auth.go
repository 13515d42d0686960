// Package auth implements the admin key that guards credential setup.
//
// Keys have the form bipagem_<prefix>_<secret>. Only the prefix and a
// SHA-256 hash of the secret are kept in memory.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"math/big"
	"strings"
)

const (
	servicePrefix = "bipagem"
	prefixLength  = 12
	secretBytes   = 32
)

var ErrInvalidKeyFormat = errors.New("invalid admin key format")

// Key is the verifiable form of an admin key.
type Key struct {
	Prefix string
	Hash   []byte
}

// GenerateAdminKey returns a new display key and its verifiable form.
func GenerateAdminKey() (string, Key, error) {
	prefixBytes := make([]byte, prefixLength)
	if _, err := rand.Read(prefixBytes); err != nil {
		return "", Key{}, err
	}
	for i := range prefixBytes {
		prefixBytes[i] = alphanumeric[int(prefixBytes[i])%len(alphanumeric)]
	}
	prefix := string(prefixBytes)

	secretRaw := make([]byte, secretBytes)
	if _, err := rand.Read(secretRaw); err != nil {
		return "", Key{}, err
	}
	secret := encodeBase62(secretRaw)

	return servicePrefix + "_" + prefix + "_" + secret, Key{Prefix: prefix, Hash: HashSecret(secret)}, nil
}

// ParseKey converts a configured display key into its verifiable form.
func ParseKey(displayKey string) (Key, error) {
	prefix, secret, err := ParseAdminKey(displayKey)
	if err != nil {
		return Key{}, err
	}
	return Key{Prefix: prefix, Hash: HashSecret(secret)}, nil
}

// Verify reports whether a presented display key matches k.
func (k Key) Verify(displayKey string) bool {
	prefix, secret, err := ParseAdminKey(displayKey)
	if err != nil || prefix != k.Prefix {
		return false
	}
	return subtle.ConstantTimeCompare(HashSecret(secret), k.Hash) == 1
}

func HashSecret(secret string) []byte {
	h := sha256.Sum256([]byte(secret))
	return h[:]
}

// ParseAdminKey splits a display key into prefix and secret.
func ParseAdminKey(displayKey string) (prefix string, secret string, err error) {
	if !strings.HasPrefix(displayKey, servicePrefix+"_") {
		return "", "", ErrInvalidKeyFormat
	}
	rest := strings.TrimPrefix(displayKey, servicePrefix+"_")
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", ErrInvalidKeyFormat
	}
	if len(parts[0]) != prefixLength {
		return "", "", ErrInvalidKeyFormat
	}
	for _, c := range parts[0] {
		if !isAlphanumeric(c) {
			return "", "", ErrInvalidKeyFormat
		}
	}
	return parts[0], parts[1], nil
}

var alphanumeric = []byte("abcdefghijklmnopqrstuvwxyz0123456789")

// base62Alphabet includes A-Za-z0-9 (no special characters)
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func encodeBase62(data []byte) string {
	num := new(big.Int).SetBytes(data)
	base := big.NewInt(62)
	zero := big.NewInt(0)
	var result []byte

	for num.Cmp(zero) > 0 {
		mod := new(big.Int)
		num.DivMod(num, base, mod)
		result = append([]byte{base62Alphabet[mod.Int64()]}, result...)
	}

	for _, b := range data {
		if b != 0 {
			break
		}
		result = append([]byte{'0'}, result...)
	}

	if len(result) == 0 {
		return "0"
	}
	return string(result)
}

func isAlphanumeric(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
