// Package barcode turns raw scanner input into platform-specific canonical
// codes.
package barcode

import (
	"strings"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
)

// Platform identifiers.
const (
	MercadoLivre  = "mercadolivre"
	LojaIntegrada = "loja_integrada"
)

// Mercado Livre shipment labels: provider code + fixed prefix + 11 digit suffix.
const (
	ProviderCode  = "MLB"
	NumericPrefix = "40"
	SuffixLength  = 11

	maxSKULength = 64
)

// Normalize parses a scanned string into the canonical code for platform.
func Normalize(raw, platform string) (string, error) {
	input := strings.TrimSpace(raw)
	switch platform {
	case MercadoLivre:
		return normalizeShipment(input)
	case LojaIntegrada:
		return normalizeSKU(input)
	default:
		return "", &apperr.FormatError{Input: raw, Platform: platform, Reason: "unsupported platform"}
	}
}

// normalizeShipment accepts MLB40NNNNNNNNNNN, 40NNNNNNNNNNN or NNNNNNNNNNN.
func normalizeShipment(input string) (string, error) {
	var suffix string
	switch len(input) {
	case len(ProviderCode) + len(NumericPrefix) + SuffixLength:
		if !strings.EqualFold(input[:len(ProviderCode)], ProviderCode) {
			return "", shipmentError(input)
		}
		rest := input[len(ProviderCode):]
		if !strings.HasPrefix(rest, NumericPrefix) {
			return "", shipmentError(input)
		}
		suffix = rest[len(NumericPrefix):]
	case len(NumericPrefix) + SuffixLength:
		if !strings.HasPrefix(input, NumericPrefix) {
			return "", shipmentError(input)
		}
		suffix = input[len(NumericPrefix):]
	case SuffixLength:
		suffix = input
	default:
		return "", shipmentError(input)
	}

	if !isDigits(suffix) {
		return "", shipmentError(input)
	}
	return ProviderCode + NumericPrefix + suffix, nil
}

func shipmentError(input string) error {
	return &apperr.FormatError{
		Input:    input,
		Platform: MercadoLivre,
		Reason:   "expected 11 digits, 13 digits starting with " + NumericPrefix + ", or " + ProviderCode + NumericPrefix + " followed by 11 digits",
	}
}

// NormalizeProduct parses a scanned string into the catalog lookup key for
// platform: a GTIN for Mercado Livre, a SKU for Loja Integrada.
func NormalizeProduct(raw, platform string) (string, error) {
	input := strings.TrimSpace(raw)
	switch platform {
	case MercadoLivre:
		return normalizeGTIN(input)
	case LojaIntegrada:
		return normalizeSKU(input)
	default:
		return "", &apperr.FormatError{Input: raw, Platform: platform, Reason: "unsupported platform"}
	}
}

// normalizeGTIN accepts GTIN-8, GTIN-12 (UPC-A), GTIN-13 (EAN) and GTIN-14.
func normalizeGTIN(input string) (string, error) {
	switch len(input) {
	case 8, 12, 13, 14:
		if isDigits(input) {
			return input, nil
		}
	}
	return "", &apperr.FormatError{Input: input, Platform: MercadoLivre, Reason: "expected a GTIN of 8, 12, 13 or 14 digits"}
}

// StripProviderCode returns the numeric part of a canonical shipment code.
func StripProviderCode(canonical string) string {
	if len(canonical) > len(ProviderCode) && strings.EqualFold(canonical[:len(ProviderCode)], ProviderCode) {
		return canonical[len(ProviderCode):]
	}
	return canonical
}

// Suffix returns the 11 digit suffix of a canonical shipment code.
func Suffix(canonical string) string {
	if len(canonical) < SuffixLength {
		return canonical
	}
	return canonical[len(canonical)-SuffixLength:]
}

func normalizeSKU(input string) (string, error) {
	if input == "" || len(input) > maxSKULength {
		return "", &apperr.FormatError{Input: input, Platform: LojaIntegrada, Reason: "SKU must have 1 to 64 characters"}
	}
	for _, c := range input {
		if !isSKURune(c) {
			return "", &apperr.FormatError{Input: input, Platform: LojaIntegrada, Reason: "SKU contains invalid character " + string(c)}
		}
	}
	return input, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isSKURune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
