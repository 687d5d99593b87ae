package format

import (
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"frontend/internal/market_client"

	"golang.org/x/crypto/sha3"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
)

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidEthereumAddress checks the 0x-prefixed 40 hex digit shape. It does
// not verify the checksum casing.
func ValidEthereumAddress(address string) bool {
	return addressPattern.MatchString(address)
}

// ChecksumAddress returns the EIP-55 mixed-case form of address.
func ChecksumAddress(address string) (string, error) {
	if !ValidEthereumAddress(address) {
		return "", errors.New("invalid ethereum address")
	}
	lower := strings.ToLower(address[2:])

	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(lower))
	digest := hex.EncodeToString(hash.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out), nil
}

// ErrorMessage extracts the user-facing text of err.
func ErrorMessage(err error) string {
	if err == nil {
		return "An unknown error occurred"
	}
	var apiErr *market_client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// IsNetworkError reports whether err looks like a connectivity failure.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *market_client.APIError
	if errors.As(err, &apiErr) && apiErr.Status == 0 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Network") ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "fetch") ||
		strings.Contains(msg, "connection")
}
