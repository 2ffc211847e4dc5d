package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// HashAccount returns the hex-encoded SHA256 of an account number after
// dropping whitespace and upper-casing, so "gb29 nwbk 6016" and
// "GB29NWBK6016" hash the same.
func HashAccount(account string) string {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, account)
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
