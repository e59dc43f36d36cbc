package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateShortID generates a random short identifier in the format XXXX-XXXX,
// used as the human-facing id printed on box and QR labels.
func GenerateShortID() (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	hex := strings.ToUpper(hex.EncodeToString(bytes))
	return fmt.Sprintf("%s-%s", hex[0:4], hex[4:8]), nil
}
