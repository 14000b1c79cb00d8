package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const idLength = 32

func generateID() (string, error) {
	bytes := make([]byte, idLength/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// ValidID reports whether value has the shape of a store identifier: exactly
// 32 lowercase hexadecimal characters. Callers check this before touching the
// store so malformed ids never reach a query.
func ValidID(value string) bool {
	if len(value) != idLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
