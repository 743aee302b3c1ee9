package tickets

import (
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

const codeBytes = 10

// newCode returns a short, unguessable admission code such as "MYT-3mJr7AoUXx2Wqd".
func newCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate ticket code: %w", err)
	}
	return "MYT-" + base58.Encode(buf), nil
}
