package unlock

import (
	"fmt"
	"strings"
)

// ValidateCode trims a retrieval code and rejects values that cannot name a
// capsule. It runs before any store call.
func ValidateCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidCode)
	}
	if strings.Contains(code, "/") {
		return "", fmt.Errorf("%w: contains '/'", ErrInvalidCode)
	}
	return code, nil
}
