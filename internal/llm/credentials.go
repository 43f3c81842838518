package llm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ResolveAPIKey returns the first non-empty key from, in order, the explicit
// value, the environment variable envVar, and the contents of keyFile.
func ResolveAPIKey(explicit, envVar, keyFile string) (string, error) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}

	if envVar != "" {
		if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
			return key, nil
		}
	}

	if keyFile != "" {
		data, err := os.ReadFile(keyFile)
		switch {
		case err == nil:
			if key := strings.TrimSpace(string(data)); key != "" {
				return key, nil
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return "", fmt.Errorf("%w: read %s: %w", ErrConfig, keyFile, err)
		}
	}

	return "", fmt.Errorf("%w: %w (set %s or create %s)", ErrConfig, ErrMissingAPIKey, envVar, keyFile)
}
