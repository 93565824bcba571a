package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Load resolves the secret identified by name. A non-empty file path takes
// precedence over the inline value. The result is always trimmed; an empty
// result is an error so that misconfiguration surfaces early with context.
func Load(name, file, value string) (string, error) {
	if name = strings.TrimSpace(name); name == "" {
		name = "secret"
	}

	if file = strings.TrimSpace(file); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if value = strings.TrimSpace(value); value == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}

	return value, nil
}
