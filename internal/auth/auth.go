// Package auth resolves the API key used against the upstream price API.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// EnvAPIKey is the environment variable consulted when no key is configured.
const EnvAPIKey = "GRIDSTATUS_API_KEY"

// ErrNoAPIKey is returned when no source provides a key.
var ErrNoAPIKey = errors.New("api key not set: configure api.api_key, api.api_key_file or " + EnvAPIKey)

// Credentials holds the resolved API key.
type Credentials struct {
	APIKey string
	Source string // "config", "file" or "env"
}

// Resolve picks the API key in order: explicit key, key file, environment.
func Resolve(apiKey, keyFile string) (*Credentials, error) {
	if k := strings.TrimSpace(apiKey); k != "" {
		return &Credentials{APIKey: k, Source: "config"}, nil
	}

	if keyFile != "" {
		k, err := LoadKeyFile(keyFile)
		if err != nil {
			return nil, err
		}
		return &Credentials{APIKey: k, Source: "file"}, nil
	}

	if k := strings.TrimSpace(os.Getenv(EnvAPIKey)); k != "" {
		return &Credentials{APIKey: k, Source: "env"}, nil
	}

	return nil, ErrNoAPIKey
}

// LoadKeyFile reads a key from path, ignoring surrounding whitespace.
func LoadKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read key file: %w", err)
	}
	k := strings.TrimSpace(string(data))
	if k == "" {
		return "", fmt.Errorf("key file %s is empty", path)
	}
	return k, nil
}

// Redacted returns the key with all but the last four characters masked, for logs.
func (c *Credentials) Redacted() string {
	if len(c.APIKey) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}
