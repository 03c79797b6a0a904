package lib

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"os"
)

var (
	// ErrMissingEnvVar is used to signal when an env var is missing
	ErrMissingEnvVar = fmt.Errorf("missing env var")
)

// GetCompressedEnvVar looks up an env var and base64-decodes and
// gunzips it if present
func GetCompressedEnvVar(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", ErrMissingEnvVar
	}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", err
	}

	r, err := gzip.NewReader(bytes.NewReader(decoded))
	if err != nil {
		return "", err
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// GetChefClientKey attempts to retrieve the chef client private key
// from compressed env vars CHEF_CLIENT_KEY and
// REDDALERT_CHEF_CLIENT_KEY, then falls back to reading keyFile
func GetChefClientKey(keyFile string) string {
	for _, key := range []string{"CHEF_CLIENT_KEY", "REDDALERT_CHEF_CLIENT_KEY"} {
		value, err := GetCompressedEnvVar(key)
		if err == nil {
			return value
		}
	}

	if keyFile == "" {
		return ""
	}

	b, err := os.ReadFile(keyFile)
	if err != nil {
		return ""
	}

	return string(b)
}
