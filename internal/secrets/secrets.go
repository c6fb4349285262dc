// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads NCBI credentials from a directory of plain-text files,
// a dotenv file, and the process environment.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: ncbi-api-key, ncbi-email.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/genoscope/pkg/types"
)

// Key file names.
const (
	KeyAPIKey = "ncbi-api-key"
	KeyEmail  = "ncbi-email"
)

// envNames maps environment variables to key file names.
var envNames = map[string]string{
	"NCBI_API_KEY": KeyAPIKey,
	"NCBI_EMAIL":   KeyEmail,
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnvFile reads NCBI_API_KEY and NCBI_EMAIL from a dotenv file and
// returns them under their key file names. A missing file yields an empty map.
func LoadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return fromEnv(func(k string) string { return env[k] }), nil
}

// FromEnviron reads NCBI_API_KEY and NCBI_EMAIL from the process environment.
func FromEnviron() map[string]string {
	return fromEnv(os.Getenv)
}

func fromEnv(get func(string) string) map[string]string {
	out := make(map[string]string)
	for env, key := range envNames {
		if v := strings.TrimSpace(get(env)); v != "" {
			out[key] = v
		}
	}
	return out
}

// Resolve merges credentials from every source. The secrets directory wins
// over the dotenv file, which wins over the process environment.
func Resolve(dir, envFile string) (map[string]string, error) {
	merged := FromEnviron()

	if envFile != "" {
		fileEnv, err := LoadEnvFile(envFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fileEnv {
			merged[k] = v
		}
	}

	files, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for k, v := range files {
		merged[k] = v
	}
	return merged, nil
}

// Apply fills the API key and contact email in cfg from s. Values already
// set in cfg are kept.
func Apply(cfg *types.SearchConfig, s map[string]string) {
	if cfg.APIKey == "" {
		cfg.APIKey = s[KeyAPIKey]
	}
	if cfg.Email == "" {
		cfg.Email = s[KeyEmail]
	}
}
