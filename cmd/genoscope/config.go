// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genoscope/internal/secrets"
	"github.com/pdiddy/genoscope/pkg/types"
)

// setDefaults registers every field of types.DefaultConfig with viper so
// that config files and GENOSCOPE_* variables can override any of them.
func setDefaults() {
	data, err := yaml.Marshal(types.DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("marshaling default config: %v", err))
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		panic(fmt.Sprintf("unmarshaling default config: %v", err))
	}
	setDefaultTree("", m)

	// Omitted from the marshaled defaults because they are empty.
	viper.SetDefault("search.api_key", "")
	viper.SetDefault("search.databases", []string{})
}

func setDefaultTree(prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			setDefaultTree(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then environment, then flags, with credentials filled from secrets.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	secrets.Apply(&cfg.Search, loadedSecrets)
	if err := cfg.Search.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
