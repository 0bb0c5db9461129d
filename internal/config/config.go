package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// Backend selects the blob storage implementation: "bolt", "sqlite", or "memory".
	Backend string `json:"backend,omitempty"`

	// Bind is the address the serve daemon listens on.
	Bind string `json:"bind,omitempty"`

	// Port is the daemon HTTP/websocket port.
	Port int `json:"port,omitempty"`

	// MenuLimit bounds the number of comments projected into the quick-access menu.
	MenuLimit int `json:"menu_limit,omitempty"`

	// InsertTimeoutMS is how long an insertText request waits for the page
	// context before falling back to clipboard-only.
	InsertTimeoutMS int `json:"insert_timeout_ms,omitempty"`

	// DisableSeeding skips sample-comment seeding of an empty store on serve.
	DisableSeeding bool `json:"disable_seeding,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend:         "bolt",
		Bind:            "127.0.0.1",
		Port:            7333,
		MenuLimit:       8,
		InsertTimeoutMS: 2000,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.quip.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Backend = overlay.Backend
	if result.Backend == "" {
		result.Backend = base.Backend
	}

	result.Bind = overlay.Bind
	if result.Bind == "" {
		result.Bind = base.Bind
	}

	result.Port = overlay.Port
	if result.Port == 0 {
		result.Port = base.Port
	}

	result.MenuLimit = overlay.MenuLimit
	if result.MenuLimit == 0 {
		result.MenuLimit = base.MenuLimit
	}

	result.InsertTimeoutMS = overlay.InsertTimeoutMS
	if result.InsertTimeoutMS == 0 {
		result.InsertTimeoutMS = base.InsertTimeoutMS
	}

	// Booleans: overlay wins if true, else base
	result.DisableSeeding = base.DisableSeeding || overlay.DisableSeeding

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
