package utils

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Default leaf thresholds. Multi-core backends amortize larger chunks before
// a network hop is worthwhile.
const (
	DefaultLeafThreshold          = 16
	DefaultMultiCoreLeafThreshold = 128
	DefaultDialTimeoutMS          = 5000
)

// Config holds orchestrator configuration
type Config struct {
	Listen                 string   `json:"listen"`
	Backends               []string `json:"backends"`
	LeafThreshold          int      `json:"leafThreshold"`
	MultiCoreLeafThreshold int      `json:"multiCoreLeafThreshold"`
	DialTimeoutMS          int      `json:"dialTimeoutMs"`
	MaxInFlight            int      `json:"maxInFlight,omitempty"`
}

// DefaultConfig returns a configuration with the default thresholds and no
// backends.
func DefaultConfig() *Config {
	return &Config{
		Listen:                 ":8080",
		LeafThreshold:          DefaultLeafThreshold,
		MultiCoreLeafThreshold: DefaultMultiCoreLeafThreshold,
		DialTimeoutMS:          DefaultDialTimeoutMS,
	}
}

// DialTimeout returns the configured dial timeout.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMS) * time.Millisecond
}

// ParseBackends parses a comma-separated list of backend addresses. Blank
// entries and duplicates are dropped; order is preserved.
func ParseBackends(list string) []string {
	parts := lo.Map(strings.Split(list, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Uniq(lo.Compact(parts))
}

// ValidateConfig validates orchestrator configuration
func ValidateConfig(config *Config) error {
	if len(config.Backends) == 0 {
		return fmt.Errorf("at least one backend address is required")
	}

	for _, addr := range config.Backends {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid backend address %q: %w", addr, err)
		}
	}

	if config.LeafThreshold <= 0 {
		return fmt.Errorf("leaf threshold must be positive")
	}

	if config.MultiCoreLeafThreshold <= 0 {
		return fmt.Errorf("multi-core leaf threshold must be positive")
	}

	if config.DialTimeoutMS <= 0 {
		return fmt.Errorf("dial timeout must be positive")
	}

	if config.MaxInFlight < 0 {
		return fmt.Errorf("max in-flight calls must not be negative")
	}

	return nil
}

// LoadConfig loads configuration from a JSON file. Fields missing from the
// file keep their defaults.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return config, nil
}

// SaveConfig writes configuration to a JSON file
func SaveConfig(filepath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath, data, 0644)
}
