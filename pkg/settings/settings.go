// Package settings manages persistent user settings for the netpec CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/newtron-network/netpec/pkg/util"
)

// Environment variables that override the settings file
const (
	EnvTopology    = "NETPEC_TOPOLOGY"
	EnvRedisAddr   = "NETPEC_REDIS_ADDR"
	EnvRedisDB     = "NETPEC_REDIS_DB"
	EnvSSHUser     = "NETPEC_SSH_USER"
	EnvSSHPassword = "NETPEC_SSH_PASSWORD"
	EnvAuditLog    = "NETPEC_AUDIT_LOG"
)

// Fallbacks for unset fields
const (
	DefaultRedisAddr = "127.0.0.1:6379"
	DefaultFormat    = "table"
)

// Settings holds persistent user preferences
type Settings struct {
	// DefaultTopology is the topology YAML used when -t is not given
	DefaultTopology string `json:"default_topology,omitempty"`

	RedisAddr string `json:"redis_addr,omitempty"`
	RedisDB   int    `json:"redis_db,omitempty"`

	// RedisSSHHost reaches a Redis that only listens on a jump host's loopback
	RedisSSHHost string `json:"redis_ssh_host,omitempty"`

	SSHUser string `json:"ssh_user,omitempty"`

	// SSHPassword is only read from the environment, never saved
	SSHPassword string `json:"-"`

	AuditLog      string `json:"audit_log,omitempty"`
	DefaultFormat string `json:"default_format,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "netpec_settings.json"
	}
	return filepath.Join(home, ".netpec", "settings.json")
}

// Load reads settings from the default location and applies the
// environment
func Load() (*Settings, error) {
	s, err := LoadFrom(DefaultSettingsPath())
	if err != nil {
		return nil, err
	}
	s.ApplyEnv()
	return s, nil
}

// LoadFrom reads settings from a specific path. A missing file yields empty
// settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return s, nil
}

// ApplyEnv loads .env from the working directory, if present, and lets
// NETPEC_* variables override the file.
func (s *Settings) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv(EnvTopology); v != "" {
		s.DefaultTopology = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		s.RedisAddr = v
	}
	if v := os.Getenv(EnvRedisDB); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			s.RedisDB = db
		} else {
			util.WithField("env", EnvRedisDB).Warnf("ignoring %q: %v", v, err)
		}
	}
	if v := os.Getenv(EnvSSHUser); v != "" {
		s.SSHUser = v
	}
	if v := os.Getenv(EnvSSHPassword); v != "" {
		s.SSHPassword = v
	}
	if v := os.Getenv(EnvAuditLog); v != "" {
		s.AuditLog = v
	}
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// GetRedisAddr returns the Redis address (with fallback)
func (s *Settings) GetRedisAddr() string {
	return util.CoalesceString(s.RedisAddr, DefaultRedisAddr)
}

// GetFormat returns the default export format (with fallback)
func (s *Settings) GetFormat() string {
	return util.CoalesceString(s.DefaultFormat, DefaultFormat)
}

// GetAuditLog returns the audit log path, by default next to the settings
// file
func (s *Settings) GetAuditLog() string {
	if s.AuditLog != "" {
		return s.AuditLog
	}
	return filepath.Join(filepath.Dir(DefaultSettingsPath()), "audit.log")
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}

// field maps a settings key to its accessors
type field struct {
	get func(*Settings) string
	set func(*Settings, string) error
}

func stringField(ptr func(*Settings) *string) field {
	return field{
		get: func(s *Settings) string { return *ptr(s) },
		set: func(s *Settings, v string) error { *ptr(s) = v; return nil },
	}
}

var fields = map[string]field{
	"default_topology": stringField(func(s *Settings) *string { return &s.DefaultTopology }),
	"redis_addr":       stringField(func(s *Settings) *string { return &s.RedisAddr }),
	"redis_ssh_host":   stringField(func(s *Settings) *string { return &s.RedisSSHHost }),
	"ssh_user":         stringField(func(s *Settings) *string { return &s.SSHUser }),
	"audit_log":        stringField(func(s *Settings) *string { return &s.AuditLog }),
	"default_format":   stringField(func(s *Settings) *string { return &s.DefaultFormat }),
	"redis_db": {
		get: func(s *Settings) string { return strconv.Itoa(s.RedisDB) },
		set: func(s *Settings, v string) error {
			db, err := strconv.Atoi(v)
			if err != nil || db < 0 {
				return fmt.Errorf("redis_db must be a non-negative integer, got %q", v)
			}
			s.RedisDB = db
			return nil
		},
	},
}

// Keys returns the names accepted by Get and Set, sorted
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a setting by key
func (s *Settings) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", unknownKey(key)
	}
	return f.get(s), nil
}

// Set assigns a setting by key
func (s *Settings) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return unknownKey(key)
	}
	return f.set(s, value)
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown setting %q (valid: %s): %w", key, strings.Join(Keys(), ", "), util.ErrNotFound)
}
