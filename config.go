package admincore

import (
	"errors"
	"time"
)

// Config defines a public type used by admincore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session SessionConfig
	Notice  NoticeConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by admincore APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// AllowedRoles gates both Login and Restore. Empty means the default
	// administrator allow-list.
	AllowedRoles []Role
	// TokenEntryName is the credential entry holding the bearer token.
	TokenEntryName string
	// UserEntryName is the credential entry holding the serialized user.
	UserEntryName string
	// CredentialTTL bounds both entries. Zero means 7 days.
	CredentialTTL time.Duration
}

/*
====================================
NOTICE CONFIG
====================================
*/

// NoticeConfig defines a public type used by admincore APIs.
//
// NoticeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NoticeConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by admincore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			AllowedRoles:   []Role{RoleAdmin, RoleSuperAdmin},
			TokenEntryName: "access_token",
			UserEntryName:  "user",
			CredentialTTL:  7 * 24 * time.Hour,
		},
		Notice: NoticeConfig{
			Enabled:    true,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.AllowedRoles = append([]Role(nil), cfg.Session.AllowedRoles...)
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.Session.TokenEntryName == "" {
		return errors.New("Session.TokenEntryName must not be empty")
	}
	if c.Session.UserEntryName == "" {
		return errors.New("Session.UserEntryName must not be empty")
	}
	if c.Session.TokenEntryName == c.Session.UserEntryName {
		return errors.New("Session token and user entry names must differ")
	}
	if c.Session.CredentialTTL < 0 {
		return errors.New("Session.CredentialTTL must not be negative")
	}
	if len(c.Session.AllowedRoles) == 0 {
		return errors.New("Session.AllowedRoles must not be empty")
	}
	for _, r := range c.Session.AllowedRoles {
		if r == "" {
			return errors.New("Session.AllowedRoles must not contain empty roles")
		}
	}
	if c.Notice.Enabled && c.Notice.BufferSize < 0 {
		return errors.New("Notice.BufferSize must not be negative")
	}
	return nil
}
