package config

import "strings"

// Config contains all application settings
type Config struct {
	BindPort      int    `mapstructure:"PORT" yaml:"port"`
	BindHost      string `mapstructure:"HOST" yaml:"host"`
	DatabaseURL   string `mapstructure:"DATABASE_URL" yaml:"database_url"`
	NATSServerURL string `mapstructure:"NATS_URL" yaml:"nats_url"`

	// Protocol settings
	HeartbeatInterval  int `mapstructure:"HEARTBEAT_INTERVAL" yaml:"heartbeat_interval"`
	CallTimeoutSeconds int `mapstructure:"CALL_TIMEOUT" yaml:"call_timeout"`

	// Guardrail settings
	AllowGenericConfig  bool    `mapstructure:"ALLOW_GENERIC_CONFIG" yaml:"allow_generic_config"`
	AllowedConfigKeys   string  `mapstructure:"ALLOWED_CONFIG_KEYS" yaml:"allowed_config_keys"`
	PowerLimitMinKW     float64 `mapstructure:"POWER_LIMIT_MIN_KW" yaml:"power_limit_min_kw"`
	PowerLimitMaxKW     float64 `mapstructure:"POWER_LIMIT_MAX_KW" yaml:"power_limit_max_kw"`
	RateLimitWindowSecs int     `mapstructure:"RATE_LIMIT_WINDOW" yaml:"rate_limit_window"`
	RateLimitMaxConfig  int     `mapstructure:"RATE_LIMIT_MAX_CONFIG" yaml:"rate_limit_max_config"`
	RateLimitMaxPower   int     `mapstructure:"RATE_LIMIT_MAX_POWER" yaml:"rate_limit_max_power"`
	AuditEnabled        bool    `mapstructure:"AUDIT_ENABLED" yaml:"audit_enabled"`

	// Version
	BuildVersion string `yaml:"-"`
	BuildHash    string `yaml:"-"`
	BuildTime    string `yaml:"-"`
}

// AllowedConfigKeySet splits the comma separated ALLOWED_CONFIG_KEYS setting
// into the safe set used by the guardrail allowlist check.
func (c *Config) AllowedConfigKeySet() []string {
	keys := make([]string, 0)
	for _, k := range strings.Split(c.AllowedConfigKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
