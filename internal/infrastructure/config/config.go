package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the RV-C↔MQTT bridge.
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	RVC       RVCConfig       `yaml:"rvc"`
	Transport TransportConfig `yaml:"transport"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Audit     AuditConfig     `yaml:"audit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains deployment-identifying information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// RVCConfig holds the core's protocol-level and policy settings —
// spec.md §6's "recognized configuration options".
type RVCConfig struct {
	SpecFile          string   `yaml:"spec_file"`
	EntityMappingFile string   `yaml:"entity_mapping_file"`
	TargetsFile       string   `yaml:"targets_file"`
	SourceAddress     uint8    `yaml:"source_address"`
	RetryCount        int      `yaml:"retry_count"`
	RetryDelayMS      int      `yaml:"retry_delay_ms"`
	GlobalRate        int      `yaml:"global_rate"`
	EntityRate        int      `yaml:"entity_rate"`
	EntityCooldownMS  int      `yaml:"entity_cooldown_ms"`
	Denylist          []string `yaml:"denylist"`
	Allowlist         []string `yaml:"allowlist"`
	AllowedFamilies   []string `yaml:"allowed_families"`
}

// TransportConfig describes the SLCAN-over-TCP connection to the bus.
type TransportConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
	Topics    MQTTTopicsConfig    `yaml:"topics"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// MQTTTopicsConfig holds the topic prefix the bridge publishes under and
// subscribes to, per spec.md §6's five channels (state, command, ack,
// error, discovery).
type MQTTTopicsConfig struct {
	Prefix string `yaml:"prefix"`
}

// AuditConfig contains rotating audit log settings.
type AuditConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file, applies environment variable
// overrides, and validates the result.
//
// Environment variables follow the pattern: RVC_BRIDGE_SECTION_KEY.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with spec.md §6's documented defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "rvc-bridge-001",
			Name: "RV-C Bridge",
		},
		RVC: RVCConfig{
			SpecFile:          "./config/rvc-spec.yaml",
			EntityMappingFile: "./config/entities.yaml",
			TargetsFile:       "./config/targets.yaml",
			SourceAddress:     99,
			RetryCount:        3,
			RetryDelayMS:      100,
			GlobalRate:        10,
			EntityRate:        2,
			EntityCooldownMS:  500,
		},
		Transport: TransportConfig{
			Host:              "localhost",
			Port:              5000,
			ConnectTimeout:    10 * time.Second,
			ReadTimeout:       30 * time.Second,
			ReconnectInterval: 5 * time.Second,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "rvc-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			Topics: MQTTTopicsConfig{
				Prefix: "rvc",
			},
		},
		Audit: AuditConfig{
			Path:       "./data/audit.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables follow the pattern:
// RVC_BRIDGE_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RVC_BRIDGE_TRANSPORT_HOST"); v != "" {
		cfg.Transport.Host = v
	}
	if v := os.Getenv("RVC_BRIDGE_TRANSPORT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Transport.Port = n
		}
	}
	if v := os.Getenv("RVC_BRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RVC_BRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RVC_BRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("RVC_BRIDGE_SPEC_FILE"); v != "" {
		cfg.RVC.SpecFile = v
	}
	if v := os.Getenv("RVC_BRIDGE_ENTITY_MAPPING_FILE"); v != "" {
		cfg.RVC.EntityMappingFile = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if c.RVC.SpecFile == "" {
		errs = append(errs, "rvc.spec_file is required")
	}
	if c.RVC.EntityMappingFile == "" {
		errs = append(errs, "rvc.entity_mapping_file is required")
	}
	if c.RVC.TargetsFile == "" {
		errs = append(errs, "rvc.targets_file is required")
	}
	if c.Transport.Host == "" {
		errs = append(errs, "transport.host is required")
	}
	if c.Transport.Port < 1 || c.Transport.Port > 65535 {
		errs = append(errs, "transport.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	for _, f := range c.RVC.AllowedFamilies {
		switch f {
		case "light", "climate", "switch":
		default:
			errs = append(errs, fmt.Sprintf("rvc.allowed_families: unknown family %q", f))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
