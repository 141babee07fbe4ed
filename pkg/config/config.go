// Package config loads and validates the fieldgate node configuration.
// The surface is fixed at entity creation: a config is parsed from YAML,
// filled with defaults, validated with struct tags, and never reloaded.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/fieldgate/fieldgate/pkg/telemetry"
)

// Default values for the entity configuration surface.
const (
	DefaultFieldSize          = 1024
	DefaultTickInterval       = 1000 * time.Millisecond
	DefaultCriticalThreshold  = 0.72
	DefaultSecondaryFloor     = 0.65
	DefaultInitialContainment = 0.05
	DefaultVorticityTrigger   = 0.7
	DefaultPeerTimeout        = 2 * time.Second
	DefaultListenAddress      = ":7433"
)

// Config is the full configuration of a fieldgate node.
type Config struct {
	// Entity holds the per-entity simulation and governance parameters.
	Entity EntityConfig `yaml:"entity"`

	// Peers lists the known peer entities for the handshake protocol.
	Peers []PeerConfig `yaml:"peers" validate:"dive"`

	// ListenAddress is the address the peer-facing HTTP server binds to.
	ListenAddress string `yaml:"listen_address" validate:"required"`

	// StorePath is the SQLite audit store path; empty keeps the audit
	// log in memory only.
	StorePath string `yaml:"store_path"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// EntityConfig holds the parameters fixed at entity creation.
type EntityConfig struct {
	// FieldSize is the fixed oscillator count of the entity's field.
	FieldSize int `yaml:"field_size" validate:"required,min=1"`

	// Seed seeds the one-time field initialization. Zero means derive
	// a seed from the clock.
	Seed int64 `yaml:"seed"`

	// TickInterval is the homeostasis self-rescheduling period.
	TickInterval time.Duration `yaml:"tick_interval" validate:"required,min=1ms"`

	// CriticalThreshold is the stability score below which the entity is
	// considered critical.
	CriticalThreshold float64 `yaml:"critical_threshold" validate:"required,gt=0,lt=1"`

	// SecondaryFloor is the stability score below which the homeostasis
	// loop escalates to a gentle seal. Must not exceed CriticalThreshold.
	SecondaryFloor float64 `yaml:"secondary_floor" validate:"required,gt=0,lt=1,ltefield=CriticalThreshold"`

	// InitialContainment is the containment ratio at creation.
	InitialContainment float64 `yaml:"initial_containment" validate:"gte=0,lte=0.9"`

	// VorticityTrigger is the stimulus vorticity above which a peer
	// handshake may be attempted.
	VorticityTrigger float64 `yaml:"vorticity_trigger" validate:"gt=0"`

	// PeerTimeout bounds the best-effort peer stability query.
	PeerTimeout time.Duration `yaml:"peer_timeout" validate:"required,min=1ms"`
}

// PeerConfig identifies a peer entity: identity and address only, never
// ownership.
type PeerConfig struct {
	// ID is the peer's opaque identity.
	ID string `yaml:"id" validate:"required"`

	// Address is the peer's base URL (e.g. "http://host:7433").
	Address string `yaml:"address" validate:"required,url"`
}

// Default returns a configuration populated with the default surface.
func Default() *Config {
	return &Config{
		Entity: EntityConfig{
			FieldSize:          DefaultFieldSize,
			TickInterval:       DefaultTickInterval,
			CriticalThreshold:  DefaultCriticalThreshold,
			SecondaryFloor:     DefaultSecondaryFloor,
			InitialContainment: DefaultInitialContainment,
			VorticityTrigger:   DefaultVorticityTrigger,
			PeerTimeout:        DefaultPeerTimeout,
		},
		ListenAddress: DefaultListenAddress,
		Telemetry:     telemetry.DefaultConfig(),
	}
}

// Load reads a YAML config file, fills defaults, and validates the
// result. A missing path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	if c.Entity.FieldSize == 0 {
		c.Entity.FieldSize = DefaultFieldSize
	}
	if c.Entity.TickInterval == 0 {
		c.Entity.TickInterval = DefaultTickInterval
	}
	if c.Entity.CriticalThreshold == 0 {
		c.Entity.CriticalThreshold = DefaultCriticalThreshold
	}
	if c.Entity.SecondaryFloor == 0 {
		c.Entity.SecondaryFloor = DefaultSecondaryFloor
	}
	if c.Entity.InitialContainment == 0 {
		c.Entity.InitialContainment = DefaultInitialContainment
	}
	if c.Entity.VorticityTrigger == 0 {
		c.Entity.VorticityTrigger = DefaultVorticityTrigger
	}
	if c.Entity.PeerTimeout == 0 {
		c.Entity.PeerTimeout = DefaultPeerTimeout
	}
	if c.ListenAddress == "" {
		c.ListenAddress = DefaultListenAddress
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
