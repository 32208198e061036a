package modem

import (
	"log/slog"
	"time"
)

// Config contains the modem driver configuration.
type Config struct {
	// Dialer opens the transport during New. Required.
	Dialer Dialer
	// Handler receives asynchronous events and incoming telegrams. Optional.
	Handler Handler
	// Logger is the debug sink for wire-level diagnostics. Optional.
	Logger *slog.Logger
	// ResponseTimeout bounds the wait for a single command reply.
	ResponseTimeout time.Duration
	// TransmitTimeout bounds the wait for the transmission completion
	// report in LoRa mode, where air time can reach several seconds.
	TransmitTimeout time.Duration
	// InitTimeout bounds the initialization sequence in New.
	InitTimeout time.Duration
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = 500 * time.Millisecond
	}
	if c.TransmitTimeout == 0 {
		c.TransmitTimeout = 15 * time.Second
	}
	if c.InitTimeout == 0 {
		c.InitTimeout = 5 * time.Second
	}
}

// ConfigBuilder assembles a Config fluently.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder with empty configuration; Build applies
// defaults and validates.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithHandler(h Handler) *ConfigBuilder {
	b.config.Handler = h
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) WithResponseTimeout(d time.Duration) *ConfigBuilder {
	b.config.ResponseTimeout = d
	return b
}

func (b *ConfigBuilder) WithTransmitTimeout(d time.Duration) *ConfigBuilder {
	b.config.TransmitTimeout = d
	return b
}

func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.InitTimeout = d
	return b
}

// Build validates the configuration and applies defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	config := b.config
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	config.setDefaults()
	return config, nil
}
