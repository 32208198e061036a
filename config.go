package main

import (
	"flag"
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BaudRate is the UART rate of the modem link (factory default 19200)
	BaudRate int
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// MqttBroker is the broker URL (e.g. "tcp://localhost:1883"); empty
	// disables the MQTT bridge
	MqttBroker string
	// MqttClientID identifies this gateway to the broker
	MqttClientID string
	// MqttUplinkTopic carries received radio telegrams to the broker
	MqttUplinkTopic string
	// MqttDownlinkTopic feeds transmit requests from the broker
	MqttDownlinkTopic string
	// MqttUsername and MqttPassword are the optional broker credentials
	MqttUsername string
	MqttPassword string
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 19200
		c.LogLevel = "info"
		c.MqttClientID = "mlr-gw-1"
		c.MqttUplinkTopic = "mlr/uplink"
		c.MqttDownlinkTopic = "mlr/downlink"
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if broker := os.Getenv("MQTT_BROKER"); broker != "" {
			c.MqttBroker = broker
		}

		if id := os.Getenv("MQTT_CLIENT_ID"); id != "" {
			c.MqttClientID = id
		}

		if topic := os.Getenv("MQTT_UPLINK_TOPIC"); topic != "" {
			c.MqttUplinkTopic = topic
		}

		if topic := os.Getenv("MQTT_DOWNLINK_TOPIC"); topic != "" {
			c.MqttDownlinkTopic = topic
		}

		if user := os.Getenv("MQTT_USERNAME"); user != "" {
			c.MqttUsername = user
		}

		if pass := os.Getenv("MQTT_PASSWORD"); pass != "" {
			c.MqttPassword = pass
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "mqtt-broker":
				c.MqttBroker = f.Value.String()
			case "mqtt-client-id":
				c.MqttClientID = f.Value.String()
			case "mqtt-uplink-topic":
				c.MqttUplinkTopic = f.Value.String()
			case "mqtt-downlink-topic":
				c.MqttDownlinkTopic = f.Value.String()
			}

		})
		return nil
	}

}
