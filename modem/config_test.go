package modem_test

import (
	"testing"
	"time"

	"fieldwave.io/rf/mlrgw/modem"
)

func TestConfig(t *testing.T) {
	t.Run("ErrNoDialer when no dialer provided", func(t *testing.T) {
		_, err := modem.NewConfigBuilder().Build()

		if err != modem.ErrNoDialer {
			t.Errorf("expected ErrNoDialer, got: %v", err)
		}
	})

	t.Run("Defaults applied", func(t *testing.T) {
		config, err := modem.NewConfigBuilder().
			WithDialer(testDialer{}).
			Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.ResponseTimeout != 500*time.Millisecond {
			t.Errorf("unexpected default response timeout: %v", config.ResponseTimeout)
		}
		if config.TransmitTimeout != 15*time.Second {
			t.Errorf("unexpected default transmit timeout: %v", config.TransmitTimeout)
		}
		if config.InitTimeout != 5*time.Second {
			t.Errorf("unexpected default init timeout: %v", config.InitTimeout)
		}
	})

	t.Run("Explicit values preserved", func(t *testing.T) {
		config, err := modem.NewConfigBuilder().
			WithDialer(testDialer{}).
			WithResponseTimeout(time.Second).
			WithTransmitTimeout(30 * time.Second).
			WithInitTimeout(10 * time.Second).
			Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.ResponseTimeout != time.Second {
			t.Errorf("unexpected response timeout: %v", config.ResponseTimeout)
		}
		if config.TransmitTimeout != 30*time.Second {
			t.Errorf("unexpected transmit timeout: %v", config.TransmitTimeout)
		}
		if config.InitTimeout != 10*time.Second {
			t.Errorf("unexpected init timeout: %v", config.InitTimeout)
		}
	})
}
