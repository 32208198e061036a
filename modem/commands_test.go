package modem_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fieldwave.io/rf/mlrgw/mlr"
	"fieldwave.io/rf/mlrgw/modem"
)

func TestGetCommands(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		wire  string
		call  func(m *modem.Modem) (int, error)
		want  int
	}{
		{
			name:  "Channel",
			reply: "*CH=0E\r\n",
			wire:  "@CH\r\n",
			call: func(m *modem.Modem) (int, error) {
				v, err := m.Channel(context.Background())
				return int(v), err
			},
			want: 0x0E,
		},
		{
			name:  "Mode",
			reply: "*MO=01\r\n",
			wire:  "@MO\r\n",
			call: func(m *modem.Modem) (int, error) {
				v, err := m.Mode(context.Background())
				return int(v), err
			},
			want: int(mlr.ModeFskCommand),
		},
		{
			name:  "SpreadFactor",
			reply: "*SF=05\r\n",
			wire:  "@SF\r\n",
			call: func(m *modem.Modem) (int, error) {
				v, err := m.SpreadFactor(context.Background())
				return int(v), err
			},
			want: int(mlr.Chips4096),
		},
		{
			name:  "EquipmentID",
			reply: "*EI=22\r\n",
			wire:  "@EI\r\n",
			call: func(m *modem.Modem) (int, error) {
				v, err := m.EquipmentID(context.Background())
				return int(v), err
			},
			want: 0x22,
		},
		{
			name:  "DestinationID",
			reply: "*DI=00\r\n",
			wire:  "@DI\r\n",
			call: func(m *modem.Modem) (int, error) {
				v, err := m.DestinationID(context.Background())
				return int(v), err
			},
			want: 0x00,
		},
		{
			name:  "GroupID",
			reply: "*GI=07\r\n",
			wire:  "@GI\r\n",
			call: func(m *modem.Modem) (int, error) {
				v, err := m.GroupID(context.Background())
				return int(v), err
			},
			want: 0x07,
		},
		{
			name:  "UserID",
			reply: "*UI=BEEF\r\n",
			wire:  "@UI\r\n",
			call: func(m *modem.Modem) (int, error) {
				v, err := m.UserID(context.Background())
				return int(v), err
			},
			want: 0xBEEF,
		},
		{
			name:  "LastRxRSSI",
			reply: "*RS=-102dBm\r\n",
			wire:  "@RS\r\n",
			call: func(m *modem.Modem) (int, error) {
				return m.LastRxRSSI(context.Background())
			},
			want: -102,
		},
		{
			name:  "ChannelRSSI",
			reply: "*RA=-87dBm\r\n",
			wire:  "@RA\r\n",
			call: func(m *modem.Modem) (int, error) {
				return m.ChannelRSSI(context.Background())
			},
			want: -87,
		},
		{
			name:  "CarrierSenseOutput",
			reply: "*CI=01\r\n",
			wire:  "@CI\r\n",
			call: func(m *modem.Modem) (int, error) {
				v, err := m.CarrierSenseOutput(context.Background())
				return int(v), err
			},
			want: 0x01,
		},
		{
			name:  "SerialNumber",
			reply: "*SN=A1234567\r\n",
			wire:  "@SN\r\n",
			call: func(m *modem.Modem) (int, error) {
				v, err := m.SerialNumber(context.Background())
				return int(v), err
			},
			want: 1234567,
		},
		{
			name:  "BaudRate",
			reply: "*BR=19\r\n",
			wire:  "@BR\r\n",
			call: func(m *modem.Modem) (int, error) {
				v, err := m.BaudRate(context.Background())
				return int(v), err
			},
			want: 0x19,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, transport, _ := newTestModem(t, "*MO=03\r\n")

			transport.SendData(tc.reply)
			got, err := tc.call(m)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
			if written := transport.LastWritten(); string(written) != tc.wire {
				t.Errorf("unexpected wire command: %q", written)
			}
		})
	}
}

func TestSetChannel(t *testing.T) {
	t.Run("Volatile set", func(t *testing.T) {
		m, transport, _ := newTestModem(t, "*MO=03\r\n")

		transport.SendData("*CH=0E\r\n")
		if err := m.SetChannel(context.Background(), 0x0E, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := transport.LastWritten(); string(got) != "@CH0E\r\n" {
			t.Errorf("unexpected wire command: %q", got)
		}
	})

	t.Run("Persistent set waits for write acknowledgment", func(t *testing.T) {
		m, transport, _ := newTestModem(t, "*MO=03\r\n")

		transport.SendData("*WR=PS\r\n*CH=0E\r\n")
		if err := m.SetChannel(context.Background(), 0x0E, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := transport.LastWritten(); string(got) != "@CH0E/W\r\n" {
			t.Errorf("unexpected wire command: %q", got)
		}
	})

	t.Run("Missing write acknowledgment fails", func(t *testing.T) {
		m, transport, _ := newTestModem(t, "*MO=03\r\n")

		transport.SendData("*CH=0E\r\n")
		err := m.SetChannel(context.Background(), 0x0E, true)
		if err == nil {
			t.Fatal("expected error when write acknowledgment is missing")
		}
	})

	t.Run("Echo mismatch fails", func(t *testing.T) {
		m, transport, _ := newTestModem(t, "*MO=03\r\n")

		transport.SendData("*CH=0F\r\n")
		err := m.SetChannel(context.Background(), 0x0E, false)
		if err == nil || !strings.Contains(err.Error(), "echoed") {
			t.Errorf("expected echo mismatch error, got: %v", err)
		}
	})

	t.Run("Out of range", func(t *testing.T) {
		m, _, _ := newTestModem(t, "*MO=03\r\n")

		if err := m.SetChannel(context.Background(), 0x06, false); !errors.Is(err, modem.ErrInvalidArg) {
			t.Errorf("expected ErrInvalidArg for channel below range, got: %v", err)
		}
		if err := m.SetChannel(context.Background(), 0x2F, false); !errors.Is(err, modem.ErrInvalidArg) {
			t.Errorf("expected ErrInvalidArg for channel above range, got: %v", err)
		}
	})
}

func TestSetMode(t *testing.T) {
	t.Run("Command modes accepted", func(t *testing.T) {
		m, transport, _ := newTestModem(t, "*MO=03\r\n")

		// mode banner after the echo is flushed as start-state noise
		transport.SendData("*MO=01\r\nFSK MODE\r\n")
		if err := m.SetMode(context.Background(), mlr.ModeFskCommand, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := transport.LastWritten(); string(got) != "@MO01\r\n" {
			t.Errorf("unexpected wire command: %q", got)
		}

		// the modem stays usable after the banner
		transport.SendData("*CH=0A\r\n")
		if _, err := m.Channel(context.Background()); err != nil {
			t.Errorf("unexpected error after mode switch: %v", err)
		}
	})

	t.Run("Binary modes rejected", func(t *testing.T) {
		m, _, _ := newTestModem(t, "*MO=03\r\n")

		if err := m.SetMode(context.Background(), mlr.ModeFskBinary, false); !errors.Is(err, modem.ErrInvalidArg) {
			t.Errorf("expected ErrInvalidArg for FSK binary mode, got: %v", err)
		}
		if err := m.SetMode(context.Background(), mlr.ModeLoRaBinary, false); !errors.Is(err, modem.ErrInvalidArg) {
			t.Errorf("expected ErrInvalidArg for LoRa binary mode, got: %v", err)
		}
	})
}

func TestSetSpreadFactor(t *testing.T) {
	m, transport, _ := newTestModem(t, "*MO=03\r\n")

	transport.SendData("*SF=03\r\n")
	if err := m.SetSpreadFactor(context.Background(), mlr.Chips1024, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.SetSpreadFactor(context.Background(), mlr.SpreadFactorMax+1, false); !errors.Is(err, modem.ErrInvalidArg) {
		t.Errorf("expected ErrInvalidArg, got: %v", err)
	}
}

func TestSetBaudRate(t *testing.T) {
	t.Run("Known rate", func(t *testing.T) {
		m, transport, _ := newTestModem(t, "*MO=03\r\n")

		transport.SendData("*BR=96\r\n")
		if err := m.SetBaudRate(context.Background(), 9600, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := transport.LastWritten(); string(got) != "@BR96\r\n" {
			t.Errorf("unexpected wire command: %q", got)
		}
	})

	t.Run("Unsupported rate", func(t *testing.T) {
		m, _, _ := newTestModem(t, "*MO=03\r\n")

		if err := m.SetBaudRate(context.Background(), 115200, false); !errors.Is(err, modem.ErrInvalidArg) {
			t.Errorf("expected ErrInvalidArg for unsupported rate, got: %v", err)
		}
	})
}

func TestFactoryReset(t *testing.T) {
	t.Run("Full acknowledgment sequence", func(t *testing.T) {
		m, transport, _ := newTestModem(t, "*MO=03\r\n")

		transport.SendData("*WR=PS\r\n*IZ=OK\r\nLORA MODE\r\n")
		if err := m.FactoryReset(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := transport.LastWritten(); string(got) != "@IZ\r\n" {
			t.Errorf("unexpected wire command: %q", got)
		}

		// the trailing mode banner must not break the next exchange
		transport.SendData("*CH=0A\r\n")
		if _, err := m.Channel(context.Background()); err != nil {
			t.Errorf("unexpected error after factory reset: %v", err)
		}
	})

	t.Run("Missing confirmation fails", func(t *testing.T) {
		m, transport, _ := newTestModem(t, "*MO=03\r\n")

		transport.SendData("*WR=PS\r\n*CH=0A\r\n")
		if err := m.FactoryReset(context.Background()); err == nil {
			t.Fatal("expected error when *IZ=OK is missing")
		}
	})
}

func TestAsyncCommands(t *testing.T) {
	t.Run("ChannelRSSIAsync", func(t *testing.T) {
		m, transport, events := newTestModem(t, "*MO=03\r\n")

		if err := m.ChannelRSSIAsync(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := transport.LastWritten(); string(got) != "@RA\r\n" {
			t.Errorf("unexpected wire command: %q", got)
		}

		transport.SendData("*RA=-91dBm\r\n")
		ev := pollUntilEvent(t, m, events)
		if ev.Err != nil {
			t.Fatalf("unexpected event error: %v", ev.Err)
		}
		if ev.Kind != modem.KindChannelRSSI {
			t.Errorf("expected KindChannelRSSI, got %v", ev.Kind)
		}
		if ev.Value != -91 {
			t.Errorf("expected -91 dBm, got %d", ev.Value)
		}
	})

	t.Run("SerialNumberAsync", func(t *testing.T) {
		m, transport, events := newTestModem(t, "*MO=03\r\n")

		if err := m.SerialNumberAsync(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		transport.SendData("*SN=A0004711\r\n")
		ev := pollUntilEvent(t, m, events)
		if ev.Err != nil {
			t.Fatalf("unexpected event error: %v", ev.Err)
		}
		if ev.Kind != modem.KindSerialNumber {
			t.Errorf("expected KindSerialNumber, got %v", ev.Kind)
		}
		if ev.Value != 4711 {
			t.Errorf("expected serial 4711, got %d", ev.Value)
		}
	})

	t.Run("Async request blocks synchronous ones", func(t *testing.T) {
		m, _, _ := newTestModem(t, "*MO=03\r\n")

		if err := m.ChannelRSSIAsync(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := m.Channel(context.Background()); !errors.Is(err, modem.ErrBusy) {
			t.Errorf("expected ErrBusy, got: %v", err)
		}
		if err := m.SerialNumberAsync(); !errors.Is(err, modem.ErrBusy) {
			t.Errorf("expected ErrBusy, got: %v", err)
		}
	})
}

func TestCommandTimeoutDuration(t *testing.T) {
	transport := modem.NewTestTransport()
	transport.SendData("*MO=03\r\n")

	config, err := modem.NewConfigBuilder().
		WithDialer(testDialer{transport: transport}).
		WithResponseTimeout(50 * time.Millisecond).
		Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := modem.New(context.Background(), config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	defer m.Close()

	start := time.Now()
	_, err = m.Channel(context.Background())
	if !errors.Is(err, modem.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond || elapsed > 500*time.Millisecond {
		t.Errorf("timeout fired after %v, configured 50ms", elapsed)
	}
}
