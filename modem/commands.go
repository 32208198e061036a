package modem

import (
	"context"
	"fmt"

	"fieldwave.io/rf/mlrgw/mlr"
)

// Typed wrappers around the modem's settings commands. Each setter accepts a
// persist flag: with persist the modem writes the value to its non-volatile
// memory and acknowledges the write ("*WR=PS") before echoing the value.
// Every echo is verified against the requested value.

// SetChannel sets the frequency channel (0x07–0x2E).
func (m *Modem) SetChannel(ctx context.Context, channel byte, persist bool) error {
	if channel < mlr.ChannelMin || channel > mlr.ChannelMax {
		return ErrInvalidArg
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setByte(ctx, mlr.CmdChannel, channel, persist, mlr.RespChannel)
}

// Channel reads the current frequency channel.
func (m *Modem) Channel(ctx context.Context) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getByte(ctx, mlr.CmdChannel, mlr.RespChannel)
}

// SetMode sets the wireless communication mode. Only the command modes are
// supported; the binary modes are rejected.
func (m *Modem) SetMode(ctx context.Context, mode mlr.Mode, persist bool) error {
	if mode != mlr.ModeFskCommand && mode != mlr.ModeLoRaCommand {
		return ErrInvalidArg
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setByte(ctx, mlr.CmdMode, byte(mode), persist, mlr.RespMode); err != nil {
		return err
	}
	// the "FSK MODE" / "LORA MODE" banner that follows is cleared by the
	// parser's start-state flush
	m.mode = mode
	return nil
}

// Mode reads the current wireless communication mode.
func (m *Modem) Mode(ctx context.Context) (mlr.Mode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.getByte(ctx, mlr.CmdMode, mlr.RespMode)
	return mlr.Mode(v), err
}

// SetSpreadFactor sets the LoRa spreading factor.
func (m *Modem) SetSpreadFactor(ctx context.Context, sf mlr.SpreadFactor, persist bool) error {
	if sf > mlr.SpreadFactorMax {
		return ErrInvalidArg
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setByte(ctx, mlr.CmdSpreadFactor, byte(sf), persist, mlr.RespSpreadFactor)
}

// SpreadFactor reads the current LoRa spreading factor.
func (m *Modem) SpreadFactor(ctx context.Context) (mlr.SpreadFactor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.getByte(ctx, mlr.CmdSpreadFactor, mlr.RespSpreadFactor)
	return mlr.SpreadFactor(v), err
}

// SetEquipmentID sets the modem's own ID.
func (m *Modem) SetEquipmentID(ctx context.Context, id byte, persist bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setByte(ctx, mlr.CmdEquipmentID, id, persist, mlr.RespEquipmentID)
}

// EquipmentID reads the modem's own ID.
func (m *Modem) EquipmentID(ctx context.Context) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getByte(ctx, mlr.CmdEquipmentID, mlr.RespEquipmentID)
}

// SetDestinationID sets the destination ID. 0x00 addresses all modems in the
// group (broadcast).
func (m *Modem) SetDestinationID(ctx context.Context, id byte, persist bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setByte(ctx, mlr.CmdDestination, id, persist, mlr.RespDestination)
}

// DestinationID reads the destination ID.
func (m *Modem) DestinationID(ctx context.Context) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getByte(ctx, mlr.CmdDestination, mlr.RespDestination)
}

// SetGroupID sets the group ID.
func (m *Modem) SetGroupID(ctx context.Context, id byte, persist bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setByte(ctx, mlr.CmdGroupID, id, persist, mlr.RespGroupID)
}

// GroupID reads the group ID.
func (m *Modem) GroupID(ctx context.Context) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getByte(ctx, mlr.CmdGroupID, mlr.RespGroupID)
}

// UserID reads the 16-bit user ID.
func (m *Modem) UserID(ctx context.Context) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, err := m.transact(ctx, mlr.GetCommand(mlr.CmdUserID))
	if err != nil {
		return 0, err
	}
	return mlr.DecodeHexWord(line, mlr.RespUserID)
}

// LastRxRSSI reads the signal strength of the last received packet, in dBm.
func (m *Modem) LastRxRSSI(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, err := m.transact(ctx, mlr.GetCommand(mlr.CmdLastRxRSSI))
	if err != nil {
		return 0, err
	}
	return mlr.DecodeDecimal(line, mlr.RespLastRxRSSI, mlr.RSSISuffix,
		mlr.RespRSSIMinLen, mlr.RespRSSIMaxLen)
}

// ChannelRSSI reads the current noise floor of the configured channel, in dBm.
func (m *Modem) ChannelRSSI(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, err := m.transact(ctx, mlr.GetCommand(mlr.CmdChannelRSSI))
	if err != nil {
		return 0, err
	}
	return mlr.DecodeDecimal(line, mlr.RespChannelRSSI, mlr.RSSISuffix,
		mlr.RespRSSIMinLen, mlr.RespRSSIMaxLen)
}

// ChannelRSSIAsync requests the channel noise floor without blocking; the
// result arrives through the Handler as a KindChannelRSSI event.
func (m *Modem) ChannelRSSIAsync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	if err := m.write([]byte(mlr.GetCommand(mlr.CmdChannelRSSI))); err != nil {
		return err
	}
	m.arm(KindChannelRSSI, m.config.ResponseTimeout)
	return nil
}

// SetCarrierSenseOutput enables (0x01) or disables (0x00) the carrier sense
// RSSI output.
func (m *Modem) SetCarrierSenseOutput(ctx context.Context, value byte, persist bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setByte(ctx, mlr.CmdCarrierSense, value, persist, mlr.RespCarrierSense)
}

// CarrierSenseOutput reads the carrier sense RSSI output setting.
func (m *Modem) CarrierSenseOutput(ctx context.Context) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getByte(ctx, mlr.CmdCarrierSense, mlr.RespCarrierSense)
}

// SerialNumber reads the modem's serial number.
func (m *Modem) SerialNumber(ctx context.Context) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, err := m.transact(ctx, mlr.GetCommand(mlr.CmdSerialNumber))
	if err != nil {
		return 0, err
	}
	return mlr.DecodeSerialNumber(line)
}

// SerialNumberAsync requests the serial number without blocking; the result
// arrives through the Handler as a KindSerialNumber event.
func (m *Modem) SerialNumberAsync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	if err := m.write([]byte(mlr.GetCommand(mlr.CmdSerialNumber))); err != nil {
		return err
	}
	m.arm(KindSerialNumber, m.config.ResponseTimeout)
	return nil
}

// BaudRate reads the UART rate setting code (e.g. 0x19 for 19200).
func (m *Modem) BaudRate(ctx context.Context) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getByte(ctx, mlr.CmdBaudRate, mlr.RespBaudRate)
}

// SetBaudRate sets the UART rate in bit/s. The change only takes effect on
// the modem side; reopening the transport at the new rate is the caller's
// concern.
func (m *Modem) SetBaudRate(ctx context.Context, bps int, persist bool) error {
	code, ok := mlr.BaudCode(bps)
	if !ok {
		return ErrInvalidArg
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setByte(ctx, mlr.CmdBaudRate, code, persist, mlr.RespBaudRate)
}

// FactoryReset restores the modem's factory settings. The modem acknowledges
// with a write acknowledgment followed by "*IZ=OK"; the trailing mode banner
// is cleared by the parser's start-state flush.
func (m *Modem) FactoryReset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, err := m.transact(ctx, mlr.GetCommand(mlr.CmdFactoryReset))
	if err != nil {
		return err
	}
	if err := mlr.DecodeWriteAck(line); err != nil {
		return err
	}
	line, err = m.waitResponse(ctx, m.config.ResponseTimeout)
	if err != nil {
		return err
	}
	return mlr.DecodeFactoryAck(line)
}

// setByte runs the common set-command exchange. Callers must hold the lock.
func (m *Modem) setByte(ctx context.Context, code string, value byte, persist bool, prefix string) error {
	if err := m.ready(); err != nil {
		return err
	}
	if err := m.write([]byte(mlr.SetCommand(code, value, persist))); err != nil {
		return err
	}
	line, err := m.waitResponse(ctx, m.config.ResponseTimeout)
	if err != nil {
		return err
	}
	if persist {
		if err := mlr.DecodeWriteAck(line); err != nil {
			return err
		}
		if line, err = m.waitResponse(ctx, m.config.ResponseTimeout); err != nil {
			return err
		}
	}
	echo, err := mlr.DecodeHexByte(line, prefix)
	if err != nil {
		return err
	}
	if echo != value {
		return fmt.Errorf("modem echoed %s%02X, want %02X", prefix, echo, value)
	}
	return nil
}

// getByte runs the common get-command exchange. Callers must hold the lock.
func (m *Modem) getByte(ctx context.Context, code string, prefix string) (byte, error) {
	line, err := m.transact(ctx, mlr.GetCommand(code))
	if err != nil {
		return 0, err
	}
	return mlr.DecodeHexByte(line, prefix)
}
