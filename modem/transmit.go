package modem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldwave.io/rf/mlrgw/mlr"
)

// fskAckWait is how long to wait for a transmit result in the FSK modes.
// FSK transmission reports nothing on success, so a short silence after the
// accept echo means the telegram went out.
const fskAckWait = 11 * time.Millisecond

// Transmit sends a telegram over the air and waits for the outcome. In the
// LoRa modes it blocks until the modem reports the transmission complete or
// rejected; in the FSK modes success is silent and only failures produce a
// result. A busy channel or disabled transmitter maps to ErrChannelAccess.
func (m *Modem) Transmit(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sendTelegram(ctx, payload); err != nil {
		return err
	}
	if m.mode == mlr.ModeLoRaBinary || m.mode == mlr.ModeLoRaCommand {
		return m.transmitResult(ctx, m.config.TransmitTimeout)
	}
	err := m.transmitResult(ctx, fskAckWait)
	if errors.Is(err, ErrTimeout) {
		// no news is good news in FSK
		return nil
	}
	return err
}

// TransmitAsync sends a telegram without waiting for the outcome; the result
// arrives through the Handler as a KindTxResult event. In the FSK modes a
// successful transmission produces no result and the event reports ErrTimeout.
func (m *Modem) TransmitAsync(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sendTelegram(ctx, payload); err != nil {
		return err
	}
	m.arm(KindTxResult, m.config.TransmitTimeout)
	return nil
}

// sendTelegram writes the telegram and consumes the accept echo. Callers
// must hold the lock.
func (m *Modem) sendTelegram(ctx context.Context, payload []byte) error {
	if len(payload) == 0 || len(payload) > mlr.MaxPayload {
		return ErrInvalidArg
	}
	if err := m.ready(); err != nil {
		return err
	}
	frame := make([]byte, 0, len(mlr.TransmitHeader(0))+len(payload)+len(mlr.CRLF))
	frame = append(frame, mlr.TransmitHeader(len(payload))...)
	frame = append(frame, payload...)
	frame = append(frame, mlr.CRLF...)
	if err := m.write(frame); err != nil {
		return err
	}
	line, err := m.waitResponse(ctx, m.config.ResponseTimeout)
	if err != nil {
		return err
	}
	echo, err := mlr.DecodeHexByte(line, mlr.RespTransmit)
	if err != nil {
		return err
	}
	if int(echo) != len(payload) {
		return fmt.Errorf("modem accepted %d bytes, sent %d", echo, len(payload))
	}
	return nil
}

// transmitResult waits for the "*IR=" outcome and maps it to an error.
// Callers must hold the lock.
func (m *Modem) transmitResult(ctx context.Context, timeout time.Duration) error {
	line, err := m.waitResponse(ctx, timeout)
	if err != nil {
		return err
	}
	result, err := mlr.DecodeHexByte(line, mlr.RespInfo)
	if err != nil {
		return err
	}
	switch result {
	case mlr.IRComplete:
		return nil
	case mlr.IRNoTransmit, mlr.IRChannelBusy:
		return ErrChannelAccess
	default:
		return fmt.Errorf("unexpected transmit result %02X", result)
	}
}
