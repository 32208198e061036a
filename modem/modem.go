// Package modem implements the driver for Circuit Design SLR/MLR radio
// modems: a half-duplex command/response protocol over a serial byte stream,
// with unsolicited radio telegrams multiplexed into the same link.
package modem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fieldwave.io/rf/mlrgw/mlr"
)

// Modem is the driver for a single SLR/MLR radio modem.
//
// A dedicated goroutine moves bytes from the transport into an internal
// channel; parsing, correlation and dispatch all happen on the calling
// goroutine. A mutex serializes the public methods, so the driver
// may be shared between goroutines, but the protocol itself still allows
// only one outstanding request: a second request while one is pending fails
// with ErrBusy rather than queueing.
//
// The host must call Poll at a steady cadence; replies and telegrams are
// lost if the modem's buffers overflow before they are read.
type Modem struct {
	transport Transport
	config    Config
	logger    *slog.Logger
	handler   Handler
	parser    *mlr.Parser

	mu     sync.Mutex
	closed bool

	// pending asynchronous request identity; KindNone when idle
	expect   ResponseKind
	deadline time.Time

	// cached wireless mode; decides the transmit completion handling
	mode mlr.Mode

	// latched packet slot for the polling API
	packet    []byte
	hasPacket bool

	// bytes received but not yet parsed
	carry []byte

	rx      chan []byte
	readErr chan error
	done    chan struct{}
}

// New establishes the transport connection and initializes the driver. The
// current wireless mode is read from the modem and cached; initialization
// fails if the modem does not reply.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m := &Modem{
		transport: transport,
		config:    config,
		logger:    logger,
		handler:   config.Handler,
		parser:    mlr.NewParser(),
		rx:        make(chan []byte, 64),
		readErr:   make(chan error, 1),
		done:      make(chan struct{}),
	}
	go m.readLoop()

	initCtx, cancel := context.WithTimeout(ctx, config.InitTimeout)
	defer cancel()

	mode, err := m.Mode(initCtx)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("initialize modem: %w", err)
	}
	m.mode = mode

	return m, nil
}

// Close shuts down the driver and closes the transport. The modem cannot be
// reused afterwards.
func (m *Modem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrAlreadyClosed
	}
	m.closed = true
	close(m.done)
	return m.transport.Close()
}

// SetHandler registers (or, with nil, removes) the asynchronous event
// handler.
func (m *Modem) SetHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// SendRaw writes a raw command and waits for the next command reply. The
// returned line includes the leading '*' and excludes CRLF. A zero timeout
// uses the configured default.
func (m *Modem) SendRaw(ctx context.Context, command string, timeout time.Duration) ([]byte, error) {
	if command == "" {
		return nil, ErrInvalidArg
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = m.config.ResponseTimeout
	}
	wire := strings.TrimRight(command, "\r\n") + mlr.CRLF
	if err := m.write([]byte(wire)); err != nil {
		return nil, err
	}
	line, err := m.waitResponse(ctx, timeout)
	if err != nil {
		return nil, err
	}
	resp := make([]byte, len(line))
	copy(resp, line)
	return resp, nil
}

// SendRawAsync writes a raw command and returns immediately. The reply is
// delivered through the Handler as a KindGeneric event; if none arrives
// within the timeout, Poll delivers a timeout event instead.
func (m *Modem) SendRawAsync(command string, timeout time.Duration) error {
	if command == "" {
		return ErrInvalidArg
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = m.config.ResponseTimeout
	}
	wire := strings.TrimRight(command, "\r\n") + mlr.CRLF
	if err := m.write([]byte(wire)); err != nil {
		return err
	}
	m.arm(KindGeneric, timeout)
	return nil
}

// Poll processes any bytes the modem has sent since the last call. It never
// blocks. Finished asynchronous replies and telegrams are dispatched to the
// Handler; telegrams are additionally latched for the polling accessors.
func (m *Modem) Poll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.pump()
	for len(m.carry) > 0 {
		b := m.carry[0]
		m.carry = m.carry[1:]
		switch frame := m.parser.Feed(b); frame.Kind {
		case mlr.FrameResponse:
			m.dispatchResponse(frame.Line)
		case mlr.FrameTelegram:
			m.latchTelegram(frame.Payload)
		case mlr.FrameGarbage:
			m.logger.Debug("discarded garbled frame")
		case mlr.FrameOverflow:
			m.logger.Debug("response line overflow")
		}
	}
	if m.expect != KindNone && !m.deadline.IsZero() && time.Now().After(m.deadline) {
		kind := m.expect
		m.expect = KindNone
		m.logger.Debug("async request timed out", "kind", kind.String())
		if m.handler != nil {
			m.handler(Event{Err: ErrTimeout, Kind: kind})
		}
	}
}

// readLoop is the only reader of the transport. It runs from New until the
// transport fails or the driver closes.
func (m *Modem) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := m.transport.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case m.rx <- chunk:
			case <-m.done:
				return
			}
		}
		if err != nil {
			select {
			case m.readErr <- err:
			case <-m.done:
			}
			return
		}
	}
}

// pump drains received chunks without blocking.
func (m *Modem) pump() {
	for {
		select {
		case chunk := <-m.rx:
			m.carry = append(m.carry, chunk...)
		default:
			return
		}
	}
}

// ready gates every request-issuing operation.
func (m *Modem) ready() error {
	if m.closed {
		return ErrAlreadyClosed
	}
	if m.transport == nil {
		return ErrNotInitialized
	}
	if m.expect != KindNone {
		return ErrBusy
	}
	return nil
}

func (m *Modem) write(p []byte) error {
	if _, err := m.transport.Write(p); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// arm marks the pending asynchronous identity and its deadline.
func (m *Modem) arm(kind ResponseKind, timeout time.Duration) {
	m.expect = kind
	m.deadline = time.Now().Add(timeout)
}

// transact writes a command and waits for its reply with the default
// timeout. Callers must hold the lock.
func (m *Modem) transact(ctx context.Context, cmd string) ([]byte, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	if err := m.write([]byte(cmd)); err != nil {
		return nil, err
	}
	return m.waitResponse(ctx, m.config.ResponseTimeout)
}

// waitResponse blocks until a command reply completes, the timeout elapses,
// or the context is cancelled. Telegrams arriving in between are delivered
// immediately, without restarting the timeout; radio traffic must not be
// dropped while a reply is awaited. Garbage or overflow aborts the wait: a
// desynchronized exchange is not retried at this layer.
//
// The returned line aliases the parser's buffer and is valid until the next
// parse step. Callers must hold the lock.
func (m *Modem) waitResponse(ctx context.Context, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		for len(m.carry) > 0 {
			b := m.carry[0]
			m.carry = m.carry[1:]
			switch frame := m.parser.Feed(b); frame.Kind {
			case mlr.FrameResponse:
				return frame.Line, nil
			case mlr.FrameTelegram:
				m.latchTelegram(frame.Payload)
			case mlr.FrameGarbage, mlr.FrameOverflow:
				return nil, ErrGarbled
			}
		}

		select {
		case chunk := <-m.rx:
			m.carry = append(m.carry, chunk...)
		case err := <-m.readErr:
			return nil, fmt.Errorf("read: %w", err)
		case <-ctx.Done():
			m.parser.Reset()
			return nil, ctx.Err()
		case <-timer.C:
			m.parser.Reset()
			return nil, ErrTimeout
		}
	}
}

// latchTelegram stores a finished telegram in the single-slot mailbox and
// delivers it to the Handler. Both paths are always populated; the slot is
// overwritten by the next telegram whether or not it was consumed.
func (m *Modem) latchTelegram(payload []byte) {
	m.packet = append(m.packet[:0], payload...)
	m.hasPacket = true
	if m.handler != nil {
		m.handler(Event{Kind: KindDataReceived, Payload: payload})
	}
}

// dispatchResponse decodes a finished command reply according to the pending
// asynchronous identity and delivers it to the Handler.
func (m *Modem) dispatchResponse(line []byte) {
	kind := m.expect
	m.expect = KindNone
	if kind == KindNone {
		// late reply of a timed-out exchange, or modem chatter
		m.logger.Debug("unexpected command reply", "line", string(line))
		return
	}
	if m.handler == nil {
		return
	}

	ev := Event{Kind: kind}
	switch kind {
	case KindChannelRSSI:
		ev.Value, ev.Err = mlr.DecodeDecimal(line, mlr.RespChannelRSSI, mlr.RSSISuffix,
			mlr.RespRSSIMinLen, mlr.RespRSSIMaxLen)
	case KindSerialNumber:
		sn, err := mlr.DecodeSerialNumber(line)
		ev.Value, ev.Err = int(sn), err
	case KindTxResult:
		code, err := mlr.DecodeHexByte(line, mlr.RespInfo)
		if err == nil && (code == mlr.IRNoTransmit || code == mlr.IRChannelBusy) {
			err = ErrChannelAccess
		}
		ev.Value, ev.Err = int(code), err
	case KindGeneric:
		ev.Payload = line
	}
	m.handler(ev)
}
