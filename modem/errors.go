package modem

import "errors"

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a
	// Modem that has not been successfully initialized.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when an operation is attempted on a
	// Modem that has been closed.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrBusy is returned when a request is issued while another request is
	// still outstanding. The protocol allows exactly one request at a time;
	// there is no queueing.
	ErrBusy = errors.New("request already outstanding")

	// ErrInvalidArg is returned when an argument lies outside the command's
	// valid range, or when a required argument is empty.
	ErrInvalidArg = errors.New("invalid argument")

	// ErrTimeout is returned when the modem does not reply within the
	// configured deadline.
	ErrTimeout = errors.New("response timeout")

	// ErrChannelAccess is returned when a transmission is rejected because
	// the channel is occupied (carrier sense / listen before talk). Callers
	// may choose to retry; the driver never does.
	ErrChannelAccess = errors.New("transmit failed: channel occupied")

	// ErrGarbled is returned when the byte stream desynchronizes while a
	// reply is awaited. The parser resynchronizes on its own; only the
	// current transaction is lost.
	ErrGarbled = errors.New("protocol desynchronized")

	// ErrNoPacket is returned by the polling accessors when no received
	// telegram is latched.
	ErrNoPacket = errors.New("no packet received")

	// ErrBufferTooSmall is returned when a caller-supplied buffer cannot
	// hold the latched telegram.
	ErrBufferTooSmall = errors.New("buffer too small")
)
