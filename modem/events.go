package modem

// ResponseKind identifies which reply an asynchronous request expects, and
// labels the events delivered to the Handler.
type ResponseKind int

const (
	// KindNone means no asynchronous request is outstanding.
	KindNone ResponseKind = iota
	// KindDataReceived labels an unsolicited radio telegram.
	KindDataReceived
	// KindChannelRSSI is the reply to ChannelRSSIAsync; Value carries dBm.
	KindChannelRSSI
	// KindSerialNumber is the reply to SerialNumberAsync.
	KindSerialNumber
	// KindTxResult is the completion report after TransmitAsync; Value
	// carries the raw information response code (mlr.IRComplete etc.).
	KindTxResult
	// KindGeneric is the reply to SendRawAsync; Payload carries the raw
	// response line.
	KindGeneric
)

func (k ResponseKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDataReceived:
		return "data received"
	case KindChannelRSSI:
		return "channel rssi"
	case KindSerialNumber:
		return "serial number"
	case KindTxResult:
		return "tx result"
	case KindGeneric:
		return "generic"
	}
	return "unknown"
}

// Event is delivered to the registered Handler for asynchronous replies and
// received radio telegrams.
//
// When Err is non-nil all other fields except Kind are invalid.
type Event struct {
	// Err reports a failed asynchronous request (timeout or a malformed
	// reply).
	Err error
	// Kind labels the event.
	Kind ResponseKind
	// Value carries the decoded numeric result where the kind has one.
	Value int
	// Payload carries the raw bytes where the kind has them. It aliases an
	// internal buffer and is valid only for the duration of the Handler
	// call; copy it if needed longer.
	Payload []byte
}

// Handler receives asynchronous events. It is invoked from within Poll and
// the synchronous wait loops, with the driver's internal lock held: a
// Handler must not call back into the Modem and should return quickly.
type Handler func(Event)
