package mlr

// FrameKind classifies the result of a single parse step.
type FrameKind int

const (
	// FramePending means no complete frame has formed yet.
	FramePending FrameKind = iota
	// FrameGarbage means an already started frame turned out malformed and
	// was discarded. The parser has resynchronized; the stream resumes at
	// the next '*'.
	FrameGarbage
	// FrameOverflow means a response line exceeded ResponseCapacity before
	// its CR arrived.
	FrameOverflow
	// FrameResponse is a complete command-echo line.
	FrameResponse
	// FrameTelegram is a complete length-prefixed radio packet.
	FrameTelegram
)

// Frame is one classified unit produced by the parser.
//
// Line and Payload alias internal parser buffers and stay valid only until
// the next Feed call completes a frame of the same kind; copy them if needed
// longer.
type Frame struct {
	Kind FrameKind
	// Line holds a FrameResponse including the leading '*' and excluding
	// CRLF, e.g. "*CH=0E".
	Line []byte
	// Payload holds the radio payload of a FrameTelegram.
	Payload []byte
}

// ResponseCapacity is the fixed capacity of the response line buffer. Lines
// longer than this (before their CR) overflow.
const ResponseCapacity = 32

// trailing CRLF after a telegram payload
const telegramTail = 2

type parserState int

const (
	stateStart parserState = iota
	stateFlush        // discarding noise until the next '*'
	stateFirstLetter  // '*' seen, expecting first command letter
	stateSecondLetter // expecting second command letter
	stateParam        // expecting '='
	stateTelegramLen  // expecting the 2-digit hex payload length
	stateTelegramData // collecting payload plus CRLF
	stateUntilCR      // collecting response text until CR
	stateUntilLF      // CR seen, expecting LF
)

// Parser is the incremental frame state machine. It consumes the modem's
// byte stream one byte at a time and never blocks; transport I/O is the
// caller's concern.
//
// Noise in front of a frame is flushed silently: bytes are dropped until a
// '*' appears, and no Garbage frame is reported. Only a frame that has
// already begun can turn into Garbage. A '*' that aborts a frame immediately
// starts the next one, so a valid frame following garbage is never lost.
type Parser struct {
	state   parserState
	line    []byte
	payload []byte
	need    int // telegram bytes still outstanding (payload + CRLF)
	telLen  int
}

// NewParser returns a parser in the start state.
func NewParser() *Parser {
	return &Parser{
		line:    make([]byte, 0, ResponseCapacity),
		payload: make([]byte, 0, MaxPayload+telegramTail),
	}
}

// Reset discards any partially parsed frame and returns to the start state.
func (p *Parser) Reset() {
	p.state = stateStart
	p.line = p.line[:0]
	p.payload = p.payload[:0]
}

// Feed consumes exactly one byte and reports the frame it completed, if any.
func (p *Parser) Feed(b byte) Frame {
	switch p.state {
	case stateStart, stateFlush:
		if b == '*' {
			p.begin()
		}
		// leading noise is not an error, just cleared from the pipeline
		return Frame{}

	case stateFirstLetter, stateSecondLetter:
		if !isUpper(b) {
			return p.garbage(b)
		}
		p.line = append(p.line, b)
		if p.state == stateFirstLetter {
			p.state = stateSecondLetter
		} else {
			p.state = stateParam
		}
		return Frame{}

	case stateParam:
		if b != '=' {
			return p.garbage(b)
		}
		p.line = append(p.line, b)
		if p.line[1] == 'D' && p.line[2] == 'R' {
			p.state = stateTelegramLen
		} else {
			p.state = stateUntilCR
		}
		return Frame{}

	case stateTelegramLen:
		p.line = append(p.line, b)
		if len(p.line) < len(TelegramPrefix)+2 {
			return Frame{}
		}
		n, ok := parseHex(p.line[len(TelegramPrefix):])
		if !ok {
			return p.abort()
		}
		p.telLen = int(n)
		p.need = p.telLen + telegramTail
		p.payload = p.payload[:0]
		p.state = stateTelegramData
		return Frame{}

	case stateTelegramData:
		p.payload = append(p.payload, b)
		p.need--
		if p.need > 0 {
			return Frame{}
		}
		n := len(p.payload)
		if p.payload[n-2] != '\r' || p.payload[n-1] != '\n' {
			return p.abort()
		}
		// a finished telegram must not be mistaken for a command reply
		p.line = p.line[:0]
		p.state = stateStart
		return Frame{Kind: FrameTelegram, Payload: p.payload[:n-telegramTail]}

	case stateUntilCR:
		switch b {
		case '\r':
			p.state = stateUntilLF
			return Frame{}
		case '\n':
			// CR must come first
			return p.abort()
		case '*':
			return p.garbage(b)
		}
		if len(p.line) == ResponseCapacity {
			p.state = stateStart
			p.line = p.line[:0]
			return Frame{Kind: FrameOverflow}
		}
		p.line = append(p.line, b)
		return Frame{}

	case stateUntilLF:
		if b != '\n' {
			return p.garbage(b)
		}
		p.state = stateStart
		return Frame{Kind: FrameResponse, Line: p.line}
	}

	p.Reset()
	return Frame{}
}

// begin starts a fresh frame whose '*' has just been consumed.
func (p *Parser) begin() {
	p.line = append(p.line[:0], '*')
	p.state = stateFirstLetter
}

// garbage aborts the current frame. An aborting '*' becomes the start of the
// next frame instead of being lost; any other byte switches to flushing.
func (p *Parser) garbage(b byte) Frame {
	if b == '*' {
		p.begin()
	} else {
		p.state = stateFlush
	}
	return Frame{Kind: FrameGarbage}
}

// abort aborts the current frame unconditionally. Used inside telegram
// framing, where bytes are binary and '*' carries no meaning.
func (p *Parser) abort() Frame {
	p.state = stateFlush
	return Frame{Kind: FrameGarbage}
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}
