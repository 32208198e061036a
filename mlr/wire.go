// Package mlr implements the serial wire protocol of Circuit Design SLR/MLR
// radio modems: the ASCII command/response line format, the length-prefixed
// *DR data telegrams, and the strict fixed-width response decoding.
package mlr

import "fmt"

const (
	// Terminal control
	CRLF = "\r\n"

	// DefaultBaudRate is the factory signalling rate of the modem UART.
	DefaultBaudRate = 19200

	// MaxPayload is the largest radio payload a single telegram can carry.
	MaxPayload = 255
)

// Two-letter command codes. Commands go out as "@XX…\r\n", replies come
// back as "*XX=…\r\n".
const (
	CmdChannel      = "CH" // frequency channel
	CmdMode         = "MO" // wireless communication mode
	CmdSpreadFactor = "SF" // LoRa spreading factor
	CmdEquipmentID  = "EI" // own equipment ID
	CmdDestination  = "DI" // destination ID (00 = broadcast)
	CmdGroupID      = "GI" // group ID
	CmdUserID       = "UI" // user ID (read-only, 16 bit)
	CmdLastRxRSSI   = "RS" // RSSI of last received packet
	CmdChannelRSSI  = "RA" // current RSSI of the configured channel
	CmdCarrierSense = "CI" // carrier sense RSSI output on/off
	CmdSerialNumber = "SN" // modem serial number
	CmdFactoryReset = "IZ"
	CmdBaudRate     = "BR"
	CmdTransmit     = "DT" // data transmission (no '=' in the request)
)

// Response line prefixes and exact lengths (excluding CRLF). The modem frames
// are fixed-width; a reply of any other length is rejected rather than
// decoded leniently.
const (
	RespChannel      = "*CH="
	RespMode         = "*MO="
	RespSpreadFactor = "*SF="
	RespEquipmentID  = "*EI="
	RespDestination  = "*DI="
	RespGroupID      = "*GI="
	RespCarrierSense = "*CI="
	RespBaudRate     = "*BR="
	RespTransmit     = "*DT="
	RespInfo         = "*IR=" // information response after @DT

	RespUserID       = "*UI="
	RespUserIDLen    = 8 // "*UI=0000"
	RespLastRxRSSI   = "*RS="
	RespChannelRSSI  = "*RA="
	RespRSSIMinLen   = 10 // "*RS=-12dBm"
	RespRSSIMaxLen   = 11 // "*RS=-123dBm"
	RSSISuffix       = "dBm"
	RespSerialNumber = "*SN="
	RespSerialLen    = 12 // "*SN=A1234567"

	RespByteLen = 6 // "*CH=0E" and every other single-byte reply

	WriteAck       = "*WR=PS" // acknowledgment of a /W persist to NVM
	FactoryAck     = "*IZ=OK"
	TelegramPrefix = "*DR="
)

// Information response codes delivered as "*IR=vv" after a transmission.
const (
	IRNoTransmit  = 0x01 // transmission not possible
	IRChannelBusy = 0x02 // another transmitter occupies the channel
	IRComplete    = 0x03 // transmission complete
)

// Channel limits of the JP band plan.
const (
	ChannelMin = 0x07
	ChannelMax = 0x2E
)

// Mode is the wireless communication mode, as set by the MO command.
type Mode byte

const (
	ModeFskBinary   Mode = 0 // not supported by this driver
	ModeFskCommand  Mode = 1
	ModeLoRaBinary  Mode = 2 // not supported by this driver
	ModeLoRaCommand Mode = 3
)

func (m Mode) String() string {
	switch m {
	case ModeFskBinary:
		return "FSK BIN"
	case ModeFskCommand:
		return "FSK CMD"
	case ModeLoRaBinary:
		return "LORA BIN"
	case ModeLoRaCommand:
		return "LORA CMD"
	}
	return fmt.Sprintf("Mode(%d)", byte(m))
}

// SpreadFactor is the LoRa chip count, as set by the SF command.
type SpreadFactor byte

const (
	Chips128  SpreadFactor = 0 // SF 7
	Chips256  SpreadFactor = 1 // SF 8
	Chips512  SpreadFactor = 2 // SF 9
	Chips1024 SpreadFactor = 3 // SF 10
	Chips2048 SpreadFactor = 4 // SF 11
	Chips4096 SpreadFactor = 5 // SF 12

	SpreadFactorMax = Chips4096
)

// GetCommand builds the query form of a command, e.g. "@CH\r\n".
func GetCommand(code string) string {
	return "@" + code + CRLF
}

// SetCommand builds the set form of a command, e.g. "@CH0E\r\n". With persist
// the modem additionally writes the value to non-volatile memory ("/W").
func SetCommand(code string, value byte, persist bool) string {
	opt := ""
	if persist {
		opt = "/W"
	}
	return fmt.Sprintf("@%s%02X%s%s", code, value, opt, CRLF)
}

// TransmitHeader builds the header of a data transmission, e.g. "@DT05".
// The raw payload and a CRLF terminator follow on the wire.
func TransmitHeader(n int) string {
	return fmt.Sprintf("@%s%02X", CmdTransmit, n)
}

// BaudCode maps a UART rate in bit/s to the modem's BCD-style setting code.
// The second return value is false for unsupported rates.
func BaudCode(bps int) (byte, bool) {
	switch bps {
	case 1200:
		return 0x12, true
	case 2400:
		return 0x24, true
	case 4800:
		return 0x48, true
	case 9600:
		return 0x96, true
	case 19200:
		return 0x19, true
	}
	return 0, false
}
