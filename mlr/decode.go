package mlr

import (
	"bytes"
	"fmt"
	"strconv"
)

// Response decoding is deliberately strict: every reply shape has a known
// width, and a line that is longer, shorter, or carries a stray character is
// rejected instead of being decoded on a best-effort basis.

// DecodeHexByte extracts the single-byte hex value from a reply of the exact
// form prefix plus two hex digits, e.g. "*CH=0E".
func DecodeHexByte(line []byte, prefix string) (byte, error) {
	if len(line) != len(prefix)+2 || !bytes.HasPrefix(line, []byte(prefix)) {
		return 0, fmt.Errorf("mlr: reply %q does not match %q byte form", line, prefix)
	}
	v, ok := parseHex(line[len(prefix):])
	if !ok {
		return 0, fmt.Errorf("mlr: reply %q has a malformed hex value", line)
	}
	return byte(v), nil
}

// DecodeHexWord extracts the 16-bit hex value from a reply of the exact form
// prefix plus four hex digits, e.g. "*UI=0000".
func DecodeHexWord(line []byte, prefix string) (uint16, error) {
	if len(line) != len(prefix)+4 || !bytes.HasPrefix(line, []byte(prefix)) {
		return 0, fmt.Errorf("mlr: reply %q does not match %q word form", line, prefix)
	}
	v, ok := parseHex(line[len(prefix):])
	if !ok {
		return 0, fmt.Errorf("mlr: reply %q has a malformed hex value", line)
	}
	return uint16(v), nil
}

// DecodeDecimal extracts a signed decimal value from a reply of the form
// prefix then number then literal suffix, e.g. "*RS=-80dBm". The numeric
// field must be consumed in full; a stray character anywhere before the suffix is a
// decode failure. The overall line length must lie within [minLen, maxLen].
func DecodeDecimal(line []byte, prefix, suffix string, minLen, maxLen int) (int, error) {
	if len(line) < minLen || len(line) > maxLen {
		return 0, fmt.Errorf("mlr: reply %q has unexpected length for %q", line, prefix)
	}
	if !bytes.HasPrefix(line, []byte(prefix)) || !bytes.HasSuffix(line, []byte(suffix)) {
		return 0, fmt.Errorf("mlr: reply %q does not match %s…%s", line, prefix, suffix)
	}
	num := string(line[len(prefix) : len(line)-len(suffix)])
	v, err := strconv.Atoi(num)
	if err != nil {
		return 0, fmt.Errorf("mlr: reply %q has a malformed number: %w", line, err)
	}
	return v, nil
}

// DecodeSerialNumber extracts the serial number from an "*SN=" reply. The
// value is eight decimal digits, or a single type letter followed by seven
// digits ("*SN=A1234567" and "*SN=12345678" both occur in the field).
func DecodeSerialNumber(line []byte) (uint32, error) {
	if len(line) != RespSerialLen || !bytes.HasPrefix(line, []byte(RespSerialNumber)) {
		return 0, fmt.Errorf("mlr: reply %q is not a serial number", line)
	}
	digits := line[len(RespSerialNumber):]
	if digits[0] < '0' || digits[0] > '9' {
		digits = digits[1:]
	}
	v, err := strconv.ParseUint(string(digits), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("mlr: reply %q has a malformed serial number: %w", line, err)
	}
	return uint32(v), nil
}

// DecodeWriteAck verifies the "*WR=PS" acknowledgment of a persisted setting.
func DecodeWriteAck(line []byte) error {
	if !bytes.Equal(line, []byte(WriteAck)) {
		return fmt.Errorf("mlr: reply %q is not a write acknowledgment", line)
	}
	return nil
}

// DecodeFactoryAck verifies the "*IZ=OK" factory reset confirmation.
func DecodeFactoryAck(line []byte) error {
	if !bytes.Equal(line, []byte(FactoryAck)) {
		return fmt.Errorf("mlr: reply %q is not a factory reset confirmation", line)
	}
	return nil
}

// parseHex decodes a fixed-width hex field. Both cases are accepted even
// though the modem emits uppercase.
func parseHex(digits []byte) (uint32, bool) {
	var v uint32
	for _, d := range digits {
		v <<= 4
		switch {
		case d >= '0' && d <= '9':
			v |= uint32(d - '0')
		case d >= 'A' && d <= 'F':
			v |= uint32(d-'A') + 10
		case d >= 'a' && d <= 'f':
			v |= uint32(d-'a') + 10
		default:
			return 0, false
		}
	}
	return v, true
}
