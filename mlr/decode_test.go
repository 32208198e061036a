package mlr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldwave.io/rf/mlrgw/mlr"
)

func TestDecodeHexByte(t *testing.T) {
	v, err := mlr.DecodeHexByte([]byte("*CH=0E"), mlr.RespChannel)
	require.NoError(t, err)
	assert.Equal(t, byte(0x0E), v)

	v, err = mlr.DecodeHexByte([]byte("*IR=03"), mlr.RespInfo)
	require.NoError(t, err)
	assert.Equal(t, byte(mlr.IRComplete), v)

	_, err = mlr.DecodeHexByte([]byte("*CH=0"), mlr.RespChannel)
	assert.Error(t, err, "truncated reply")

	_, err = mlr.DecodeHexByte([]byte("*CH=0E7"), mlr.RespChannel)
	assert.Error(t, err, "extended reply")

	_, err = mlr.DecodeHexByte([]byte("*MO=0E"), mlr.RespChannel)
	assert.Error(t, err, "wrong prefix")

	_, err = mlr.DecodeHexByte([]byte("*CH=G1"), mlr.RespChannel)
	assert.Error(t, err, "non-hex digits")
}

func TestDecodeHexWord(t *testing.T) {
	v, err := mlr.DecodeHexWord([]byte("*UI=BEEF"), mlr.RespUserID)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), v)

	v, err = mlr.DecodeHexWord([]byte("*UI=0000"), mlr.RespUserID)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), v)

	_, err = mlr.DecodeHexWord([]byte("*UI=BEE"), mlr.RespUserID)
	assert.Error(t, err)
}

func TestDecodeDecimal(t *testing.T) {
	v, err := mlr.DecodeDecimal([]byte("*RS=-80dBm"), mlr.RespLastRxRSSI, mlr.RSSISuffix,
		mlr.RespRSSIMinLen, mlr.RespRSSIMaxLen)
	require.NoError(t, err)
	assert.Equal(t, -80, v)

	v, err = mlr.DecodeDecimal([]byte("*RA=-123dBm"), mlr.RespChannelRSSI, mlr.RSSISuffix,
		mlr.RespRSSIMinLen, mlr.RespRSSIMaxLen)
	require.NoError(t, err)
	assert.Equal(t, -123, v)

	// any non-digit before the suffix invalidates the whole field
	_, err = mlr.DecodeDecimal([]byte("*RS=-8xdBm"), mlr.RespLastRxRSSI, mlr.RSSISuffix,
		mlr.RespRSSIMinLen, mlr.RespRSSIMaxLen)
	assert.Error(t, err)

	_, err = mlr.DecodeDecimal([]byte("*RS=-1234dBm"), mlr.RespLastRxRSSI, mlr.RSSISuffix,
		mlr.RespRSSIMinLen, mlr.RespRSSIMaxLen)
	assert.Error(t, err, "too long")

	_, err = mlr.DecodeDecimal([]byte("*RS=-80dB"), mlr.RespLastRxRSSI, mlr.RSSISuffix,
		mlr.RespRSSIMinLen, mlr.RespRSSIMaxLen)
	assert.Error(t, err, "missing suffix")
}

func TestDecodeSerialNumber(t *testing.T) {
	v, err := mlr.DecodeSerialNumber([]byte("*SN=12345678"))
	require.NoError(t, err)
	assert.Equal(t, uint32(12345678), v)

	// some units prefix the digits with a type letter
	v, err = mlr.DecodeSerialNumber([]byte("*SN=A1234567"))
	require.NoError(t, err)
	assert.Equal(t, uint32(1234567), v)

	_, err = mlr.DecodeSerialNumber([]byte("*SN=A12B4567"))
	assert.Error(t, err)

	_, err = mlr.DecodeSerialNumber([]byte("*SN=1234567"))
	assert.Error(t, err, "wrong length")
}

func TestDecodeAcks(t *testing.T) {
	assert.NoError(t, mlr.DecodeWriteAck([]byte("*WR=PS")))
	assert.Error(t, mlr.DecodeWriteAck([]byte("*WR=NG")))
	assert.NoError(t, mlr.DecodeFactoryAck([]byte("*IZ=OK")))
	assert.Error(t, mlr.DecodeFactoryAck([]byte("*IZ=NG")))
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "@CH\r\n", mlr.GetCommand(mlr.CmdChannel))
	assert.Equal(t, "@CH0E\r\n", mlr.SetCommand(mlr.CmdChannel, 0x0E, false))
	assert.Equal(t, "@CH0E/W\r\n", mlr.SetCommand(mlr.CmdChannel, 0x0E, true))
	assert.Equal(t, "@MO03/W\r\n", mlr.SetCommand(mlr.CmdMode, byte(mlr.ModeLoRaCommand), true))
	assert.Equal(t, "@DT05", mlr.TransmitHeader(5))
	assert.Equal(t, "@DTFF", mlr.TransmitHeader(255))
}

func TestBaudCode(t *testing.T) {
	code, ok := mlr.BaudCode(19200)
	require.True(t, ok)
	assert.Equal(t, byte(0x19), code)

	code, ok = mlr.BaudCode(9600)
	require.True(t, ok)
	assert.Equal(t, byte(0x96), code)

	_, ok = mlr.BaudCode(115200)
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	// encoding a set command and decoding the modem's echo yields the value back
	for _, v := range []byte{mlr.ChannelMin, 0x0E, mlr.ChannelMax} {
		cmd := mlr.SetCommand(mlr.CmdChannel, v, false)
		echo := []byte("*CH=" + cmd[3:5])
		got, err := mlr.DecodeHexByte(echo, mlr.RespChannel)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
