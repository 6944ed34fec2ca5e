package ccsds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSpacePacketScenarioS2(t *testing.T) {
	dst := make([]byte, 16)
	n, err := EncodeSpacePacket(dst, SPTypeTM, SPUnsegmented, 0x123, 0x0045, nil, []byte{0xAA, 0xBB})
	require.NoError(t, err)
	require.Equal(t, 8, n)
	assert.Equal(t, []byte{0x08, 0x23, 0xC0, 0x45, 0x00, 0x01, 0xAA, 0xBB}, dst[:n])
}

func TestEncodeIdleSpacePacketScenarioS3(t *testing.T) {
	dst := make([]byte, 16)
	n, err := EncodeIdleSpacePacket(dst, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	assert.Equal(t, []byte{0x07, 0xFF, 0xC0, 0x00, 0x00, 0x03, 0xFF, 0xFF, 0xFF, 0xFF}, dst[:n])
}

func TestEncodeSpacePacketEmptyPayload(t *testing.T) {
	dst := make([]byte, 16)
	_, err := EncodeSpacePacket(dst, SPTypeTC, SPUnsegmented, 1, 0, nil, nil)
	require.Error(t, err)
	assert.Equal(t, EmptyPayload, err.(*Error).Kind)
}

func TestEncodeSpacePacketBufferTooSmall(t *testing.T) {
	dst := make([]byte, 4)
	_, err := EncodeSpacePacket(dst, SPTypeTC, SPUnsegmented, 1, 0, nil, []byte{0x01, 0x02})
	require.Error(t, err)
	assert.Equal(t, BufferTooSmall, err.(*Error).Kind)
}

type spCollector struct {
	packets []spEvent
}

type spEvent struct {
	packetType SPPacketType
	seqFlags   SPSequenceFlags
	apid       uint16
	seqCount   uint16
	secHdrFlag bool
	payload    []byte
}

func (c *spCollector) OnSpacePacket(packetType SPPacketType, seqFlags SPSequenceFlags, apid uint16, seqCount uint16, secHdrFlag bool, payload []byte) {
	c.packets = append(c.packets, spEvent{packetType, seqFlags, apid, seqCount, secHdrFlag, append([]byte(nil), payload...)})
}

func TestSpacePacketRoundTrip(t *testing.T) {
	dst := make([]byte, 64)
	n, err := EncodeSpacePacket(dst, SPTypeTM, SPFirst, 0x55, 7, nil, []byte("hello"))
	require.NoError(t, err)

	sink := &spCollector{}
	dec := NewSpacePacketDecoder(sink, 64)
	dec.Feed(dst[:n])

	require.Len(t, sink.packets, 1)
	got := sink.packets[0]
	assert.Equal(t, SPTypeTM, got.packetType)
	assert.Equal(t, SPFirst, got.seqFlags)
	assert.Equal(t, uint16(0x55), got.apid)
	assert.Equal(t, uint16(7), got.seqCount)
	assert.Equal(t, []byte("hello"), got.payload)
}

func TestSpacePacketDecoderEmitsExactlyOnePerFrame(t *testing.T) {
	// Universal property 5, applied to Space Packets: k encoded packets
	// fed in sequence yield exactly k events, in order.
	dst := make([]byte, 256)
	pos := 0
	for i := 0; i < 5; i++ {
		n, err := EncodeSpacePacket(dst[pos:], SPTypeTC, SPUnsegmented, uint16(i), uint16(i), nil, []byte{byte(i)})
		require.NoError(t, err)
		pos += n
	}

	sink := &spCollector{}
	dec := NewSpacePacketDecoder(sink, 64)
	dec.Feed(dst[:pos])

	require.Len(t, sink.packets, 5)
	for i, got := range sink.packets {
		assert.Equal(t, uint16(i), got.apid)
	}
}

func TestSpacePacketDecoderPrefixYieldsNoEmission(t *testing.T) {
	// Universal property 6: feeding any prefix yields no emission; the
	// remaining suffix then yields exactly one.
	dst := make([]byte, 32)
	n, err := EncodeSpacePacket(dst, SPTypeTC, SPUnsegmented, 1, 1, nil, []byte{0x01, 0x02, 0x03})
	require.NoError(t, err)

	sink := &spCollector{}
	dec := NewSpacePacketDecoder(sink, 32)
	dec.Feed(dst[:n-1])
	assert.Empty(t, sink.packets)

	dec.Feed(dst[n-1 : n])
	assert.Len(t, sink.packets, 1)
}

func TestSpacePacketDecoderOverflowCounts(t *testing.T) {
	dst := make([]byte, 32)
	n, err := EncodeSpacePacket(dst, SPTypeTC, SPUnsegmented, 1, 1, nil, []byte{0x01, 0x02, 0x03, 0x04})
	require.NoError(t, err)

	sink := &spCollector{}
	dec := NewSpacePacketDecoder(sink, 2) // smaller than the payload
	dec.Feed(dst[:n])

	assert.Equal(t, uint16(1), dec.Counters.OverflowError)
}

func TestSpacePacketDecoderResetCountsSyncError(t *testing.T) {
	sink := &spCollector{}
	dec := NewSpacePacketDecoder(sink, 32)
	dec.Feed([]byte{0x08, 0x23, 0xC0}) // partial header only
	dec.Reset()
	assert.Equal(t, uint16(1), dec.Counters.SyncError)
}

func TestSpacePacketDecoderResetOnCleanBoundaryNoSyncError(t *testing.T) {
	sink := &spCollector{}
	dec := NewSpacePacketDecoder(sink, 32)
	dec.Reset()
	assert.Zero(t, dec.Counters.SyncError)
}
