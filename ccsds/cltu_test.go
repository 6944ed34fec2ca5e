package ccsds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cltuCollector struct {
	starts int
	blocks [][7]byte
}

func (c *cltuCollector) OnStartOfTransmission()       { c.starts++ }
func (c *cltuCollector) OnCLTUBlock(block [7]byte)    { c.blocks = append(c.blocks, block) }

func TestEncodeCLTUScenarioS1(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	dst := make([]byte, cltuEncodedSize(len(data)))

	n, err := EncodeCLTU(dst, data)
	require.NoError(t, err)
	require.Equal(t, len(dst), n)

	assert.Equal(t, []byte{0xEB, 0x90}, dst[0:2])
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x55, 0x55, 0x55}, dst[2:9])
	assert.Equal(t, []byte{0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x79}, dst[10:18])
}

func TestEncodeCLTUBufferTooSmall(t *testing.T) {
	dst := make([]byte, 4)
	_, err := EncodeCLTU(dst, []byte{0x01, 0x02, 0x03, 0x04})
	require.Error(t, err)
	assert.Equal(t, BufferTooSmall, err.(*Error).Kind)
}

func TestCLTURoundTripScenarioS1(t *testing.T) {
	// The fixed 0x79 tail terminator does not match the computed BCH CRC
	// of an all-0x55 block, so the decoder loses sync there and reports
	// only the one real data block (spec.md §8 S1).
	data := []byte{0x01, 0x02, 0x03, 0x04}
	dst := make([]byte, cltuEncodedSize(len(data)))
	n, err := EncodeCLTU(dst, data)
	require.NoError(t, err)

	sink := &cltuCollector{}
	dec := NewCLTUDecoder(sink)
	dec.Feed(dst[:n])

	require.Equal(t, 1, sink.starts)
	require.Len(t, sink.blocks, 1)
	assert.Equal(t, [7]byte{0x01, 0x02, 0x03, 0x04, 0x55, 0x55, 0x55}, sink.blocks[0])
}

func TestCLTURoundTripNonMultipleOfSeven(t *testing.T) {
	for n := 1; n <= 20; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i + 1)
		}

		dst := make([]byte, cltuEncodedSize(len(data)))
		written, err := EncodeCLTU(dst, data)
		require.NoError(t, err)

		sink := &cltuCollector{}
		dec := NewCLTUDecoder(sink)
		dec.Feed(dst[:written])

		wantBlocks := (n + cltuDataBlockSize - 1) / cltuDataBlockSize
		assert.Equal(t, 1, sink.starts)
		assert.Len(t, sink.blocks, wantBlocks)
	}
}

func TestCLTUDecoderLosesSyncOnBadCheckByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	dst := make([]byte, cltuEncodedSize(len(data)))
	n, err := EncodeCLTU(dst, data)
	require.NoError(t, err)

	dst[9] ^= 0xFF // corrupt the first block's check byte

	sink := &cltuCollector{}
	dec := NewCLTUDecoder(sink)
	dec.Feed(dst[:n])

	assert.Equal(t, 1, sink.starts)
	assert.Empty(t, sink.blocks)
}

func TestCLTUDecoderPartialSyncRestart(t *testing.T) {
	// 0xEB followed by another 0xEB then 0x90 must still find sync.
	sink := &cltuCollector{}
	dec := NewCLTUDecoder(sink)
	dec.Feed([]byte{0xEB, 0xEB, 0x90})
	assert.Equal(t, 1, sink.starts)
}

func TestCLTUDecoderReset(t *testing.T) {
	sink := &cltuCollector{}
	dec := NewCLTUDecoder(sink)
	dec.Feed([]byte{0xEB, 0x90, 0x01, 0x02, 0x03})
	dec.Reset()
	assert.Equal(t, cltuSearching, dec.state)
	assert.Equal(t, 0, dec.blockIdx)
}
