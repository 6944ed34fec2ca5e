package ccsds

const (
	tcPrimaryHeaderSize = 5
	tcSegmentHeaderSize = 1
	tcFECFSize          = 2

	tcSeqFlagsNoSegmentation = 0x3
)

// EncodeTCFrame builds a TC Transfer Frame primary header, optional
// 1-byte segment header, payload, pad and optional FECF into dst
// (spec.md §4.4). data must be non-empty. The frame length field written
// into the header is always (total frame length - 1).
func EncodeTCFrame(dst []byte, cfg Config, bypass, ctrlCmd bool, scid uint16, vcid uint8, fsn uint8, mapID uint8, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, newError("EncodeTCFrame", EmptyPayload)
	}

	headerLen := tcPrimaryHeaderSize
	if cfg.TCUseSegmentHeader {
		headerLen += tcSegmentHeaderSize
	}
	fecfLen := 0
	if cfg.UseFECF {
		fecfLen = tcFECFSize
	}

	minSize := headerLen + len(data) + fecfLen
	if len(dst) < minSize {
		return 0, newError("EncodeTCFrame", BufferTooSmall)
	}

	total := cfg.TCTFMaxSize
	if total > len(dst) {
		total = len(dst)
	}
	if total < minSize {
		total = minSize
	}

	frameLength := total - 1

	pos := 0
	dst[pos] = (0 << 6) | boolBit(bypass, 5) | boolBit(ctrlCmd, 4) | byte((scid>>8)&0x03)
	dst[pos+1] = byte(scid & 0xFF)
	dst[pos+2] = byte((vcid&0x3F)<<2) | byte((frameLength>>8)&0x03)
	dst[pos+3] = byte(frameLength & 0xFF)
	dst[pos+4] = fsn
	pos += tcPrimaryHeaderSize

	if cfg.TCUseSegmentHeader {
		dst[pos] = byte(tcSeqFlagsNoSegmentation<<6) | (mapID & 0x3F)
		pos += tcSegmentHeaderSize
	}

	copy(dst[pos:], data)
	pos += len(data)

	padEnd := total - fecfLen
	for ; pos < padEnd; pos++ {
		dst[pos] = padByteFrame
	}

	if fecfLen > 0 {
		crc := crc16CCITT(dst[:pos])
		dst[pos] = byte(crc >> 8)
		dst[pos+1] = byte(crc & 0xFF)
		pos += tcFECFSize
	}

	return pos, nil
}

func boolBit(b bool, shift uint) byte {
	if b {
		return 1 << shift
	}
	return 0
}

// TCSink receives validated TC Transfer Frames (spec.md §4.4, §6).
type TCSink interface {
	OnTCFrame(bypass, ctrlCmd bool, scid uint16, vcid uint8, fsn uint8, mapID uint8, payload []byte)
}

// TCFrameDecoder drives the shared Transfer Frame state machine
// (spec.md §4.3) for the TC subtype: no ASM, primary header size 5,
// frame length read from bytes 2-3 of the header.
type TCFrameDecoder struct {
	cfg  Config
	sink TCSink

	state    frameState
	buf      []byte
	index    int
	wantLen  int
	synced   bool

	Counters ErrorCounters
}

// NewTCFrameDecoder returns a decoder delivering events to sink.
func NewTCFrameDecoder(cfg Config, sink TCSink) *TCFrameDecoder {
	return &TCFrameDecoder{
		cfg:   cfg,
		sink:  sink,
		state: frameReadPrimaryHeader,
		buf:   make([]byte, cfg.TCTFMaxSize),
	}
}

// SetSync bypasses WaitSync, since TC frames carried inside a CLTU have
// no ASM of their own (spec.md §4.3).
func (d *TCFrameDecoder) SetSync() {
	d.synced = true
	d.state = frameReadPrimaryHeader
	d.index = 0
}

// Feed drives the decoder with the next chunk of an incoming byte stream.
func (d *TCFrameDecoder) Feed(data []byte) {
	for _, b := range data {
		d.feedByte(b)
	}
}

func (d *TCFrameDecoder) feedByte(b byte) {
	if !d.synced {
		// Without an explicit SetSync() call, a TC decoder assumes the
		// caller already delivers frame-aligned bytes (e.g. from a CLTU
		// block boundary) and behaves as if always synchronized.
		d.synced = true
	}

	switch d.state {
	case frameWaitSync:
		// unreachable for TC: SetSync()/construction always starts
		// synchronized.
		d.state = frameReadPrimaryHeader
		fallthrough
	case frameReadPrimaryHeader:
		d.buf[d.index] = b
		d.index++
		if d.index == tcPrimaryHeaderSize {
			d.wantLen = (((int(d.buf[2]) & 0x03) << 8) | int(d.buf[3])) + 1
			// Shortest valid frame: headers, one data byte, optional FECF.
			minLen := tcPrimaryHeaderSize + 1
			if d.cfg.TCUseSegmentHeader {
				minLen += tcSegmentHeaderSize
			}
			if d.cfg.UseFECF {
				minLen += tcFECFSize
			}
			if d.wantLen > len(d.buf) || d.wantLen > d.cfg.TCTFMaxSize || d.wantLen < minLen {
				incrementSaturating(&d.Counters.OverflowError)
				d.index = 0
				d.state = frameReadPrimaryHeader
				return
			}
			d.state = frameReadBody
		}
	case frameReadBody:
		d.buf[d.index] = b
		d.index++
		if d.index == d.wantLen {
			d.validateAndEmit()
			d.index = 0
			d.state = frameReadPrimaryHeader
		}
	}
}

func (d *TCFrameDecoder) validateAndEmit() {
	frame := d.buf[:d.wantLen]
	body := frame
	if d.cfg.UseFECF {
		if d.wantLen < tcFECFSize {
			incrementSaturating(&d.Counters.ChecksumError)
			return
		}
		body = frame[:d.wantLen-tcFECFSize]
		got := uint16(frame[d.wantLen-2])<<8 | uint16(frame[d.wantLen-1])
		if crc16CCITT(body) != got {
			incrementSaturating(&d.Counters.ChecksumError)
			return
		}
	}

	bypass := frame[0]&0x20 != 0
	ctrlCmd := frame[0]&0x10 != 0
	scid := (uint16(frame[0]&0x03) << 8) | uint16(frame[1])
	vcid := (frame[2] & 0xFC) >> 2
	fsn := frame[4]

	headerLen := tcPrimaryHeaderSize
	var mapID uint8
	if d.cfg.TCUseSegmentHeader {
		mapID = body[tcPrimaryHeaderSize] & 0x3F
		headerLen += tcSegmentHeaderSize
	}

	payload := body[headerLen:]
	if d.sink != nil {
		d.sink.OnTCFrame(bypass, ctrlCmd, scid, vcid, fsn, mapID, payload)
	}
}
