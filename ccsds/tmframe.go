package ccsds

const (
	tmPrimaryHeaderSize  = 6
	tmOCFSize            = 4
	tmFECFSize           = 2
	tmIdleFirstHdrPtr    = 0x7FE
)

// EncodeTMFrame builds a fixed-size TM Transfer Frame: 6-byte primary
// header, payload padded to cfg.TMTFTotalSize with 0xCA, optional 32-bit
// OCF and optional FECF (spec.md §4.5).
func EncodeTMFrame(dst []byte, cfg Config, scid uint16, vcid uint8, mcfc, vcfc uint8, firstHdrPtr uint16, data []byte, ocf uint32) (int, error) {
	return encodeTMFrame(dst, cfg, scid, vcid, mcfc, vcfc, firstHdrPtr, data, ocf)
}

// EncodeIdleTMFrame builds a TM Transfer Frame with first-header pointer
// 0x7FE and a payload region filled entirely with 0xCA (spec.md §4.5).
func EncodeIdleTMFrame(dst []byte, cfg Config, scid uint16, vcid uint8, mcfc, vcfc uint8, ocf uint32) (int, error) {
	return encodeTMFrame(dst, cfg, scid, vcid, mcfc, vcfc, tmIdleFirstHdrPtr, nil, ocf)
}

func encodeTMFrame(dst []byte, cfg Config, scid uint16, vcid uint8, mcfc, vcfc uint8, firstHdrPtr uint16, data []byte, ocf uint32) (int, error) {
	total := cfg.TMTFTotalSize
	if len(dst) < total {
		return 0, newError("EncodeTMFrame", BufferTooSmall)
	}

	ocfLen := 0
	if cfg.UseOCF {
		ocfLen = tmOCFSize
	}
	fecfLen := 0
	if cfg.UseFECF {
		fecfLen = tmFECFSize
	}

	available := total - tmPrimaryHeaderSize - ocfLen - fecfLen
	if len(data) > available {
		return 0, newError("EncodeTMFrame", PayloadTooLarge)
	}

	dst[0] = byte((0&0x3)<<6) | byte((scid>>4)&0x3F)
	dst[1] = byte((scid&0xF)<<4) | byte((vcid&0x7)<<1)
	if cfg.UseOCF {
		dst[1] |= 0x01
	}
	dst[2] = mcfc
	dst[3] = vcfc
	dst[4] = byte((firstHdrPtr >> 8) & 0x07)
	dst[5] = byte(firstHdrPtr & 0xFF)

	pos := tmPrimaryHeaderSize
	copy(dst[pos:], data)
	pos += len(data)
	for i := len(data); i < available; i++ {
		dst[pos] = padByteFrame
		pos++
	}

	if cfg.UseOCF {
		ocfPos := total - fecfLen - ocfLen
		dst[ocfPos] = byte(ocf >> 24)
		dst[ocfPos+1] = byte(ocf >> 16)
		dst[ocfPos+2] = byte(ocf >> 8)
		dst[ocfPos+3] = byte(ocf)
	}

	if cfg.UseFECF {
		crc := crc16CCITT(dst[:total-fecfLen])
		dst[total-2] = byte(crc >> 8)
		dst[total-1] = byte(crc & 0xFF)
	}

	return total, nil
}

// TMSink receives validated TM Transfer Frames (spec.md §4.5, §6).
type TMSink interface {
	OnTMFrame(scid uint16, vcid uint8, mcfc, vcfc uint8, secHdrFlag bool, firstHdrPtr uint16, payload []byte, ocf uint32, ocfPresent bool)
}

// TMFrameDecoder drives the shared Transfer Frame state machine
// (spec.md §4.3) for the TM subtype: ASM-prefixed, primary header size
// 6, fixed total length cfg.TMTFTotalSize.
type TMFrameDecoder struct {
	cfg  Config
	sink TMSink

	state   frameState
	matcher syncMatcher
	buf     []byte
	index   int

	Counters ErrorCounters
}

// NewTMFrameDecoder returns a decoder delivering events to sink.
func NewTMFrameDecoder(cfg Config, sink TMSink) *TMFrameDecoder {
	return &TMFrameDecoder{
		cfg:     cfg,
		sink:    sink,
		state:   frameWaitSync,
		matcher: syncMatcher{pattern: asm[:]},
		buf:     make([]byte, cfg.TMTFTotalSize),
	}
}

// Feed drives the decoder with the next chunk of an incoming byte stream.
func (d *TMFrameDecoder) Feed(data []byte) {
	for _, b := range data {
		d.feedByte(b)
	}
}

func (d *TMFrameDecoder) feedByte(b byte) {
	switch d.state {
	case frameWaitSync:
		if d.matcher.feed(b) {
			d.state = frameReadPrimaryHeader
			d.index = 0
		}
	case frameReadPrimaryHeader:
		d.buf[d.index] = b
		d.index++
		if d.index == tmPrimaryHeaderSize {
			d.state = frameReadBody
		}
	case frameReadBody:
		d.buf[d.index] = b
		d.index++
		if d.index == d.cfg.TMTFTotalSize {
			d.validateAndEmit()
			d.index = 0
			d.state = frameWaitSync
			d.matcher.reset()
		}
	}
}

func (d *TMFrameDecoder) validateAndEmit() {
	frame := d.buf[:d.cfg.TMTFTotalSize]
	body := frame
	if d.cfg.UseFECF {
		got := uint16(frame[len(frame)-2])<<8 | uint16(frame[len(frame)-1])
		body = frame[:len(frame)-tmFECFSize]
		if crc16CCITT(body) != got {
			incrementSaturating(&d.Counters.ChecksumError)
			return
		}
	}

	scid := (uint16(frame[0]&0x3F) << 4) | uint16(frame[1]&0xF0)>>4
	vcid := (frame[1] & 0x0E) >> 1
	ocfFlag := frame[1]&0x01 != 0
	mcfc := frame[2]
	vcfc := frame[3]
	secHdrFlag := frame[4]&0x80 != 0
	firstHdrPtr := (uint16(frame[4]&0x07) << 8) | uint16(frame[5])

	var ocf uint32
	ocfPresent := d.cfg.UseOCF && ocfFlag
	payloadEnd := len(body)
	if ocfPresent {
		ocfPos := len(body) - tmOCFSize
		ocf = uint32(frame[ocfPos])<<24 | uint32(frame[ocfPos+1])<<16 | uint32(frame[ocfPos+2])<<8 | uint32(frame[ocfPos+3])
		payloadEnd = ocfPos
	}

	payload := frame[tmPrimaryHeaderSize:payloadEnd]
	if d.sink != nil {
		d.sink.OnTMFrame(scid, vcid, mcfc, vcfc, secHdrFlag, firstHdrPtr, payload, ocf, ocfPresent)
	}
}
