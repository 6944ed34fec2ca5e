package ccsds

const (
	pusTCMinSecHdrSize    = 4
	pusSecHdrFlagPos      = 7
	pusVersionPos         = 4
	pusAckCompPos         = 3
	pusAckProgPos         = 2
	pusAckStartPos        = 1
	pusAckAccPos          = 0
	pusServicePos         = 1
	pusSubservicePos      = 2
	pusSourceIDPos        = 3
	pusSparePos           = 4
	pusVersion            = 0x1
)

// PUSAckFlags are the four acknowledgement-report requests of a PUS TC
// secondary header (spec.md §3, §4.8).
type PUSAckFlags struct {
	Acceptance bool
	Start      bool
	Progress   bool
	Completion bool
}

// EncodePUSTC writes a PUS TC secondary header into hdr (at least
// cfg.PUSTCDefaultSecHeaderSize / the caller-chosen secHdrSize bytes,
// minimum 4) and copies payload into body verbatim (spec.md §4.8).
// Source ID is only written when secHdrSize >= 4 (always true given the
// minimum), per original_source/src/pus_tc.cpp.
func EncodePUSTC(hdr []byte, secHdrSize int, ack PUSAckFlags, service, subservice, sourceID uint8, body, payload []byte) (int, error) {
	if secHdrSize < pusTCMinSecHdrSize {
		secHdrSize = pusTCMinSecHdrSize
	}
	if len(hdr) < secHdrSize {
		return 0, newError("EncodePUSTC", BufferTooSmall)
	}
	if len(body) < len(payload) {
		return 0, newError("EncodePUSTC", BufferTooSmall)
	}

	hdr[0] = boolBit(false, pusSecHdrFlagPos) | // CcsdsSecHdrFlag = Custom (0)
		byte((pusVersion&0x7)<<pusVersionPos) |
		boolBit(ack.Acceptance, pusAckAccPos) |
		boolBit(ack.Start, pusAckStartPos) |
		boolBit(ack.Progress, pusAckProgPos) |
		boolBit(ack.Completion, pusAckCompPos)
	hdr[pusServicePos] = service
	hdr[pusSubservicePos] = subservice
	if secHdrSize > pusSourceIDPos {
		hdr[pusSourceIDPos] = sourceID
	}
	for i := pusSparePos; i < secHdrSize; i++ {
		hdr[i] = 0
	}

	copy(body, payload)
	return len(payload), nil
}

// PUSTCChecksum computes the optional PEC trailer over a PUS TC's
// secondary header and payload using the same CRC-CCITT-16 engine as the
// frame FECF. It exists, per spec.md §9, but is not wired into the
// encode/decode path: ECSS-E-70-41A permits either no checksum or a PEC
// trailer, and callers append it themselves when required.
func PUSTCChecksum(secHdr, payload []byte) uint16 {
	combined := make([]byte, 0, len(secHdr)+len(payload))
	combined = append(combined, secHdr...)
	combined = append(combined, payload...)
	return crc16CCITT(combined)
}

// PUSTCSink receives parsed PUS telecommands (spec.md §4.8, §6).
type PUSTCSink interface {
	OnPUSTC(ack PUSAckFlags, service, subservice, sourceID uint8, payload []byte)
}

// PUSTCDecoder parses a complete PUS TC buffer (secondary header +
// payload) against a fixed, configured header size.
type PUSTCDecoder struct {
	secHdrSize int
	sink       PUSTCSink
}

// NewPUSTCDecoder returns a decoder reading a secHdrSize-byte secondary
// header (minimum 4; defaults to the minimum if smaller).
func NewPUSTCDecoder(secHdrSize int, sink PUSTCSink) *PUSTCDecoder {
	if secHdrSize < pusTCMinSecHdrSize {
		secHdrSize = pusTCMinSecHdrSize
	}
	return &PUSTCDecoder{secHdrSize: secHdrSize, sink: sink}
}

// Decode parses buf, which must be at least the configured secondary
// header size, and invokes OnPUSTC with the payload following the
// header.
func (d *PUSTCDecoder) Decode(buf []byte) error {
	if len(buf) < pusTCMinSecHdrSize || len(buf) < d.secHdrSize {
		return newError("PUSTCDecoder.Decode", BufferTooSmall)
	}

	flags := buf[0]
	ack := PUSAckFlags{
		Acceptance: flags&(1<<pusAckAccPos) != 0,
		Start:      flags&(1<<pusAckStartPos) != 0,
		Progress:   flags&(1<<pusAckProgPos) != 0,
		Completion: flags&(1<<pusAckCompPos) != 0,
	}
	service := buf[pusServicePos]
	subservice := buf[pusSubservicePos]
	var sourceID uint8
	if d.secHdrSize >= pusSourceIDPos+1 {
		sourceID = buf[pusSourceIDPos]
	}

	if d.sink != nil {
		d.sink.OnPUSTC(ack, service, subservice, sourceID, buf[d.secHdrSize:])
	}
	return nil
}
