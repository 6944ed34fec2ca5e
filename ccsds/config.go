package ccsds

// Config freezes the compile-time knobs of the original C++ implementation
// (see original_source/src/configCCSDS.h) into a runtime value. A
// Coordinator, GroundStation, TCFrameDecoder or TMFrameDecoder is built
// against one Config and never resizes its internal buffers afterwards.
type Config struct {
	// SPMaxDataSize bounds the Space Packet payload a decoder will buffer.
	SPMaxDataSize int

	// TCTFMaxSize bounds the total length of a TC Transfer Frame (<=1024).
	TCTFMaxSize int

	// TMTFTotalSize is the fixed size of every TM Transfer Frame (<=1024).
	TMTFTotalSize int

	// UseOCF includes the Operational Control Field in TM frames.
	UseOCF bool

	// UseFECF appends a CRC-CCITT-16 Frame Error Control Field to TM and
	// TC frames.
	UseFECF bool

	// TCUseSegmentHeader includes the 1-byte segment header (MAP) in TC
	// frames.
	TCUseSegmentHeader bool

	// UseCLTU enables the CLTU layer in the coordinators.
	UseCLTU bool

	// MaxSCIDs bounds the allow-list of accepted spacecraft IDs.
	MaxSCIDs int

	// FarmSlidingWindowWidth is W from spec.md §4.9: a power of two <=256.
	FarmSlidingWindowWidth int

	// MaxTCChannels is the number of per-VC FARM-1 states.
	MaxTCChannels int

	// MaxTMChannels is the number of per-VC TM frame counters.
	MaxTMChannels int

	// PUSTCDefaultSecHeaderSize is the default PUS TC secondary-header
	// size (>=4).
	PUSTCDefaultSecHeaderSize int

	// IdleVC is the virtual channel used for idle TM frames.
	IdleVC int
}

// DefaultConfig mirrors the defaults baked into original_source's
// configCCSDS.h and configCCSDS.Arduino.h.
func DefaultConfig() Config {
	return Config{
		SPMaxDataSize:             496,
		TCTFMaxSize:               508,
		TMTFTotalSize:             508,
		UseOCF:                    true,
		UseFECF:                   true,
		TCUseSegmentHeader:        true,
		UseCLTU:                   true,
		MaxSCIDs:                  2,
		FarmSlidingWindowWidth:    16,
		MaxTCChannels:             1,
		MaxTMChannels:             8,
		PUSTCDefaultSecHeaderSize: 5,
		IdleVC:                    7,
	}
}

// CLTUMaxSize returns the minimum destination buffer size for a CLTU
// encoding a frame of at most c.TCTFMaxSize bytes (spec.md §4.2).
func (c Config) CLTUMaxSize() int {
	return cltuEncodedSize(c.TCTFMaxSize)
}
