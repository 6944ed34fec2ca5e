package ccsds

const (
	clcwVersionNumber = 0
	clcwCOPInEffect   = 0x1
)

// CLCW is the Communications Link Control Word carried in the TM OCF
// (spec.md §3, §4.7). Version and COP-in-effect are fixed constants and
// are not represented as struct fields.
type CLCW struct {
	StatusField      uint8
	VirtualChannelID uint8
	NoRFAvailable    bool
	NoBitLock        bool
	Lockout          bool
	Wait             bool
	Retransmit       bool
	FarmBCounter     uint8
	ReportValue      uint8
}

// CreateCLCW packs a CLCW into its 32-bit wire representation (spec.md
// §4.7), ported from original_source/src/ccsds_clcw.cpp::create.
func CreateCLCW(c CLCW) uint32 {
	var word uint32
	word |= uint32(clcwVersionNumber&0x3) << 29
	word |= uint32(c.StatusField&0x7) << 26
	word |= uint32(clcwCOPInEffect&0x3) << 24
	word |= uint32(c.VirtualChannelID&0x3F) << 18
	word |= uint32(boolBit(c.NoRFAvailable, 0)) << 15
	word |= uint32(boolBit(c.NoBitLock, 0)) << 14
	word |= uint32(boolBit(c.Lockout, 0)) << 13
	word |= uint32(boolBit(c.Wait, 0)) << 12
	word |= uint32(boolBit(c.Retransmit, 0)) << 11
	word |= uint32(c.FarmBCounter&0x3) << 9
	word |= uint32(c.ReportValue)
	return word
}

// ExtractCLCW unpacks a 32-bit CLCW word. It returns InvalidVersion if
// the version field does not match the fixed constant (spec.md §4.7).
func ExtractCLCW(word uint32) (CLCW, error) {
	c := CLCW{
		StatusField:      uint8((word >> 26) & 0x7),
		VirtualChannelID:  uint8((word >> 18) & 0x3F),
		NoRFAvailable:    (word>>15)&0x1 != 0,
		NoBitLock:        (word>>14)&0x1 != 0,
		Lockout:          (word>>13)&0x1 != 0,
		Wait:             (word>>12)&0x1 != 0,
		Retransmit:       (word>>11)&0x1 != 0,
		FarmBCounter:     uint8((word >> 9) & 0x3),
		ReportValue:      uint8(word & 0xFF),
	}

	version := uint8((word >> 29) & 0x3)
	if version != clcwVersionNumber {
		return c, newError("ExtractCLCW", InvalidVersion)
	}
	return c, nil
}
