package ccsds

// frameState is the shared Transfer Frame decoder state machine of
// spec.md §4.3: WaitSync -> ReadPrimaryHeader -> ReadBody ->
// ValidateAndEmit. TC and TM decoders each drive their own instance of
// this state machine, since only their header sizes, length-lookup and
// process hooks differ (spec.md §9's "capability struct" note).
type frameState int

const (
	frameWaitSync frameState = iota
	frameReadPrimaryHeader
	frameReadBody
)

// asm is the Attached Sync Marker prefixing every TM Transfer Frame on
// the wire (spec.md §6). TC frames have no ASM of their own; on an
// uplink stream synchronization is provided by the CLTU layer instead,
// so a TC decoder starts out synchronized and is re-synchronized via
// SetSync().
var asm = [4]byte{0x1A, 0xCF, 0xFC, 0x1D}

// syncMatcher implements the partial-match-restart byte matcher spec.md
// §4.2/§4.3 both specify: on a partial match followed by the sequence's
// first byte, matching restarts at index 1 rather than 0.
type syncMatcher struct {
	pattern []byte
	index   int
}

// feed advances the matcher by one byte and reports whether the full
// pattern has just been completed.
func (m *syncMatcher) feed(b byte) bool {
	if b == m.pattern[m.index] {
		m.index++
	} else if b == m.pattern[0] {
		m.index = 1
	} else {
		m.index = 0
	}
	if m.index == len(m.pattern) {
		m.index = 0
		return true
	}
	return false
}

func (m *syncMatcher) reset() {
	m.index = 0
}

const padByteFrame = 0xCA
