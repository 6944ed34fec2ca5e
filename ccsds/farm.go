package ccsds

// FarmState holds one virtual channel's Frame Acceptance and Reporting
// Mechanism state (spec.md §4.9), ported from the ma_COP entries of
// original_source/src/tmtc_client.cpp and tmtc_control.cpp.
type FarmState struct {
	NoRFAvailable      bool
	NoBitLock          bool
	Lockout            bool
	Wait               bool
	Retransmit         bool
	FarmBCounter       uint8
	NextFrameSeqNumber uint8
}

// FarmSink receives telecommand payloads FARM-1 has accepted and which are
// not control commands (spec.md §4.9).
type FarmSink interface {
	OnAccepted(vc uint8, payload []byte)
}

// FarmTable runs FARM-1 independently for each virtual channel of a single
// TC physical channel (spec.md §4.9). windowWidth is the sliding window W;
// half of it bounds the positive (retransmit) and negative (discard)
// regions around the expected frame sequence number.
type FarmTable struct {
	states      []FarmState
	windowWidth int
	sink        FarmSink
	packets     []*SpacePacketDecoder

	Counters ErrorCounters
}

// NewFarmTable returns a table of channels independent FARM-1 states, each
// starting with NoBitLock set (spec.md §4.9's power-up state) and
// NextFrameSeqNumber 0. packets, if non-nil, supplies one SpacePacketDecoder
// per virtual channel whose in-progress reassembly is discarded whenever a
// type-A frame on that channel fails the sliding-window check, since a gap
// in the AD-mode byte stream invalidates any packet spanning it. Frames
// dropped because the channel is already locked out do not reset it.
func NewFarmTable(channels int, windowWidth int, sink FarmSink, packets []*SpacePacketDecoder) *FarmTable {
	states := make([]FarmState, channels)
	for i := range states {
		states[i] = FarmState{NoBitLock: true}
	}
	return &FarmTable{
		states:      states,
		windowWidth: windowWidth,
		sink:        sink,
		packets:     packets,
	}
}

// State returns the FARM-1 state of virtual channel vc, or nil if vc is out
// of range.
func (f *FarmTable) State(vc uint8) *FarmState {
	if int(vc) >= len(f.states) {
		return nil
	}
	return &f.states[vc]
}

func (f *FarmTable) resetPacket(vc uint8) {
	if int(vc) < len(f.packets) && f.packets[vc] != nil {
		f.packets[vc].Reset()
	}
}

// ProcessTCFrame runs FARM-1 acceptance on a single validated TC Transfer
// Frame's payload (spec.md §4.9), ported from
// TmTcClient::onTransferframeTcReceived. bypass selects BD mode (type-B,
// unconditionally accepted, only advancing FarmBCounter mod 4); ctrlCmd
// marks the payload as a COP-1 control command (Unlock / SetV(R)) rather
// than ordinary telecommand data, which is instead forwarded to sink.
// ProcessTCFrame reports whether the frame was accepted.
func (f *FarmTable) ProcessTCFrame(vc uint8, bypass, ctrlCmd bool, fsn uint8, payload []byte) bool {
	state := f.State(vc)
	if state == nil {
		return false
	}

	if !bypass {
		if state.Lockout {
			return false
		}

		diff := int8(state.NextFrameSeqNumber - fsn)
		if diff != 0 {
			half := int8(f.windowWidth / 2)
			switch {
			case diff > 0 && diff < half:
				// received frame is behind the window: a duplicate or
				// already-processed retransmission, discard silently.
			case diff < 0 && diff >= -half:
				state.Retransmit = true
				incrementSaturating(&f.Counters.RetransmitError)
			default:
				state.Lockout = true
				incrementSaturating(&f.Counters.LockoutError)
			}
			f.resetPacket(vc)
			return false
		}

		state.Retransmit = false
		state.NextFrameSeqNumber = fsn + 1
	} else {
		state.FarmBCounter = (state.FarmBCounter + 1) & 0x3
	}

	if ctrlCmd {
		switch {
		case len(payload) == 1 && payload[0] == 0x00:
			f.ctrlCmdUnlock(vc)
		case len(payload) == 3 && payload[0] == 0x82 && payload[1] == 0x00:
			f.ctrlCmdSetV(vc, payload[2])
		}
		return true
	}

	if f.sink != nil {
		f.sink.OnAccepted(vc, payload)
	}
	return true
}

func (f *FarmTable) ctrlCmdUnlock(vc uint8) {
	if state := f.State(vc); state != nil {
		state.Lockout = false
	}
}

func (f *FarmTable) ctrlCmdSetV(vc uint8, r uint8) {
	if state := f.State(vc); state != nil {
		state.NextFrameSeqNumber = r
		state.Retransmit = false
	}
}
