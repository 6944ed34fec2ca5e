package ccsds

// TMOutput receives the raw bytes of an outgoing TM transmission: the ASM
// followed by one complete Transfer Frame (spec.md §4.10), mirroring the
// two onTmDataCreated calls of original_source/src/tmtc_client.cpp.
type TMOutput interface {
	OnTMOutput(data []byte)
}

// TCPacketSink receives telecommand Space Packets FARM-1 has accepted on a
// given virtual channel and routed past the COP-1 control commands
// (spec.md §4.9, §4.10).
type TCPacketSink interface {
	OnTCPacket(vc uint8, packetType SPPacketType, seqFlags SPSequenceFlags, apid uint16, seqCount uint16, payload []byte)
}

// Coordinator is the spacecraft side of the protocol stack: it terminates
// an uplink of CLTUs or raw TC Transfer Frames, runs FARM-1 per virtual
// channel, reassembles accepted telecommand Space Packets, and builds
// outgoing TM Transfer Frames carrying telemetry Space Packets padded with
// idle packets and a CLCW reflecting FARM-1's state (spec.md §4.10),
// ported from original_source/src/tmtc_client.cpp.
type Coordinator struct {
	cfg   Config
	scids []uint16

	cltu *CLTUDecoder
	tc   *TCFrameDecoder
	farm *FarmTable
	sp   []*SpacePacketDecoder

	tcSink TCPacketSink

	tmBuf []byte
	spBuf []byte

	tmMCFC       uint8
	tmVCFC       []uint8
	idleSeqCount uint16

	output TMOutput

	Counters ErrorCounters
}

// NewCoordinator returns a Coordinator accepting uplink traffic addressed
// to any of scids, with cfg.MaxTCChannels independent FARM-1 and Space
// Packet reassembly states. tcSink receives accepted telecommands; output
// receives outgoing TM bytes.
func NewCoordinator(cfg Config, scids []uint16, tcSink TCPacketSink, output TMOutput) *Coordinator {
	if len(scids) > cfg.MaxSCIDs {
		scids = scids[:cfg.MaxSCIDs]
	}

	c := &Coordinator{
		cfg:    cfg,
		scids:  append([]uint16(nil), scids...),
		tcSink: tcSink,
		tmBuf:  make([]byte, cfg.TMTFTotalSize),
		spBuf:  make([]byte, cfg.SPMaxDataSize),
		tmVCFC: make([]uint8, cfg.MaxTMChannels),
		output: output,
	}

	c.sp = make([]*SpacePacketDecoder, cfg.MaxTCChannels)
	for i := range c.sp {
		c.sp[i] = NewSpacePacketDecoder(&tcPacketAdapter{coord: c, vc: uint8(i)}, cfg.SPMaxDataSize)
	}
	c.farm = NewFarmTable(cfg.MaxTCChannels, cfg.FarmSlidingWindowWidth, &farmAdapter{coord: c}, c.sp)

	c.tc = NewTCFrameDecoder(cfg, c)
	if cfg.UseCLTU {
		c.cltu = NewCLTUDecoder(c)
	}

	return c
}

// tcPacketAdapter binds a SpacePacketDecoder callback to a fixed virtual
// channel so it can be forwarded to the coordinator's single TCPacketSink.
type tcPacketAdapter struct {
	coord *Coordinator
	vc    uint8
}

func (a *tcPacketAdapter) OnSpacePacket(packetType SPPacketType, seqFlags SPSequenceFlags, apid uint16, seqCount uint16, secHdrFlag bool, payload []byte) {
	if a.coord.tcSink != nil {
		a.coord.tcSink.OnTCPacket(a.vc, packetType, seqFlags, apid, seqCount, payload)
	}
}

// farmAdapter routes frames FARM-1 accepted as ordinary telecommand data
// into that channel's Space Packet reassembly.
type farmAdapter struct {
	coord *Coordinator
}

func (a *farmAdapter) OnAccepted(vc uint8, payload []byte) {
	if int(vc) < len(a.coord.sp) {
		a.coord.sp[vc].Feed(payload)
	}
}

// ScidErrorCount, VcErrorCount, RetransmitErrorCount and LockoutErrorCount
// report the saturating counters accumulated while accepting uplink
// traffic (spec.md §7).
func (c *Coordinator) ScidErrorCount() uint16       { return c.Counters.ScidError }
func (c *Coordinator) VcErrorCount() uint16         { return c.Counters.VcError }
func (c *Coordinator) RetransmitErrorCount() uint16 { return c.farm.Counters.RetransmitError }
func (c *Coordinator) LockoutErrorCount() uint16    { return c.farm.Counters.LockoutError }

// ClearErrorCounters resets every counter this coordinator maintains.
func (c *Coordinator) ClearErrorCounters() {
	c.Counters.Clear()
	c.farm.Counters.Clear()
}

// SetSync marks the TC frame decoder as byte-aligned, used when the uplink
// delivers raw TC Transfer Frames without a CLTU wrapper (spec.md §4.10).
func (c *Coordinator) SetSync() {
	c.tc.SetSync()
}

// ProcessUplink feeds raw uplink bytes into the CLTU layer when enabled, or
// directly into the TC frame decoder otherwise (spec.md §4.10).
func (c *Coordinator) ProcessUplink(data []byte) {
	if c.cfg.UseCLTU {
		c.cltu.Feed(data)
	} else {
		c.tc.Feed(data)
	}
}

// OnStartOfTransmission implements CLTUSink: the CLTU start sequence
// re-synchronizes the TC frame decoder (spec.md §4.10).
func (c *Coordinator) OnStartOfTransmission() {
	c.tc.SetSync()
}

// OnCLTUBlock implements CLTUSink: each validated CLTU data block is TC
// Transfer Frame bytes.
func (c *Coordinator) OnCLTUBlock(block [7]byte) {
	c.tc.Feed(block[:])
}

// OnTCFrame implements TCSink: validates the frame's spacecraft ID and
// virtual channel before handing it to FARM-1 (spec.md §4.10), ported from
// TmTcClient::onTransferframeTcReceived.
func (c *Coordinator) OnTCFrame(bypass, ctrlCmd bool, scid uint16, vc uint8, fsn uint8, mapID uint8, payload []byte) {
	valid := false
	for _, s := range c.scids {
		if s == scid {
			valid = true
			break
		}
	}
	if !valid {
		incrementSaturating(&c.Counters.ScidError)
		return
	}

	if int(vc) >= c.cfg.MaxTCChannels {
		incrementSaturating(&c.Counters.VcError)
		return
	}

	c.farm.ProcessTCFrame(vc, bypass, ctrlCmd, fsn, payload)
}

// SendTM builds a telemetry Space Packet, pads the remainder of the Space
// Packet area with an idle packet when at least a minimal idle packet (7
// bytes) fits there, wraps it in a TM Transfer Frame carrying
// a CLCW for vc, and delivers the ASM and frame to output (spec.md §4.10),
// ported from TmTcClient::sendTm.
func (c *Coordinator) SendTM(vc uint8, apid uint16, seqCount uint16, payload []byte) error {
	if int(vc) >= c.cfg.MaxTMChannels {
		return newError("SendTM", BufferTooSmall)
	}

	n, err := EncodeSpacePacket(c.spBuf, SPTypeTM, SPUnsegmented, apid, seqCount, nil, payload)
	if err != nil {
		return err
	}

	if len(c.spBuf)-n >= spHeaderSize+1 {
		m, err := EncodeIdleSpacePacket(c.spBuf[n:], c.idleSeqCount, len(c.spBuf)-n)
		if err != nil {
			return err
		}
		c.idleSeqCount++
		n += m
	}

	ocf := c.clcwFor(vc)

	total, err := EncodeTMFrame(c.tmBuf, c.cfg, c.scid0(), vc, c.tmMCFC, c.tmVCFC[vc], 0, c.spBuf[:n], ocf)
	if err != nil {
		return err
	}
	c.tmMCFC++
	c.tmVCFC[vc]++

	c.emitTM(total)
	return nil
}

// SendIdle builds an idle TM Transfer Frame on the configured idle virtual
// channel and delivers it to output (spec.md §4.10), ported from
// TmTcClient::sendIdle.
func (c *Coordinator) SendIdle() error {
	vc := uint8(c.cfg.IdleVC)
	if int(vc) >= c.cfg.MaxTMChannels {
		vc = 0
	}

	ocf := c.clcwFor(vc)

	total, err := EncodeIdleTMFrame(c.tmBuf, c.cfg, c.scid0(), vc, c.tmMCFC, c.tmVCFC[vc], ocf)
	if err != nil {
		return err
	}
	c.tmMCFC++
	c.tmVCFC[vc]++

	c.emitTM(total)
	return nil
}

func (c *Coordinator) clcwFor(vc uint8) uint32 {
	if state := c.farm.State(vc); state != nil {
		return CreateCLCW(CLCW{
			VirtualChannelID: vc,
			NoRFAvailable:    state.NoRFAvailable,
			NoBitLock:        state.NoBitLock,
			Lockout:          state.Lockout,
			Wait:             state.Wait,
			Retransmit:       state.Retransmit,
			FarmBCounter:     state.FarmBCounter,
			ReportValue:      state.NextFrameSeqNumber,
		})
	}
	return CreateCLCW(CLCW{VirtualChannelID: vc, NoRFAvailable: true, NoBitLock: true})
}

func (c *Coordinator) scid0() uint16 {
	if len(c.scids) > 0 {
		return c.scids[0]
	}
	return 0
}

func (c *Coordinator) emitTM(n int) {
	if c.output == nil {
		return
	}
	c.output.OnTMOutput(asm[:])
	c.output.OnTMOutput(c.tmBuf[:n])
}
