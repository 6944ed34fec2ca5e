package ccsds

// TCOutput receives the raw bytes of an outgoing telecommand transmission:
// a CLTU when cfg.UseCLTU is set, or otherwise the ASM followed by a raw TC
// Transfer Frame (spec.md §4.10), ported from the two branches of
// original_source/src/tmtc_control.cpp::_createAndSendTf.
type TCOutput interface {
	OnTCOutput(data []byte)
}

// TMPacketSink receives telemetry Space Packets received on a given
// virtual channel (spec.md §4.10).
type TMPacketSink interface {
	OnTMPacket(vc uint8, packetType SPPacketType, seqFlags SPSequenceFlags, apid uint16, seqCount uint16, payload []byte)
}

// TMOcfSink receives each TM frame's raw OCF/CLCW word for a given virtual
// channel (spec.md §4.10), mirroring setTmOcfCallback.
type TMOcfSink interface {
	OnOCF(vc uint8, ocf uint32)
}

// GroundStation is the ground side of the protocol stack: it decodes TM
// Transfer Frames, tracks MCFC/VCFC continuity and the last CLCW per
// virtual channel, reassembles telemetry Space Packets, and builds
// outgoing telecommands in AD or BD mode, optionally CLTU-wrapped
// (spec.md §4.10), ported from original_source/src/tmtc_control.cpp.
type GroundStation struct {
	cfg   Config
	scids []uint16

	tm *TMFrameDecoder
	sp []*SpacePacketDecoder

	tmSink  TMPacketSink
	ocfSink TMOcfSink

	lastCLCW []CLCW

	tcSpBuf    []byte
	tcFrameBuf []byte
	cltuBuf    []byte
	fsn        []uint8

	output TCOutput

	tmMCFC uint8
	tmVCFC []uint8

	Counters ErrorCounters
}

// NewGroundStation returns a GroundStation accepting downlink traffic from
// any of scids, with cfg.MaxTMChannels independent Space Packet
// reassembly states and cfg.MaxTCChannels independent uplink frame
// sequence numbers. tmSink and ocfSink may be nil; output receives
// outgoing telecommand bytes.
func NewGroundStation(cfg Config, scids []uint16, tmSink TMPacketSink, ocfSink TMOcfSink, output TCOutput) *GroundStation {
	if len(scids) > cfg.MaxSCIDs {
		scids = scids[:cfg.MaxSCIDs]
	}

	g := &GroundStation{
		cfg:        cfg,
		scids:      append([]uint16(nil), scids...),
		tmSink:     tmSink,
		ocfSink:    ocfSink,
		lastCLCW:   make([]CLCW, cfg.MaxTCChannels),
		tcSpBuf:    make([]byte, cfg.SPMaxDataSize),
		tcFrameBuf: make([]byte, cfg.TCTFMaxSize),
		fsn:        make([]uint8, cfg.MaxTCChannels),
		output:     output,
		tmVCFC:     make([]uint8, cfg.MaxTMChannels),
	}
	if cfg.UseCLTU {
		g.cltuBuf = make([]byte, cfg.CLTUMaxSize())
	}

	g.sp = make([]*SpacePacketDecoder, cfg.MaxTMChannels)
	for i := range g.sp {
		g.sp[i] = NewSpacePacketDecoder(&tmPacketAdapter{ground: g, vc: uint8(i)}, cfg.SPMaxDataSize)
	}
	g.tm = NewTMFrameDecoder(cfg, g)

	return g
}

type tmPacketAdapter struct {
	ground *GroundStation
	vc     uint8
}

func (a *tmPacketAdapter) OnSpacePacket(packetType SPPacketType, seqFlags SPSequenceFlags, apid uint16, seqCount uint16, secHdrFlag bool, payload []byte) {
	if a.ground.tmSink != nil {
		a.ground.tmSink.OnTMPacket(a.vc, packetType, seqFlags, apid, seqCount, payload)
	}
}

// ScidErrorCount, MCFCErrorCount and VCFCErrorCount report the saturating
// counters accumulated while receiving downlink traffic (spec.md §7).
func (g *GroundStation) ScidErrorCount() uint16 { return g.Counters.ScidError }
func (g *GroundStation) MCFCErrorCount() uint16 { return g.Counters.MCFCError }
func (g *GroundStation) VCFCErrorCount() uint16 { return g.Counters.VCFCError }

// TMSyncErrorCount, TMChecksumErrorCount and TMOverflowErrorCount forward
// the underlying TM frame and Space Packet decoders' counters.
func (g *GroundStation) TMSyncErrorCount() uint16 {
	total := g.tm.Counters.SyncError
	for _, s := range g.sp {
		if s != nil {
			total += s.Counters.SyncError
		}
	}
	return total
}
func (g *GroundStation) TMChecksumErrorCount() uint16 { return g.tm.Counters.ChecksumError }
func (g *GroundStation) TMOverflowErrorCount() uint16 {
	total := g.tm.Counters.OverflowError
	for _, s := range g.sp {
		if s != nil {
			total += s.Counters.OverflowError
		}
	}
	return total
}

// ClearErrorCounters resets every counter this ground station maintains.
func (g *GroundStation) ClearErrorCounters() {
	g.Counters.Clear()
	g.tm.Counters.Clear()
	for _, s := range g.sp {
		if s != nil {
			s.Counters.Clear()
		}
	}
}

// LastCLCW returns the most recently extracted CLCW for virtual channel vc,
// or the zero value if vc is out of range or no CLCW has been seen yet.
func (g *GroundStation) LastCLCW(vc uint8) CLCW {
	if int(vc) < len(g.lastCLCW) {
		return g.lastCLCW[vc]
	}
	return CLCW{}
}

// ProcessDownlink feeds raw downlink bytes into the TM frame decoder
// (spec.md §4.10).
func (g *GroundStation) ProcessDownlink(data []byte) {
	g.tm.Feed(data)
}

// OnTMFrame implements TMSink, ported from TmTcControl::_TfTmCallback.
func (g *GroundStation) OnTMFrame(scid uint16, vc uint8, mcfc, vcfc uint8, secHdrFlag bool, firstHdrPtr uint16, payload []byte, ocf uint32, ocfPresent bool) {
	valid := false
	for _, s := range g.scids {
		if s == scid {
			valid = true
			break
		}
	}
	if !valid {
		incrementSaturating(&g.Counters.ScidError)
		return
	}

	if ocfPresent && int(vc) < len(g.lastCLCW) {
		if c, err := ExtractCLCW(ocf); err == nil {
			g.lastCLCW[vc] = c
		}
	}

	if g.tmMCFC != mcfc {
		incrementSaturating(&g.Counters.MCFCError)
	}
	g.tmMCFC = mcfc + 1
	if int(vc) < len(g.tmVCFC) {
		if g.tmVCFC[vc] != vcfc {
			incrementSaturating(&g.Counters.VCFCError)
		}
		g.tmVCFC[vc] = vcfc + 1
	}

	if int(vc) < len(g.sp) {
		if ocfPresent && g.ocfSink != nil {
			g.ocfSink.OnOCF(vc, ocf)
		}
		g.sp[vc].Feed(payload)
	}
}

// SendTC wraps payload in a telecommand Space Packet and sends it as an
// ordinary (non-control) TC Transfer Frame on virtual channel vc, in AD
// mode unless bypass is set (spec.md §4.10), ported from
// TmTcControl::sendTc.
func (g *GroundStation) SendTC(vc uint8, bypass bool, apid uint16, seqCount uint16, payload []byte) error {
	if int(vc) >= g.cfg.MaxTCChannels {
		return newError("SendTC", BufferTooSmall)
	}

	n, err := EncodeSpacePacket(g.tcSpBuf, SPTypeTC, SPUnsegmented, apid, seqCount, nil, payload)
	if err != nil {
		return err
	}

	return g.createAndSendTC(vc, bypass, false, g.tcSpBuf[:n])
}

// SendInitAD resets virtual channel vc's uplink frame sequence number and
// sends the COP-1 SetV(0) and Unlock control commands to initialize AD mode
// on the spacecraft (spec.md §4.9, §4.10), ported from
// TmTcControl::sendInitAD.
func (g *GroundStation) SendInitAD(vc uint8) error {
	if int(vc) >= g.cfg.MaxTCChannels {
		return newError("SendInitAD", BufferTooSmall)
	}

	g.fsn[vc] = 0

	setV := [3]byte{0x82, 0x00, 0x00}
	if err := g.createAndSendTC(vc, true, true, setV[:]); err != nil {
		return err
	}

	unlock := [1]byte{0x00}
	return g.createAndSendTC(vc, true, true, unlock[:])
}

func (g *GroundStation) createAndSendTC(vc uint8, bypass, ctrlCmd bool, payload []byte) error {
	n, err := EncodeTCFrame(g.tcFrameBuf, g.cfg, bypass, ctrlCmd, g.scid0(), vc, g.fsn[vc], 0, payload)
	if err != nil {
		return err
	}
	if !bypass && !ctrlCmd {
		g.fsn[vc]++
	}

	if g.output == nil {
		return nil
	}

	if g.cfg.UseCLTU {
		m, err := EncodeCLTU(g.cltuBuf, g.tcFrameBuf[:n])
		if err != nil {
			return err
		}
		g.output.OnTCOutput(g.cltuBuf[:m])
	} else {
		g.output.OnTCOutput(asm[:])
		g.output.OnTCOutput(g.tcFrameBuf[:n])
	}
	return nil
}

func (g *GroundStation) scid0() uint16 {
	if len(g.scids) > 0 {
		return g.scids[0]
	}
	return 0
}
