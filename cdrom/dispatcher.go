package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	Device Manager entry points: Open/Prime/Control/Status/
 *		Interrupt (§4.8). Resolves a drive, delegates reads to the
 *		backend, and marshals TOC/position/gestalt data into the
 *		guest parameter block.
 *
 * Description:	Ported from BasiliskII's cdrom.cpp CDROMOpen/CDROMPrime/
 *		CDROMControl/CDROMStatus/CDROMInterrupt. Every path returns a
 *		Status instead of throwing; unknown Control/Status codes are
 *		logged and return ControlErr/StatusErr (§7).
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
)

// Dispatcher implements the guest Device Manager contract over a Registry.
type Dispatcher struct {
	reg     *Registry
	players *PlayerSet
	log     Logger

	accRunCalled bool
}

// NewDispatcher wires a dispatcher to reg; players tracks at-most-one-
// playing across every drive's CDPlayer.
func NewDispatcher(reg *Registry, players *PlayerSet, log Logger) *Dispatcher {
	return &Dispatcher{reg: reg, players: players, log: log}
}

// resolveDrive implements Prime's two-pass lookup: by drive number first,
// then by driver reference number (§4.8).
func (d *Dispatcher) resolveDrive(driveNum uint32, driverRefNum int16) (*DriveInfo, Status) {
	if di := d.reg.ByDriveNumber(driveNum); di != nil {
		return di, NoErr
	}
	if di := d.reg.ByDriverRefNum(driverRefNum); di != nil {
		return di, NoErr
	}
	return nil, NSDrvErr
}

// Prime performs a cooked read (or rejects a write) at the guest-relative
// position, honoring the HFS-root zero-fill special case (§4.8).
func (d *Dispatcher) Prime(driveNum uint32, driverRefNum int16, write bool, position int64, buf []byte) (actCount int, status Status) {
	di, st := d.resolveDrive(driveNum, driverRefNum)
	if st != NoErr {
		return 0, st
	}
	if di.Backend == nil || !di.DiskInPlace {
		return 0, OffLinErr
	}
	if write {
		return 0, WPrErr
	}
	if int64(len(buf))%int64(di.BlockSize) != 0 || position%int64(di.BlockSize) != 0 {
		return 0, ParamErr
	}

	absPos := position + di.StartByte
	di.TwoKOffset = int(absPos % 2048)

	n, err := di.Backend.Read(absPos, buf)
	if n == len(buf) {
		return n, NoErr
	}

	if position == 0x400 && len(buf) == 512 {
		for i := range buf {
			buf[i] = 0
		}
		return 512, NoErr
	}

	if err != nil {
		d.log.Warnf("prime: read error at drive %d position %d: %v", driveNum, position, err)
	}
	return n, ReadErr
}

// Control codes (§4.8).
const (
	CtrlKillIO           = 1
	CtrlVerify           = 5
	CtrlFormat           = 6
	CtrlEject            = 7
	CtrlDriveIcon        = 21
	CtrlMediaIcon        = 22
	CtrlDriveInfo        = 23
	CtrlDriverGestalt    = 43
	CtrlAccRun           = 65
	CtrlSetPowerMode     = 70
	CtrlModifyPostEvent  = 76
	CtrlSetBlockSize     = 79
	CtrlSetUserEject     = 80
	CtrlPollFrequency    = 81
	CtrlCDFirst          = 100
	CtrlCDLast           = 126
)

// Control dispatches a Control() call. csParam carries the command's
// argument word(s); its interpretation is code-specific, mirroring the
// original's raw csParam reinterpretation per case. data carries any
// payload longer than one word (a TOC table, a Q-subcode record); most
// codes leave it nil and return everything through result.
func (d *Dispatcher) Control(driveNum uint32, driverRefNum int16, code int, csParam uint32) (result uint32, data []byte, status Status) {
	di, st := d.resolveDrive(driveNum, driverRefNum)
	if st != NoErr && code != CtrlKillIO {
		return 0, nil, st
	}

	switch code {
	case CtrlKillIO:
		return 0, nil, NoErr

	case CtrlVerify:
		if di.Backend == nil || !di.DiskInPlace {
			return 0, nil, OffLinErr
		}
		return 0, nil, NoErr

	case CtrlFormat:
		return 0, nil, WritErr

	case CtrlEject:
		return 0, nil, d.eject(di)

	case CtrlDriveIcon, CtrlMediaIcon:
		return 0, nil, NoErr // icon address resolution is host UI glue, out of scope

	case CtrlDriveInfo:
		return 0x00000b01, nil, NoErr

	case CtrlDriverGestalt:
		v, ok := driverGestalt(fourCC(csParam), di, driverRefNum)
		if !ok {
			return 0, nil, StatusErr
		}
		return v, nil, NoErr

	case CtrlAccRun:
		if !d.accRunCalled {
			d.accRunCalled = true
			d.runMountPending()
		}
		return 0, nil, NoErr

	case CtrlSetPowerMode:
		if csParam > 3 {
			return 0, nil, ParamErr
		}
		di.Power = PowerMode(csParam)
		return 0, nil, NoErr

	case CtrlModifyPostEvent:
		di.MountNonHFS = csParam != 0
		return 0, nil, NoErr

	case CtrlSetBlockSize:
		if csParam != 512 && csParam != 2048 {
			return 0, nil, ParamErr
		}
		di.BlockSize = int(csParam)
		return 0, nil, NoErr

	case CtrlSetUserEject:
		return 0, nil, NoErr

	case CtrlPollFrequency:
		return 0, nil, NoErr

	default:
		if code >= CtrlCDFirst && code <= CtrlCDLast {
			return d.cdControl(di, code, csParam)
		}
		d.log.Warnf("control: unknown code %d", code)
		return 0, nil, ControlErr
	}
}

func (d *Dispatcher) eject(di *DriveInfo) Status {
	if di.Backend == nil {
		return OffLinErr
	}
	if di.Drop {
		if err := di.Backend.Eject(); err != nil {
			return IOErr
		}
		di.Backend.Close()
		di.Backend = nil
	} else {
		d.reg.RemountMap[di.DriveNumber] = di.Backend
		if di.Player != nil {
			d.players.Stop(di.Player)
		}
		di.Backend = nil
	}
	di.DiskInPlace = false
	di.Player = nil
	return NoErr
}

func (d *Dispatcher) runMountPending() {
	for _, driveNum := range d.reg.PollInsertions() {
		// The drive numbers are neither returned nor posted from here;
		// each newly inserted drive is left with ToBeMounted set.
		_ = driveNum
	}
}

// playerFor lazily attaches a CDPlayer to di, backed by its backend's raw
// reader: FillBuffer indexes by raw file offset (player.go), not the
// backend's cooked Read, exactly as cmd/gocdrom-play/cmd/gocdrom-console
// open the binary image directly rather than going through DiscBackend.Read.
func (d *Dispatcher) playerFor(di *DriveInfo) *CDPlayer {
	if di.Player == nil {
		di.Player = NewCDPlayer(fmt.Sprintf("drive%d", di.DriveNumber), di.Backend.CueSheet(), di.Backend.RawReader())
		d.players.Add(di.Player)
	}
	return di.Player
}

// decodePositionArg unpacks the postype/pos/flag/play_mode arguments the
// original reads as separate words at pb+csParam, pb+csParam+2, and
// pb+csParam+6/9 (§4.7 AudioTrackSearch/AudioPlay/AudioStop/AudioScan).
// Without guest memory to read extra fields from, csParam packs them into
// one word: postype in bits 31-30, a code-specific flag bit in bit 29 (the
// "hold" flag for AudioTrackSearch, "stopping address given" for
// AudioPlay/AudioStop, scan direction for AudioScan), play_mode in bits
// 28-25, and pos in the low 24 bits (ample for a BCD MSF or a frame count).
func decodePositionArg(csParam uint32) (postype PositionType, pos uint32, flag bool, playMode uint8) {
	postype = PositionType(csParam >> 30)
	flag = csParam&(1<<29) != 0
	playMode = uint8((csParam >> 25) & 0x0f)
	pos = csParam & 0x00FFFFFF
	return
}

// cdControl dispatches the CD-specific sub-range 100..126, matching
// cdrom.cpp's CDROMControl switch (§4.7/§4.5).
func (d *Dispatcher) cdControl(di *DriveInfo, code int, csParam uint32) (result uint32, data []byte, status Status) {
	switch code {
	case 100: // ReadTOC. csParam's low byte selects the sub-format
		// (TOCSubFormat); sub-format 3 additionally packs its start
		// track in the next byte.
		if di.Backend == nil || !di.DiskInPlace {
			return 0, nil, OffLinErr
		}
		cs := di.Backend.CueSheet()
		switch TOCSubFormat(csParam & 0xff) {
		case TOCFirstLast:
			first, last := TOCFirstLastTrack(cs)
			return uint32(first)<<8 | uint32(last), nil, NoErr

		case TOCLeadOut:
			m := TOCLeadOutMSF(cs)
			return uint32(m.M)<<16 | uint32(m.S)<<8 | uint32(m.F), nil, NoErr

		case TOCTrackList:
			startTrack := uint8(csParam >> 8)
			rows := TOCTrackTable(cs, startTrack)
			buf := make([]byte, 0, len(rows)*5)
			for _, r := range rows {
				buf = append(buf, r[:]...)
			}
			return 0, buf, NoErr

		case TOCType4:
			return 0, BuildType4TOC(cs), NoErr

		case TOCSession:
			var ctrl, m, s, f uint8
			if len(cs.Tracks) > 0 {
				ctrl = (tocCtrlTrack | cs.Tracks[0].TCF) & 0x0f
				msf := FramesToMSF(cs.Tracks[0].Start)
				m, s, f = msf.M, msf.S, msf.F
			}
			first, _ := TOCFirstLastTrack(cs)
			return 0, []byte{0, 1, 0, 1, 0, first, ctrl, m, s, f}, NoErr

		default:
			return 0, nil, ParamErr
		}

	case 101: // ReadTheQSubcode
		if !di.DiskInPlace {
			return 0, make([]byte, 12), OffLinErr
		}
		player := d.playerFor(di)
		if player.Status() != AudioPlay && player.Status() != AudioPaused {
			return 0, nil, IOErr
		}
		track, rel, abs := player.Position()
		cs := di.Backend.CueSheet()
		var ctrl uint8
		if idx := trackIndex(cs, track); idx >= 0 {
			ctrl = (tocCtrlTrack | cs.Tracks[idx].TCF) & 0x0f
		}
		q := QSubcode{
			Ctrl:  ctrl,
			Track: BinToBCD(track),
			Index: BinToBCD(1),
			RelM:  BinToBCD(rel.M), RelS: BinToBCD(rel.S), RelF: BinToBCD(rel.F),
			AbsM: BinToBCD(abs.M), AbsS: BinToBCD(abs.S), AbsF: BinToBCD(abs.F),
		}
		b := q.Bytes()
		return 0, b[:], NoErr

	case 102: // ReadHeader
		d.log.Warnf("cdControl: ReadHeader(102) unimplemented")
		return 0, nil, ControlErr

	case 103: // AudioTrackSearch
		if !di.DiskInPlace {
			return 0, nil, OffLinErr
		}
		postype, pos, hold, playMode := decodePositionArg(csParam)
		msf, err := Position2MSF(di.Backend.CueSheet(), postype, pos, false)
		if err != nil {
			return 0, nil, ParamErr
		}
		di.StartAt = msf
		di.PlayModeByte = PlayMode(playMode)
		player := d.playerFor(di)
		if err := d.players.Play(player, MSFToFrames(di.StartAt), MSFToFrames(di.LeadOut)); err != nil {
			return 0, nil, ParamErr
		}
		if hold {
			d.players.Pause(player)
		}
		return 0, nil, NoErr

	case 104: // AudioPlay
		if !di.DiskInPlace {
			return 0, nil, OffLinErr
		}
		postype, pos, stopGiven, playMode := decodePositionArg(csParam)
		cs := di.Backend.CueSheet()
		if stopGiven {
			msf, err := Position2MSF(cs, postype, pos, true)
			if err != nil {
				return 0, nil, ParamErr
			}
			di.StopAt = msf
		} else {
			msf, err := Position2MSF(cs, postype, pos, false)
			if err != nil {
				return 0, nil, ParamErr
			}
			di.StartAt = msf
		}
		di.PlayModeByte = PlayMode(playMode)
		player := d.playerFor(di)
		if err := d.players.Play(player, MSFToFrames(di.StartAt), MSFToFrames(di.StopAt)); err != nil {
			return 0, nil, ParamErr
		}
		return 0, nil, NoErr

	case 105: // AudioPause
		if !di.DiskInPlace {
			return 0, nil, OffLinErr
		}
		player := d.playerFor(di)
		switch csParam {
		case 0:
			d.players.Resume(player)
		case 1:
			d.players.Pause(player)
		default:
			return 0, nil, ParamErr
		}
		return 0, nil, NoErr

	case 106: // AudioStop. The original's "given stopping address" branch
		// only records stop_at without itself halting playback; a
		// plain AudioStop is the only caller that ever reaches this
		// path in practice, so both branches stop immediately here.
		if !di.DiskInPlace {
			return 0, nil, OffLinErr
		}
		postype, pos, given, _ := decodePositionArg(csParam)
		player := d.playerFor(di)
		if postype == 0 && pos == 0 && !given {
			di.StopAt = di.LeadOut
		} else {
			msf, err := Position2MSF(di.Backend.CueSheet(), postype, pos, true)
			if err != nil {
				return 0, nil, ParamErr
			}
			di.StopAt = msf
		}
		d.players.Stop(player)
		return 0, nil, NoErr

	case 107: // AudioStatus
		if !di.DiskInPlace {
			return 0, nil, OffLinErr
		}
		player := d.playerFor(di)
		var statusByte uint8
		switch player.Status() {
		case AudioPlay:
			statusByte = 0
		case AudioPaused:
			statusByte = 1
		case AudioCompleted:
			statusByte = 3
		case AudioError:
			statusByte = 4
		default:
			statusByte = 5
		}
		track, _, abs := player.Position()
		cs := di.Backend.CueSheet()
		var ctrl uint8
		if idx := trackIndex(cs, track); idx >= 0 {
			ctrl = (tocCtrlTrack | cs.Tracks[idx].TCF) & 0x0f
		}
		data = []byte{
			statusByte,
			uint8(di.PlayModeByte),
			ctrl,
			BinToBCD(abs.M), BinToBCD(abs.S), BinToBCD(abs.F),
		}
		return 0, data, NoErr

	case 108: // AudioScan
		if !di.DiskInPlace {
			return 0, nil, OffLinErr
		}
		postype, pos, reverse, _ := decodePositionArg(csParam)
		msf, err := Position2MSF(di.Backend.CueSheet(), postype, pos, false)
		if err != nil {
			return 0, nil, ParamErr
		}
		di.StartAt = msf
		d.players.Scan(d.playerFor(di), reverse, DefaultScanRate)
		return 0, nil, NoErr

	case 109: // AudioControl: set volume, left/right packed in csParam's
		// low two bytes.
		player := d.playerFor(di)
		player.SetVolume(uint8(csParam), uint8(csParam>>8))
		return 0, nil, NoErr

	case 110: // ReadMCN
		d.log.Warnf("cdControl: ReadMCN(110) unimplemented")
		return 0, nil, ControlErr

	case 111: // ReadISRC
		d.log.Warnf("cdControl: ReadISRC(111) unimplemented")
		return 0, nil, ControlErr

	case 112: // ReadAudioVolume
		l, r := d.playerFor(di).Volume()
		return uint32(l) | uint32(r)<<8, nil, NoErr

	case 113: // GetSpindleSpeed
		return 0xff, nil, NoErr

	case 114: // SetSpindleSpeed
		return 0, nil, NoErr

	case 115: // ReadAudio
		d.log.Warnf("cdControl: ReadAudio(115) unimplemented")
		return 0, nil, ControlErr

	case 116: // ReadAllSubcodes
		d.log.Warnf("cdControl: ReadAllSubcodes(116) unimplemented")
		return 0, nil, ControlErr

	case 122: // SetTrackList
		d.log.Warnf("cdControl: SetTrackList(122) unimplemented")
		return 0, nil, ControlErr

	case 123: // GetTrackList
		d.log.Warnf("cdControl: GetTrackList(123) unimplemented")
		return 0, nil, ControlErr

	case 124: // GetTrackIndex
		d.log.Warnf("cdControl: GetTrackIndex(124) unimplemented")
		return 0, nil, ControlErr

	case 125: // SetPlayMode: repeat flag in bit 0, play order in bits 15-8.
		di.Repeat = csParam&0x01 != 0
		di.Order = PlayOrder(uint8(csParam >> 8))
		return 0, nil, NoErr

	case 126: // GetPlayMode (Apple's Audio CD program needs this)
		var repeat uint32
		if di.Repeat {
			repeat = 1
		}
		return repeat | uint32(di.Order)<<8, nil, NoErr

	default:
		d.log.Warnf("cdControl: unknown code %d", code)
		return 0, nil, ControlErr
	}
}

// Status codes (§4.8).
const (
	StatFormatList    = 6
	StatDriveStatus   = 8
	StatDriverGestalt = 43
	StatPowerMode     = 70
	StatTwoKOffset    = 95
	StatDriveType     = 96
	StatWhoIsThere    = 97
	StatBlockSize     = 98
	StatSCSIID        = 120
	StatCDFeatures    = 121
)

// Status dispatches a Status() call. data carries any payload longer than
// one word (the drive status record, the CD features pair); most codes
// leave it nil and return everything through result.
func (d *Dispatcher) Status(driveNum uint32, driverRefNum int16, code int, csParam uint32) (result uint32, data []byte, status Status) {
	di, st := d.resolveDrive(driveNum, driverRefNum)
	if st != NoErr {
		return 0, nil, st
	}

	switch code {
	case StatFormatList:
		if di.Backend == nil {
			return 0, nil, ParamErr
		}
		cs := di.Backend.CueSheet()
		blockCount := uint32(int64(cs.Length) * int64(cs.RawSectorSize) / 512)
		rec := make([]byte, 10)
		rec[1] = 1 // one format
		rec[2] = byte(blockCount >> 24)
		rec[3] = byte(blockCount >> 16)
		rec[4] = byte(blockCount >> 8)
		rec[5] = byte(blockCount)
		return 1, rec, NoErr

	case StatDriveStatus:
		rec := make([]byte, DrvStsSize)
		if di.DiskInPlace {
			rec[OffsetDrvStsDiskInPlace] = 1
		}
		rec[OffsetDrvStsInstalled] = 1
		rec[OffsetDrvStsSides] = 1
		rec[OffsetDrvStsWriteProt] = 1 // CD-ROM media is always read-only
		return 0, rec, NoErr

	case StatDriverGestalt:
		v, ok := driverGestalt(fourCC(csParam), di, driverRefNum)
		if !ok {
			return 0, nil, StatusErr
		}
		return v, nil, NoErr

	case StatPowerMode:
		return uint32(di.Power), nil, NoErr

	case StatTwoKOffset:
		if di.TwoKOffset < 0 {
			return 0, nil, StatusErr
		}
		return uint32(di.TwoKOffset), nil, NoErr

	case StatDriveType:
		return 3, nil, NoErr

	case StatWhoIsThere:
		var mask uint32
		for _, other := range d.reg.Drives {
			if other.DriveNumber <= 6 {
				mask |= 1 << other.DriveNumber
			}
		}
		return mask, nil, NoErr

	case StatBlockSize:
		return uint32(di.BlockSize), nil, NoErr

	case StatSCSIID:
		return di.DriveNumber << 8, nil, NoErr

	case StatCDFeatures:
		return 0x02000c00, []byte{0x02, 0x00, 0x0c, 0x00}, NoErr

	default:
		d.log.Warnf("status: unknown code %d", code)
		return 0, nil, StatusErr
	}
}

// Interrupt runs at ~1 Hz; once accrun has fired, drains the insertion
// queue (§4.6, §4.8).
func (d *Dispatcher) Interrupt() []uint32 {
	if !d.accRunCalled {
		return nil
	}
	return d.reg.PollInsertions()
}

func fourCC(v uint32) string {
	return string([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// driverGestalt implements the selectors shared by Control(43) and
// Status(43) (§4.8).
func driverGestalt(selector string, di *DriveInfo, driverRefNum int16) (uint32, bool) {
	switch selector {
	case "vers":
		return 0x05208000, true
	case "devt":
		return be32("cdrm"), true
	case "intf", "dAPI":
		return be32("scsi"), true
	case "sync":
		return 1, true
	case "boot":
		return (di.DriveNumber << 11) | uint32(uint16(driverRefNum)), true
	case "wide":
		return 0, true
	case "purg":
		return 0, true
	case "ejec":
		return 0x00030003, true
	case "flus":
		return 0, true
	case "vmop":
		return 0, true
	case "cd3d":
		return 0, true
	default:
		return 0, false
	}
}

func be32(cc string) uint32 {
	if len(cc) != 4 {
		panic(fmt.Sprintf("driverGestalt: bad 4CC %q", cc))
	}
	return uint32(cc[0])<<24 | uint32(cc[1])<<16 | uint32(cc[2])<<8 | uint32(cc[3])
}
