package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	TOC blob generation and guest position-addressing decode
 *		(§4.7). The single source of truth for every byte layout
 *		the guest Device Manager expects back from Control(100) and
 *		Status/Control position queries.
 *
 * Description:	Ported from BasiliskII's cdrom.cpp read_toc/position2msf and
 *		the Type-4 "AppleCD SC non-type" table built inline in
 *		CDROMControl's case 100. The Type-4 back-patch resolution
 *		(A1 carries the *last track's own* MSF, not a different
 *		session's first track) is taken from the original's exact
 *		back-patch condition (toc[i+2] == toc[3]); SPEC_FULL.md §4
 *		records this as a documented assumption, not a verified fact.
 *
 *------------------------------------------------------------------*/

import "fmt"

// TOCSize is the byte length of the cached TOC blob (§3, DriveInfo).
const TOCSize = 804

// tocCtrl is the per-record control nibble: 0x10 for ordinary tracks
// (masked with TCF), 0x14 for the lead-out.
const (
	tocCtrlTrack   = 0x10
	tocCtrlLeadOut = 0x14
)

// BuildTOC renders the canonical 804-byte TOC blob for cs: two bytes of
// big-endian total size, first/last track numbers, then an 8-byte record
// per track, terminated by the lead-out record (§4.7, §6).
func BuildTOC(cs *CueSheet) []byte {
	buf := make([]byte, TOCSize)

	numTracks := len(cs.Tracks)
	first := 1
	last := numTracks
	if numTracks > 0 {
		first = cs.Tracks[0].Number
		last = cs.Tracks[numTracks-1].Number
	}

	// Body length: first/last bytes + (numTracks+1)*8 records, not
	// counting the 2-byte size prefix itself.
	bodyLen := 2 + (numTracks+1)*8
	buf[0] = byte(bodyLen >> 8)
	buf[1] = byte(bodyLen)
	buf[2] = byte(first)
	buf[3] = byte(last)

	off := 4
	for _, t := range cs.Tracks {
		m := FramesToMSF(t.Start)
		buf[off+0] = 0
		buf[off+1] = tocCtrlTrack | t.TCF
		buf[off+2] = byte(t.Number)
		buf[off+3] = 0
		buf[off+4] = 0
		buf[off+5] = m.M
		buf[off+6] = m.S
		buf[off+7] = m.F
		off += 8
	}

	leadOut := leadOutMSF(cs)
	buf[off+0] = 0
	buf[off+1] = tocCtrlLeadOut
	buf[off+2] = LeadOutTrackNumber
	buf[off+3] = 0
	buf[off+4] = 0
	buf[off+5] = leadOut.M
	buf[off+6] = leadOut.S
	buf[off+7] = leadOut.F

	return buf
}

func leadOutMSF(cs *CueSheet) MSF {
	if len(cs.Tracks) == 0 {
		return MSF{}
	}
	last := cs.Tracks[len(cs.Tracks)-1]
	return FramesToMSF(last.Start + last.Length)
}

// PositionType selects one of the three guest addressing modes accepted by
// position2msf.
type PositionType int

const (
	PositionAbsoluteFrame PositionType = 0
	PositionBCDMSF        PositionType = 1
	PositionTrackNumber   PositionType = 2
)

// Position2MSF decodes a guest position value into an MSF triple, per §4.7.
func Position2MSF(cs *CueSheet, postype PositionType, pos uint32, stopping bool) (MSF, error) {
	switch postype {
	case PositionAbsoluteFrame:
		return MSF{
			M: uint8(pos / 4500),
			S: uint8((pos / 75) % 60),
			F: uint8(pos % 75),
		}, nil

	case PositionBCDMSF:
		return MSF{
			M: BCDToBin(uint8(pos >> 16)),
			S: BCDToBin(uint8(pos >> 8)),
			F: BCDToBin(uint8(pos)),
		}, nil

	case PositionTrackNumber:
		trackNum := BCDToBin(uint8(pos))
		idx := trackIndex(cs, trackNum)
		if stopping {
			idx++
		}
		if idx < 0 || idx >= len(cs.Tracks) {
			return leadOutMSF(cs), nil
		}
		return FramesToMSF(cs.Tracks[idx].Start), nil

	default:
		return MSF{}, fmt.Errorf("toc: unknown position type %d", postype)
	}
}

func trackIndex(cs *CueSheet, num uint8) int {
	for i, t := range cs.Tracks {
		if uint8(t.Number) == num {
			return i
		}
	}
	return -1
}

// TOCSubFormat selects one of the five Control(100) TOC sub-layouts.
type TOCSubFormat int

const (
	TOCFirstLast TOCSubFormat = 1
	TOCLeadOut   TOCSubFormat = 2
	TOCTrackList TOCSubFormat = 3
	TOCType4     TOCSubFormat = 4
	TOCSession   TOCSubFormat = 5
)

// TOCFirstLastTrack returns the first and last track numbers (sub-format 1).
func TOCFirstLastTrack(cs *CueSheet) (first, last uint8) {
	if len(cs.Tracks) == 0 {
		return 1, 0
	}
	return uint8(cs.Tracks[0].Number), uint8(cs.Tracks[len(cs.Tracks)-1].Number)
}

// TOCLeadOutMSF returns the lead-out position (sub-format 2).
func TOCLeadOutMSF(cs *CueSheet) MSF { return leadOutMSF(cs) }

// TOCTrackTable returns 5-byte {ctrl, tracknum, M, S, F} records for every
// track starting at startTrack, plus the trailing lead-out record
// (sub-format 3). The control nibble is masked to its low 4 bits, unlike
// the cached TOC blob's unmasked byte.
func TOCTrackTable(cs *CueSheet, startTrack uint8) [][5]byte {
	var out [][5]byte
	started := false
	for _, t := range cs.Tracks {
		if uint8(t.Number) == startTrack {
			started = true
		}
		if !started {
			continue
		}
		m := FramesToMSF(t.Start)
		out = append(out, [5]byte{(tocCtrlTrack | t.TCF) & 0x0f, byte(t.Number), m.M, m.S, m.F})
	}
	lo := leadOutMSF(cs)
	out = append(out, [5]byte{tocCtrlLeadOut & 0x0f, LeadOutTrackNumber, lo.M, lo.S, lo.F})
	return out
}

// Type4Entry is one 5-byte record of the Type-4 "AppleCD SC non-type" table.
type Type4Entry struct {
	Ctrl  uint8
	Track uint8
	M, S, F uint8
}

// BuildType4TOC renders the 512-byte AppleCD SC Type-4 table (§4.7
// sub-format 4): A0 holds the first track's control nibble and, in its M
// byte, the first track's number; A1 is back-patched with the last track's
// own control/MSF at the point its own record is emitted (its track-number
// byte holds the 0xA1 anchor, so the last track's number is not stored);
// A2 is back-patched with the lead-out's control/MSF; and the remainder is
// zero-filled.
func BuildType4TOC(cs *CueSheet) []byte {
	buf := make([]byte, 512)
	if len(cs.Tracks) == 0 {
		return buf
	}

	first := cs.Tracks[0]
	lastNum := uint8(cs.Tracks[len(cs.Tracks)-1].Number)

	off := 0
	putEntry := func(anchor uint8, e Type4Entry) {
		buf[off+0] = 0
		buf[off+1] = e.Ctrl
		buf[off+2] = anchor
		buf[off+3] = 0
		buf[off+4] = 0
		buf[off+5] = e.M
		buf[off+6] = e.S
		buf[off+7] = e.F
		off += 8
	}

	// A0: first-track metadata, known up front.
	putEntry(0xA0, Type4Entry{Ctrl: (tocCtrlTrack | first.TCF) & 0x0f, Track: uint8(first.Number), M: uint8(first.Number)})
	a1Off := off
	off += 8 // A1 reserved, back-patched below
	a2Off := off
	off += 8 // A2 reserved, back-patched below

	for _, t := range cs.Tracks {
		m := FramesToMSF(t.Start)
		buf[off+0] = 0
		buf[off+1] = (tocCtrlTrack | t.TCF) & 0x0f
		buf[off+2] = byte(t.Number)
		buf[off+3] = 0
		buf[off+4] = 0
		buf[off+5] = m.M
		buf[off+6] = m.S
		buf[off+7] = m.F
		off += 8

		if uint8(t.Number) == lastNum {
			buf[a1Off+1] = (tocCtrlTrack | t.TCF) & 0x0f
			buf[a1Off+2] = 0xA1
			buf[a1Off+5] = m.M
			buf[a1Off+6] = m.S
			buf[a1Off+7] = m.F
		}
	}

	lo := leadOutMSF(cs)
	buf[a2Off+1] = tocCtrlLeadOut & 0x0f
	buf[a2Off+2] = 0xA2
	buf[a2Off+5] = lo.M
	buf[a2Off+6] = lo.S
	buf[a2Off+7] = lo.F

	return buf
}

// QSubcode is the 12-byte Control(101) Q-subcode payload (§4.7).
type QSubcode struct {
	Ctrl        uint8
	Track       uint8 // BCD
	Index       uint8 // BCD, always 1 for audio playback position
	RelM, RelS, RelF uint8 // BCD
	AbsM, AbsS, AbsF uint8 // BCD
}

// Bytes renders the Q-subcode payload as the 12-byte wire form: a 0-filled
// data-length prefix word, control nibble, then the BCD fields.
func (q QSubcode) Bytes() [12]byte {
	var b [12]byte
	b[0] = 0
	b[1] = 0
	b[2] = q.Ctrl
	b[3] = q.Track
	b[4] = q.Index
	b[5] = q.RelM
	b[6] = q.RelS
	b[7] = q.RelF
	b[8] = q.AbsM
	b[9] = q.AbsS
	b[10] = q.AbsF
	b[11] = 0
	return b
}
