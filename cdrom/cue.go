package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	Parse a cue sheet (text) paired with a single binary sector
 *		image into a CueSheet: tracks, pregaps, postgaps, and the
 *		sector geometry implied by each track's mode.
 *
 * Description:	Ported from BasiliskII's bincue.cpp ParseCueSheet/AddTrack.
 *		The original carried totalPregap/prestart as file-level
 *		static state shared across calls; here they live in a
 *		parseState value threaded through the parse so ParseCue is
 *		a pure function of its input bytes.
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const maxTrack = 100

// Track control field bits, standard for SCSI CD players.
const (
	TCFPreemphasis = 0x1
	TCFCopy        = 0x2
	TCFData        = 0x4
	TCFAudio       = 0x0
	TCFFourTrack   = 0x8
)

// LeadOutTrackNumber is the synthetic sentinel track number for the lead-out.
const LeadOutTrackNumber = 0xAA

// Track describes one track of a parsed cue sheet, in the global (post-pregap-
// accounting) timeline.
type Track struct {
	Number     int
	Start      uint32 // frame, global, after pregap accounting
	Length     uint32 // frames
	FileOffset int64  // bytes into the binary image where the track's first frame begins
	Pregap     uint32 // frames of silence synthesized before this track
	Postgap    uint32 // frames of silence synthesized after this track (recorded only; never emitted by the mixer)
	TCF        uint8  // track control field
}

// CueSheet is a fully parsed, validated bin/cue pair.
type CueSheet struct {
	BinFile          string
	Length           uint32 // total length in frames
	RawSectorSize    int
	CookedSectorSize int
	HeaderSize       int
	Tracks           []Track
}

// parseState carries the two running counters the original kept as file
// statics (totalPregap, prestart), scoped to a single parse.
type parseState struct {
	totalPregap uint32
	prestart    uint32
}

// ParseCueError reports a cue-sheet parse failure with the offending line.
type ParseCueError struct {
	Line   int
	Reason string
}

func (e *ParseCueError) Error() string {
	return fmt.Sprintf("cue sheet parse error at line %d: %s", e.Line, e.Reason)
}

// ParseCue parses cue-sheet text (a cue file in cueDir, already read into
// text) into a CueSheet whose BinFile is resolved relative to cueDir. It
// does not open or stat the binary image; call FinishCueSheet (or use
// OpenBinCue) for that.
func ParseCue(text string, cueDir string) (*CueSheet, error) {
	cs := &CueSheet{
		RawSectorSize:    2352,
		CookedSectorSize: 2352,
		HeaderSize:       0,
	}

	var st parseState
	var seen1st bool
	var sawFirstLine bool
	var lineNo int

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := scanner.Text()
		lineNo++

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		keyword := fields[0]

		if !sawFirstLine && keyword != "FILE" {
			return nil, &ParseCueError{lineNo, "first line must begin with FILE"}
		}
		isFirstLine := !sawFirstLine
		sawFirstLine = true

		switch keyword {
		case "FILE":
			if !isFirstLine {
				return nil, &ParseCueError{lineNo, "more than one FILE token"}
			}
			name, typ, ok := parseFileClause(line)
			if !ok {
				return nil, &ParseCueError{lineNo, "malformed FILE clause"}
			}
			if typ != "BINARY" {
				return nil, &ParseCueError{lineNo, "FILE type must be BINARY"}
			}
			cs.BinFile = filepath.Join(cueDir, name)

		case "TRACK":
			if seen1st {
				if err := finishTrack(cs, &st); err != nil {
					return nil, &ParseCueError{lineNo, err.Error()}
				}
			}
			seen1st = true

			if len(fields) < 3 {
				return nil, &ParseCueError{lineNo, "expected track number and mode"}
			}
			num, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, &ParseCueError{lineNo, "expected track number"}
			}

			var tcf uint8
			var raw, cooked, header int
			switch fields[2] {
			case "MODE1/2352":
				tcf, raw, cooked, header = TCFData, 2352, 2048, 16
			case "MODE2/2352":
				tcf, raw, cooked, header = TCFData, 2352, 2336, 16
			case "MODE1/2048":
				tcf, raw, cooked, header = TCFData, 2048, 2048, 0
			case "AUDIO":
				tcf, raw, cooked, header = TCFAudio, cs.RawSectorSize, cs.CookedSectorSize, cs.HeaderSize
			default:
				return nil, &ParseCueError{lineNo, fmt.Sprintf("unexpected track type %q", fields[2])}
			}
			if fields[2] != "AUDIO" {
				cs.RawSectorSize, cs.CookedSectorSize, cs.HeaderSize = raw, cooked, header
			}

			cs.Tracks = append(cs.Tracks, Track{Number: num, TCF: tcf})

		case "INDEX":
			if !seen1st {
				return nil, &ParseCueError{lineNo, "INDEX before any TRACK"}
			}
			if len(fields) < 3 {
				return nil, &ParseCueError{lineNo, "expected index number and MSF"}
			}
			idx, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, &ParseCueError{lineNo, "expected index number"}
			}
			msf, ok := parseMSF(fields[2])
			if !ok {
				return nil, &ParseCueError{lineNo, "expected index start MM:SS:FF"}
			}
			curr := &cs.Tracks[len(cs.Tracks)-1]
			switch idx {
			case 1:
				curr.Start = MSFToFrames(msf)
			case 0:
				st.prestart = MSFToFrames(msf)
			}

		case "PREGAP":
			if !seen1st || len(fields) < 2 {
				return nil, &ParseCueError{lineNo, "expected pregap MM:SS:FF"}
			}
			msf, ok := parseMSF(fields[1])
			if !ok {
				return nil, &ParseCueError{lineNo, "expected pregap MM:SS:FF"}
			}
			cs.Tracks[len(cs.Tracks)-1].Pregap = MSFToFrames(msf)

		case "POSTGAP":
			if !seen1st || len(fields) < 2 {
				return nil, &ParseCueError{lineNo, "expected postgap MM:SS:FF"}
			}
			msf, ok := parseMSF(fields[1])
			if !ok {
				return nil, &ParseCueError{lineNo, "expected postgap MM:SS:FF"}
			}
			cs.Tracks[len(cs.Tracks)-1].Postgap = MSFToFrames(msf)

		case "TITLE", "PERFORMER", "REM", "ISRC", "SONGWRITER":
			// Accepted and ignored.

		default:
			return nil, &ParseCueError{lineNo, fmt.Sprintf("unexpected keyword %q", keyword)}
		}
	}

	if !seen1st {
		return nil, &ParseCueError{lineNo, "no TRACK lines"}
	}
	if err := finishTrack(cs, &st); err != nil {
		return nil, &ParseCueError{lineNo, err.Error()}
	}
	return cs, nil
}

// parseFileClause extracts the quoted filename and trailing type token from
// a FILE line, e.g. `FILE "game.bin" BINARY`.
func parseFileClause(line string) (name string, typ string, ok bool) {
	first := strings.IndexByte(line, '"')
	if first < 0 {
		return "", "", false
	}
	second := strings.IndexByte(line[first+1:], '"')
	if second < 0 {
		return "", "", false
	}
	second += first + 1
	name = line[first+1 : second]
	rest := strings.Fields(line[second+1:])
	if len(rest) == 0 {
		return "", "", false
	}
	return name, rest[0], true
}

func parseMSF(field string) (MSF, bool) {
	parts := strings.Split(field, ":")
	if len(parts) != 3 {
		return MSF{}, false
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return MSF{}, false
		}
		v[i] = n
	}
	return MSF{M: uint8(v[0]), S: uint8(v[1]), F: uint8(v[2])}, true
}

// finishTrack finalizes the most recently staged track, mirroring AddTrack
// in bincue.cpp: it converts the track's start from file-relative to the
// global, pregap-expanded timeline, and (once a previous track exists)
// computes that previous track's length.
func finishTrack(cs *CueSheet, st *parseState) error {
	i := len(cs.Tracks) - 1
	curr := &cs.Tracks[i]

	skip := st.prestart
	st.prestart = 0

	if skip > 0 && skip > curr.Start {
		return fmt.Errorf("prestart %d > track %d start %d", skip, curr.Number, curr.Start)
	}

	curr.FileOffset = int64(curr.Start) * int64(cs.RawSectorSize)
	curr.Start += st.totalPregap
	st.totalPregap += curr.Pregap

	if i == 0 {
		if curr.Number != 1 {
			return fmt.Errorf("first track number %d != 1", curr.Number)
		}
		return nil
	}

	prev := &cs.Tracks[i-1]
	if prev.Start < skip {
		prev.Length = skip - prev.Start - curr.Pregap
	} else {
		prev.Length = curr.Start - prev.Start - curr.Pregap
	}

	if curr.Number <= 1 {
		return fmt.Errorf("bad track number %d", curr.Number)
	}
	if prev.Number+1 != curr.Number && curr.Number != LeadOutTrackNumber {
		return fmt.Errorf("non-consecutive track number %d after %d", curr.Number, prev.Number)
	}
	if curr.Start < prev.Start+prev.Length {
		return fmt.Errorf("track %d start %d overlaps previous track", curr.Number, curr.Start)
	}
	return nil
}

// FinishCueSheet patches the final track's length from the binary image's
// size in bytes, as LoadCueSheet does once the bin file has been stat'd.
// The cumulative pregap it adds back is recomputed here as the sum of every
// track's Pregap, matching the parser's running counter at EOF.
func FinishCueSheet(cs *CueSheet, binSizeBytes int64) error {
	if len(cs.Tracks) == 0 {
		return fmt.Errorf("cue sheet has no tracks")
	}
	cs.Length = uint32(binSizeBytes / int64(cs.RawSectorSize))

	last := &cs.Tracks[len(cs.Tracks)-1]
	var totalPregap uint32
	for _, t := range cs.Tracks {
		totalPregap += t.Pregap
	}

	length := int64(cs.Length) - int64(last.Start) + int64(totalPregap)
	if length < 0 {
		return fmt.Errorf("binary file too short for declared tracks")
	}
	last.Length = uint32(length)
	return nil
}
