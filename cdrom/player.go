package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	Per-disc audio playback state: silence synthesis, the
 *		mixer fill-buffer algorithm, volume, pause/resume/scan, and
 *		the process-wide at-most-one-playing invariant (§4.5).
 *
 * Description:	Ported from BasiliskII's bincue.cpp CDPlay_bincue/
 *		CDPause_playing/CDResume_bincue/CDScan_bincue/fill_buffer/
 *		CDSetVol_bincue/CDGetVol_bincue. The original identifies a
 *		player with its CueSheet by raw pointer equality and tracks
 *		"currently playing" as a single global pointer; per
 *		spec.md §9's design notes, this port instead gives every
 *		CDPlayer an explicit ID and keeps "currently playing" behind
 *		a mutex-guarded registry (PlayerSet) rather than a bare
 *		global, since the CPU thread and the mixer thread touch it
 *		from different goroutines.
 *
 *------------------------------------------------------------------*/

import (
	"sync"
)

// AudioStatus is the playback state of a CDPlayer.
type AudioStatus int

const (
	AudioInvalid AudioStatus = iota
	AudioPlay
	AudioPaused
	AudioCompleted
	AudioError
	AudioNoStatus
)

// DefaultScanRate is the multiplier applied to CD_FRAMES·raw_sector_size
// per Scan call (§4.5).
const DefaultScanRate = 8

// CDPlayer holds one disc's playback state. It is not safe for concurrent
// use except through PlayerSet, which serializes state transitions on the
// CPU-thread side and exposes a single atomically-read "currently playing"
// reference to the mixer side.
type CDPlayer struct {
	ID    string
	cs    *CueSheet
	read  Reader

	status       AudioStatus
	audioStart   uint32 // frames
	audioEnd     uint32 // frames
	audioPos     int64  // bytes since audioStart
	silence      int64  // remaining bytes of pregap silence owed
	fileOffset   int64  // byte offset of first non-silence byte
	volumeLeft   uint8
	volumeRight  uint8
	volumeMono   uint8
	audioEnabled bool
}

// NewCDPlayer creates an idle player over cs, reading sector data through r.
func NewCDPlayer(id string, cs *CueSheet, r Reader) *CDPlayer {
	return &CDPlayer{ID: id, cs: cs, read: r, status: AudioNoStatus, volumeMono: 128}
}

func (p *CDPlayer) Status() AudioStatus { return p.status }

// PlayerSet enforces the at-most-one-playing invariant across every
// CDPlayer a registry knows about (§4.5, §9's global-pointer redesign note).
type PlayerSet struct {
	mu      sync.Mutex
	players map[string]*CDPlayer
	playing string
}

func NewPlayerSet() *PlayerSet {
	return &PlayerSet{players: make(map[string]*CDPlayer)}
}

func (ps *PlayerSet) Add(p *CDPlayer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.players[p.ID] = p
}

func (ps *PlayerSet) Remove(id string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.players, id)
	if ps.playing == id {
		ps.playing = ""
	}
}

// Playing returns the currently-playing player, or nil.
func (ps *PlayerSet) Playing() *CDPlayer {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.playing == "" {
		return nil
	}
	return ps.players[ps.playing]
}

// Play starts playback on p from startFrame to endFrame, synthesizing
// silence for the rest of a track's pregap when startFrame falls within
// it; pregaps of later tracks inside [startFrame, endFrame) are not
// synthesized. Demotes any other currently-playing player to Paused first
// (§4.5 at-most-one-playing).
func (ps *PlayerSet) Play(p *CDPlayer, startFrame, endFrame uint32) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.playing != "" && ps.playing != p.ID {
		if prev, ok := ps.players[ps.playing]; ok {
			prev.status = AudioPaused
		}
	}

	track := trackContaining(p.cs, startFrame)
	var silenceFrames uint32
	var fileOffset int64
	if track != nil {
		if startFrame < track.Start {
			// startFrame falls within this track's pregap: the real
			// audio begins at the track's own file offset once the
			// pregap silence has been synthesized.
			silenceFrames = track.Start - startFrame
			fileOffset = track.FileOffset
		} else {
			fileOffset = track.FileOffset + int64(startFrame-track.Start)*int64(p.cs.RawSectorSize)
		}
	}

	p.audioStart = startFrame
	p.audioEnd = endFrame
	p.audioPos = 0
	p.silence = int64(silenceFrames) * int64(p.cs.RawSectorSize)
	p.fileOffset = fileOffset
	p.status = AudioPlay
	ps.playing = p.ID
	return nil
}

// trackContaining finds the track whose audio span contains frame, or,
// when frame falls in the silent gap before a track's audio (its pregap),
// the track that gap belongs to. A frame past the last track's end clamps
// to the last track.
func trackContaining(cs *CueSheet, frame uint32) *Track {
	for i := range cs.Tracks {
		t := &cs.Tracks[i]
		if frame >= t.Start && frame < t.Start+t.Length {
			return t
		}
		if frame < t.Start {
			return t
		}
	}
	if len(cs.Tracks) > 0 {
		return &cs.Tracks[len(cs.Tracks)-1]
	}
	return nil
}

// Position returns the track currently under the play head and its
// relative (into that track) and absolute MSF positions, mirroring the
// original's SysCDGetPosition for Control(101)/Control(107). Precise only
// once playback has advanced past any pregap silence; during the pregap
// itself it reports the silence's owning track at its own start position.
func (p *CDPlayer) Position() (track uint8, rel, abs MSF) {
	frame := p.audioStart
	if p.audioPos > p.silence {
		frame = p.audioStart + uint32((p.audioPos-p.silence)/int64(p.cs.RawSectorSize))
	}
	abs = FramesToMSF(frame)

	t := trackContaining(p.cs, frame)
	if t == nil {
		return 0, MSF{}, abs
	}
	var relFrame uint32
	if frame > t.Start {
		relFrame = frame - t.Start
	}
	return uint8(t.Number), FramesToMSF(relFrame), abs
}

// Pause pauses p if it is the currently-playing player.
func (ps *PlayerSet) Pause(p *CDPlayer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if p.status == AudioPlay {
		p.status = AudioPaused
	}
}

// Resume resumes p, demoting any other currently-playing player first.
func (ps *PlayerSet) Resume(p *CDPlayer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.playing != "" && ps.playing != p.ID {
		if prev, ok := ps.players[ps.playing]; ok {
			prev.status = AudioPaused
		}
	}
	if p.status == AudioPaused {
		p.status = AudioPlay
		ps.playing = p.ID
	}
}

// Stop halts p and clears the currently-playing reference if it was held.
func (ps *PlayerSet) Stop(p *CDPlayer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	p.status = AudioNoStatus
	if ps.playing == p.ID {
		ps.playing = ""
	}
}

// Scan shifts p's playback position by scanRate·CDFrames·raw_sector_size
// bytes (§4.5); reverse decrements, forward increments. No resampling.
func (ps *PlayerSet) Scan(p *CDPlayer, reverse bool, scanRate int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if scanRate <= 0 {
		scanRate = DefaultScanRate
	}
	delta := int64(scanRate) * CDFrames * int64(p.cs.RawSectorSize)
	if reverse {
		p.audioPos -= delta
		if p.audioPos < 0 {
			p.audioPos = 0
		}
	} else {
		p.audioPos += delta
	}
}

// SetVolume stores l/r on their 0..255 guest scale, converted to the
// internal 0..128 range (§4.5).
func (p *CDPlayer) SetVolume(l, r uint8) {
	p.volumeLeft = guestToInternalVolume(l)
	p.volumeRight = guestToInternalVolume(r)
	p.volumeMono = uint8((int(p.volumeLeft) + int(p.volumeRight)) / 2)
}

// Volume returns l/r back on the guest's 0..255 scale.
func (p *CDPlayer) Volume() (l, r uint8) {
	return internalToGuestVolume(p.volumeLeft), internalToGuestVolume(p.volumeRight)
}

// guestToInternalVolume/internalToGuestVolume convert between the guest's
// 0..255 volume scale and the internal 0..128 scale, rounding to nearest so
// the documented fixed points (0, 128, 255) round-trip exactly (§4.5, §8).
func guestToInternalVolume(v uint8) uint8 {
	return uint8((256*int(v) + 255) / 510)
}

func internalToGuestVolume(v uint8) uint8 {
	return uint8((510*int(v) + 128) / 256)
}

// FillBuffer implements the mixer fill-buffer algorithm of §4.5: fills out
// with silence, then layers in pregap silence followed by file-backed
// audio for whatever portion of the currently-playing player's remaining
// stream falls within [audiostart, audioend).
func (p *CDPlayer) FillBuffer(out []byte, silenceByte byte) error {
	for i := range out {
		out[i] = silenceByte
	}

	if p.status != AudioPlay {
		return nil
	}

	endByte := int64(p.audioEnd-p.audioStart) * int64(p.cs.RawSectorSize)
	if p.audioPos >= endByte {
		p.status = AudioCompleted
		return nil
	}

	var written int

	remainingSilence := p.silence - p.audioPos
	if remainingSilence >= int64(len(out)) {
		p.audioPos += int64(len(out))
		return nil
	}
	if remainingSilence > 0 {
		written = int(remainingSilence)
		p.audioPos += remainingSilence
	}

	available := endByte - p.audioPos
	remaining := int64(len(out) - written)
	if available > remaining {
		available = remaining
	}
	if available > 0 {
		n, err := p.read.ReadAt(out[written:written+int(available)], p.fileOffset+p.audioPos-p.silence)
		if err != nil && n == 0 {
			return err
		}
		p.audioPos += int64(n)
		written += n
	}

	// Remainder of out[] is already silence-filled above; advance
	// position so it stays consistent with file layout on a short read.
	if len(out)-written > 0 {
		p.audioPos += int64(len(out) - written)
	}

	return nil
}
