package cdrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func threeTrackCue() *CueSheet {
	return &CueSheet{
		RawSectorSize:    2352,
		CookedSectorSize: 2352,
		Length:           300,
		Tracks: []Track{
			{Number: 1, Start: 0, Length: 100, TCF: TCFAudio},
			{Number: 2, Start: 100, Length: 100, TCF: TCFAudio},
			{Number: 3, Start: 200, Length: 100, TCF: TCFAudio},
		},
	}
}

func Test_BuildTOC_FirstLastAndLeadOut(t *testing.T) {
	cs := threeTrackCue()
	toc := BuildTOC(cs)
	require.Len(t, toc, TOCSize)

	assert.Equal(t, uint8(1), toc[2])
	assert.Equal(t, uint8(3), toc[3])

	leadOutOff := 4 + len(cs.Tracks)*8
	assert.Equal(t, uint8(LeadOutTrackNumber), toc[leadOutOff+2])
	assert.Equal(t, uint8(0x14), toc[leadOutOff+1])
}

// Scenario 5 from spec.md §8: Type-4 TOC back-patching.
func Test_BuildType4TOC_BackPatching(t *testing.T) {
	cs := threeTrackCue()
	// Trim to the literal scenario's {1,2,lead-out}.
	cs.Tracks = cs.Tracks[:2]

	toc := BuildType4TOC(cs)
	require.Len(t, toc, 512)

	// A0: first-track metadata, the first track number in its M byte.
	assert.Equal(t, uint8(0xA0), toc[2])
	assert.Equal(t, uint8(1), toc[5])

	// A1: last track's own control/MSF.
	a1Off := 8
	assert.Equal(t, uint8(0xA1), toc[a1Off+2])
	lastMSF := FramesToMSF(cs.Tracks[1].Start)
	assert.Equal(t, lastMSF.M, toc[a1Off+5])
	assert.Equal(t, lastMSF.S, toc[a1Off+6])
	assert.Equal(t, lastMSF.F, toc[a1Off+7])

	// A2: lead-out.
	a2Off := 16
	assert.Equal(t, uint8(0xA2), toc[a2Off+2])
	loMSF := leadOutMSF(cs)
	assert.Equal(t, loMSF.M, toc[a2Off+5])
	assert.Equal(t, loMSF.S, toc[a2Off+6])
	assert.Equal(t, loMSF.F, toc[a2Off+7])
}

// Unlike BuildTOC's cached blob, TOCTrackTable and BuildType4TOC mask the
// control nibble to its low 4 bits (§4.7).
func Test_TOCTrackTable_MasksControlNibble(t *testing.T) {
	cs := threeTrackCue()
	rows := TOCTrackTable(cs, 1)
	require.Len(t, rows, 4) // 3 tracks + lead-out
	for _, r := range rows {
		assert.Zero(t, r[0]&0xf0)
	}
	assert.Equal(t, uint8(tocCtrlTrack&0x0f), rows[0][0])
	assert.Equal(t, uint8(tocCtrlLeadOut&0x0f), rows[3][0])
}

func Test_BuildType4TOC_MasksControlNibble(t *testing.T) {
	cs := threeTrackCue()
	toc := BuildType4TOC(cs)
	for _, off := range []int{0, 8, 16, 24, 32, 40} {
		assert.Zerof(t, toc[off+1]&0xf0, "offset %d", off)
	}
}

func Test_Position2MSF_Modes(t *testing.T) {
	cs := threeTrackCue()

	m, err := Position2MSF(cs, PositionAbsoluteFrame, 4500, false)
	require.NoError(t, err)
	assert.Equal(t, MSF{M: 1, S: 0, F: 0}, m)

	m, err = Position2MSF(cs, PositionBCDMSF, 0x010203, false)
	require.NoError(t, err)
	assert.Equal(t, MSF{M: 1, S: 2, F: 3}, m)

	m, err = Position2MSF(cs, PositionTrackNumber, uint32(BinToBCD(2)), false)
	require.NoError(t, err)
	assert.Equal(t, FramesToMSF(cs.Tracks[1].Start), m)

	// stopping=true advances to the next track before lookup, per §4.7.
	m, err = Position2MSF(cs, PositionTrackNumber, uint32(BinToBCD(1)), true)
	require.NoError(t, err)
	assert.Equal(t, FramesToMSF(cs.Tracks[1].Start), m)

	// Walking off the end returns the lead-out.
	m, err = Position2MSF(cs, PositionTrackNumber, uint32(BinToBCD(3)), true)
	require.NoError(t, err)
	assert.Equal(t, leadOutMSF(cs), m)
}

// TOC round-trip property from spec.md §8: read_toc then re-parsing its
// records reproduces the track numbers and MSF triples within ±0 frames.
func Test_Property_TOC_Roundtrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		numTracks := rapid.IntRange(1, 20).Draw(rt, "numTracks")
		cs := &CueSheet{RawSectorSize: 2352, CookedSectorSize: 2352}
		var start uint32
		for i := 0; i < numTracks; i++ {
			length := uint32(rapid.IntRange(1, 5000).Draw(rt, "length"))
			cs.Tracks = append(cs.Tracks, Track{Number: i + 1, Start: start, Length: length, TCF: TCFAudio})
			start += length
		}

		toc := BuildTOC(cs)
		off := 4
		for _, want := range cs.Tracks {
			gotNum := toc[off+2]
			gotMSF := MSF{M: toc[off+5], S: toc[off+6], F: toc[off+7]}
			assert.Equal(t, uint8(want.Number), gotNum)
			assert.Equal(t, FramesToMSF(want.Start), gotMSF)
			off += 8
		}
	})
}
