package cdrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 1 from spec.md §8: two-track audio cue.
func Test_ParseCue_TwoTrackAudio(t *testing.T) {
	text := "FILE \"x.bin\" BINARY\n" +
		"TRACK 01 AUDIO\n" +
		"INDEX 01 00:00:00\n" +
		"TRACK 02 AUDIO\n" +
		"PREGAP 00:02:00\n" +
		"INDEX 01 03:00:00\n"

	cs, err := ParseCue(text, "/discs")
	require.NoError(t, err)
	require.Len(t, cs.Tracks, 2)

	// (3*60+2)*75 frames * 2352 bytes/frame, an exact multiple of the raw
	// sector size (spec.md's own literal byte count for this scenario does
	// not evenly divide by 2352).
	require.NoError(t, FinishCueSheet(cs, 182*75*2352))

	assert.Equal(t, uint32(0), cs.Tracks[0].Start)
	assert.Equal(t, uint32(13350), cs.Tracks[0].Length)
	assert.Equal(t, uint32(13500), cs.Tracks[1].Start)

	var totalPregap uint32
	for _, tr := range cs.Tracks {
		totalPregap += tr.Pregap
	}
	assert.Equal(t, uint32(150), totalPregap)
	assert.Equal(t, cs.Length-cs.Tracks[1].Start+totalPregap, cs.Tracks[1].Length)
}

// Scenario 2 from spec.md §8: mixed-mode cue geometry.
func Test_ParseCue_MixedMode(t *testing.T) {
	text := "FILE \"x.bin\" BINARY\n" +
		"TRACK 01 MODE1/2352\n" +
		"INDEX 01 00:00:00\n" +
		"TRACK 02 AUDIO\n" +
		"INDEX 01 02:00:00\n"

	cs, err := ParseCue(text, "/discs")
	require.NoError(t, err)
	assert.Equal(t, 2352, cs.RawSectorSize)
	assert.Equal(t, 2048, cs.CookedSectorSize)
	assert.Equal(t, 16, cs.HeaderSize)
}

func Test_ParseCue_RejectsNonFileFirstLine(t *testing.T) {
	_, err := ParseCue("TRACK 01 AUDIO\n", "/discs")
	assert.Error(t, err)
}

func Test_ParseCue_RejectsMultipleFileClauses(t *testing.T) {
	text := "FILE \"x.bin\" BINARY\n" +
		"TRACK 01 AUDIO\n" +
		"FILE \"y.bin\" BINARY\n"
	_, err := ParseCue(text, "/discs")
	assert.Error(t, err)
}

func Test_ParseCue_RejectsNonConsecutiveTrackNumber(t *testing.T) {
	text := "FILE \"x.bin\" BINARY\n" +
		"TRACK 01 AUDIO\n" +
		"INDEX 01 00:00:00\n" +
		"TRACK 03 AUDIO\n" +
		"INDEX 01 03:00:00\n"
	_, err := ParseCue(text, "/discs")
	assert.Error(t, err)
}

func Test_ParseCue_RejectsUnknownKeyword(t *testing.T) {
	text := "FILE \"x.bin\" BINARY\n" +
		"TRACK 01 AUDIO\n" +
		"BOGUS 1 2 3\n"
	_, err := ParseCue(text, "/discs")
	assert.Error(t, err)
}

func Test_ParseCue_AcceptsAndIgnoresMetadataKeywords(t *testing.T) {
	text := "FILE \"x.bin\" BINARY\n" +
		"TITLE \"Some Album\"\n" +
		"TRACK 01 AUDIO\n" +
		"PERFORMER \"Someone\"\n" +
		"REM DATE 1999\n" +
		"INDEX 01 00:00:00\n"
	_, err := ParseCue(text, "/discs")
	assert.NoError(t, err)
}
