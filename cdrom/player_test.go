package cdrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoTrackCue(t *testing.T) *CueSheet {
	t.Helper()
	text := "FILE \"x.bin\" BINARY\n" +
		"TRACK 01 AUDIO\n" +
		"INDEX 01 00:00:00\n" +
		"TRACK 02 AUDIO\n" +
		"PREGAP 00:02:00\n" +
		"INDEX 01 03:00:00\n"
	cs, err := ParseCue(text, "/discs")
	require.NoError(t, err)
	require.NoError(t, FinishCueSheet(cs, 182*75*2352))
	return cs
}

// Scenario 4 from spec.md §8: play across a pregap.
func Test_FillBuffer_PlayAcrossPregap(t *testing.T) {
	cs := twoTrackCue(t)
	track2 := cs.Tracks[1]

	img := make(memReader, int(cs.Length)*cs.RawSectorSize)
	for i := range img {
		img[i] = 0xAB
	}

	ps := NewPlayerSet()
	p := NewCDPlayer("drive0", cs, img)
	ps.Add(p)

	require.NoError(t, ps.Play(p, track2.Start-track2.Pregap, track2.Start+track2.Length))

	expectedSilence := int64(track2.Pregap) * int64(cs.RawSectorSize)
	assert.Equal(t, expectedSilence, p.silence)

	buf := make([]byte, int(expectedSilence)+10)
	require.NoError(t, p.FillBuffer(buf, 0))

	for i := int64(0); i < expectedSilence; i++ {
		assert.Equalf(t, byte(0), buf[i], "byte %d should be silence", i)
	}
	for i := expectedSilence; i < int64(len(buf)); i++ {
		assert.Equalf(t, byte(0xAB), buf[i], "byte %d should be file-backed audio", i)
	}
}

func Test_AtMostOnePlaying(t *testing.T) {
	cs := twoTrackCue(t)
	img := make(memReader, int(cs.Length)*cs.RawSectorSize)

	ps := NewPlayerSet()
	a := NewCDPlayer("a", cs, img)
	b := NewCDPlayer("b", cs, img)
	ps.Add(a)
	ps.Add(b)

	require.NoError(t, ps.Play(a, 0, cs.Tracks[0].Length))
	assert.Equal(t, AudioPlay, a.Status())

	require.NoError(t, ps.Play(b, cs.Tracks[1].Start, cs.Tracks[1].Start+cs.Tracks[1].Length))
	assert.Equal(t, AudioPaused, a.Status())
	assert.Equal(t, AudioPlay, b.Status())

	ps.Stop(b)
	assert.Nil(t, ps.Playing())
}

func Test_Volume_Roundtrip_Endpoints(t *testing.T) {
	p := NewCDPlayer("drive0", &CueSheet{RawSectorSize: 2352}, nil)
	for _, v := range []uint8{0, 128, 255} {
		p.SetVolume(v, v)
		l, _ := p.Volume()
		assert.Equal(t, v, l)
	}
}

func Test_Scan_ForwardAndReverse(t *testing.T) {
	cs := twoTrackCue(t)
	ps := NewPlayerSet()
	p := NewCDPlayer("drive0", cs, nil)
	ps.Add(p)

	ps.Scan(p, false, DefaultScanRate)
	forward := p.audioPos
	assert.Greater(t, forward, int64(0))

	ps.Scan(p, true, DefaultScanRate)
	ps.Scan(p, true, DefaultScanRate)
	assert.Equal(t, int64(0), p.audioPos) // clamped at 0, can't go negative
}
