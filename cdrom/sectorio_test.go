package cdrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// memReader is an in-memory Reader for tests.
type memReader []byte

func (m memReader) ReadAt(b []byte, off int64) (int, error) {
	n := copy(b, m[off:])
	return n, nil
}

func buildRawImage(cs *CueSheet, numSectors int, fill func(sector, offset int) byte) memReader {
	buf := make([]byte, numSectors*cs.RawSectorSize)
	for sec := 0; sec < numSectors; sec++ {
		for i := 0; i < cs.RawSectorSize; i++ {
			buf[sec*cs.RawSectorSize+i] = fill(sec, i)
		}
	}
	return memReader(buf)
}

// Scenario 2 from spec.md §8: cooked read of a MODE1/2352 sector.
func Test_CookedRead_Mode1_2352(t *testing.T) {
	cs := &CueSheet{RawSectorSize: 2352, CookedSectorSize: 2048, HeaderSize: 16}
	img := buildRawImage(cs, 1, func(_, offset int) byte { return byte(offset) })

	out := make([]byte, 2048)
	n, err := CookedRead(img, cs, 0, out)
	require.NoError(t, err)
	assert.Equal(t, 2048, n)

	for i := 0; i < 2048; i++ {
		assert.Equal(t, byte(16+i), out[i])
	}
}

func Test_CookedRead_SpansSectors(t *testing.T) {
	cs := &CueSheet{RawSectorSize: 2352, CookedSectorSize: 2048, HeaderSize: 16}
	img := buildRawImage(cs, 3, func(sec, offset int) byte { return byte(sec*7 + offset) })

	whole := make([]byte, 4096)
	_, err := CookedRead(img, cs, 0, whole)
	require.NoError(t, err)

	// Cooked read idempotence (§8): reading [0, 4096) equals concatenating
	// a split read at an arbitrary interior offset.
	for _, split := range []int{1, 1000, 2048, 3000} {
		a := make([]byte, split)
		b := make([]byte, 4096-split)
		_, err := CookedRead(img, cs, 0, a)
		require.NoError(t, err)
		_, err = CookedRead(img, cs, int64(split), b)
		require.NoError(t, err)

		assert.Equal(t, whole, append(a, b...))
	}
}

func Test_Property_CookedRead_Idempotence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cs := &CueSheet{RawSectorSize: 2352, CookedSectorSize: 2048, HeaderSize: 16}
		img := buildRawImage(cs, 5, func(sec, offset int) byte { return byte(sec*13 + offset*3) })

		total := rapid.IntRange(1, 8192).Draw(rt, "total")
		split := rapid.IntRange(0, total).Draw(rt, "split")

		whole := make([]byte, total)
		_, err := CookedRead(img, cs, 0, whole)
		require.NoError(t, err)

		a := make([]byte, split)
		b := make([]byte, total-split)
		_, err = CookedRead(img, cs, 0, a)
		require.NoError(t, err)
		_, err = CookedRead(img, cs, int64(split), b)
		require.NoError(t, err)

		assert.Equal(t, whole, append(a, b...))
	})
}
