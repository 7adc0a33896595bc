package cdrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_FramesToMSF_MSFToFrames_examples(t *testing.T) {
	assert.Equal(t, MSF{M: 3, S: 2, F: 0}, FramesToMSF(MSFToFrames(MSF{M: 3, S: 2, F: 0})))
	assert.Equal(t, uint32(0), MSFToFrames(MSF{}))
}

func Test_BinToBCD_BCDToBin_examples(t *testing.T) {
	assert.Equal(t, uint8(0x42), BinToBCD(42))
	assert.Equal(t, uint8(42), BCDToBin(0x42))
	assert.Equal(t, uint8(0xFF), BinToBCD(100))
	assert.Equal(t, uint8(0xFF), BCDToBin(0xAB))
}

// Round-trip MSF and BCD/bin conversions, per spec.md §8's testable laws.
func Test_Property_MSF_roundtrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := uint8(rapid.IntRange(0, 99).Draw(rt, "m"))
		s := uint8(rapid.IntRange(0, 59).Draw(rt, "s"))
		f := uint8(rapid.IntRange(0, 74).Draw(rt, "f"))

		got := FramesToMSF(MSFToFrames(MSF{M: m, S: s, F: f}))
		assert.Equal(t, MSF{M: m, S: s, F: f}, got)
	})
}

func Test_Property_BCD_roundtrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := uint8(rapid.IntRange(0, 99).Draw(rt, "n"))
		assert.Equal(t, n, BCDToBin(BinToBCD(n)))
	})
}
