package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	Convert between frame counts, minute/second/frame triples,
 *		and the BCD encoding the guest uses for almost every CD
 *		position it hands the driver.
 *
 * Description:	A Red Book frame is 1/75th of a second. These tables and
 *		conversions are the single source of truth for every other
 *		component that needs to go between a flat frame count and
 *		the M:S:F the guest, the cue sheet, and the TOC all speak.
 *
 *------------------------------------------------------------------*/

// CDFrames is the number of CD frames per second (Red Book).
const CDFrames = 75

// MSF is a minute/second/frame position.
type MSF struct {
	M, S, F uint8
}

// FramesToMSF converts an absolute frame count to a minute/second/frame triple.
func FramesToMSF(frames uint32) MSF {
	return MSF{
		M: uint8(frames / (60 * CDFrames)),
		S: uint8((frames / CDFrames) % 60),
		F: uint8(frames % CDFrames),
	}
}

// MSFToFrames converts a minute/second/frame triple to an absolute frame count.
func MSFToFrames(msf MSF) uint32 {
	return uint32(msf.M)*60*CDFrames + uint32(msf.S)*CDFrames + uint32(msf.F)
}

// bin2bcd[n] packs a binary value 0..99 into two BCD nibbles; anything else is 0xFF.
var bin2bcd = func() [256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = 0xFF
	}
	for n := 0; n <= 99; n++ {
		t[n] = uint8(((n / 10) << 4) | (n % 10))
	}
	return t
}()

// bcd2bin is the inverse of bin2bcd; a non-decimal nibble maps to 0xFF.
var bcd2bin = func() [256]uint8 {
	var t [256]uint8
	for i := range t {
		hi := (i >> 4) & 0xf
		lo := i & 0xf
		if hi > 9 || lo > 9 {
			t[i] = 0xFF
		} else {
			t[i] = uint8(hi*10 + lo)
		}
	}
	return t
}()

// BinToBCD converts a binary value 0..99 to BCD, or 0xFF if out of range.
func BinToBCD(n uint8) uint8 { return bin2bcd[n] }

// BCDToBin converts a BCD byte back to binary, or 0xFF if not valid BCD digits.
func BCDToBin(b uint8) uint8 { return bcd2bin[b] }
