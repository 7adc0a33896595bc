package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	DiscBackend implementation over a parsed cue sheet and its
 *		binary sector image, the primary backend kind (§4.2-4.5).
 *
 * Description:	Ported from BasiliskII's bincue.cpp open_bincue/read_bincue/
 *		CDROMEject_bincue. Opens the binary image once and serves
 *		cooked reads through CookedRead; the file descriptor is
 *		shared safely between the dispatcher's synchronous reads and
 *		the mixer's fill_buffer reads because both go through pread
 *		(see sectorio.go and SPEC_FULL.md §5).
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
)

// BinCueBackend serves a mounted bin/cue pair.
type BinCueBackend struct {
	cs       *CueSheet
	file     *os.File
	ejected  bool
}

// OpenBinCue parses cueText (rooted at cueDir for the referenced BINARY
// file), opens and stats the binary image, and patches the final track's
// length, mirroring LoadCueSheet.
func OpenBinCue(cueText, cueDir string) (*BinCueBackend, error) {
	cs, err := ParseCue(cueText, cueDir)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(cs.BinFile)
	if err != nil {
		return nil, fmt.Errorf("open binary image %s: %w", cs.BinFile, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat binary image %s: %w", cs.BinFile, err)
	}

	if err := FinishCueSheet(cs, fi.Size()); err != nil {
		f.Close()
		return nil, err
	}

	return &BinCueBackend{cs: cs, file: f}, nil
}

func (b *BinCueBackend) CueSheet() *CueSheet { return b.cs }

func (b *BinCueBackend) Read(offset int64, out []byte) (int, error) {
	if b.ejected {
		return 0, fmt.Errorf("bincue: no disc inserted")
	}
	return CookedRead(b.file, b.cs, offset, out)
}

func (b *BinCueBackend) RawReader() Reader { return b.file }

// IsDiskInserted always reports true until Eject is called: a bin/cue
// backend has no removable-media concept of its own (see HostDeviceBackend
// for a backend that does).
func (b *BinCueBackend) IsDiskInserted() bool { return !b.ejected }

func (b *BinCueBackend) Eject() error {
	b.ejected = true
	return nil
}

func (b *BinCueBackend) Close() error {
	return b.file.Close()
}
