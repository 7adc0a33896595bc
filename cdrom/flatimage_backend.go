package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	DiscBackend for a single data track (2048-byte sectors, or
 *		2352-byte sectors with a 16-byte header) with no cue sheet
 *		at all (a plain .iso-style dump).
 *
 * Description:	Grounded on bincue.cpp's own MODE1/2048 handling, but with
 *		the cue sheet itself synthesized rather than parsed: one
 *		track, no pregap, no postgap, no audio. Exists so the "image
 *		file" backend kind named in spec.md's component table has a
 *		concrete implementation distinct from BinCueBackend.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
)

// FlatImageBackend serves a single-track, cue-less disc image.
type FlatImageBackend struct {
	cs      *CueSheet
	file    *os.File
	ejected bool
}

// OpenFlatImage opens path and builds a synthetic one-track CueSheet from
// its size. sectorSize must be 2048 (no header, cooked == raw) or 2352
// (MODE1/2352, 16-byte header).
func OpenFlatImage(path string, sectorSize int) (*FlatImageBackend, error) {
	var raw, cooked, header int
	switch sectorSize {
	case 2048:
		raw, cooked, header = 2048, 2048, 0
	case 2352:
		raw, cooked, header = 2352, 2048, 16
	default:
		return nil, fmt.Errorf("flatimage: unsupported sector size %d", sectorSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat image %s: %w", path, err)
	}

	length := uint32(fi.Size() / int64(raw))
	cs := &CueSheet{
		BinFile:          path,
		Length:           length,
		RawSectorSize:    raw,
		CookedSectorSize: cooked,
		HeaderSize:       header,
		Tracks: []Track{
			{Number: 1, Start: 0, Length: length, FileOffset: 0, TCF: TCFData},
		},
	}

	return &FlatImageBackend{cs: cs, file: f}, nil
}

func (b *FlatImageBackend) CueSheet() *CueSheet { return b.cs }

func (b *FlatImageBackend) Read(offset int64, out []byte) (int, error) {
	if b.ejected {
		return 0, fmt.Errorf("flatimage: no disc inserted")
	}
	return CookedRead(b.file, b.cs, offset, out)
}

func (b *FlatImageBackend) RawReader() Reader { return b.file }

func (b *FlatImageBackend) IsDiskInserted() bool { return !b.ejected }

func (b *FlatImageBackend) Eject() error {
	b.ejected = true
	return nil
}

func (b *FlatImageBackend) Close() error {
	return b.file.Close()
}
