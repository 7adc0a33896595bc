package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	Cooked reads over a raw sector image: skip the header, span
 *		as many raw sectors as the request needs, and never hand
 *		back error-correction bytes.
 *
 * Description:	Ported from BasiliskII's bincue.cpp read_bincue. The
 *		original seeks the shared file descriptor with lseek then
 *		reads sequentially; here we use pread so a concurrent
 *		caller on another goroutine (the audio mixer, see player.go)
 *		never races on the file's cursor (see SPEC_FULL.md §5).
 *
 *------------------------------------------------------------------*/

import (
	"io"

	"golang.org/x/sys/unix"
)

// Reader is a positioned reader, implemented by *os.File (whose ReadAt
// issues pread) and by fdReader via golang.org/x/sys/unix.Pread.
type Reader interface {
	ReadAt(b []byte, off int64) (int, error)
}

type fdReader int

func (f fdReader) ReadAt(b []byte, off int64) (int, error) {
	return unix.Pread(int(f), b, off)
}

// CookedRead reads len(out) cooked bytes starting at cooked byte offset
// offset, skipping each raw sector's header and trailer. A short raw read
// returns the bytes accumulated so far with no error (partial success,
// matching read_bincue); any other read error is returned directly.
func CookedRead(r Reader, cs *CueSheet, offset int64, out []byte) (int, error) {
	raw := int64(cs.RawSectorSize)
	cooked := int64(cs.CookedSectorSize)

	sec := (offset / cooked) * raw
	secoff := offset % cooked

	secbuf := make([]byte, cs.RawSectorSize)

	var written int
	for written < len(out) {
		n, err := r.ReadAt(secbuf, sec)
		if n != cs.RawSectorSize {
			if err == io.EOF {
				err = nil
			}
			return written, err
		}

		avail := cooked - secoff
		remaining := int64(len(out) - written)
		if avail > remaining {
			avail = remaining
		}

		start := int64(cs.HeaderSize) + secoff
		copy(out[written:written+int(avail)], secbuf[start:start+avail])

		written += int(avail)
		secoff = 0
		sec += raw
	}
	return written, nil
}
