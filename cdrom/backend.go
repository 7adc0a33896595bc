package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	The trait a disc backend must satisfy so the dispatcher and
 *		audio player never need to know whether bytes come from a
 *		bin/cue pair, a flat image, or a real host drive.
 *
 *------------------------------------------------------------------*/

import "time"

// DiscBackend is anything that can serve cooked sector reads and a TOC for
// one mounted disc. BinCueBackend, FlatImageBackend, and (Linux-only)
// HostDeviceBackend all implement it.
type DiscBackend interface {
	// CueSheet returns the parsed geometry of the mounted disc.
	CueSheet() *CueSheet

	// Read performs a cooked read of len(out) bytes starting at cooked
	// byte offset, per §4.3.
	Read(offset int64, out []byte) (int, error)

	// RawReader returns the unmediated positioned reader backing this
	// disc, for the audio player's fill-buffer reads (player.go), which
	// index by raw frame offset rather than cooked byte offset.
	RawReader() Reader

	// IsDiskInserted reports whether removable media is currently present.
	// A backend with no notion of removability (a plain file) returns
	// true until its Eject is called.
	IsDiskInserted() bool

	// Eject releases the backend's hold on its media, if any.
	Eject() error

	// Close releases any OS resources (open file descriptors, etc).
	Close() error
}

// InsertionWatcher is optionally implemented by a DiscBackend that can push
// insertion/removal notifications instead of requiring the registry to poll
// IsDiskInserted on a timer (see §4.6 and HostDeviceBackend's udev use).
type InsertionWatcher interface {
	// WatchInsertions delivers a value each time disc presence changes;
	// true for insertion, false for removal. The returned channel is
	// closed when stop is closed.
	WatchInsertions(stop <-chan struct{}) <-chan bool
}

// PollInterval is the default fallback poll period for backends that don't
// implement InsertionWatcher, matching spec.md §4.6's "if none configured"
// lazy default.
const PollInterval = time.Second
