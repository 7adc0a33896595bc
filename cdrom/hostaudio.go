package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	The out-of-scope "host audio device open/mix primitives"
 *		collaborator (§1), defined as a small interface so the
 *		audio player has something concrete to push resampled
 *		bytes to (§4.5, §4.10).
 *
 *------------------------------------------------------------------*/

// AudioFormat describes the host stream format a HostAudioSink accepts.
type AudioFormat struct {
	SampleRate int // e.g. 44100
	Channels   int // e.g. 2
	SilenceByte byte
}

// HostAudioSink is the host audio device abstraction (open/mix primitives
// named out of scope in spec.md §1).
type HostAudioSink interface {
	Open(format AudioFormat) error
	Write(samples []byte) error
	Close() error
	Format() AudioFormat
}

// NullSink discards every sample, for use wherever no physical device
// should be opened.
type NullSink struct {
	format AudioFormat
	open   bool
}

func NewNullSink(format AudioFormat) *NullSink { return &NullSink{format: format} }

func (s *NullSink) Open(format AudioFormat) error { s.format = format; s.open = true; return nil }
func (s *NullSink) Write(samples []byte) error    { return nil }
func (s *NullSink) Close() error                  { s.open = false; return nil }
func (s *NullSink) Format() AudioFormat            { return s.format }
