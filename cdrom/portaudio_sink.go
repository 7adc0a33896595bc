package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	HostAudioSink backed by a real PCM output stream, for the
 *		demo CLI player (§4.10).
 *
 * Description:	gordonklaus/portaudio is listed in the teacher's go.mod but
 *		never imported by its own source (the teacher talks to its
 *		sound card over ALSA/Windows APIs elsewhere); this is its
 *		first real caller. Mirrors the player's native rate (44100
 *		Hz, 16-bit stereo) directly rather than resampling, since
 *		the mixer hand-off in bincue.cpp already assumes the host
 *		device was opened at the stream's native format.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSink writes 16-bit stereo samples to the default host output
// device via portaudio.
type PortAudioSink struct {
	stream *portaudio.Stream
	format AudioFormat
	buf    []int16
}

// NewPortAudioSink initializes the portaudio library. Call Close to
// release it once the sink is no longer needed.
func NewPortAudioSink() (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	return &PortAudioSink{}, nil
}

func (s *PortAudioSink) Open(format AudioFormat) error {
	s.format = format
	s.buf = make([]int16, 0, 4096)

	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), len(s.buf), &s.buf)
	if err != nil {
		return fmt.Errorf("portaudio: open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("portaudio: start stream: %w", err)
	}
	s.stream = stream
	return nil
}

// Write accepts little-endian 16-bit stereo PCM bytes, as produced by the
// audio player's fill-buffer algorithm, and blocks until the device has
// consumed them.
func (s *PortAudioSink) Write(samples []byte) error {
	if s.stream == nil {
		return fmt.Errorf("portaudio: sink not open")
	}

	n := len(samples) / 2
	if cap(s.buf) < n {
		s.buf = make([]int16, n)
	} else {
		s.buf = s.buf[:n]
	}
	for i := 0; i < n; i++ {
		s.buf[i] = int16(uint16(samples[2*i]) | uint16(samples[2*i+1])<<8)
	}

	return s.stream.Write()
}

func (s *PortAudioSink) Close() error {
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			return err
		}
		s.stream = nil
	}
	return portaudio.Terminate()
}

func (s *PortAudioSink) Format() AudioFormat { return s.format }
