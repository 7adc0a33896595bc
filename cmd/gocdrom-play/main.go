// Command gocdrom-play plays one audio track of a bin/cue image to the
// default host audio device, driving the same CDPlayer/PlayerSet machinery
// the SCSI driver uses for PlayAudio/PlayAudioMSF, by pulling FillBuffer
// output and feeding it to a PortAudioSink instead of a guest mix buffer.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/retrocdrom/gocdrom/cdrom"
)

// chunkFrames is the number of raw frames pulled from FillBuffer per
// iteration; a couple hundred milliseconds' worth at CD audio rate.
const chunkFrames = 18

func main() {
	track := pflag.IntP("track", "t", 1, "Track number to play (1-based)")
	help := pflag.BoolP("help", "h", false, "Display help text")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "gocdrom-play: play one track of a .cue image\n\nUsage:\n  gocdrom-play [options] file.cue\n\nOptions:\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help || pflag.NArg() != 1 {
		pflag.Usage()
		if !*help {
			os.Exit(2)
		}
		return
	}

	if err := run(pflag.Arg(0), *track); err != nil {
		fmt.Fprintln(os.Stderr, "gocdrom-play:", err)
		os.Exit(1)
	}
}

func run(cuePath string, trackNum int) error {
	data, err := os.ReadFile(cuePath)
	if err != nil {
		return fmt.Errorf("read cue: %w", err)
	}

	cs, err := cdrom.ParseCue(string(data), filepath.Dir(cuePath))
	if err != nil {
		return fmt.Errorf("parse cue: %w", err)
	}

	// CDPlayer.FillBuffer reads raw frames directly against the track's
	// own FileOffset (player.go), so it needs the unmediated binary image
	// rather than a DiscBackend's cooked, header-skipping Read.
	raw, err := os.Open(cs.BinFile)
	if err != nil {
		return fmt.Errorf("open binary image: %w", err)
	}
	defer raw.Close()

	fi, err := raw.Stat()
	if err != nil {
		return fmt.Errorf("stat binary image: %w", err)
	}
	if err := cdrom.FinishCueSheet(cs, fi.Size()); err != nil {
		return fmt.Errorf("finish cue sheet: %w", err)
	}
	var tr *cdrom.Track
	for i := range cs.Tracks {
		if int(cs.Tracks[i].Number) == trackNum {
			tr = &cs.Tracks[i]
			break
		}
	}
	if tr == nil {
		return fmt.Errorf("no track %d in %s", trackNum, cuePath)
	}
	if tr.TCF != cdrom.TCFAudio {
		return fmt.Errorf("track %d is a data track, not audio", trackNum)
	}

	sink, err := cdrom.NewPortAudioSink()
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	defer sink.Close()

	format := cdrom.AudioFormat{SampleRate: 44100, Channels: 2, SilenceByte: 0}
	if err := sink.Open(format); err != nil {
		return fmt.Errorf("start audio stream: %w", err)
	}

	players := cdrom.NewPlayerSet()
	player := cdrom.NewCDPlayer(cuePath, cs, raw)
	players.Add(player)

	if err := players.Play(player, tr.Start-tr.Pregap, tr.Start+tr.Length); err != nil {
		return fmt.Errorf("play: %w", err)
	}

	buf := make([]byte, chunkFrames*cs.RawSectorSize)
	for player.Status() == cdrom.AudioPlay {
		if err := player.FillBuffer(buf, format.SilenceByte); err != nil {
			return fmt.Errorf("fill buffer: %w", err)
		}
		if err := sink.Write(buf); err != nil {
			return fmt.Errorf("write audio: %w", err)
		}
	}
	return nil
}
