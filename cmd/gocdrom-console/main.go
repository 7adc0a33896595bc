// Command gocdrom-console is an interactive raw-terminal debug console for
// a single mounted bin/cue image: p plays track 1, space pauses/resumes,
// s stops, e ejects (through Dispatcher.Control, exercising the same path
// a guest's Eject() call would take), q quits.
//
// Grounded on serial_port.go's github.com/pkg/term use for raw-mode
// terminal I/O, applied here to the controlling tty instead of a modem
// device.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/pkg/term"

	"github.com/retrocdrom/gocdrom/cdrom"
)

// cdromRefNum mirrors BasiliskII's CDROMRefNum (see cmd/gocdrom).
const cdromRefNum = -61

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: gocdrom-console file.cue")
		os.Exit(2)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "gocdrom-console:", err)
		os.Exit(1)
	}
}

func run(cuePath string) error {
	logger := cdrom.NewLogger(os.Stderr, charmlog.InfoLevel)

	reg := cdrom.NewRegistry(cdromRefNum, 53)
	if err := reg.Open([]string{cuePath}, func(path string) (cdrom.DiscBackend, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return cdrom.OpenBinCue(string(data), filepath.Dir(path))
	}); err != nil {
		return fmt.Errorf("open %s: %w", cuePath, err)
	}
	drive := reg.Drives[0]
	dispatcher := cdrom.NewDispatcher(reg, cdrom.NewPlayerSet(), logger)

	// FillBuffer reads raw frames directly against each track's own
	// FileOffset (player.go), so the player needs its own unmediated
	// handle on the binary image rather than the backend's cooked Read.
	cs := drive.Backend.CueSheet()
	raw, err := os.Open(cs.BinFile)
	if err != nil {
		return fmt.Errorf("open binary image: %w", err)
	}
	defer raw.Close()

	players := cdrom.NewPlayerSet()
	player := cdrom.NewCDPlayer(cuePath, cs, raw)
	players.Add(player)

	tty, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		return fmt.Errorf("open controlling tty: %w", err)
	}
	defer tty.Restore()
	defer tty.Close()

	fmt.Fprint(os.Stderr, "p=play track 1  space=pause/resume  s=stop  e=eject  q=quit\r\n")

	buf := make([]byte, 1)
	for {
		n, err := tty.Read(buf)
		if err != nil || n == 0 {
			return err
		}

		switch buf[0] {
		case 'q', 'Q', 3: // 3 = Ctrl-C
			return nil

		case 'e', 'E':
			_, _, status := dispatcher.Control(drive.DriveNumber, drive.DriverRefNum, cdrom.CtrlEject, 0)
			fmt.Fprintf(os.Stderr, "\reject: %v\r\n", status)
			return nil

		case 'p', 'P':
			if len(cs.Tracks) == 0 {
				fmt.Fprint(os.Stderr, "\rno tracks\r\n")
				continue
			}
			tr := cs.Tracks[0]
			if err := players.Play(player, tr.Start-tr.Pregap, tr.Start+tr.Length); err != nil {
				fmt.Fprintf(os.Stderr, "\rplay failed: %v\r\n", err)
				continue
			}
			fmt.Fprintf(os.Stderr, "\rplaying track %d\r\n", tr.Number)

		case ' ':
			switch player.Status() {
			case cdrom.AudioPlay:
				players.Pause(player)
				fmt.Fprint(os.Stderr, "\rpaused\r\n")
			case cdrom.AudioPaused:
				players.Resume(player)
				fmt.Fprint(os.Stderr, "\rresumed\r\n")
			}

		case 's', 'S':
			players.Stop(player)
			fmt.Fprint(os.Stderr, "\rstopped\r\n")
		}
	}
}
