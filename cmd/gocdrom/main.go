// Command gocdrom is a host-side harness for the CD-ROM Device Manager
// driver in package cdrom. It loads a drive list from a YAML preferences
// file, attaches bin/cue or flat-image backends, optionally advertises the
// first drive over mDNS, and then polls for media insertions and calls the
// dispatcher's Interrupt entry point until interrupted, so the driver logic
// can be exercised without an actual emulator attached. It does not call
// Prime, Control or Status.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/retrocdrom/gocdrom/cdrom"
)

// cdromRefNum mirrors BasiliskII's CDROMRefNum: the driver reference number
// the first attached drive reuses before any unit-table growth happens.
const cdromRefNum = -61

// unitEntryCount is the guest unit table's starting size; 48 is the first
// slot not reserved for a specific ROM driver (original_source/cdrom.cpp).
const unitEntryCount = 53

func main() {
	configPath := pflag.StringP("config", "c", "", "Path to a cdrom.yaml preferences file")
	var cdromPaths []string
	pflag.StringArrayVarP(&cdromPaths, "cdrom", "d", nil, "Path to a .cue (repeatable); overrides the config file's cdrom: list")
	verbose := pflag.BoolP("verbose", "v", false, "Debug-level logging")
	shareName := pflag.String("share-name", "", "Advertise the first drive over mDNS under this name (empty disables)")
	help := pflag.BoolP("help", "h", false, "Display help text")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "gocdrom: drive a CD-ROM Device Manager backend from the command line\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n  gocdrom [options]\n\nOptions:\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}

	level := log.InfoLevel
	if *verbose {
		level = log.DebugLevel
	}
	logger := cdrom.NewLogger(os.Stderr, level)

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	if len(cdromPaths) > 0 {
		cfg.CDROM = cdromPaths
	}

	reg := cdrom.NewRegistry(cdromRefNum, unitEntryCount)
	if err := reg.Open(cfg.CDROM, func(path string) (cdrom.DiscBackend, error) {
		return openBackend(path)
	}); err != nil {
		logger.Errorf("open drives: %v", err)
		os.Exit(1)
	}
	logger.Infof("attached %d drive(s)", len(reg.Drives))

	dispatcher := cdrom.NewDispatcher(reg, cdrom.NewPlayerSet(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *shareName != "" && len(reg.Drives) > 0 {
		adv := cdrom.NewRemoteShareAdvertiser(*shareName, 0, logger)
		if err := adv.Start(ctx); err != nil {
			logger.Warnf("share advertise: %v", err)
		} else {
			logger.Infof("advertising %q over mDNS", *shareName)
		}
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	poll := time.NewTicker(cdrom.PollInterval)
	defer poll.Stop()

	logger.Infof("polling for media changes every %s; Ctrl-C to exit", cdrom.PollInterval)
	for {
		select {
		case <-sigc:
			logger.Infof("shutting down")
			return
		case <-poll.C:
			for _, dn := range reg.PollInsertions() {
				logger.Infof("drive %d: media inserted", dn)
				reg.ClearMountPending(dn)
			}
		case events := <-interruptEvents(dispatcher):
			for _, dn := range events {
				logger.Debugf("drive %d: status change event posted", dn)
			}
		}
	}
}

// interruptEvents adapts Dispatcher.Interrupt's synchronous poll into a
// channel so it can sit in the same select as the signal and ticker
// channels above.
func interruptEvents(d *cdrom.Dispatcher) <-chan []uint32 {
	out := make(chan []uint32, 1)
	out <- d.Interrupt()
	return out
}

func loadConfig(path string, logger cdrom.Logger) (*cdrom.Config, error) {
	if path == "" {
		logger.Debugf("no --config given, using an empty preference set")
		return &cdrom.Config{}, nil
	}
	return cdrom.LoadConfig(path)
}

// openBackend opens path as a bin/cue pair if it names a .cue file, or
// otherwise as a flat 2048-byte-sector image (a plain .iso).
func openBackend(path string) (cdrom.DiscBackend, error) {
	if filepath.Ext(path) == ".cue" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return cdrom.OpenBinCue(string(data), filepath.Dir(path))
	}
	return cdrom.OpenFlatImage(path, 2048)
}
