//go:build linux

package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	Treat a physical eject button wired to a GPIO line as
 *		equivalent to the guest issuing Control(7) EjectTheDisc
 *		(§4.11).
 *
 * Description:	The teacher drives GPIO lines for push-to-talk (ptt.go) but
 *		through the legacy /sys/class/gpio sysfs interface.
 *		warthog618/go-gpiocdev is listed in the teacher's go.mod
 *		but never imported; this uses the modern char-device GPIO
 *		API instead, watching for a falling edge rather than
 *		driving an output line.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOEjectButton watches one GPIO line for a falling edge and invokes
// OnEject when it fires.
type GPIOEjectButton struct {
	line    *gpiocdev.Line
	OnEject func()
	log     Logger
}

// NewGPIOEjectButton requests line as an input with edge-detection on chip,
// calling onEject on every falling edge observed.
func NewGPIOEjectButton(chip string, line int, onEject func(), log Logger) (*GPIOEjectButton, error) {
	if log == nil {
		log = NullLogger{}
	}
	b := &GPIOEjectButton{OnEject: onEject, log: log}

	l, err := gpiocdev.RequestLine(chip, line,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(b.handleEvent),
	)
	if err != nil {
		return nil, fmt.Errorf("gpio eject: request %s:%d: %w", chip, line, err)
	}
	b.line = l
	return b, nil
}

func (b *GPIOEjectButton) handleEvent(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventFallingEdge {
		return
	}
	b.log.Infof("gpio eject: falling edge observed, ejecting")
	if b.OnEject != nil {
		b.OnEject()
	}
}

// Close releases the GPIO line request.
func (b *GPIOEjectButton) Close() error {
	return b.line.Close()
}
