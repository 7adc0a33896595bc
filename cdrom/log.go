package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	Structured diagnostics for the dispatcher and registry:
 *		unknown Control/Status codes, insertion/eject events, parse
 *		failures.
 *
 * Description:	A real leveled logger taking over the role of the
 *		teacher's own text_color_set/dw_printf pair (see
 *		textcolor.go, which stubs the coloring and never finishes
 *		it). charmbracelet/log is listed in the teacher's go.mod but
 *		never imported by its own source; this gives it a home.
 *
 *------------------------------------------------------------------*/

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the small diagnostic surface the dispatcher and registry need.
// Kept as an interface (rather than a concrete *charmlog.Logger) so tests
// can pass a no-op implementation.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// charmLogger adapts charmbracelet/log's Logger to the Logger interface.
type charmLogger struct {
	l *charmlog.Logger
}

// NewLogger builds a charmbracelet/log-backed Logger writing to w with the
// given level (e.g. charmlog.DebugLevel). Passing nil for w defaults to
// stderr.
func NewLogger(w io.Writer, level charmlog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "cdrom",
	})
	l.SetLevel(level)
	return &charmLogger{l: l}
}

func (c *charmLogger) Debugf(format string, args ...any) { c.l.Debugf(format, args...) }
func (c *charmLogger) Infof(format string, args ...any)  { c.l.Infof(format, args...) }
func (c *charmLogger) Warnf(format string, args ...any)  { c.l.Warnf(format, args...) }
func (c *charmLogger) Errorf(format string, args ...any) { c.l.Errorf(format, args...) }

// NullLogger discards everything; used where no diagnostic sink is wired
// (unit tests, and the default when a nil Logger is passed).
type NullLogger struct{}

func (NullLogger) Debugf(string, ...any) {}
func (NullLogger) Infof(string, ...any)  {}
func (NullLogger) Warnf(string, ...any)  {}
func (NullLogger) Errorf(string, ...any) {}
