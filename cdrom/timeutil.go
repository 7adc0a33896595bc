package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	Timestamp formatting for insertion/eject diagnostics.
 *
 * Description:	The teacher's own daily-log-file naming (log.go) reaches
 *		for Go's reference-time layout rather than the strftime
 *		pattern its go.mod lists as a dependency; this gives
 *		lestrrat-go/strftime its first real caller, formatting the
 *		timestamp attached to each insertion/eject log line.
 *
 *------------------------------------------------------------------*/

import (
	"time"

	"github.com/lestrrat-go/strftime"
)

// eventTimestampPattern matches the teacher's own UTC daily-name choice
// (log.go: "Why UTC rather than local time? ... leave it alone for now"),
// just expressed as a strftime pattern instead of a Go reference layout.
const eventTimestampPattern = "%Y-%m-%d %H:%M:%S UTC"

var eventTimestampFormatter = strftime.MustNew(eventTimestampPattern)

// FormatEventTime renders t (converted to UTC) for an insertion/eject log
// line.
func FormatEventTime(t time.Time) string {
	return eventTimestampFormatter.FormatString(t.UTC())
}
