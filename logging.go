package vobsub

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Log is the package-wide logger used for FormatWarning diagnostics (misaligned
// fragments, erratic control chains, zero-alpha fallback, unrecognized idx
// keys, ...). A host application can lower/raise its level or swap its output
// without touching the codec itself.
//
// The core is specified as single-threaded and synchronous (see the
// concurrency notes), so every call site logs directly rather than through a
// buffered channel: funnelling warnings through an async drain goroutine
// would let them surface out of order relative to the decode(i) calls that
// produced them.
var Log = logrus.New()

func init() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	Log.SetLevel(logrus.InfoLevel)
}

func warnf(offset int64, format string, args ...any) Warning {
	w := Warning{SubpictureOffset: offset, Msg: fmt.Sprintf(format, args...)}
	Log.WithField("offset", fmt.Sprintf("0x%x", offset)).Warn(w.Msg)
	return w
}
