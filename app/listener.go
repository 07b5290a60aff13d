package app

import (
	"go.uber.org/zap"

	"github.com/arloliu/blockpress/event"
)

// LogListener writes events to a zap logger, filtered by verbosity:
//
//	0  errors only
//	1  warnings and the run summary
//	2  run start
//	3+ every block (debug level)
type LogListener struct {
	logger    *zap.Logger
	verbosity int
}

var _ event.Listener = (*LogListener)(nil)

// NewLogListener creates a listener that logs to logger.
func NewLogListener(logger *zap.Logger, verbosity int) *LogListener {
	return &LogListener{logger: logger, verbosity: verbosity}
}

// OnEvent logs e.
func (l *LogListener) OnEvent(e event.Event) {
	switch e.Kind {
	case event.KindError:
		l.logger.Error(e.Message)
	case event.KindWarning:
		if l.verbosity >= 1 {
			l.logger.Warn(e.Message)
		}
	case event.KindCompleted:
		if l.verbosity >= 1 {
			l.logger.Info(e.Message,
				zap.Int64("raw_bytes", e.RawBytes),
				zap.Int64("encoded_bytes", e.EncodedBytes),
				zap.Float64("ratio", e.Ratio()),
				zap.Duration("elapsed", e.Elapsed),
			)
		}
	case event.KindStarted:
		if l.verbosity >= 2 {
			l.logger.Info(e.Message)
		}
	case event.KindBlockDone:
		if l.verbosity >= 3 {
			l.logger.Debug("block done",
				zap.Int("block", e.BlockIndex),
				zap.Int64("raw_bytes", e.RawBytes),
				zap.Int64("encoded_bytes", e.EncodedBytes),
				zap.Duration("elapsed", e.Elapsed),
			)
		}
	}
}
