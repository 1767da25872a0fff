package redis

import "github.com/sirupsen/logrus"

// logSink is the "log sink" named in §3's Connection-state tuple. A nil
// *logSink is valid and silent, so callers that don't care about logging
// never have to construct one.
type logSink struct {
	entry *logrus.Entry
}

func newLogSink(entry *logrus.Entry) *logSink {
	if entry == nil {
		return nil
	}
	return &logSink{entry: entry}
}

func (l *logSink) debugf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.entry.Debugf(format, args...)
}

func (l *logSink) warnf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.entry.Warnf(format, args...)
}

func (l *logSink) errorf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.entry.Errorf(format, args...)
}
