package storage

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// badgerLogger routes badger's log output through logrus. Badger is chatty at
// info level, so info is demoted to debug.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(trim(format, args))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(trim(format, args))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(trim(format, args))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(trim(format, args))
}

func trim(format string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
