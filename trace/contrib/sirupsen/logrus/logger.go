package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/logger"
)

// NewAgentLogger adapts a logrus logger to the agent's internal logging
// interface, so the agent's own diagnostics land in the application log.
func NewAgentLogger(l *logrus.Logger) logger.Logger {
	return &agentLogger{l: l}
}

type agentLogger struct {
	l *logrus.Logger
}

func (a *agentLogger) Debug(format string, args ...interface{}) {
	a.l.Debugf(format, args...)
}

func (a *agentLogger) Info(format string, args ...interface{}) {
	a.l.Infof(format, args...)
}

func (a *agentLogger) Error(format string, args ...interface{}) {
	a.l.Errorf(format, args...)
}
