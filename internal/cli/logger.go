package cli

import "go.uber.org/zap"

// agentLogger wraps zap for verbose debug with session context.
type agentLogger struct {
	sugared   *zap.SugaredLogger
	sessionFn func() int
}

func newAgentLogger(globals *Globals, sessionFn func() int) *agentLogger {
	if globals == nil || !globals.Verbose {
		return &agentLogger{}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	logger, _ := cfg.Build()
	return &agentLogger{
		sugared:   logger.Sugar(),
		sessionFn: sessionFn,
	}
}

func (l *agentLogger) Debug(format string, args ...interface{}) {
	if l.sugared == nil {
		return
	}
	session := 0
	if l.sessionFn != nil {
		session = l.sessionFn()
	}
	l.sugared.With("session", session).Debugf(format, args...)
}

// Sugared exposes the logger for the filter packages. Returns a nop logger
// when verbose is off.
func (l *agentLogger) Sugared() *zap.SugaredLogger {
	if l.sugared == nil {
		return zap.NewNop().Sugar()
	}
	return l.sugared
}
