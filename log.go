package h2conn

// Logger is the minimal logging interface Connection writes to. It
// matches fasthttp.Logger's single method, so a fasthttp.Logger, a
// stdlib *log.Logger, or the *log.Logger zap.NewStdLog returns can all be
// passed directly as a ServerConfig.Logger.
type Logger interface {
	Printf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}
