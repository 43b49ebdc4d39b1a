package metriccore

import (
	"log"
	"os"
)

// ErrorSink receives failures from background activity (a failing Gauge
// function, a scheduled action that panics) that cannot be propagated to
// any caller. Reporting is best-effort and never raised back to producers.
type ErrorSink interface {
	Report(err error, message string)
}

// stderrSink is the default ErrorSink: plain stdlib log to stderr, no
// logging framework dependency.
type stderrSink struct {
	logger *log.Logger
}

// DefaultErrorSink returns an ErrorSink that writes to os.Stderr.
func DefaultErrorSink() ErrorSink {
	return &stderrSink{logger: log.New(os.Stderr, "metriccore: ", log.LstdFlags)}
}

func (s *stderrSink) Report(err error, message string) {
	s.logger.Printf("%s: %v", message, err)
}

// ErrorSinkFunc adapts a function to an ErrorSink.
type ErrorSinkFunc func(err error, message string)

func (f ErrorSinkFunc) Report(err error, message string) { f(err, message) }
