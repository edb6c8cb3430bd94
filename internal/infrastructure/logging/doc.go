// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: compact JSON lines on stderr, collected by the system journal
//   - Development: Colored console output for human readability
//
// Child process output relayed by the process package goes through the same
// logger, so application lines and service events share one sink.
//
// Example Usage:
//
//	logger := logging.NewOrNop(logging.Config{Level: "info"})
//	appLog := logger.ForApp("Reader", "/org/appswitch/apps/reader")
//	appLog.Info("launching", zap.String("call", "/bin/reader"))
package logging
