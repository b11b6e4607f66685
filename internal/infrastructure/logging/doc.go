// Package logging wraps log/slog so every record carries the service name
// and build version, with the level, format, and destination taken from
// the logging section of the config:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 5000)
//
// Never log secrets, tokens, passwords, or password hashes. Login failures
// are logged without the attempted credential.
package logging
