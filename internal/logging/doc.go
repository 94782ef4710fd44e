// Package logging provides structured logging helpers for mailpilot.
//
// Everything logs through the standard library's slog package. This package
// only adds consistent attribute names and a few sanitizers so that message
// content, recipients and tokens never reach the log verbatim.
//
// Create a component logger:
//
//	logger := logging.WithComponent(slog.Default(), "resolver")
//	logger.Debug("scored candidates", logging.Count(n))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("message sent", logging.UserHash(to))
//	logger.Debug("page token", "token", logging.SanitizeToken(tok))
package logging
