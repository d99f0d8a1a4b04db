// Package logging provides structured logging utilities for calview.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "events.list")
//	logger.Info("listed events", logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("session created",
//	    logging.UserHash(userID),
//	    "token", logging.SanitizeToken(accessToken))
//
// # Security Considerations
//
//   - User identifiers are hashed to prevent PII leakage while allowing
//     correlation
//   - Tokens are never logged directly
package logging
