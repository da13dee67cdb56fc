// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// Mirroring a documentation site behind authentication means credentials
// flow through the tool: Authorization headers from the config file, cookies
// captured by the browser. The SecureHandler masks these in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("asset request",
//	    "cookie", "session=abc123",  // Will be sanitized to "***REDACTED***"
//	    "url", "https://docs.example.io/logo.png",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
