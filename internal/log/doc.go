// Package log provides secure logging functionality with automatic
// sanitization of sensitive information, built on top of the standard
// slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, session IDs,
//     CAPTCHA codes, tokens)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The crawler drives an authenticated browser session, so its logs can
// easily pick up cookies, session identifiers, and the CAPTCHA codes the
// operator types. The SecureHandler masks these before any record
// reaches the underlying handler, so logs stay safe to share or store.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("session established",
//	    "cookie", "JSESSIONID=abc123",  // Will be masked
//	    "url", "https://zfcg.czt.fujian.gov.cn",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
