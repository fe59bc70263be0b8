// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// The device loop, the dispatcher and the client all take a context and
// extract the logger from it, so frame ids and component names follow every
// log line without being passed around explicitly.
package logger
