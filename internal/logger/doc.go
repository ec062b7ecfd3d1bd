// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with console or JSON output,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Handlers, the coordinator and the publishers take a context and extract the
// logger from it, so every log line of a webhook delivery carries its fields.
package logger
