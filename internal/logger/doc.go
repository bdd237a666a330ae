// Package logger provides component-scoped structured logging for ytpick.
//
// Log lines go to stderr by default so they never interleave with the
// interactive prompt and the progress bar on stdout.
//
// Usage:
//
//	log := logger.WithComponent(logger.ComponentResolver).With(logger.Fields{"id": id})
//	log.Debug("stream selected", logger.Fields{"itag": 22})
//
//	config := logger.DefaultConfig()
//	config.Level = logger.DEBUG
//	config.Format = logger.FormatJSON
//	logger.SetGlobalLogger(logger.New(config))
//
// Components:
//   - ComponentApp: program flow
//   - ComponentMenu: menu prompts and selections
//   - ComponentProgress: progress rendering
//   - ComponentResolver: metadata resolution and stream selection
//   - ComponentDownloader: stream transfer to disk
//   - ComponentClient: HTTP transport
package logger
