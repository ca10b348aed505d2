// Package logger provides structured logging utilities built on Go's standard slog package.
//
// Create loggers with New and functional options:
//
//	log := logger.New(
//		logger.WithProduction("orders-fn"),
//		logger.WithLevel(slog.LevelDebug),
//	)
//
//	log.Error("dispatch failed",
//		logger.Error(err),
//		logger.Method(ctx.Method),
//		logger.Path(ctx.Path),
//	)
//
// Attribute helpers return an empty slog.Attr for zero values (nil errors, empty IDs),
// which slog drops, so they can be passed without nil checks.
//
// Library packages in this module default to Discard and accept a logger through
// a WithLogger option.
package logger
