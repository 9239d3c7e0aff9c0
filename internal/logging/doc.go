// Package logging provides structured logging for sectionrank.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Output to stderr so stdout stays clean for command output
//   - Automatic context field injection (trace_id, run.id, document)
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRunID(ctx, runID)
//	ctx = logging.WithDocument(ctx, "report.pdf")
//	logger.Info(ctx, "document processed", zap.Int("candidates", n))
//
// Output includes automatic correlation:
//
//	{
//	  "ts": "2026-10-19T10:15:30Z",
//	  "level": "info",
//	  "msg": "document processed",
//	  "run.id": "6c1f...",
//	  "document": "report.pdf",
//	  "candidates": 12
//	}
//
// # Sampling
//
// Per-level sampling prevents log floods from per-line diagnostics:
//   - Trace: first 1 per second, drop rest
//   - Debug: first 10 per second, drop rest
//   - Info: first 100, then 1 every 10
//   - Warn: first 100, then 1 every 100
//   - Error+: never sampled
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
package logging
