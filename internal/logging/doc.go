// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// Loggers are built on slog and fan out to every available sink:
//   - a text or JSON stream (stderr by default, stdout or none on request)
//   - the systemd journal when journald is reachable
//   - an in-memory ring buffer served by the HTTP API
//
// The shared library build always routes the stream to stderr. Standard
// output belongs to the host process.
//
// # Usage
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Output: logging.OutputStderr,
//		Modules: map[string]string{
//			"vaapi": "debug",
//		},
//	})
//
//	logger := logging.GetLogger("scan")
//	logger.Info("Scan complete", "devices", n)
//
// Loggers obtained before Initialize use text on stderr at info level and
// are rebuilt in place once Initialize runs. UpdateLevels changes levels
// only, which is what the config watcher calls on reload.
//
// # Viewing Logs
//
//	journalctl -t hwscan
//	journalctl -t hwscan MODULE=nvidia
//	journalctl -t hwscan DEVICE=/dev/dri/renderD128
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//	output = "stderr"
//
//	[logging.modules]
//	scan = "debug"
//	api = "warn"
package logging
