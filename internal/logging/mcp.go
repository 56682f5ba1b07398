package logging

import (
	"log/slog"
)

// SetupStdioMode initializes logging for the MCP stdio surface.
//
// The stdio transport requires stdout to carry JSON-RPC frames exclusively;
// any other write to stdout or stderr corrupts the stream and the client
// sees a broken connection. So in this mode logs go to file only, and
// debug level is forced on for complete diagnostics since there is no
// other way to observe the process.
func SetupStdioMode() (func(), error) {
	cfg := Config{
		Level:         "debug",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	slog.Info("stdio mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}
