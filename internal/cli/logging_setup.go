package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/piante/internal/config"
	"github.com/rshade/piante/internal/logging"
)

// setupLogging configures logging based on config and the --debug flag, and
// attaches the logger and a trace ID to the command context.
func setupLogging(cmd *cobra.Command, cfg *config.Config) logging.LogPathResult {
	loggingCfg := cfg.Logging

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = "console"
		loggingCfg.File = ""
	}

	if loggingCfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(loggingCfg.File), 0o700); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create log directory: %v\n", err)
		}
	}

	result := logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig())
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Info().Ctx(ctx).
		Str("command", cmd.Name()).
		Str("api_url", cfg.API.BaseURL).
		Str("cache_backend", cacheBackendName(cfg)).
		Msg("command started")

	return result
}

// cleanupLogging closes the log file handle.
func cleanupLogging(_ *cobra.Command, logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}

func cacheBackendName(cfg *config.Config) string {
	if !cfg.Cache.Enabled {
		return "disabled"
	}
	return cfg.Cache.Backend
}
