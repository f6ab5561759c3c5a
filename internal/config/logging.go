package config

import (
	"strings"

	"github.com/rshade/piante/internal/logging"
)

// ToLoggingConfig converts the logging section into a logging.Config.
// A configured file switches output to that file; otherwise logs go to stderr.
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}
	return logging.Config{
		Level:  strings.ToLower(lc.Level),
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}
