package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/piante/internal/config"
	"github.com/rshade/piante/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// annotationLenientConfig marks commands that still run when the
// configuration fails to load or validate. They receive the defaults and can
// inspect the failure through configSourcesFromContext.
const annotationLenientConfig = "piante/lenient-config"

type (
	configKey        struct{}
	configSourcesKey struct{}
)

// configSources records where the resolved configuration came from.
type configSources struct {
	UserPath    string
	ProjectPath string
	Err         error
}

// contextWithConfig attaches the resolved configuration to ctx.
func contextWithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFromContext returns the configuration resolved by the root command,
// or the built-in defaults when a command runs outside of it.
func configFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok && cfg != nil {
		return cfg
	}
	return config.New()
}

func configSourcesFromContext(ctx context.Context) configSources {
	src, _ := ctx.Value(configSourcesKey{}).(configSources)
	return src
}

// NewRootCmd creates the root Cobra command for the piante CLI.
// It resolves configuration (defaults, user file, project overlay, environment,
// then flags), sets up logging and tracing, and registers the subcommands.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithArgs(ver, os.Getwd)
}

// NewRootCmdWithArgs creates the root command with an explicit working
// directory lookup, which decides where the project overlay is searched.
func NewRootCmdWithArgs(ver string, getwd func() (string, error)) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "piante",
		Short:         "Browse the plant catalog",
		Long:          "piante: browse, filter and cache the plant catalog served by the piante API",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, src, err := resolveConfig(cmd, getwd)
			if err != nil {
				if cmd.Annotations[annotationLenientConfig] != "true" {
					return err
				}
				cfg = config.New()
				src.Err = err
			}

			result := setupLogging(cmd, cfg)
			logResult = &result
			ctx := contextWithConfig(cmd.Context(), cfg)
			cmd.SetContext(context.WithValue(ctx, configSourcesKey{}, src))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "path to the config file (default ~/.piante/config.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("api-url", "", "base URL of the catalog API (overrides config and PIANTE_API_URL)")
	flags.String("cache-backend", "", "cache backend: memory, file, sqlite or redis")
	flags.Bool("no-cache", false, "bypass the persistent cache")

	cmd.AddCommand(NewListCmd(), NewCategoriesCmd(), newCacheCmd(), newConfigCmd(), NewBrowseCmd())

	return cmd
}

// resolveConfig loads the layered configuration and applies persistent flag overrides.
func resolveConfig(cmd *cobra.Command, getwd func() (string, error)) (*config.Config, configSources, error) {
	var src configSources
	src.UserPath, _ = cmd.Flags().GetString("config")
	if src.UserPath == "" {
		src.UserPath = config.DefaultPath()
	}

	if getwd != nil {
		if wd, err := getwd(); err == nil {
			src.ProjectPath = config.FindProjectFile(wd)
		}
	}

	cfg, err := config.LoadLayered(cmd.Context(), src.UserPath, src.ProjectPath)
	if err != nil {
		return nil, src, fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("api-url") {
		cfg.API.BaseURL, _ = cmd.Flags().GetString("api-url")
	}
	if cmd.Flags().Changed("cache-backend") {
		cfg.Cache.Backend, _ = cmd.Flags().GetString("cache-backend")
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	if err = cfg.Validate(); err != nil {
		return nil, src, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, src, nil
}

const rootCmdExample = `  # List the first page of the catalog
  piante list

  # Indoor plants with flowers, second page, 10 per page
  piante list --indoor --flowers --page 2 --limit 10

  # A category, with two extra pages appended
  piante list --category aromatiche --more 2

  # Skip the cache and print JSON
  piante list --search basilico --refresh --output json

  # Show the categories offered by the API
  piante categories

  # Prefetch every category into the cache
  piante cache warm --concurrency 8

  # Write a default config file, then check it
  piante config init
  piante config validate --verbose

  # Browse interactively
  piante browse`

// newCacheCmd creates the cache command group.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Persistent cache management commands"}
	cmd.AddCommand(
		NewCacheInvalidateCmd(), NewCacheClearCmd(),
		NewCacheWarmCmd(), NewCacheStatsCmd(),
	)
	return cmd
}
