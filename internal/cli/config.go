package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/piante/internal/config"
)

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration file commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd())
	return cmd
}

// NewConfigInitCmd creates the config init command. By default it writes the
// built-in defaults to the user config file; with --project it writes the
// category table to a project overlay in the current directory instead.
func NewConfigInitCmd() *cobra.Command {
	var (
		force   bool
		project bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a configuration file with default values",
		Long: `Creates a configuration file with default values.

Without flags the user configuration (~/.piante/config.yaml, or the path given
by --config or PIANTE_CONFIG) is written. With --project a .piante.yaml overlay
holding the built-in category table is written to the current directory.`,
		Example: `  # Create the user configuration
  piante config init

  # Create a project overlay with the category table
  piante config init --project

  # Overwrite an existing configuration
  piante config init --force`,
		Annotations: map[string]string{annotationLenientConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if project {
				return initProjectConfig(cmd, force)
			}
			return initUserConfig(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cmd.Flags().BoolVar(&project, "project", false, "write a project overlay in the current directory")

	return cmd
}

func initUserConfig(cmd *cobra.Command, force bool) error {
	path := configSourcesFromContext(cmd.Context()).UserPath
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.Save(config.New(), path, force); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at %s\n", path)
	return nil
}

func initProjectConfig(cmd *cobra.Command, force bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	path := filepath.Join(wd, config.ProjectFileName)
	if err = config.SaveProjectTemplate(path, force); err != nil {
		return fmt.Errorf("failed to save project configuration: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Project configuration initialized at %s\n", path)
	return nil
}

// NewConfigValidateCmd creates the config validate command.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the resolved configuration",
		Long: `Loads the user configuration, the project overlay and the environment, then
checks the result: the API URL and timeout, the cache backend and TTL, the
logging settings and the category routing table.`,
		Example: `  # Validate the current configuration
  piante config validate

  # Validate and show the resolved values
  piante config validate --verbose`,
		Annotations: map[string]string{annotationLenientConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			src := configSourcesFromContext(cmd.Context())
			if src.Err != nil {
				return fmt.Errorf("configuration validation failed: %w", src.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			if verbose {
				printConfigDetails(cmd.OutOrStdout(), configFromContext(cmd.Context()), src)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the resolved configuration")

	return cmd
}

func printConfigDetails(out io.Writer, cfg *config.Config, src configSources) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration details:")
	fmt.Fprintf(out, "  User config: %s%s\n", src.UserPath, missingSuffix(src.UserPath))
	if src.ProjectPath != "" {
		fmt.Fprintf(out, "  Project overlay: %s\n", src.ProjectPath)
	} else {
		fmt.Fprintln(out, "  Project overlay: none")
	}
	fmt.Fprintf(out, "  API: %s (timeout %s)\n", cfg.API.BaseURL, cfg.API.Timeout)

	if cfg.Cache.Enabled {
		fmt.Fprintf(out, "  Cache: %s (ttl %s)\n", cacheLocation(cfg.Cache), cfg.Cache.TTL)
	} else {
		fmt.Fprintln(out, "  Cache: disabled")
	}
	fmt.Fprintf(out, "  Logging: %s, %s\n", cfg.Logging.Level, cfg.Logging.Format)

	routes := cfg.Routes()
	slugs := routes.Slugs()
	source := "built-in"
	if len(cfg.Categories) > 0 {
		source = "configured"
	}
	fmt.Fprintf(out, "  Categories (%s): %d\n", source, len(slugs))
	for _, slug := range slugs {
		route, _ := routes.Lookup(slug)
		fmt.Fprintf(out, "    - %s -> %s\n", slug, route.Endpoint)
	}
}

func missingSuffix(path string) string {
	if _, err := os.Stat(path); err != nil {
		return " (not found, using defaults)"
	}
	return ""
}

func cacheLocation(cfg config.CacheConfig) string {
	switch cfg.Backend {
	case config.BackendFile:
		return "file " + cfg.Dir
	case config.BackendSQLite:
		return "sqlite " + cfg.SQLitePath
	case config.BackendRedis:
		return "redis " + redactURL(cfg.RedisURL)
	default:
		return cfg.Backend
	}
}

// redactURL hides the password of a redis URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
