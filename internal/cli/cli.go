package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gantryhq/gantry/pkg/alias"
	"github.com/gantryhq/gantry/pkg/buildinfo"
	"github.com/gantryhq/gantry/pkg/host"
	"github.com/gantryhq/gantry/pkg/httputil"
	"github.com/gantryhq/gantry/pkg/install"
	"github.com/gantryhq/gantry/pkg/repo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "gantry"

	// envToken names the environment variable holding the repository
	// bearer token.
	envToken = "GANTRY_TOKEN"

	// envWorkspace names the environment variable overriding the default
	// workspace directory.
	envWorkspace = "GANTRY_WORKSPACE"

	// envLog names the environment variable selecting the startup log level.
	envLog = "GANTRY_LOG"

	// aliasFile is the durable alias table, stored under the config dir.
	aliasFile = "aliases.json"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
	LogError = log.ErrorLevel
)

// LevelFromEnv maps GANTRY_LOG to a logger level. Empty or unrecognized
// values select info.
func LevelFromEnv() log.Level {
	switch strings.ToLower(os.Getenv(envLog)) {
	case "debug":
		return LogDebug
	case "warn", "warning":
		return LogWarn
	case "error":
		return LogError
	default:
		return LogInfo
	}
}

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "gantry",
		Short:        "Gantry installs packages and their dependency closures",
		Long:         `Gantry resolves package references against HTTP repositories, orders their dependency closures, and installs them into a workspace with at-most-once semantics, asset synchronization, and activation.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	}

	// Register all subcommands
	root.AddCommand(c.installCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.reposCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.bootCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Client and Engine Factories
// =============================================================================

// openAliases builds the alias registry the CLI works with: a durable file
// store under the config directory and an in-memory session scope.
func openAliases() (*alias.Registry, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	durable, err := alias.NewFileStore(filepath.Join(dir, aliasFile))
	if err != nil {
		return nil, err
	}
	return alias.NewRegistry(durable, alias.NewMemStore()), nil
}

// newRepoClient creates a repository client for CLI use. The asset cache is
// best-effort: when the cache directory cannot be created the client runs
// without on-disk caching.
func (c *CLI) newRepoClient(aliases *alias.Registry, defaults []string, ttl time.Duration) *repo.Client {
	var assetCache *httputil.Cache
	if dir, err := cacheDir(); err == nil {
		if cache, err := httputil.NewCache(dir, 0); err == nil {
			assetCache = cache
		} else {
			c.Logger.Warn("asset cache unavailable", "err", err)
		}
	}
	return repo.NewClient(repo.Config{
		Token:      os.Getenv(envToken),
		Defaults:   defaults,
		Aliases:    aliases,
		TTL:        ttl,
		AssetCache: assetCache,
		Logger:     c.Logger,
	})
}

// newEngine opens the workspace host and assembles an install engine over it.
// The DirHost doubles as the asset destination.
func (c *CLI) newEngine(client *repo.Client, workspace string) (*install.Engine, *host.DirHost, error) {
	h, err := host.NewDirHost(workspace, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	eng := install.New(install.Config{
		Source:   client,
		Host:     h,
		Assets:   h,
		External: httputil.NewClient(nil),
		Logger:   c.Logger,
	})
	return eng, h, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gantry/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory (~/.config/gantry/) and creates it
// if missing. The durable alias table lives here.
func configDir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	dir = filepath.Join(dir, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// defaultWorkspace returns the directory packages install into when no
// --workspace flag is given: $GANTRY_WORKSPACE, or the XDG data directory
// (~/.local/share/gantry/workspace).
func defaultWorkspace() (string, error) {
	if ws := os.Getenv(envWorkspace); ws != "" {
		return ws, nil
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName, "workspace"), nil
}
