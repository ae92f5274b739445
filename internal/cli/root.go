// Package cli wires configuration, logging and the documentation search
// service into the documenter-mcp commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/docsearch/documenter-mcp/internal/config"
	"github.com/docsearch/documenter-mcp/internal/docsearch"
	"github.com/docsearch/documenter-mcp/internal/logging"
	"github.com/docsearch/documenter-mcp/internal/source"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	ServerName  = "documenter-mcp"
	description = "MCP server for searching generated documentation indexes"

	configFileName = "config"
	configFileType = "yaml"
)

// app is the state shared by every command. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	version string
	v       *viper.Viper
	cfgFile string
	stderr  io.Writer

	cfg    *config.Config
	logger zerolog.Logger
	svc    *docsearch.Service
}

// Execute runs the root command and returns the process exit code
func Execute(version string) int {
	if err := NewCmdRoot(version, os.Stderr).Execute(); err != nil {
		return 1
	}
	return 0
}

// NewCmdRoot builds the command tree. Logs go to stderr, command output
// to the command's out writer.
func NewCmdRoot(version string, stderr io.Writer) *cobra.Command {
	a := &app{version: version, v: viper.New(), stderr: stderr}
	config.SetDefaults(a.v)

	cmd := &cobra.Command{
		Use:     ServerName,
		Short:   description,
		Version: version,
		Long: heredoc.Doc(`
			Loads a documenterSearchIndex artifact (search_index.js) and answers
			case-insensitive substring and keyword lookups over it.

			Without a subcommand it runs an MCP server over stdio.

			Examples:
			  documenter-mcp --source https://example.org/dev/search_index.js
			  documenter-mcp query hilbert --output yaml
			  documenter-mcp get "methods/#SpecialMatrices.Cauchy"
		`),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.run(a.runMCP),
	}
	cmd.SetVersionTemplate("{{.Name}} version {{.Version}}\n")
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.documenter-mcp/config.yaml)")
	flags.String("source", "", "search_index.js to load: path, http(s):// URL or s3://bucket/key")
	flags.String("data-dir", "", "directory for the cached index, keyword index and lock file")
	flags.Duration("cache-ttl", source.DefaultTTL, "age after which a refresh re-fetches the source")
	flags.Int("max-results", 10, fmt.Sprintf("default number of results (max %d)", config.MaxResultsLimit))
	flags.String("base-url", "", "documentation site URL used to build absolute links")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")

	for key, flag := range map[string]string{
		config.KeySource:     "source",
		config.KeyDataDir:    "data-dir",
		config.KeyCacheTTL:   "cache-ttl",
		config.KeyMaxResults: "max-results",
		config.KeyBaseURL:    "base-url",
		config.KeyLogLevel:   "log-level",
	} {
		a.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(
		newCmdServe(a),
		newCmdHTTP(a),
		newCmdQuery(a),
		newCmdGet(a),
		newCmdPages(a),
		newCmdRefresh(a),
	)
	return cmd
}

// setup loads .env, the config file and the environment, then builds the
// logger and the service.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	// A missing .env is normal
	_ = godotenv.Load()

	if err := a.readConfigFile(); err != nil {
		return err
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.New(cfg.LogLevel, a.stderr, true)
	a.svc = docsearch.New(cfg, source.NewFetcher(&a.logger), &a.logger)
	return nil
}

func (a *app) readConfigFile() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", a.cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	a.v.AddConfigPath(filepath.Join(home, ".documenter-mcp"))
	a.v.SetConfigName(configFileName)
	a.v.SetConfigType(configFileType)

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// run adapts fn to a cobra RunE and closes the service when it returns
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		return fn(cmd, args)
	}
}

func (a *app) close() {
	if a.svc == nil {
		return
	}
	if err := a.svc.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Error closing documentation search")
	}
}
