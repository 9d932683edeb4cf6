// Package cmd provides the CLI commands for Clerk.
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclerk/clerk/internal/api"
	"github.com/openclerk/clerk/internal/appdir"
	"github.com/openclerk/clerk/internal/chat"
	"github.com/openclerk/clerk/internal/config"
	"github.com/openclerk/clerk/internal/identity"
	"github.com/openclerk/clerk/internal/logging"
)

var (
	// Global flags
	configPath    string
	serverURL     string
	wsURL         string
	debug         bool
	logLevel      string
	logFile       string
	logComponents string

	// Loaded configuration
	cfg *config.Config
	// cfgPath is where the configuration was loaded from ("" for defaults)
	cfgPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clerk",
	Short: "Clerk - a conversational storefront client",
	Long: `Clerk is a command-line client for an agent-assisted storefront.

It keeps a persistent shopping session, talks to the store's HTTP API
for catalog, cart, and orders, and opens a realtime chat channel to the
store assistant.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		// Priority: --log-level flag > --debug flag > config > default
		effectiveLogLevel := ""
		if logLevel != "" {
			effectiveLogLevel = logLevel
		} else if debug {
			effectiveLogLevel = "debug"
		}

		var err error
		cfg, cfgPath, err = config.LoadOrDefault(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if serverURL != "" {
			cfg.Server.URL = serverURL
		}
		if wsURL != "" {
			cfg.Server.WSURL = wsURL
		}
		if effectiveLogLevel == "" {
			effectiveLogLevel = cfg.Log.Level
		}

		var components []string
		if logComponents != "" {
			for _, c := range strings.Split(logComponents, ",") {
				c = strings.TrimSpace(c)
				if c != "" {
					components = append(components, c)
				}
			}
		}

		logCfg := logging.Config{
			Level:      effectiveLogLevel,
			Components: components,
		}
		effectiveLogFile := logFile
		if effectiveLogFile == "" {
			effectiveLogFile = cfg.Log.File
		}
		if effectiveLogFile != "" {
			fileCfg := logging.DefaultFileLogConfig()
			fileCfg.Path = effectiveLogFile
			logCfg.FileLog = &fileCfg
		}
		if err := logging.Initialize(logCfg); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		if err := appdir.EnsureDir(); err != nil {
			return fmt.Errorf("failed to create Clerk directory: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path (overrides ~/.clerkrc and settings.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Store API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&wsURL, "ws", "", "Realtime chat URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (shorthand for --log-level=debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: info)")
	rootCmd.PersistentFlags().StringVarP(&logFile, "logfile", "l", "", "Log file path (logs are also written to console)")
	rootCmd.PersistentFlags().StringVar(&logComponents, "log-components", "", "Comma-separated list of components to log (e.g., 'api,chat'). Empty means all components.")
}

// newIdentityStore opens the persistent identity store: a JSON file in the
// Clerk data directory, with the access token routed through the system
// keychain where available.
func newIdentityStore() (identity.Store, error) {
	path, err := appdir.IdentityPath()
	if err != nil {
		return nil, fmt.Errorf("resolve identity path: %w", err)
	}
	return identity.NewSecureStore(identity.NewFileStore(path)), nil
}

// newAPIClient builds the HTTP client from the loaded configuration.
func newAPIClient(ids identity.Store) *api.Client {
	timeout := cfg.Server.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return api.New(cfg.Server.URL, ids, api.WithTimeout(timeout))
}

// newDialer builds the realtime chat dialer from the loaded configuration.
func newDialer(ids identity.Store) *chat.Dialer {
	return chat.NewDialer(cfg.Server.WSURL, ids)
}
