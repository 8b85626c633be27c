package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/iksnae/serenity-guest/internal/config"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	configFile  string
	apiURL      string
	demoMode    bool
	backendKind string
	storagePath string
	redisURL    string
	timeout     time.Duration
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"

	settings  = config.New()
	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serenity-guest",
	Short: "Use the SerenityAI wellness companion with or without an account",
	Long: `A CLI for the SerenityAI wellness companion that works in guest mode.

Without a login token every request is answered locally and your chats,
mood logs, points and peer messages are kept on this machine. Log in later
and sync to upload what you recorded as a guest.

Features:
  • Chat with the companion and get coping suggestions
  • Log moods and review your history
  • Earn wellness points and post to peer groups
  • Sync guest data to your account after logging in
  • Export everything as JSON, JSONL, YAML or Markdown
  • Serve a local gateway so a browser client can use guest mode

Quick Start:
  serenity-guest chat "I'm stressed about exams"   # Talk to the companion
  serenity-guest mood log --mood 6 --stress 4      # Record how you feel
  serenity-guest status                            # See what is stored`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		if err := config.LoadDotEnv(config.DotEnvPaths()...); err != nil {
			internal.LogWarn("%v", err)
		}

		cfg, err := config.Load(settings, configFile)
		if err != nil {
			return err
		}
		if cfg.Verbose {
			internal.SetVerbose(true)
		}
		if cfg.ConfigFile != "" {
			internal.LogDebug("Using config file %s", cfg.ConfigFile)
		}
		appConfig = cfg
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&configFile, "config", "", "Config file (default is config.yaml in the user config directory)")
	flags.StringVar(&apiURL, "api-url", "", "Base URL of the SerenityAI API")
	flags.BoolVar(&demoMode, "demo", false, "Answer dashboard requests with demo data when not logged in")
	flags.StringVar(&backendKind, "backend", "", "Storage backend: sqlite, file, memory or redis")
	flags.StringVar(&storagePath, "storage", "", "Custom storage location (database file or directory)")
	flags.StringVar(&redisURL, "redis-url", "", "Redis URL for the redis backend")
	flags.DurationVar(&timeout, "timeout", 0, "Network request timeout")

	bindings := map[string]string{
		config.KeyAPIURL:   "api-url",
		config.KeyDemo:     "demo",
		config.KeyBackend:  "backend",
		config.KeyStorage:  "storage",
		config.KeyRedisURL: "redis-url",
		config.KeyTimeout:  "timeout",
	}
	for key, flag := range bindings {
		if err := settings.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind --%s: %v", flag, err))
		}
	}

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
