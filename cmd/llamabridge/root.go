package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llamabridge/internal/config"
	"llamabridge/internal/host"
	"llamabridge/internal/resource"
	"llamabridge/internal/session"
)

// settings holds the persistent flags shared by all subcommands.
type settings struct {
	configPath string
	logLevel   string
	modelsDir  string
	resources  string
}

func buildRootCmd() *cobra.Command {
	st := &settings{}
	root := &cobra.Command{
		Use:           "llamabridge",
		Short:         "Local LLM session and resource bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", "", "Path to a YAML, JSON or TOML config file")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults LLAMABRIDGE_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&st.modelsDir, "models-dir", "~/models/llm", "Directory to scan for *.gguf model files")
	root.PersistentFlags().StringVar(&st.resources, "resources-dir", "", "Directory served as the resource manager")

	root.AddCommand(
		serveCmd(st),
		modelsCmd(st),
		readCmd(st),
		generateCmd(st),
		chatCmd(st),
	)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	}})
	root.AddCommand(completionCmd)

	return root
}

// load reads the config file when one is given and applies the persistent
// flags the user set on top of it.
func (st *settings) load(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if st.configPath != "" {
		c, err := config.Load(st.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	flags := cmd.Flags()
	if flags.Changed("models-dir") || cfg.ModelsDir == "" {
		cfg.ModelsDir = st.modelsDir
	}
	if flags.Changed("resources-dir") || cfg.ResourcesDir == "" {
		cfg.ResourcesDir = st.resources
	}
	switch {
	case flags.Changed("log-level"):
		cfg.LogLevel = st.logLevel
	case cfg.LogLevel == "":
		cfg.LogLevel = os.Getenv("LLAMABRIDGE_LOG_LEVEL")
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger returns a console logger at level; unknown levels fall back to info.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()
}

// newExports builds the host from cfg. A missing resources dir leaves reads
// without a manager; they then fail as unavailable.
func newExports(cfg config.Config, log zerolog.Logger) *host.Exports {
	var mgr resource.Manager
	if cfg.ResourcesDir != "" {
		dm, err := resource.NewDirManager(cfg.ResourcesDir)
		if err != nil {
			log.Warn().Err(err).Msg("resources disabled")
		} else {
			mgr = dm
		}
	}
	return host.New(host.Options{
		Workers:          cfg.Workers,
		Resources:        mgr,
		MaxResourceBytes: cfg.MaxResourceBytes,
		ModelsDir:        cfg.ModelsDir,
		GenerateTimeout:  cfg.GenerateTimeout(),
		Session: session.Config{
			HistoryWindow: cfg.HistoryWindow,
			MaxWait:       cfg.MaxWait(),
			Engine:        engineOverride,
		},
		Logger: &log,
	})
}

// engineOverride replaces the build's engine when set. Tests use it.
var engineOverride session.Engine

func defaultLoadOptions(cfg config.Config) session.LoadOptions {
	return session.LoadOptions{ContextSize: cfg.ContextSize, Threads: cfg.Threads}
}
