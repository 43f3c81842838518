package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Yates-Labs/zero2story/internal/config"
	"github.com/Yates-Labs/zero2story/internal/llm"
	"github.com/Yates-Labs/zero2story/internal/llm/gemini"
	"github.com/Yates-Labs/zero2story/internal/llm/openai"
)

var (
	configPath string
	backend    string
	verbose    bool

	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "zero2story",
	Short: "Zero2Story - interactive story generation with LLMs",
	Long: `Zero2Story builds a story one paragraph at a time with a language model.

Describe a setting and up to four characters, then pick one of three suggested
actions (or write your own) after every paragraph. Gemini and OpenAI backends
are supported.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l

		cfg, err = config.Load(configPath, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if backend != "" {
			cfg.Backend = backend
		}
		logger.Debug("configuration loaded",
			zap.String("backend", cfg.Backend),
			zap.String("model", cfg.Model),
			zap.String("prompts", cfg.PromptsPath))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "LLM backend to use (gemini, openai)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zc.DisableStacktrace = !debug
	return zc.Build()
}

// newRegistry lists the available backends.
func newRegistry() *llm.Registry {
	r := llm.NewRegistry()
	r.Register(gemini.Name, gemini.NewFactory)
	r.Register(openai.Name, openai.NewFactory)
	return r
}

// newFactory builds the configured backend.
func newFactory(ctx context.Context) (llm.Factory, error) {
	return newRegistry().New(ctx, cfg.Backend, llm.Options{
		Model:  cfg.Model,
		Logger: logger,
	})
}
