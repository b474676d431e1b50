package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/CTAG07/markovbot/pkg/markov"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "markovbot",
		Short:        "Generate text from a word chain and serve it to chat",
		Version:      Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "./config.json", "Path to the JSON configuration file")

	rootCmd.AddCommand(newServeCmd(), newGenerateCmd(), newStatsCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [CORPUS...]",
		Short: "Build the chain and serve the chat bot and HTTP API",
		RunE:  ServeHandler,
	}
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate CORPUS...",
		Short: "Build the chain from CORPUS files and print generated text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  GenerateHandler,
	}
	cmd.Flags().IntP("count", "n", 1, "Number of texts to generate")
	cmd.Flags().Int("max-length", 0, "Maximum tokens per text (0 uses the configured value)")
	cmd.Flags().Uint64("seed", 0, "Seed for reproducible output (0 picks a random seed)")
	cmd.Flags().String("start", "", "Two words to start from")
	cmd.Flags().Bool("no-truncate", false, "Fail instead of truncating when the maximum length is reached")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats CORPUS...",
		Short: "Build the chain from CORPUS files and print its statistics as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE:  StatsHandler,
	}
}

// ServeHandler runs server cycles until a shutdown is requested. A restart
// reloads the configuration and corpus.
func ServeHandler(cmd *cobra.Command, args []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	actionChan := make(chan string, 1)

	go func() {
		osSignalChan := make(chan os.Signal, 1)
		signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
		<-osSignalChan // Wait for a signal
		baseLogger.Info("OS signal received, initiating shutdown.")
		actionChan <- actionShutdown
	}()

	for {
		action, err := run(cmd.Context(), configPath, args, actionChan)
		if err != nil {
			baseLogger.Error("An error occurred during server run, shutting down.", "error", err)
			return err
		}

		if action != actionRestart {
			break
		}
		baseLogger.Info("--- Server Restarting ---")
	}

	baseLogger.Info("markovbot has shut down.")
	return nil
}

// GenerateHandler prints generated texts, one per line.
func GenerateHandler(cmd *cobra.Command, args []string) error {
	config, chain, err := chainFromArgs(cmd, args)
	if err != nil {
		return err
	}

	count, _ := cmd.Flags().GetInt("count")
	maxLength, _ := cmd.Flags().GetInt("max-length")
	seed, _ := cmd.Flags().GetUint64("seed")
	start, _ := cmd.Flags().GetString("start")
	noTruncate, _ := cmd.Flags().GetBool("no-truncate")

	if maxLength == 0 {
		maxLength = config.Generate.MaxLength
	}
	opts := []markov.GenerateOption{
		markov.WithMaxLength(maxLength),
		markov.WithTruncate(config.Generate.Truncate && !noTruncate),
	}

	var rng markov.RandomSource
	if seed != 0 {
		rng = markov.NewSource(seed)
	}

	var prefix *markov.Prefix
	if start != "" {
		words := strings.Fields(start)
		if len(words) != 2 {
			return fmt.Errorf("--start needs exactly two words, got %d", len(words))
		}
		prefix = &markov.Prefix{First: words[0], Second: words[1]}
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	for i := 0; i < count; i++ {
		var text string
		if prefix != nil {
			text, err = chain.SynthesizeFrom(ctx, *prefix, rng, opts...)
		} else {
			text, err = chain.Synthesize(ctx, rng, opts...)
		}
		if err != nil {
			var limitErr *markov.StepLimitError
			if errors.As(err, &limitErr) {
				return fmt.Errorf("%w (partial output: %q)", err, limitErr.Partial)
			}
			return err
		}
		if _, err = fmt.Fprintln(out, text); err != nil {
			return err
		}
	}
	return nil
}

// StatsHandler prints the chain statistics.
func StatsHandler(cmd *cobra.Command, args []string) error {
	_, chain, err := chainFromArgs(cmd, args)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(chain.Stats())
}

// chainFromArgs loads the configuration and builds a chain from the corpus
// files named on the command line. Logs go to stderr so output stays clean.
func chainFromArgs(cmd *cobra.Command, args []string) (*Config, *markov.Chain, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err = ApplyEnv(config); err != nil {
		return nil, nil, err
	}
	config.Server.CorpusPaths = args

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: parseLogLevel(config.Server.LogLevel)}))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	chain, err := loadChain(ctx, config, logger)
	if err != nil {
		return nil, nil, err
	}
	return config, chain, nil
}
