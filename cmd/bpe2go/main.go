package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bpe2go/internal/pkg/bpe2go/config"
	"bpe2go/internal/pkg/bpe2go/encoder"
	"bpe2go/internal/pkg/bpe2go/pretoken"
	"bpe2go/internal/pkg/bpe2go/trainer"
	"bpe2go/internal/pkg/bpe2go/vocab"
)

func main() {
	fmt.Fprintf(os.Stderr, "bpe2go %s\n", Version)

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadAndParse()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse configuration")
	}

	if err := setupLogging(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup logging")
	}

	log.Debug().
		Str("strategy", cfg.Strategy).
		Int("min_frequency", cfg.LowerFrequencyLimit).
		Int("max_iterations", cfg.MaxIterations).
		Int("workers", cfg.Workers).
		Bool("normalize", cfg.Normalize).
		Msg("Configuration loaded")

	if cfg.Encode != "" {
		runEncode(cfg)
		return
	}

	tcfg, err := buildTrainerConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("seed", cfg.SeedPath).Msg("Failed to load seed vocabulary")
	}

	tr, err := trainer.New(tcfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure trainer")
	}

	log.Info().Str("text", truncateText(cfg.Text, 50)).Msg("Training vocabulary...")
	startTime := time.Now()

	res := tr.Train(cfg.Text)

	elapsed := time.Since(startTime)
	log.Info().
		Dur("elapsed", elapsed).
		Str("outcome", res.Outcome.String()).
		Int("iterations", res.Iterations).
		Int("new_symbols", res.MergesAdded).
		Msg("Training complete")

	if err := res.Vocabulary.Save(cfg.Output); err != nil {
		log.Fatal().Err(err).Msg("Failed to save vocabulary")
	}
	log.Info().Str("output", cfg.Output).Int("merges", res.Vocabulary.Len()).Msg("Vocabulary saved")

	if cfg.MergesOutput != "" {
		if err := res.Vocabulary.SaveMerges(cfg.MergesOutput); err != nil {
			log.Fatal().Err(err).Msg("Failed to save merges")
		}
		log.Info().Str("output", cfg.MergesOutput).Msg("Merges saved")
	}
}

func runEncode(cfg *config.Config) {
	v, err := vocab.Load(cfg.VocabPath)
	if err != nil {
		log.Fatal().Err(err).Str("vocab", cfg.VocabPath).Msg("Failed to load vocabulary")
	}

	chunker, err := buildChunker(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build chunker")
	}
	enc := encoder.New(v, chunker)

	symbols := enc.Encode(cfg.Encode)
	fmt.Println(formatSymbols(symbols))

	if cfg.Decode {
		decoded, err := enc.Decode(symbols)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to decode symbols")
		}
		fmt.Println(string(decoded))
	}

	log.Info().
		Int("bytes", len(cfg.Encode)).
		Int("symbols", len(symbols)).
		Int("vocabulary_size", v.Len()).
		Msg("Text encoded")
}

func buildTrainerConfig(cfg *config.Config) (trainer.Config, error) {
	tcfg := trainer.Config{
		LowerFrequencyLimit: cfg.LowerFrequencyLimit,
		MaxIterations:       cfg.MaxIterations,
		Strategy:            cfg.Strategy,
		Workers:             cfg.Workers,
		Pattern:             cfg.Pattern,
		Normalize:           cfg.Normalize,
		Logger:              &log.Logger,
	}

	if cfg.SeedPath != "" {
		seed, err := vocab.Load(cfg.SeedPath)
		if err != nil {
			return trainer.Config{}, err
		}
		tcfg.Seed = seed
	}

	return tcfg, nil
}

func buildChunker(cfg *config.Config) (*pretoken.Chunker, error) {
	if cfg.Pattern != "" {
		return pretoken.NewChunkerPattern(cfg.Pattern, cfg.Normalize)
	}
	return pretoken.NewChunker(cfg.Normalize), nil
}

func setupLogging(cfg *config.Config) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
	}

	return nil
}

func formatSymbols(symbols []vocab.Symbol) string {
	parts := make([]string, len(symbols))
	for i, s := range symbols {
		parts[i] = strconv.FormatInt(int64(s), 10)
	}
	return strings.Join(parts, " ")
}

func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
