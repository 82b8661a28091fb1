package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bpe2go/internal/pkg/bpe2go/trainer"
)

type Config struct {
	Text                string `mapstructure:"text"`
	Output              string `mapstructure:"output"`
	MergesOutput        string `mapstructure:"merges_output"`
	SeedPath            string `mapstructure:"seed_path"`
	VocabPath           string `mapstructure:"vocab_path"`
	Encode              string `mapstructure:"encode"`
	Decode              bool   `mapstructure:"decode"`
	Strategy            string `mapstructure:"strategy"`
	LowerFrequencyLimit int    `mapstructure:"lower_frequency_limit"`
	MaxIterations       int    `mapstructure:"max_iterations"`
	Workers             int    `mapstructure:"workers"`
	Pattern             string `mapstructure:"pattern"`
	Normalize           bool   `mapstructure:"normalize"`
	LogLevel            string `mapstructure:"log_level"`
	LogFile             string `mapstructure:"log_file"`
}

func LoadAndParse() (*Config, error) {
	viper.SetDefault("output", "vocab.json")
	viper.SetDefault("merges_output", "")
	viper.SetDefault("seed_path", "")
	viper.SetDefault("vocab_path", "")
	viper.SetDefault("strategy", trainer.DefaultStrategy)
	viper.SetDefault("lower_frequency_limit", 1)
	viper.SetDefault("max_iterations", 100)
	viper.SetDefault("workers", 0)
	viper.SetDefault("pattern", "")
	viper.SetDefault("normalize", false)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_file", "")

	flagSet := pflag.NewFlagSet("bpe2go", pflag.ContinueOnError)
	configFile := flagSet.StringP("config", "c", "", "Path to config file")
	flagSet.StringP("text", "t", "", "Training text (use '-' to read from stdin)")
	flagSet.StringP("file", "f", "", "Read training text from file")
	flagSet.StringP("output", "o", "", "Output vocabulary JSON file")
	flagSet.String("merges", "", "Also write merges as plain text to this file")
	flagSet.String("seed", "", "Seed vocabulary JSON to extend")
	flagSet.StringP("encode", "e", "", "Encode text with a trained vocabulary and exit")
	flagSet.String("vocab", "", "Trained vocabulary JSON for --encode")
	flagSet.BoolP("decode", "d", false, "Print the decoded text after encoding")
	flagSet.StringP("strategy", "s", "", "Merge selection strategy (all-ties, single-best)")
	flagSet.Int("min-frequency", 1, "Minimum pair frequency worth a merge")
	flagSet.IntP("max-iterations", "i", 100, "Maximum merge passes")
	flagSet.IntP("workers", "w", 0, "Parallel counting workers (0 = serial)")
	flagSet.String("pattern", "", "Custom chunk boundary pattern")
	flagSet.BoolP("normalize", "n", false, "NFC-normalize input before chunking")
	flagSet.StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	flagSet.String("log-file", "", "Log file path")
	helpFlag := flagSet.BoolP("help", "h", false, "Show help message")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *helpFlag {
		fmt.Fprintf(os.Stderr, "Usage: bpe2go [options] [text]\n\nOptions:\n")
		flagSet.PrintDefaults()
		os.Exit(0)
	}

	if err := viper.BindPFlag("text", flagSet.Lookup("text")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("output", flagSet.Lookup("output")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("merges_output", flagSet.Lookup("merges")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("seed_path", flagSet.Lookup("seed")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("encode", flagSet.Lookup("encode")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("vocab_path", flagSet.Lookup("vocab")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("decode", flagSet.Lookup("decode")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("strategy", flagSet.Lookup("strategy")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("lower_frequency_limit", flagSet.Lookup("min-frequency")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("max_iterations", flagSet.Lookup("max-iterations")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("workers", flagSet.Lookup("workers")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("pattern", flagSet.Lookup("pattern")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("normalize", flagSet.Lookup("normalize")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("log_level", flagSet.Lookup("log-level")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("log_file", flagSet.Lookup("log-file")); err != nil {
		return nil, err
	}

	if *configFile != "" {
		viper.SetConfigFile(*configFile)
	} else {
		viper.SetConfigName("bpe2go.cfg")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("configs")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bpe2go"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	viper.SetEnvPrefix("BPE2GO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Corpus bytes are training data, so file and stdin content is taken
	// as is, trailing newline included.
	textFile, _ := flagSet.GetString("file")
	if textFile != "" {
		content, err := os.ReadFile(textFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read text file: %w", err)
		}
		cfg.Text = string(content)
	} else if cfg.Text == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		cfg.Text = string(content)
	} else if cfg.Text == "" {
		args := flagSet.Args()
		if len(args) > 0 {
			cfg.Text = strings.Join(args, " ")
		}
	}

	if cfg.Encode != "" && cfg.VocabPath == "" {
		return nil, fmt.Errorf("encode requires a trained vocabulary (use --vocab)")
	}
	if cfg.Decode && cfg.Encode == "" {
		return nil, fmt.Errorf("decode requires --encode")
	}
	if cfg.Encode == "" && cfg.Text == "" {
		return nil, fmt.Errorf("training text is required (use -t, -f, or provide as argument)")
	}

	if cfg.MaxIterations <= 0 {
		return nil, fmt.Errorf("max iterations must be positive")
	}
	if cfg.LowerFrequencyLimit < 0 {
		return nil, fmt.Errorf("min frequency must not be negative")
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative")
	}
	if cfg.Strategy != "" && !trainer.IsRegisteredStrategy(cfg.Strategy) {
		return nil, fmt.Errorf("unknown strategy %q (registered: %v)", cfg.Strategy, trainer.ListStrategies())
	}

	return &cfg, nil
}
