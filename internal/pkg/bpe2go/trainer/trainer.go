// Package trainer learns a byte pair merge vocabulary from raw text. Each
// iteration counts adjacent symbol pairs across all chunk sequences, asks a
// strategy which pairs deserve a merge, registers them, and rewrites the
// sequences in one non-overlapping pass. Training ends when the strategy
// returns nothing or the iteration budget runs out; both are success.
package trainer

import (
	"fmt"

	"github.com/rs/zerolog"

	"bpe2go/internal/pkg/bpe2go/pretoken"
	"bpe2go/internal/pkg/bpe2go/vocab"
)

// Outcome reports how a training run ended.
type Outcome int

const (
	// Converged means the strategy found nothing left to merge.
	Converged Outcome = iota
	// Exhausted means the iteration budget ran out with merges still
	// possible. The vocabulary is complete as far as it got.
	Exhausted
)

func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Config carries the knobs for a training run. The zero value is not valid;
// start from DefaultConfig.
type Config struct {
	// LowerFrequencyLimit is the minimum pair count worth a merge. Pairs
	// below it never qualify, even when nothing scores higher.
	LowerFrequencyLimit int

	// MaxIterations bounds the number of merge passes.
	MaxIterations int

	// Strategy names the registered merge selection strategy. Empty picks
	// DefaultStrategy.
	Strategy string

	// Workers caps the goroutines used for pair counting. Zero or one
	// counts serially.
	Workers int

	// Pattern overrides the chunk boundary pattern. Empty picks
	// pretoken.DefaultPattern.
	Pattern string

	// Normalize applies NFC composition to the input before chunking.
	Normalize bool

	// Seed is a starting vocabulary. The trainer clones it per run; the
	// seed instance is never written to. Nil starts empty.
	Seed *vocab.Vocabulary

	// Logger receives per-iteration progress at debug level and a summary
	// at info level. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultConfig returns the stock configuration: merge anything seen at
// least once, up to a hundred passes, all tied pairs at a time, serial
// counting.
func DefaultConfig() Config {
	return Config{
		LowerFrequencyLimit: 1,
		MaxIterations:       100,
		Strategy:            DefaultStrategy,
	}
}

func (c *Config) validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	if c.LowerFrequencyLimit < 0 {
		return fmt.Errorf("lower frequency limit must not be negative, got %d", c.LowerFrequencyLimit)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Trainer runs training passes over text. A Trainer is reusable; every call
// to Train starts from the configured seed.
type Trainer struct {
	cfg      Config
	chunker  *pretoken.Chunker
	strategy Strategy
	log      zerolog.Logger
}

func New(cfg Config) (*Trainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	strategy, err := strategyFor(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	chunker := pretoken.NewChunker(cfg.Normalize)
	if cfg.Pattern != "" {
		chunker, err = pretoken.NewChunkerPattern(cfg.Pattern, cfg.Normalize)
		if err != nil {
			return nil, err
		}
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Trainer{
		cfg:      cfg,
		chunker:  chunker,
		strategy: strategy,
		log:      logger,
	}, nil
}

// Result is the outcome of one training run.
type Result struct {
	// Vocabulary holds every merge the run ended with, seed included. It
	// is owned by the caller; the trainer keeps no reference.
	Vocabulary *vocab.Vocabulary

	Outcome     Outcome
	Iterations  int
	MergesAdded int
	CorpusBytes int
}

// Train learns merges from text until the strategy has nothing left to
// select or the iteration budget is spent.
func (t *Trainer) Train(text string) *Result {
	v := vocab.New()
	if t.cfg.Seed != nil {
		v = t.cfg.Seed.Clone()
	}

	seqs := buildSequences(t.chunker.Chunk(text))

	res := &Result{
		Vocabulary:  v,
		Outcome:     Exhausted,
		CorpusBytes: len(text),
	}

	for iter := 0; iter < t.cfg.MaxIterations; iter++ {
		freq := t.countAll(seqs)

		selected := t.strategy(freq, t.cfg.LowerFrequencyLimit)
		if len(selected) == 0 {
			res.Outcome = Converged
			break
		}

		res.MergesAdded += v.Register(selected)
		for i, seq := range seqs {
			seqs[i] = compress(seq, v)
		}
		res.Iterations++

		t.log.Debug().
			Int("iteration", res.Iterations).
			Int("distinct_pairs", len(freq)).
			Int("selected", len(selected)).
			Int64("max_symbol", int64(v.MaxSymbol())).
			Msg("merge pass complete")
	}

	t.log.Info().
		Int("corpus_bytes", res.CorpusBytes).
		Int("iterations", res.Iterations).
		Int("new_symbols", res.MergesAdded).
		Int("vocabulary_size", v.Len()).
		Str("outcome", res.Outcome.String()).
		Msg("training finished")

	return res
}

// buildSequences seeds one symbol sequence per chunk, one symbol per byte.
func buildSequences(chunks []string) [][]vocab.Symbol {
	seqs := make([][]vocab.Symbol, len(chunks))
	for i, chunk := range chunks {
		seq := make([]vocab.Symbol, len(chunk))
		for j := 0; j < len(chunk); j++ {
			seq[j] = vocab.Symbol(chunk[j])
		}
		seqs[i] = seq
	}
	return seqs
}

// compress rewrites a sequence in one left-to-right pass, replacing each
// registered pair with its symbol. A consumed symbol never starts another
// pair in the same pass, and the final symbol passes through unchanged when
// nothing consumed it.
func compress(seq []vocab.Symbol, v *vocab.Vocabulary) []vocab.Symbol {
	if len(seq) < 2 {
		return seq
	}

	out := make([]vocab.Symbol, 0, len(seq))
	i := 0
	for i < len(seq)-1 {
		if s, ok := v.Lookup(vocab.Pair{A: seq[i], B: seq[i+1]}); ok {
			out = append(out, s)
			i += 2
		} else {
			out = append(out, seq[i])
			i++
		}
	}
	if i == len(seq)-1 {
		out = append(out, seq[i])
	}
	return out
}
