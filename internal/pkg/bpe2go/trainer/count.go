package trainer

import (
	"golang.org/x/sync/errgroup"

	"bpe2go/internal/pkg/bpe2go/vocab"
)

// countPairs tallies every adjacent pair in a single sequence. All positions
// count, including overlapping ones: [a a a] yields (a,a) twice.
func countPairs(seq []vocab.Symbol) map[vocab.Pair]int {
	if len(seq) < 2 {
		return nil
	}
	freq := make(map[vocab.Pair]int, len(seq)-1)
	for i := 0; i < len(seq)-1; i++ {
		freq[vocab.Pair{A: seq[i], B: seq[i+1]}]++
	}
	return freq
}

// countAll aggregates pair counts over every sequence, fanning out across
// workers when the trainer is configured for it.
func (t *Trainer) countAll(seqs [][]vocab.Symbol) map[vocab.Pair]int {
	if t.cfg.Workers > 1 && len(seqs) > 1 {
		return countParallel(seqs, t.cfg.Workers)
	}

	freq := make(map[vocab.Pair]int)
	for _, seq := range seqs {
		for i := 0; i < len(seq)-1; i++ {
			freq[vocab.Pair{A: seq[i], B: seq[i+1]}]++
		}
	}
	return freq
}

// countParallel counts each sequence on its own goroutine, at most workers
// at a time, then sums the per-sequence tables. Addition per pair commutes,
// so completion order cannot change the totals.
func countParallel(seqs [][]vocab.Symbol, workers int) map[vocab.Pair]int {
	partials := make([]map[vocab.Pair]int, len(seqs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, seq := range seqs {
		g.Go(func() error {
			partials[i] = countPairs(seq)
			return nil
		})
	}
	_ = g.Wait() // counting goroutines never fail

	freq := make(map[vocab.Pair]int)
	for _, partial := range partials {
		for p, c := range partial {
			freq[p] += c
		}
	}
	return freq
}
