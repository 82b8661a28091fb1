package trainer

import (
	"fmt"
	"sort"
	"sync"

	"bpe2go/internal/pkg/bpe2go/vocab"
)

// Strategy picks the pairs to merge in one iteration from the aggregated
// frequency table. An empty result signals convergence. The returned pairs
// must be in a deterministic order; the vocabulary assigns identifiers in
// exactly that order.
type Strategy func(freq map[vocab.Pair]int, lowerLimit int) []vocab.Pair

const (
	// StrategyAllTies merges every pair tied at the target frequency
	// max(highest observed count, lower limit) in the same iteration.
	StrategyAllTies = "all-ties"

	// StrategySingleBest merges only the most frequent pair, breaking ties
	// toward the numerically lowest pair.
	StrategySingleBest = "single-best"

	DefaultStrategy = StrategyAllTies
)

var (
	strategyMu sync.RWMutex
	strategies = make(map[string]Strategy)
)

func RegisterStrategy(name string, s Strategy) {
	strategyMu.Lock()
	defer strategyMu.Unlock()
	if s == nil {
		panic("trainer: RegisterStrategy strategy is nil")
	}
	if _, dup := strategies[name]; dup {
		panic("trainer: RegisterStrategy called twice for " + name)
	}
	strategies[name] = s
}

func strategyFor(name string) (Strategy, error) {
	if name == "" {
		name = DefaultStrategy
	}
	strategyMu.RLock()
	s, ok := strategies[name]
	strategyMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("trainer: unknown strategy %q (registered: %v)", name, ListStrategies())
	}
	return s, nil
}

func ListStrategies() []string {
	strategyMu.RLock()
	defer strategyMu.RUnlock()
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func IsRegisteredStrategy(name string) bool {
	strategyMu.RLock()
	defer strategyMu.RUnlock()
	_, ok := strategies[name]
	return ok
}

func init() {
	RegisterStrategy(StrategyAllTies, selectAllTies)
	RegisterStrategy(StrategySingleBest, selectSingleBest)
}

func selectAllTies(freq map[vocab.Pair]int, lowerLimit int) []vocab.Pair {
	if len(freq) == 0 {
		return nil
	}

	maxCount := 0
	for _, c := range freq {
		if c > maxCount {
			maxCount = c
		}
	}

	// The target is the highest observed count, raised to the lower limit
	// when that is stricter. Nothing qualifies once the corpus falls below
	// the limit.
	target := maxCount
	if lowerLimit > target {
		target = lowerLimit
	}

	var out []vocab.Pair
	for p, c := range freq {
		if c == target {
			out = append(out, p)
		}
	}
	sortPairs(out)
	return out
}

func selectSingleBest(freq map[vocab.Pair]int, lowerLimit int) []vocab.Pair {
	var best vocab.Pair
	bestCount := 0
	for p, c := range freq {
		switch {
		case c > bestCount:
			best, bestCount = p, c
		case c == bestCount && pairLess(p, best):
			best = p
		}
	}
	if bestCount == 0 || bestCount < lowerLimit {
		return nil
	}
	return []vocab.Pair{best}
}

func pairLess(a, b vocab.Pair) bool {
	if a.A != b.A {
		return a.A < b.A
	}
	return a.B < b.B
}

func sortPairs(pairs []vocab.Pair) {
	sort.Slice(pairs, func(i, j int) bool { return pairLess(pairs[i], pairs[j]) })
}
