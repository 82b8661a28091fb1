// Package encoder tokenizes text against a trained vocabulary. Where the
// trainer discovers merges, the encoder only replays them: within each chunk
// it always applies the earliest-registered merge available, so text the
// trainer saw encodes to the same symbols the trainer ended with.
package encoder

import (
	"cmp"
	"fmt"

	heap "github.com/emirpasic/gods/v2/trees/binaryheap"

	"bpe2go/internal/pkg/bpe2go/pretoken"
	"bpe2go/internal/pkg/bpe2go/vocab"
)

// Encoder applies a vocabulary's merges to new text. It treats the
// vocabulary as read-only and is safe for concurrent use.
type Encoder struct {
	vocab   *vocab.Vocabulary
	chunker *pretoken.Chunker
}

// New builds an encoder over v. The chunker must split text the same way it
// was split during training, or merges will straddle boundaries the
// vocabulary never saw.
func New(v *vocab.Vocabulary, c *pretoken.Chunker) *Encoder {
	return &Encoder{vocab: v, chunker: c}
}

// Encode tokenizes text. Chunks encode independently; bytes not covered by
// any merge pass through as themselves.
func (e *Encoder) Encode(text string) []vocab.Symbol {
	var out []vocab.Symbol
	for _, chunk := range e.chunker.Chunk(text) {
		out = e.appendChunk(out, chunk)
	}
	return out
}

// Decode expands symbols back into bytes. A symbol the vocabulary cannot
// account for is an error.
func (e *Encoder) Decode(symbols []vocab.Symbol) ([]byte, error) {
	var out []byte
	for _, s := range symbols {
		b, ok := e.vocab.Bytes(s)
		if !ok {
			return nil, fmt.Errorf("unknown symbol %d", s)
		}
		out = append(out, b...)
	}
	return out, nil
}

// node is one position in a chunk's doubly linked symbol list. Merging
// folds the right node into the left; prev/next of -1 marks a dead node.
type node struct {
	sym  vocab.Symbol
	prev int
	next int
}

// candidate is an adjacent pair with a registered merge. Candidates go
// stale when a neighbour merges first; they are revalidated on pop.
type candidate struct {
	left   int
	right  int
	merged vocab.Symbol
}

func (e *Encoder) appendChunk(out []vocab.Symbol, chunk string) []vocab.Symbol {
	n := len(chunk)
	if n == 0 {
		return out
	}

	nodes := make([]node, n)
	for i := 0; i < n; i++ {
		nodes[i] = node{sym: vocab.Symbol(chunk[i]), prev: i - 1, next: i + 1}
	}

	pairwise := func(left, right int) (candidate, bool) {
		if left < 0 || right >= n {
			return candidate{}, false
		}
		s, ok := e.vocab.Lookup(vocab.Pair{A: nodes[left].sym, B: nodes[right].sym})
		if !ok {
			return candidate{}, false
		}
		return candidate{left: left, right: right, merged: s}, true
	}

	// Lowest symbol first: merges replay in the order training registered
	// them. Position breaks ties so equal merges run left to right.
	pairs := heap.NewWith(func(a, b candidate) int {
		if a.merged != b.merged {
			return cmp.Compare(a.merged, b.merged)
		}
		return cmp.Compare(a.left, b.left)
	})
	for i := 0; i < n-1; i++ {
		if c, ok := pairwise(i, i+1); ok {
			pairs.Push(c)
		}
	}

	for !pairs.Empty() {
		c, _ := pairs.Pop()

		// Skip candidates broken by an earlier merge, either because the
		// nodes are no longer adjacent or because a symbol changed.
		if nodes[c.left].next != c.right || nodes[c.right].prev != c.left {
			continue
		}
		s, ok := e.vocab.Lookup(vocab.Pair{A: nodes[c.left].sym, B: nodes[c.right].sym})
		if !ok || s != c.merged {
			continue
		}

		nodes[c.left].sym = s
		nodes[c.left].next = nodes[c.right].next
		if nxt := nodes[c.right].next; nxt < n {
			nodes[nxt].prev = c.left
		}
		nodes[c.right].prev, nodes[c.right].next = -1, -1

		if cand, ok := pairwise(nodes[c.left].prev, c.left); ok {
			pairs.Push(cand)
		}
		if cand, ok := pairwise(c.left, nodes[c.left].next); ok {
			pairs.Push(cand)
		}
	}

	for i := 0; i < n; i = nodes[i].next {
		out = append(out, nodes[i].sym)
	}
	return out
}
