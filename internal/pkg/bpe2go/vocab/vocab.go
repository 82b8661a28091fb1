// Package vocab holds the byte pair encoding merge table: an append-only
// mapping from symbol pairs to merged symbol identifiers. Identifiers below
// FirstMerged are raw bytes; everything above encodes training order.
package vocab

import (
	"sort"
)

// Symbol identifies one token. Values 0-255 stand for the raw byte of the
// same value; FirstMerged and above stand for registered pairs. int64 keeps
// the identifier space comfortably ahead of any corpus-times-iterations bound.
type Symbol int64

// FirstMerged is the first identifier available to merged pairs.
const FirstMerged Symbol = 256

// Pair is symbol A immediately followed by symbol B.
type Pair struct {
	A Symbol
	B Symbol
}

// Merge is one registered pair together with its assigned identifier.
type Merge struct {
	Pair   Pair
	Symbol Symbol
}

// Vocabulary is the trained artifact. Registration only ever adds entries;
// an identifier, once assigned, never changes or gets reused. Not safe for
// concurrent mutation; Snapshot copies are safe to hand out.
type Vocabulary struct {
	pairs map[Pair]Symbol
	byID  map[Symbol]Pair
	maxID Symbol
}

func New() *Vocabulary {
	return &Vocabulary{
		pairs: make(map[Pair]Symbol),
		byID:  make(map[Symbol]Pair),
		maxID: FirstMerged - 1,
	}
}

// Register assigns the next free identifiers to the given pairs in slice
// order, starting one past the highest identifier assigned so far (FirstMerged
// for an empty vocabulary). A pair that is already present keeps its
// identifier and consumes no new one. Returns how many pairs were new.
func (v *Vocabulary) Register(pairs []Pair) int {
	added := 0
	for _, p := range pairs {
		if _, ok := v.pairs[p]; ok {
			continue
		}
		v.maxID++
		v.pairs[p] = v.maxID
		v.byID[v.maxID] = p
		added++
	}
	return added
}

// Lookup returns the identifier assigned to p, if any.
func (v *Vocabulary) Lookup(p Pair) (Symbol, bool) {
	s, ok := v.pairs[p]
	return s, ok
}

// PairOf is the inverse of Lookup.
func (v *Vocabulary) PairOf(s Symbol) (Pair, bool) {
	p, ok := v.byID[s]
	return p, ok
}

func (v *Vocabulary) Len() int {
	return len(v.pairs)
}

// MaxSymbol returns the highest assigned identifier, or FirstMerged-1 when
// the vocabulary is empty.
func (v *Vocabulary) MaxSymbol() Symbol {
	return v.maxID
}

// Known reports whether s may appear inside a symbol sequence: a raw byte or
// an identifier this vocabulary has assigned.
func (v *Vocabulary) Known(s Symbol) bool {
	if s >= 0 && s < FirstMerged {
		return true
	}
	_, ok := v.byID[s]
	return ok
}

// Snapshot returns a copy of the pair table. Registrations made after the
// call do not show through it.
func (v *Vocabulary) Snapshot() map[Pair]Symbol {
	out := make(map[Pair]Symbol, len(v.pairs))
	for p, s := range v.pairs {
		out[p] = s
	}
	return out
}

// Clone returns an independently owned copy. Training on a clone leaves the
// original untouched.
func (v *Vocabulary) Clone() *Vocabulary {
	c := New()
	for p, s := range v.pairs {
		c.pairs[p] = s
		c.byID[s] = p
		if s > c.maxID {
			c.maxID = s
		}
	}
	return c
}

// Merges lists all registered merges in identifier order.
func (v *Vocabulary) Merges() []Merge {
	out := make([]Merge, 0, len(v.pairs))
	for p, s := range v.pairs {
		out = append(out, Merge{Pair: p, Symbol: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Bytes expands a symbol to the raw bytes it spans: a merged symbol expands
// to the expansion of its left half followed by its right half. The returned
// slice is freshly allocated on every call.
func (v *Vocabulary) Bytes(s Symbol) ([]byte, bool) {
	if s >= 0 && s < FirstMerged {
		return []byte{byte(s)}, true
	}
	p, ok := v.byID[s]
	if !ok {
		return nil, false
	}
	left, ok := v.Bytes(p.A)
	if !ok {
		return nil, false
	}
	right, ok := v.Bytes(p.B)
	if !ok {
		return nil, false
	}
	return append(left, right...), true
}
