package vocab

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

const artifactVersion = 1

// artifact is the on-disk form: merges as [a, b, id] triplets in identifier
// order, so the file itself encodes training order.
type artifact struct {
	Version int        `json:"version"`
	Merges  [][3]int64 `json:"merges"`
}

// WriteJSON writes the vocabulary as a versioned JSON artifact.
func (v *Vocabulary) WriteJSON(w io.Writer) error {
	a := artifact{
		Version: artifactVersion,
		Merges:  make([][3]int64, 0, v.Len()),
	}
	for _, m := range v.Merges() {
		a.Merges = append(a.Merges, [3]int64{int64(m.Pair.A), int64(m.Pair.B), int64(m.Symbol)})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// ReadJSON parses a vocabulary artifact, checking that identifiers start at
// FirstMerged or later, strictly increase, and that every pair half is a raw
// byte or an identifier assigned earlier in the file.
func ReadJSON(r io.Reader) (*Vocabulary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary JSON: %w", err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("unsupported vocabulary version %d", a.Version)
	}

	v := New()
	for i, m := range a.Merges {
		p := Pair{A: Symbol(m[0]), B: Symbol(m[1])}
		id := Symbol(m[2])

		if id <= v.maxID {
			return nil, fmt.Errorf("merge %d: identifier %d does not increase", i, id)
		}
		if !v.Known(p.A) || !v.Known(p.B) {
			return nil, fmt.Errorf("merge %d: pair (%d,%d) references an unassigned symbol", i, p.A, p.B)
		}
		if _, ok := v.pairs[p]; ok {
			return nil, fmt.Errorf("merge %d: pair (%d,%d) registered twice", i, p.A, p.B)
		}

		v.pairs[p] = id
		v.byID[id] = p
		v.maxID = id
	}

	return v, nil
}

// WriteMerges writes one "a b id" line per merge in identifier order, a
// plain-text view of the same table.
func (v *Vocabulary) WriteMerges(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, m := range v.Merges() {
		if _, err := fmt.Fprintf(bw, "%d %d %d\n", m.Pair.A, m.Pair.B, m.Symbol); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Save writes the JSON artifact to path.
func (v *Vocabulary) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create vocabulary file: %w", err)
	}
	defer f.Close()

	if err := v.WriteJSON(f); err != nil {
		return fmt.Errorf("failed to write vocabulary: %w", err)
	}
	return nil
}

// SaveMerges writes the plain-text merge list to path.
func (v *Vocabulary) SaveMerges(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create merges file: %w", err)
	}
	defer f.Close()

	if err := v.WriteMerges(f); err != nil {
		return fmt.Errorf("failed to write merges: %w", err)
	}
	return nil
}

// Load reads a JSON artifact from path.
func Load(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary file: %w", err)
	}
	defer f.Close()

	v, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return v, nil
}
