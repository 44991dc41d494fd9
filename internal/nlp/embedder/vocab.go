package embedder

import (
	"bufio"
	"fmt"
	"os"
)

// vocabulary holds a WordPiece vocabulary loaded from a vocab.txt file.
// Token IDs are line numbers (0-indexed).
type vocabulary struct {
	ids map[string]int64

	padID int64
	unkID int64
	clsID int64
	sepID int64
}

// loadVocabulary reads a vocab.txt file, one token per line.
func loadVocabulary(path string) (*vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	defer f.Close()

	ids := make(map[string]int64, 32000)
	var count int64

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ids[scanner.Text()] = count
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read error: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("vocab: file is empty: %s", path)
	}

	v := &vocabulary{ids: ids}
	for _, s := range []struct {
		name string
		dest *int64
	}{
		{"[PAD]", &v.padID},
		{"[UNK]", &v.unkID},
		{"[CLS]", &v.clsID},
		{"[SEP]", &v.sepID},
	} {
		id, ok := ids[s.name]
		if !ok {
			return nil, fmt.Errorf("vocab: missing special token %s", s.name)
		}
		*s.dest = id
	}
	return v, nil
}

// lookup returns the token ID, or the [UNK] ID for unknown tokens.
func (v *vocabulary) lookup(token string) int64 {
	if id, ok := v.ids[token]; ok {
		return id
	}
	return v.unkID
}

func (v *vocabulary) contains(token string) bool {
	_, ok := v.ids[token]
	return ok
}
