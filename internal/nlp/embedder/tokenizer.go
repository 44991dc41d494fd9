package embedder

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Emergency-call transcripts run longer than single log lines, so the
// sequence budget is generous.
const maxSeqLen = 256

// encoded holds tokenized input ready for ONNX inference. All slices are
// flat: [batchSize * seqLen].
type encoded struct {
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
	batchSize     int64
	seqLen        int64
}

// wordPiece performs BERT-style WordPiece tokenization.
type wordPiece struct {
	vocab *vocabulary
}

func newWordPiece(vocabPath string) (*wordPiece, error) {
	v, err := loadVocabulary(vocabPath)
	if err != nil {
		return nil, err
	}
	return &wordPiece{vocab: v}, nil
}

// encode converts a single text into padded token IDs with [CLS] and [SEP],
// truncated to maxSeqLen.
func (w *wordPiece) encode(text string) (inputIDs, attentionMask []int64) {
	tokens := w.subwords(w.pretokenize(text))

	maxTokens := maxSeqLen - 2
	if len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	ids := make([]int64, maxSeqLen)
	mask := make([]int64, maxSeqLen)

	ids[0] = w.vocab.clsID
	mask[0] = 1
	for i, tok := range tokens {
		ids[i+1] = w.vocab.lookup(tok)
		mask[i+1] = 1
	}
	ids[len(tokens)+1] = w.vocab.sepID
	mask[len(tokens)+1] = 1
	// Remaining positions stay 0 (padID=0, mask=0).

	return ids, mask
}

// encodeBatch tokenizes multiple texts into flat slices padded to the longest
// sequence in the batch (capped at maxSeqLen).
func (w *wordPiece) encodeBatch(texts []string) encoded {
	n := len(texts)
	if n == 0 {
		return encoded{}
	}

	type seq struct {
		ids  []int64
		mask []int64
	}
	seqs := make([]seq, n)
	longest := int64(0)

	for i, text := range texts {
		ids, mask := w.encode(text)
		var real int64
		for _, m := range mask {
			real += m
		}
		seqs[i] = seq{ids: ids, mask: mask}
		if real > longest {
			longest = real
		}
	}

	batchSize := int64(n)
	seqLen := longest
	total := batchSize * seqLen

	out := encoded{
		inputIDs:      make([]int64, total),
		attentionMask: make([]int64, total),
		tokenTypeIDs:  make([]int64, total), // all zeros
		batchSize:     batchSize,
		seqLen:        seqLen,
	}
	for i, s := range seqs {
		off := int64(i) * seqLen
		copy(out.inputIDs[off:off+seqLen], s.ids[:seqLen])
		copy(out.attentionMask[off:off+seqLen], s.mask[:seqLen])
	}
	return out
}

// pretokenize applies BERT's BasicTokenizer: clean, lowercase, strip accents,
// split on whitespace and punctuation.
func (w *wordPiece) pretokenize(text string) []string {
	text = cleanText(text)
	text = strings.ToLower(text)
	text = stripAccents(text)

	var tokens []string
	for _, word := range strings.Fields(text) {
		tokens = append(tokens, splitPunct(word)...)
	}
	return tokens
}

// subwords applies the WordPiece algorithm to basic tokens.
func (w *wordPiece) subwords(tokens []string) []string {
	var result []string
	for _, token := range tokens {
		if token == "" {
			continue
		}
		result = append(result, w.subword(token)...)
	}
	return result
}

// subword greedily decomposes one basic token into vocabulary subwords.
func (w *wordPiece) subword(token string) []string {
	runes := []rune(token)
	if len(runes) > 200 {
		return []string{"[UNK]"}
	}

	var parts []string
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := false
		for end > start {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if w.vocab.contains(sub) {
				parts = append(parts, sub)
				found = true
				break
			}
			end--
		}
		if !found {
			return []string{"[UNK]"}
		}
		start = end
	}
	return parts
}

// cleanText removes control characters and collapses whitespace runes to
// plain spaces.
func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if isWhitespace(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripAccents removes combining diacritical marks after NFD normalization.
func stripAccents(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFD.String(text) {
		if unicode.In(r, unicode.Mn) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitPunct splits a word at each punctuation character, keeping the
// punctuation as separate tokens.
func splitPunct(word string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range word {
		if isPunctuation(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			tokens = append(tokens, string(r))
		} else {
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// Character classes below match BERT's reference implementation.

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
