package embedder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeVocab writes a vocab.txt with the special tokens first, then the given
// extra tokens, and returns its path.
func writeVocab(t *testing.T, extra ...string) string {
	t.Helper()
	lines := append([]string{"[PAD]", "[UNK]", "[CLS]", "[SEP]"}, extra...)
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestTokenizer(t *testing.T, extra ...string) *wordPiece {
	t.Helper()
	tok, err := newWordPiece(writeVocab(t, extra...))
	if err != nil {
		t.Fatalf("newWordPiece: %v", err)
	}
	return tok
}

func TestPretokenizeLowercasesAndSplits(t *testing.T) {
	tok := newTestTokenizer(t)
	got := tok.pretokenize("Patient NOT breathing, send help!")
	want := []string{"patient", "not", "breathing", ",", "send", "help", "!"}
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestPretokenizeStripsAccentsAndControls(t *testing.T) {
	tok := newTestTokenizer(t)
	got := tok.pretokenize("café\x00\tfire")
	if len(got) != 2 || got[0] != "cafe" || got[1] != "fire" {
		t.Fatalf("unexpected tokens: %v", got)
	}
}

func TestSubwordDecomposition(t *testing.T) {
	tok := newTestTokenizer(t, "bleed", "##ing")
	got := tok.subwords([]string{"bleeding"})
	if len(got) != 2 || got[0] != "bleed" || got[1] != "##ing" {
		t.Fatalf("expected [bleed ##ing], got %v", got)
	}
}

func TestSubwordUnknown(t *testing.T) {
	tok := newTestTokenizer(t, "fire")
	got := tok.subwords([]string{"zzqqx"})
	if len(got) != 1 || got[0] != "[UNK]" {
		t.Fatalf("expected [UNK], got %v", got)
	}
}

func TestEncodeFramesWithClsAndSep(t *testing.T) {
	tok := newTestTokenizer(t, "fire")
	ids, mask := tok.encode("fire")

	if len(ids) != maxSeqLen || len(mask) != maxSeqLen {
		t.Fatalf("expected padded length %d, got %d/%d", maxSeqLen, len(ids), len(mask))
	}
	// [CLS]=2 fire=4 [SEP]=3, then padding.
	if ids[0] != 2 || ids[1] != 4 || ids[2] != 3 {
		t.Fatalf("unexpected id framing: %v", ids[:4])
	}
	if mask[0] != 1 || mask[1] != 1 || mask[2] != 1 || mask[3] != 0 {
		t.Fatalf("unexpected mask framing: %v", mask[:4])
	}
}

func TestEncodeBatchPadsToLongest(t *testing.T) {
	tok := newTestTokenizer(t, "fire", "house")
	batch := tok.encodeBatch([]string{"fire", "fire house"})

	if batch.batchSize != 2 {
		t.Fatalf("expected batch size 2, got %d", batch.batchSize)
	}
	// Longest sequence: [CLS] fire house [SEP] = 4 real tokens.
	if batch.seqLen != 4 {
		t.Fatalf("expected seqLen 4, got %d", batch.seqLen)
	}
	if int64(len(batch.inputIDs)) != batch.batchSize*batch.seqLen {
		t.Fatalf("flat slice length mismatch: %d", len(batch.inputIDs))
	}
	// First sequence has one padding slot at the end.
	if batch.attentionMask[3] != 0 {
		t.Fatalf("expected padding in first sequence, mask=%v", batch.attentionMask[:4])
	}
	if batch.attentionMask[7] != 1 {
		t.Fatalf("expected full mask in second sequence, mask=%v", batch.attentionMask[4:8])
	}
}

func TestEncodeBatchEmpty(t *testing.T) {
	tok := newTestTokenizer(t)
	batch := tok.encodeBatch(nil)
	if batch.batchSize != 0 {
		t.Fatalf("expected empty batch, got %d", batch.batchSize)
	}
}

func TestVocabMissingSpecialToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte("[PAD]\n[UNK]\n[CLS]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadVocabulary(path); err == nil {
		t.Fatal("expected error for vocab missing [SEP]")
	}
}
