package embedder

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeSafetensors builds a minimal safetensors file holding linear.weight
// with the given shape and row-major values.
func writeSafetensors(t *testing.T, shape []int, values []float32) string {
	t.Helper()

	payload := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(v))
	}

	header := map[string]any{
		"linear.weight": map[string]any{
			"dtype":        "F32",
			"shape":        shape,
			"data_offsets": []int{0, len(payload)},
		},
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 8, 8+len(headerJSON)+len(payload))
	binary.LittleEndian.PutUint64(buf, uint64(len(headerJSON)))
	buf = append(buf, headerJSON...)
	buf = append(buf, payload...)

	path := filepath.Join(t.TempDir(), "model.safetensors")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDenseAndApply(t *testing.T) {
	// 2x3 weight matrix: out[0] = row0 · vec, out[1] = row1 · vec.
	path := writeSafetensors(t, []int{2, 3}, []float32{
		1, 0, 0,
		0, 2, 0,
	})

	d, err := loadDense(path)
	if err != nil {
		t.Fatalf("loadDense: %v", err)
	}
	if d.inDim != 3 || d.outDim != 2 {
		t.Fatalf("expected 3->2, got %d->%d", d.inDim, d.outDim)
	}

	out := d.apply([]float32{5, 7, 9})
	if out[0] != 5 || out[1] != 14 {
		t.Fatalf("expected [5 14], got %v", out)
	}
}

func TestLoadDenseRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	tiny := filepath.Join(dir, "tiny")
	os.WriteFile(tiny, []byte("abc"), 0o644)
	if _, err := loadDense(tiny); err == nil {
		t.Fatal("expected error for truncated file")
	}

	// Valid framing, wrong tensor name.
	headerJSON, _ := json.Marshal(map[string]any{
		"other.weight": map[string]any{"dtype": "F32", "shape": []int{1, 1}, "data_offsets": []int{0, 4}},
	})
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(len(headerJSON)))
	buf = append(buf, headerJSON...)
	buf = append(buf, 0, 0, 0, 0)
	misnamed := filepath.Join(dir, "misnamed")
	os.WriteFile(misnamed, buf, 0o644)
	if _, err := loadDense(misnamed); err == nil {
		t.Fatal("expected error for missing linear.weight")
	}
}

func TestLoadDenseShapeMismatch(t *testing.T) {
	// Claims 2x2 but carries one float.
	payload := make([]byte, 4)
	headerJSON, _ := json.Marshal(map[string]any{
		"linear.weight": map[string]any{"dtype": "F32", "shape": []int{2, 2}, "data_offsets": []int{0, len(payload)}},
	})
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(len(headerJSON)))
	buf = append(buf, headerJSON...)
	buf = append(buf, payload...)

	path := filepath.Join(t.TempDir(), fmt.Sprintf("bad-%d", len(buf)))
	os.WriteFile(path, buf, 0o644)
	if _, err := loadDense(path); err == nil {
		t.Fatal("expected error for shape/data mismatch")
	}
}
