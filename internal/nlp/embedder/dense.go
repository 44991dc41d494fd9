package embedder

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// denseLayer is the sentence-transformer dense projection loaded from a
// safetensors file: matrix-vector multiply, no bias, identity activation.
type denseLayer struct {
	weights []float32 // row-major [outDim, inDim]
	inDim   int
	outDim  int
}

// loadDense reads a safetensors file containing a single "linear.weight"
// tensor of dtype F32.
func loadDense(path string) (*denseLayer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("dense: file too small: %d bytes", len(data))
	}

	// safetensors layout: 8-byte LE header length, JSON header, raw data.
	headerLen := binary.LittleEndian.Uint64(data[:8])
	if uint64(len(data)) < 8+headerLen {
		return nil, fmt.Errorf("dense: header length %d exceeds file size", headerLen)
	}

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &header); err != nil {
		return nil, fmt.Errorf("dense: parse header: %w", err)
	}

	raw, ok := header["linear.weight"]
	if !ok {
		return nil, fmt.Errorf("dense: tensor 'linear.weight' not found")
	}

	var meta struct {
		Dtype       string `json:"dtype"`
		Shape       []int  `json:"shape"`
		DataOffsets [2]int `json:"data_offsets"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("dense: parse tensor metadata: %w", err)
	}
	if meta.Dtype != "F32" {
		return nil, fmt.Errorf("dense: expected dtype F32, got %s", meta.Dtype)
	}
	if len(meta.Shape) != 2 {
		return nil, fmt.Errorf("dense: expected 2D tensor, got shape %v", meta.Shape)
	}

	outDim, inDim := meta.Shape[0], meta.Shape[1]
	wantBytes := outDim * inDim * 4

	start := int(8+headerLen) + meta.DataOffsets[0]
	end := int(8+headerLen) + meta.DataOffsets[1]
	if end-start != wantBytes {
		return nil, fmt.Errorf("dense: data size %d doesn't match shape %v", end-start, meta.Shape)
	}
	if end > len(data) {
		return nil, fmt.Errorf("dense: data range [%d:%d] exceeds file size %d", start, end, len(data))
	}

	weights := make([]float32, outDim*inDim)
	for i := range weights {
		bits := binary.LittleEndian.Uint32(data[start+i*4 : start+i*4+4])
		weights[i] = math.Float32frombits(bits)
	}

	return &denseLayer{weights: weights, inDim: inDim, outDim: outDim}, nil
}

// apply projects a single vector from inDim to outDim.
func (d *denseLayer) apply(vec []float32) []float32 {
	out := make([]float32, d.outDim)
	for i := 0; i < d.outDim; i++ {
		row := d.weights[i*d.inDim : (i+1)*d.inDim]
		var sum float32
		for j, w := range row {
			sum += w * vec[j]
		}
		out[i] = sum
	}
	return out
}
