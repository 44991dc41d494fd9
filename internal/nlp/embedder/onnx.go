package embedder

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv guards global ONNX Runtime initialization. The runtime is a
// process-wide singleton; init is idempotent and safe for concurrent
// first-use, read-only afterwards.
var ortEnv struct {
	once sync.Once
	err  error
}

func initRuntime(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNX is the local sentence-embedding capability backed by an ONNX model.
// Safe for concurrent use after construction.
type ONNX struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
	hiddenDim  int64
	tok        *wordPiece
	dense      *denseLayer
}

// New loads the ONNX model, vocabulary, and dense projection weights. The
// runtime shared library is expected alongside the model file.
func New(modelPath, vocabPath, densePath string) (*ONNX, error) {
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initRuntime(libPath); err != nil {
		return nil, fmt.Errorf("embedder: init runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("embedder: read model info: %w", err)
	}

	inputNames, err := bertInputs(inputs)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("embedder: model has no outputs")
	}
	dims := outputs[0].Dimensions
	if len(dims) != 3 {
		return nil, fmt.Errorf("embedder: expected 3D output tensor, got %v", dims)
	}
	hiddenDim := dims[2]

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("embedder: session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("embedder: create session: %w", err)
	}

	tok, err := newWordPiece(vocabPath)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("embedder: %w", err)
	}

	dense, err := loadDense(densePath)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if int64(dense.inDim) != hiddenDim {
		session.Destroy()
		return nil, fmt.Errorf("embedder: model hidden dim %d != dense input dim %d", hiddenDim, dense.inDim)
	}

	return &ONNX{
		session:    session,
		inputNames: inputNames,
		hiddenDim:  hiddenDim,
		tok:        tok,
		dense:      dense,
	}, nil
}

// bertInputs checks that the model exposes BERT-style input tensors and
// returns their names in call order.
func bertInputs(inputs []ort.InputOutputInfo) ([]string, error) {
	present := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		present[in.Name] = true
	}
	required := []string{"input_ids", "attention_mask", "token_type_ids"}
	for _, name := range required {
		if !present[name] {
			return nil, fmt.Errorf("embedder: model missing required input %q", name)
		}
	}
	return required, nil
}

// Dim returns the final embedding dimensionality (after projection).
func (o *ONNX) Dim() int {
	return o.dense.outDim
}

// Embed produces one embedding vector for the given text.
func (o *ONNX) Embed(text string) ([]float32, error) {
	vecs, err := o.EmbedBatch([]string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch produces embedding vectors for multiple texts in one inference
// call.
func (o *ONNX) EmbedBatch(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := o.tok.encodeBatch(texts)
	hidden, err := o.infer(batch)
	if err != nil {
		return nil, err
	}

	pooled := meanPool(hidden, batch.attentionMask, batch.batchSize, batch.seqLen, o.hiddenDim)

	results := make([][]float32, batch.batchSize)
	for i := int64(0); i < batch.batchSize; i++ {
		results[i] = o.dense.apply(pooled[i*o.hiddenDim : (i+1)*o.hiddenDim])
	}
	return results, nil
}

// infer runs a single ONNX call and returns the per-token hidden states as a
// flat [batchSize * seqLen * hiddenDim] slice.
func (o *ONNX) infer(batch encoded) ([]float32, error) {
	shape := ort.NewShape(batch.batchSize, batch.seqLen)

	tIDs, err := ort.NewTensor(shape, batch.inputIDs)
	if err != nil {
		return nil, fmt.Errorf("embedder: input_ids tensor: %w", err)
	}
	defer tIDs.Destroy()

	tMask, err := ort.NewTensor(shape, batch.attentionMask)
	if err != nil {
		return nil, fmt.Errorf("embedder: attention_mask tensor: %w", err)
	}
	defer tMask.Destroy()

	tTypes, err := ort.NewTensor(shape, batch.tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("embedder: token_type_ids tensor: %w", err)
	}
	defer tTypes.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(batch.batchSize, batch.seqLen, o.hiddenDim))
	if err != nil {
		return nil, fmt.Errorf("embedder: output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := o.session.Run([]ort.Value{tIDs, tMask, tTypes}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("embedder: inference failed: %w", err)
	}

	// Copy out before the tensor is destroyed.
	src := tOut.GetData()
	out := make([]float32, len(src))
	copy(out, src)
	return out, nil
}

// Close releases ONNX Runtime resources.
func (o *ONNX) Close() error {
	if o.session != nil {
		return o.session.Destroy()
	}
	return nil
}
