package feature

import (
	"context"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// initRuntime initializes the shared ONNX Runtime environment once per
// process. An optional shared library path overrides the system default.
func initRuntime(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// ONNXExtractor runs a pretrained image-embedding network locally through
// ONNX Runtime. The network is used purely as a fixed feature transform; no
// training occurs. The session reuses its input/output tensors, so Extract
// serializes inference with a mutex.
type ONNXExtractor struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputSize    int
	dim          int
	model        string
}

// NewONNXExtractor loads the embedding model at modelPath. The input and
// output tensor names follow the ONNX export convention "input"/"output".
func NewONNXExtractor(modelPath, libraryPath, model string, inputSize, dim int) (*ONNXExtractor, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("%w: ONNX model path not configured", ErrExtractorUnavailable)
	}
	if err := initRuntime(libraryPath); err != nil {
		return nil, fmt.Errorf("%w: initializing onnxruntime: %v", ErrExtractorUnavailable, err)
	}

	inputShape := ort.NewShape(1, 3, int64(inputSize), int64(inputSize))
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputShape := ort.NewShape(1, int64(dim))
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"},
		[]string{"output"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("%w: loading model %s: %v", ErrExtractorUnavailable, modelPath, err)
	}

	return &ONNXExtractor{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputSize:    inputSize,
		dim:          dim,
		model:        model,
	}, nil
}

func (e *ONNXExtractor) Kind() Kind {
	return KindEmbedding
}

// Model returns the model preset name being used.
func (e *ONNXExtractor) Model() string {
	return e.model
}

// Dim returns the embedding vector length.
func (e *ONNXExtractor) Dim() int {
	return e.dim
}

// Extract runs one forward pass over the face crop and returns the pooled
// feature vector.
func (e *ONNXExtractor) Extract(_ context.Context, img image.Image) (Representation, error) {
	if e == nil || e.session == nil {
		return Representation{}, ErrExtractorUnavailable
	}
	if img == nil {
		return Representation{}, ErrExtractorUnavailable
	}

	input := preprocessCHW(img, e.inputSize)

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.inputTensor.GetData(), input)

	if err := e.session.Run(); err != nil {
		return Representation{}, fmt.Errorf("run embedding: %w", err)
	}

	embedding := make([]float32, e.dim)
	copy(embedding, e.outputTensor.GetData())

	return Embedding(embedding), nil
}

// Close releases the session and its tensors.
func (e *ONNXExtractor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
		e.inputTensor = nil
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
		e.outputTensor = nil
	}
}

// preprocessCHW resizes the crop to a square and lays the pixels out in CHW
// order, scaled to the [-1, 1] input distribution the model family expects.
func preprocessCHW(img image.Image, side int) []float32 {
	resized := resizeImage(img, side, side)

	data := make([]float32, 3*side*side)
	plane := side * side
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			idx := y*side + x
			data[idx] = float32(r>>8)/127.5 - 1
			data[plane+idx] = float32(g>>8)/127.5 - 1
			data[2*plane+idx] = float32(b>>8)/127.5 - 1
		}
	}
	return data
}
