package classifier

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXClassifier runs an exported classifier whose output is a [1, K]
// float32 probability tensor. A single session is shared; Run calls are
// serialized.
type ONNXClassifier struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	numFeat    int64
	numClasses int64
}

// NewONNX loads modelPath. The ONNX Runtime shared library is expected next
// to the model as libonnxruntime.so.
func NewONNX(modelPath string) (*ONNXClassifier, error) {
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected 1 input, got %d", len(inputs))
	}
	inDims := inputs[0].Dimensions
	if len(inDims) != 2 || inDims[1] <= 0 {
		return nil, fmt.Errorf("onnx: expected [batch, features] input, got %v", inDims)
	}

	// Exported forests may emit a label tensor before the probabilities; take
	// the first 2D float output.
	outIdx := -1
	for i, o := range outputs {
		if len(o.Dimensions) == 2 && o.DataType == ort.TensorElementDataTypeFloat {
			outIdx = i
			break
		}
	}
	if outIdx < 0 {
		return nil, fmt.Errorf("onnx: model has no [batch, classes] float output")
	}
	out := outputs[outIdx]
	if out.Dimensions[1] <= 0 {
		return nil, fmt.Errorf("onnx: class dimension must be static, got %v", out.Dimensions)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{out.Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNXClassifier{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: out.Name,
		numFeat:    inDims[1],
		numClasses: out.Dimensions[1],
	}, nil
}

// NumClasses returns the width of the probability output.
func (c *ONNXClassifier) NumClasses() int { return int(c.numClasses) }

// PredictProba runs one inference call.
func (c *ONNXClassifier) PredictProba(features []float64) ([]float64, error) {
	if int64(len(features)) != c.numFeat {
		return nil, fmt.Errorf("onnx: got %d features, model expects %d", len(features), c.numFeat)
	}
	in := make([]float32, len(features))
	for i, v := range features {
		in[i] = float32(v)
	}

	tIn, err := ort.NewTensor(ort.NewShape(1, c.numFeat), in)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, c.numClasses))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	c.mu.Lock()
	err = c.session.Run([]ort.Value{tIn}, []ort.Value{tOut})
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	src := tOut.GetData()
	probs := make([]float64, len(src))
	for i, v := range src {
		probs[i] = float64(v)
	}
	return probs, nil
}

// Close releases the ONNX session.
func (c *ONNXClassifier) Close() error {
	return c.session.Destroy()
}
