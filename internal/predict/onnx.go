package predict

import (
	"fmt"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var ortInitOnce sync.Once

func initORT() error {
	var err error
	ortInitOnce.Do(func() {
		libPath := "/usr/lib/libonnxruntime.so"
		switch runtime.GOOS {
		case "windows":
			libPath = "onnxruntime.dll"
		case "darwin":
			libPath = "libonnxruntime.dylib"
		}
		ort.SetSharedLibraryPath(libPath)
		err = ort.InitializeEnvironment()
	})
	return err
}

// ONNXPredictor runs a single-input single-output ONNX model through the
// onnxruntime shared library. Tensors are allocated once and reused
// across calls.
type ONNXPredictor struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewONNX loads the model at path. inputLen and outputLen describe the
// flat feature and score vector sizes; the model is fed a [1, inputLen]
// tensor.
func NewONNX(path, inputName, outputName string, inputLen, outputLen int) (*ONNXPredictor, error) {
	if err := initORT(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(inputLen)), make([]float32, inputLen))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(outputLen)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(path,
		[]string{inputName}, []string{outputName},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create session for %s: %w", path, err)
	}

	return &ONNXPredictor{session: session, input: input, output: output}, nil
}

func (p *ONNXPredictor) Predict(features []float64) ([]float64, error) {
	data := p.input.GetData()
	if len(features) != len(data) {
		return nil, fmt.Errorf("expected %d features, got %d", len(data), len(features))
	}
	for i, f := range features {
		data[i] = float32(f)
	}
	if err := p.session.Run(); err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	out := p.output.GetData()
	scores := make([]float64, len(out))
	for i, v := range out {
		scores[i] = float64(v)
	}
	return scores, nil
}

func (p *ONNXPredictor) Close() error {
	if p.session != nil {
		p.session.Destroy()
	}
	if p.input != nil {
		p.input.Destroy()
	}
	if p.output != nil {
		p.output.Destroy()
	}
	return nil
}
