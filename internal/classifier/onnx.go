package classifier

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXOptions names the runtime library and the graph's input/output tensors.
// Defaults match a classifier exported by skl2onnx with zipmap disabled.
type ONNXOptions struct {
	LibraryPath       string
	InputName         string
	LabelOutput       string
	ProbabilityOutput string
}

func (o *ONNXOptions) applyDefaults() {
	if o.InputName == "" {
		o.InputName = "input"
	}
	if o.LabelOutput == "" {
		o.LabelOutput = "label"
	}
	if o.ProbabilityOutput == "" {
		o.ProbabilityOutput = "probabilities"
	}
}

var ortInitMu sync.Mutex

// ONNXModel runs a classifier through ONNX Runtime. The session's tensors are
// bound at construction, so runs are serialized.
type ONNXModel struct {
	mu       sync.Mutex
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	label    *ort.Tensor[int64]
	probs    *ort.Tensor[float32]
	features int
	classes  int
}

// NewONNXModel opens an ONNX classifier expecting a [1, Features] float input.
func NewONNXModel(path string, opts Options) (*ONNXModel, error) {
	if opts.Features <= 0 || opts.Classes <= 0 {
		return nil, errors.New("onnx model needs feature and class counts")
	}
	opts.ONNX.applyDefaults()
	if err := initRuntime(opts.ONNX.LibraryPath); err != nil {
		return nil, err
	}

	m := &ONNXModel{features: opts.Features, classes: opts.Classes}
	var err error
	if m.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(opts.Features))); err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	if m.label, err = ort.NewEmptyTensor[int64](ort.NewShape(1)); err != nil {
		m.Close()
		return nil, fmt.Errorf("create label tensor: %w", err)
	}
	if m.probs, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(opts.Classes))); err != nil {
		m.Close()
		return nil, fmt.Errorf("create probability tensor: %w", err)
	}

	m.session, err = ort.NewAdvancedSession(path,
		[]string{opts.ONNX.InputName},
		[]string{opts.ONNX.LabelOutput, opts.ONNX.ProbabilityOutput},
		[]ort.Value{m.input},
		[]ort.Value{m.label, m.probs},
		nil)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return m, nil
}

func initRuntime(libraryPath string) error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}
	return nil
}

func (m *ONNXModel) NumFeatures() int { return m.features }

func (m *ONNXModel) run(features []float64) (int, []float64, error) {
	if err := checkWidth(features, m.features); err != nil {
		return 0, nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	in := m.input.GetData()
	for i, v := range features {
		in[i] = float32(v)
	}
	if err := m.session.Run(); err != nil {
		return 0, nil, fmt.Errorf("run onnx session: %w", err)
	}

	raw := m.probs.GetData()
	probs := make([]float64, len(raw))
	for i, p := range raw {
		probs[i] = float64(p)
	}
	return int(m.label.GetData()[0]), probs, nil
}

func (m *ONNXModel) Predict(features []float64) (int, error) {
	code, _, err := m.run(features)
	return code, err
}

func (m *ONNXModel) PredictProba(features []float64) ([]float64, error) {
	_, probs, err := m.run(features)
	return probs, err
}

// Close destroys the session and its tensors. The runtime environment stays up.
func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	if m.session != nil {
		errs = append(errs, m.session.Destroy())
		m.session = nil
	}
	if m.input != nil {
		errs = append(errs, m.input.Destroy())
		m.input = nil
	}
	if m.label != nil {
		errs = append(errs, m.label.Destroy())
		m.label = nil
	}
	if m.probs != nil {
		errs = append(errs, m.probs.Destroy())
		m.probs = nil
	}
	return errors.Join(errs...)
}
