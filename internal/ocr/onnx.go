package ocr

import (
	"context"
	"image"
	"sync"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/ironsheep/plate-recognizer/internal/plate"
)

// DefaultInputHeight is the height plate crops are resized to before
// inference.
const DefaultInputHeight = 64

// CTCOptions configures a CTC reader.
type CTCOptions struct {
	// ModelPath is the .onnx model file.
	ModelPath string

	// CharsetPath optionally overrides DefaultCharset, see LoadCharset.
	CharsetPath string

	// RuntimePath is the onnxruntime shared library. Empty keeps the
	// library's platform default.
	RuntimePath string

	// InputHeight is the model's fixed input height. Zero means
	// DefaultInputHeight.
	InputHeight int
}

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// initRuntime loads the onnxruntime library once per process.
func initRuntime(path string) error {
	runtimeOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if path != "" {
			ort.SetSharedLibraryPath(path)
		}
		runtimeErr = ort.InitializeEnvironment()
	})
	return runtimeErr
}

// newSessionOptions returns single-threaded session options; reads are
// serialized by CTC anyway.
func newSessionOptions() (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrapf(ErrEngineInit, "onnx session options: %v", err)
	}
	if err := options.SetIntraOpNumThreads(1); err != nil {
		options.Destroy()
		return nil, errors.Wrapf(ErrEngineInit, "onnx intra-op threads: %v", err)
	}
	if err := options.SetInterOpNumThreads(1); err != nil {
		options.Destroy()
		return nil, errors.Wrapf(ErrEngineInit, "onnx inter-op threads: %v", err)
	}
	return options, nil
}

// CTC reads plate text with an ONNX CRNN model and greedy CTC decoding.
type CTC struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	options *ort.SessionOptions
	charset []string
	height  int
}

// NewCTC loads the model and charset described by opts.
func NewCTC(opts CTCOptions) (*CTC, error) {
	if opts.ModelPath == "" {
		return nil, errors.Wrap(ErrEngineInit, "onnx: model path is required")
	}

	charset := DefaultCharset
	if opts.CharsetPath != "" {
		cs, err := LoadCharset(opts.CharsetPath)
		if err != nil {
			return nil, errors.Wrapf(ErrEngineInit, "onnx: %v", err)
		}
		charset = cs
	}

	height := opts.InputHeight
	if height <= 0 {
		height = DefaultInputHeight
	}

	if err := initRuntime(opts.RuntimePath); err != nil {
		return nil, errors.Wrapf(ErrEngineInit, "onnx runtime: %v", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return nil, errors.Wrapf(ErrEngineInit, "onnx model %s: %v", opts.ModelPath, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.Wrapf(ErrEngineInit, "onnx model %s has no inputs or outputs", opts.ModelPath)
	}

	options, err := newSessionOptions()
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, options)
	if err != nil {
		options.Destroy()
		return nil, errors.Wrapf(ErrEngineInit, "onnx session: %v", err)
	}

	return &CTC{
		session: session,
		options: options,
		charset: charset,
		height:  height,
	}, nil
}

// Read runs the model over img and returns at most one candidate.
func (c *CTC) Read(ctx context.Context, img image.Image) ([]plate.RawCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Empty() {
		return []plate.RawCandidate{}, nil
	}

	width := b.Dx() * c.height / b.Dy()
	if width < 1 {
		width = 1
	}
	resized := resize.Resize(uint(width), uint(c.height), img, resize.Bilinear)

	input, err := ort.NewTensor(ort.NewShape(1, 1, int64(c.height), int64(width)), normalizeGray(resized))
	if err != nil {
		return nil, errors.Wrap(err, "create input tensor")
	}
	defer input.Destroy()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, errors.New("onnx reader is closed")
	}

	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, errors.Wrap(err, "run model")
	}
	if outputs[0] == nil {
		return nil, errors.New("model produced no output")
	}
	defer outputs[0].Destroy()

	scores, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.Errorf("unsupported output type %T", outputs[0])
	}

	text, confidence := DecodeCTC(scores.GetData(), scores.GetShape(), c.charset)
	if text == "" {
		return []plate.RawCandidate{}, nil
	}
	return []plate.RawCandidate{{Text: text, Confidence: confidence, Bounds: b}}, nil
}

// Close releases the session. It is safe to call more than once.
func (c *CTC) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	if derr := c.options.Destroy(); err == nil {
		err = derr
	}
	c.session = nil
	c.options = nil
	return err
}

// normalizeGray flattens img row-major into luminance values scaled to
// [-1, 1].
func normalizeGray(img image.Image) []float32 {
	b := img.Bounds()
	out := make([]float32, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			gray := float32(0.299*float64(r)+0.587*float64(g)+0.114*float64(bl)) / 65535.0
			out = append(out, (gray-0.5)/0.5)
		}
	}
	return out
}
